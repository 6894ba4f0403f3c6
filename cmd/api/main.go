package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/careconnect/api/internal/config"
	"github.com/careconnect/api/internal/handler"
	appointmenthandler "github.com/careconnect/api/internal/handler/appointment"
	authhandler "github.com/careconnect/api/internal/handler/auth"
	chathandler "github.com/careconnect/api/internal/handler/chat"
	doctorhandler "github.com/careconnect/api/internal/handler/doctor"
	emergencyhandler "github.com/careconnect/api/internal/handler/emergency"
	medicalhandler "github.com/careconnect/api/internal/handler/medical"
	patienthandler "github.com/careconnect/api/internal/handler/patient"
	"github.com/careconnect/api/internal/repository/postgres"
	"github.com/careconnect/api/internal/router"
	"github.com/careconnect/api/internal/service/appointment"
	authservice "github.com/careconnect/api/internal/service/auth"
	chatservice "github.com/careconnect/api/internal/service/chat"
	doctorservice "github.com/careconnect/api/internal/service/doctor"
	emergencyservice "github.com/careconnect/api/internal/service/emergency"
	"github.com/careconnect/api/internal/service/event"
	medicalservice "github.com/careconnect/api/internal/service/medical"
	patientservice "github.com/careconnect/api/internal/service/patient"
	"github.com/careconnect/api/pkg/auth"
	"github.com/careconnect/api/pkg/logger"
	"github.com/careconnect/api/pkg/security"
)

func main() {
	cfg, err := config.Load("./config")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	recordRepo := postgres.NewMedicalRecordRepository(db)
	chatRepo := postgres.NewChatRepository(db)
	emergencyRepo := postgres.NewEmergencyRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	tokens := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        cfg.JWT.Expiry,
		RefreshExpiry: cfg.JWT.RefreshExpiry,
	})
	hasher := security.NewBcryptHasher(0)
	emitter := event.NewOutboxEmitter(outboxRepo)

	checker := appointment.NewChecker(appointmentRepo)
	appointmentSvc := appointment.NewService(appointmentRepo, doctorRepo, patientRepo, checker, emitter, log)
	authSvc := authservice.NewService(userRepo, doctorRepo, patientRepo, tokens, hasher, log)
	doctorSvc := doctorservice.NewService(doctorRepo, log)
	patientSvc := patientservice.NewService(patientRepo, doctorRepo, appointmentRepo, log)
	medicalSvc := medicalservice.NewService(recordRepo, doctorRepo, patientRepo, appointmentRepo, log)
	chatSvc := chatservice.NewService(chatRepo, log)
	emergencySvc := emergencyservice.NewService(emergencyRepo, doctorRepo, patientRepo, emitter, log)

	engine := router.New(cfg, log, tokens, router.Handlers{
		Health:      handler.NewHealthHandler(db),
		Auth:        authhandler.NewHandler(authSvc),
		Appointment: appointmenthandler.NewHandler(appointmentSvc),
		Doctor:      doctorhandler.NewHandler(doctorSvc),
		Patient:     patienthandler.NewHandler(patientSvc),
		Medical:     medicalhandler.NewHandler(medicalSvc),
		Chat:        chathandler.NewHandler(chatSvc),
		Emergency:   emergencyhandler.NewHandler(emergencySvc),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("server listening", map[string]interface{}{"port": cfg.Server.Port})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "graceful shutdown failed")
	}
}

func newLogger(cfg *config.Config) *logger.Logger {
	level := logger.InfoLevel
	switch cfg.Logging.Level {
	case "debug":
		level = logger.DebugLevel
	case "warn":
		level = logger.WarnLevel
	case "error":
		level = logger.ErrorLevel
	}
	return logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Pretty:     cfg.Logging.Pretty,
	})
}
