package router

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/careconnect/api/internal/config"
	"github.com/careconnect/api/internal/handler"
	appointmenthandler "github.com/careconnect/api/internal/handler/appointment"
	authhandler "github.com/careconnect/api/internal/handler/auth"
	chathandler "github.com/careconnect/api/internal/handler/chat"
	doctorhandler "github.com/careconnect/api/internal/handler/doctor"
	emergencyhandler "github.com/careconnect/api/internal/handler/emergency"
	medicalhandler "github.com/careconnect/api/internal/handler/medical"
	patienthandler "github.com/careconnect/api/internal/handler/patient"
	"github.com/careconnect/api/internal/middleware"
	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/pkg/auth"
	"github.com/careconnect/api/pkg/logger"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Health      *handler.HealthHandler
	Auth        *authhandler.Handler
	Appointment *appointmenthandler.Handler
	Doctor      *doctorhandler.Handler
	Patient     *patienthandler.Handler
	Medical     *medicalhandler.Handler
	Chat        *chathandler.Handler
	Emergency   *emergencyhandler.Handler
}

// New assembles the HTTP surface: public auth endpoints, the authenticated
// API group, health and Prometheus metrics.
func New(cfg *config.Config, log *logger.Logger, tokens auth.TokenService, h Handlers) *gin.Engine {
	RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))

	public := api.Group("/auth")
	h.Auth.RegisterRoutes(public)

	protected := api.Group("")
	protected.Use(middleware.Auth(tokens))
	h.Auth.RegisterProtectedRoutes(protected.Group("/auth"))
	h.Appointment.RegisterRoutes(protected)
	h.Doctor.RegisterRoutes(protected)
	h.Patient.RegisterRoutes(protected)
	h.Medical.RegisterRoutes(protected)
	h.Chat.RegisterRoutes(protected)
	h.Emergency.RegisterRoutes(protected)

	return r
}

// RegisterValidators adds the "slot" rule used by booking requests so malformed
// time labels fail at binding instead of deep in the service.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("slot", func(fl validator.FieldLevel) bool {
		_, err := model.ParseSlot(fl.Field().String())
		return err == nil
	})
}
