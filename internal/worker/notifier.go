// Package worker holds the notification fan-out run by the worker binary.
package worker

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/careconnect/api/internal/email"
	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/internal/repository"
	"github.com/careconnect/api/pkg/logger"
	"github.com/careconnect/api/pkg/messaging"
	"github.com/careconnect/api/pkg/metrics"
)

// Notifier consumes domain events off the broker and turns them into emails.
// Recipient addresses are resolved from the store at delivery time so events
// stay free of personal data beyond what the entities already carry.
type Notifier struct {
	broker   messaging.Broker
	email    *email.Service
	users    repository.UserRepository
	doctors  repository.DoctorRepository
	patients repository.PatientRepository
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

func NewNotifier(
	broker messaging.Broker,
	emailSvc *email.Service,
	users repository.UserRepository,
	doctors repository.DoctorRepository,
	patients repository.PatientRepository,
	m *metrics.Metrics,
	log *logger.Logger,
) *Notifier {
	return &Notifier{
		broker:   broker,
		email:    emailSvc,
		users:    users,
		doctors:  doctors,
		patients: patients,
		metrics:  m,
		logger:   log,
	}
}

// Start subscribes to every event channel and blocks until ctx is cancelled.
func (n *Notifier) Start(ctx context.Context) error {
	channels := []string{
		model.EventAppointmentCreated,
		model.EventAppointmentStatusChanged,
		model.EventEmergencyRequested,
		model.EventEmergencyAccepted,
		model.EventEmergencyEnded,
	}

	var wg sync.WaitGroup
	for _, channel := range channels {
		messages, err := n.broker.Subscribe(ctx, channel)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func(channel string, messages <-chan []byte) {
			defer wg.Done()
			for msg := range messages {
				n.handle(ctx, channel, msg)
			}
		}(channel, messages)
	}

	n.logger.Info("notifier started", map[string]interface{}{"channels": len(channels)})
	wg.Wait()
	return nil
}

func (n *Notifier) handle(ctx context.Context, eventType string, payload []byte) {
	var err error
	switch eventType {
	case model.EventAppointmentCreated, model.EventAppointmentStatusChanged:
		err = n.handleAppointment(ctx, eventType, payload)
	case model.EventEmergencyRequested, model.EventEmergencyAccepted, model.EventEmergencyEnded:
		err = n.handleEmergency(ctx, eventType, payload)
	default:
		n.logger.Warn("unknown event type", map[string]interface{}{"event_type": eventType})
		return
	}

	if err != nil {
		n.metrics.NotificationsFailed.WithLabelValues("email", eventType).Inc()
		n.logger.Error(err, "notification failed", map[string]interface{}{"event_type": eventType})
		return
	}
	n.metrics.NotificationsSent.WithLabelValues("email", eventType).Inc()
}

func (n *Notifier) handleAppointment(ctx context.Context, eventType string, payload []byte) error {
	var event model.AppointmentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return err
	}
	apt := event.Appointment
	if apt == nil {
		return nil
	}

	address, err := n.patientEmail(ctx, apt.PatientID)
	if err != nil {
		return err
	}
	if eventType == model.EventAppointmentCreated {
		return n.email.SendAppointmentBooked(address, apt)
	}
	return n.email.SendAppointmentStatusChanged(address, apt)
}

func (n *Notifier) handleEmergency(ctx context.Context, eventType string, payload []byte) error {
	var event model.EmergencyEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return err
	}
	session := event.Session
	if session == nil {
		return nil
	}

	// Only the initial dispatch alerts the doctor; accept/end are state
	// changes both parties watched happen in the app.
	if eventType != model.EventEmergencyRequested {
		return nil
	}

	doctor, err := n.doctors.Get(ctx, session.DoctorID)
	if err != nil {
		return err
	}
	user, err := n.users.Get(ctx, doctor.UserID)
	if err != nil {
		return err
	}
	return n.email.SendEmergencyAlert(user.Email, session)
}

func (n *Notifier) patientEmail(ctx context.Context, patientID uuid.UUID) (string, error) {
	patient, err := n.patients.Get(ctx, patientID)
	if err != nil {
		return "", err
	}
	user, err := n.users.Get(ctx, patient.UserID)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}
