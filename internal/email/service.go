package email

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/pkg/logger"
)

type Config struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// Service sends transactional mail over SMTP. With Enabled=false every send
// becomes a logged no-op, which is how dev environments run.
type Service struct {
	cfg    Config
	dialer *gomail.Dialer
	logger *logger.Logger
}

func NewService(cfg Config, log *logger.Logger) *Service {
	return &Service{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: log,
	}
}

func (s *Service) send(to, subject, body string) error {
	if !s.cfg.Enabled {
		s.logger.Debug("email disabled, skipping send", map[string]interface{}{
			"to":      to,
			"subject": subject,
		})
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

func (s *Service) SendAppointmentBooked(to string, apt *model.Appointment) error {
	subject := fmt.Sprintf("Appointment request with %s", apt.DoctorName)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour appointment with %s (%s) on %s at %s has been requested "+
			"and is awaiting confirmation.\n\nReason: %s\nConsultation fee: %.2f\n\n"+
			"You will receive another email once the doctor confirms.\n",
		apt.PatientName, apt.DoctorName, apt.Specialty, apt.Date, apt.Time, apt.Reason, apt.Fee)
	return s.send(to, subject, body)
}

func (s *Service) SendAppointmentStatusChanged(to string, apt *model.Appointment) error {
	var subject, detail string
	switch apt.Status {
	case model.AppointmentStatusConfirmed:
		subject = "Appointment confirmed"
		detail = fmt.Sprintf("Your appointment on %s at %s is confirmed.", apt.Date, apt.Time)
	case model.AppointmentStatusCancelled:
		subject = "Appointment cancelled"
		detail = fmt.Sprintf("Your appointment on %s at %s has been cancelled.", apt.Date, apt.Time)
		if apt.CancelReason != nil && *apt.CancelReason != "" {
			detail += fmt.Sprintf(" Reason: %s.", *apt.CancelReason)
		}
	case model.AppointmentStatusCompleted:
		subject = "Appointment completed"
		detail = fmt.Sprintf("Your appointment on %s at %s is complete. "+
			"Any notes from your doctor are available in your records.", apt.Date, apt.Time)
	case model.AppointmentStatusNoShow:
		subject = "Missed appointment"
		detail = fmt.Sprintf("You missed your appointment on %s at %s. "+
			"Please rebook if you still need a consultation.", apt.Date, apt.Time)
	default:
		subject = "Appointment update"
		detail = fmt.Sprintf("Your appointment on %s at %s was updated to %s.", apt.Date, apt.Time, apt.Status)
	}

	body := fmt.Sprintf("Hi %s,\n\n%s\n\nDoctor: %s (%s)\n", apt.PatientName, detail, apt.DoctorName, apt.Specialty)
	return s.send(to, subject, body)
}

func (s *Service) SendEmergencyAlert(to string, session *model.EmergencySession) error {
	subject := fmt.Sprintf("Emergency connect request (%s severity)", session.Severity)
	body := fmt.Sprintf(
		"An emergency connect session has been requested.\n\nSeverity: %s\nNotes: %s\n\n"+
			"Open the app to accept the call.\n",
		session.Severity, session.Notes)
	return s.send(to, subject, body)
}
