package emergency

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/internal/repository"
	"github.com/careconnect/api/internal/service/access"
	"github.com/careconnect/api/internal/service/event"
	apperrors "github.com/careconnect/api/pkg/errors"
	"github.com/careconnect/api/pkg/logger"
)

// Service dispatches emergency-connect sessions. A request grabs the best
// available doctor immediately; working hours and slot rules do not apply.
type Service struct {
	sessions repository.EmergencyRepository
	doctors  repository.DoctorRepository
	patients repository.PatientRepository
	emitter  event.Emitter
	logger   *logger.Logger
}

func NewService(
	sessions repository.EmergencyRepository,
	doctors repository.DoctorRepository,
	patients repository.PatientRepository,
	emitter event.Emitter,
	log *logger.Logger,
) *Service {
	return &Service{
		sessions: sessions,
		doctors:  doctors,
		patients: patients,
		emitter:  emitter,
		logger:   log,
	}
}

// Request opens a session for the acting patient with the first available
// doctor.
func (s *Service) Request(ctx context.Context, actor access.Actor, req *model.EmergencyConnectRequest) (*model.EmergencySession, error) {
	patient, err := s.patients.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return nil, apperrors.Forbidden("only patients can request emergency connect")
		}
		return nil, err
	}
	if err := access.Authorize(actor, access.OpEmergencyRequest, access.Resource{PatientUserID: patient.UserID}); err != nil {
		return nil, err
	}

	doctor, err := s.doctors.FirstAvailable(ctx)
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return nil, apperrors.Conflict("no doctors are available right now, please call emergency services")
		}
		return nil, err
	}

	severity := req.Severity
	if severity == "" {
		severity = model.EmergencySeverityMedium
	}

	session := &model.EmergencySession{
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		Status:    model.EmergencyStatusConnecting,
		Severity:  severity,
		Location:  req.Location,
		StartTime: time.Now(),
		Notes:     req.Notes,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Warn("emergency session requested", map[string]interface{}{
		"session_id": session.ID,
		"patient_id": patient.ID,
		"doctor_id":  doctor.ID,
		"severity":   severity,
	})
	s.emit(ctx, model.EventEmergencyRequested, session)
	return session, nil
}

// Accept moves a session from connecting to connected. Only the dispatched
// doctor may accept.
func (s *Service) Accept(ctx context.Context, actor access.Actor, id uuid.UUID) (*model.EmergencySession, error) {
	session, res, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.OpEmergencyAccept, res); err != nil {
		return nil, err
	}
	if session.Status != model.EmergencyStatusConnecting {
		return nil, apperrors.Conflict("session is not awaiting acceptance")
	}

	session.Status = model.EmergencyStatusConnected
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}
	s.emit(ctx, model.EventEmergencyAccepted, session)
	return session, nil
}

// End closes a session from either side.
func (s *Service) End(ctx context.Context, actor access.Actor, id uuid.UUID) (*model.EmergencySession, error) {
	session, res, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.OpEmergencyEnd, res); err != nil {
		return nil, err
	}
	if session.Status == model.EmergencyStatusEnded {
		return session, nil
	}

	now := time.Now()
	session.Status = model.EmergencyStatusEnded
	session.EndTime = &now
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}
	s.emit(ctx, model.EventEmergencyEnded, session)
	return session, nil
}

func (s *Service) Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*model.EmergencySession, error) {
	session, res, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.OpAppointmentView, res); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*model.EmergencySession, access.Resource, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, access.Resource{}, err
	}
	doctor, err := s.doctors.Get(ctx, session.DoctorID)
	if err != nil {
		return nil, access.Resource{}, err
	}
	patient, err := s.patients.Get(ctx, session.PatientID)
	if err != nil {
		return nil, access.Resource{}, err
	}
	return session, access.Resource{PatientUserID: patient.UserID, DoctorUserID: doctor.UserID}, nil
}

func (s *Service) emit(ctx context.Context, eventType string, session *model.EmergencySession) {
	if err := s.emitter.Emit(ctx, eventType, &model.EmergencyEvent{Session: session}); err != nil {
		s.logger.Error(err, "failed to emit event", map[string]interface{}{"event_type": eventType})
	}
}
