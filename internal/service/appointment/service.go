package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/internal/repository"
	"github.com/careconnect/api/internal/service/access"
	"github.com/careconnect/api/internal/service/event"
	apperrors "github.com/careconnect/api/pkg/errors"
	"github.com/careconnect/api/pkg/logger"
)

// transitions is the appointment state machine. Absent entries are invalid;
// terminal statuses have no outgoing edges.
var transitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.AppointmentStatusPending: {
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusCancelled,
	},
	model.AppointmentStatusConfirmed: {
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusNoShow,
	},
}

func transitionAllowed(from, to model.AppointmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

var statusOps = map[model.AppointmentStatus]access.Operation{
	model.AppointmentStatusConfirmed: access.OpAppointmentConfirm,
	model.AppointmentStatusCompleted: access.OpAppointmentComplete,
	model.AppointmentStatusCancelled: access.OpAppointmentCancel,
	model.AppointmentStatusNoShow:    access.OpAppointmentNoShow,
}

// Service owns the appointment lifecycle: booking, the status state machine
// and the denormalized snapshots taken at booking time.
type Service struct {
	appointments repository.AppointmentRepository
	doctors      repository.DoctorRepository
	patients     repository.PatientRepository
	checker      *Checker
	emitter      event.Emitter
	logger       *logger.Logger

	// now is swappable for tests.
	now func() time.Time
}

func NewService(
	appointments repository.AppointmentRepository,
	doctors repository.DoctorRepository,
	patients repository.PatientRepository,
	checker *Checker,
	emitter event.Emitter,
	log *logger.Logger,
) *Service {
	return &Service{
		appointments: appointments,
		doctors:      doctors,
		patients:     patients,
		checker:      checker,
		emitter:      emitter,
		logger:       log,
		now:          time.Now,
	}
}

// Create books a new pending appointment for the acting patient. Names,
// specialty and fee are snapshotted from the current profiles so later edits
// don't rewrite history.
func (s *Service) Create(ctx context.Context, actor access.Actor, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	date, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, apperrors.Validation("date must be formatted as YYYY-MM-DD")
	}

	patient, err := s.patients.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return nil, apperrors.Forbidden("only patients can book appointments")
		}
		return nil, err
	}
	if err := access.Authorize(actor, access.OpAppointmentCreate, access.Resource{PatientUserID: patient.UserID}); err != nil {
		return nil, err
	}

	doctor, err := s.doctors.Get(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}

	if err := s.checker.CheckSlot(ctx, doctor, date, req.Time, req.EndTime); err != nil {
		return nil, err
	}

	start, _ := model.ParseSlot(req.Time)
	if date.Add(start).Before(s.now()) {
		return nil, apperrors.Validation("cannot book an appointment in the past")
	}

	aptType := req.Type
	if aptType == "" {
		aptType = model.AppointmentTypeConsultation
	}

	apt := &model.Appointment{
		PatientID:   patient.ID,
		DoctorID:    doctor.ID,
		PatientName: patient.Name,
		DoctorName:  doctor.Name,
		Date:        date,
		Time:        req.Time,
		EndTime:     req.EndTime,
		Type:        aptType,
		Specialty:   doctor.Specialty,
		Reason:      req.Reason,
		Symptoms:    pq.StringArray(req.Symptoms),
		Status:      model.AppointmentStatusPending,
		Fee:         doctor.ConsultationFee,
	}

	if err := s.appointments.Book(ctx, apt); err != nil {
		return nil, err
	}

	s.logger.Info("appointment booked", map[string]interface{}{
		"appointment_id": apt.ID,
		"doctor_id":      doctor.ID,
		"date":           date.String(),
		"time":           req.Time,
	})
	s.emit(ctx, model.EventAppointmentCreated, &model.AppointmentEvent{Appointment: apt})

	return apt, nil
}

// Get returns an appointment the actor is a party to.
func (s *Service) Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.resource(ctx, apt)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.OpAppointmentView, res); err != nil {
		return nil, err
	}
	return apt, nil
}

// ListForActor returns the actor's own appointments, newest first.
func (s *Service) ListForActor(ctx context.Context, actor access.Actor) ([]*model.Appointment, error) {
	switch actor.Role {
	case model.RolePatient:
		patient, err := s.patients.GetByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		return s.appointments.ListForPatient(ctx, patient.ID)
	case model.RoleDoctor:
		doctor, err := s.doctors.GetByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		return s.appointments.ListForDoctor(ctx, doctor.ID)
	default:
		return nil, apperrors.Forbidden("admins do not have personal appointments")
	}
}

// UpdateStatus drives one state-machine transition. Repeating the transition
// the appointment is already in is a no-op, so client retries are safe.
func (s *Service) UpdateStatus(ctx context.Context, actor access.Actor, id uuid.UUID, req *model.UpdateStatusRequest) (*model.Appointment, error) {
	apt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.resource(ctx, apt)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.OpAppointmentView, res); err != nil {
		return nil, err
	}

	if apt.Status == req.Status {
		return apt, nil
	}

	op, ok := statusOps[req.Status]
	if !ok {
		return nil, apperrors.InvalidTransition(string(apt.Status), string(req.Status))
	}
	if err := access.Authorize(actor, op, res); err != nil {
		return nil, err
	}
	if !transitionAllowed(apt.Status, req.Status) {
		return nil, apperrors.InvalidTransition(string(apt.Status), string(req.Status))
	}

	from := apt.Status
	switch req.Status {
	case model.AppointmentStatusConfirmed:
		apt.Status = model.AppointmentStatusConfirmed
		if err := s.appointments.Update(ctx, apt); err != nil {
			return nil, err
		}

	case model.AppointmentStatusCompleted:
		apt.Status = model.AppointmentStatusCompleted
		if req.Notes != "" {
			apt.Notes = req.Notes
		}
		if req.Diagnosis != "" {
			apt.Diagnosis = req.Diagnosis
		}
		if req.Prescription != "" {
			apt.Prescription = req.Prescription
		}
		if req.Vitals != nil {
			apt.Vitals = req.Vitals
		}
		if err := s.appointments.Complete(ctx, apt); err != nil {
			return nil, err
		}

	case model.AppointmentStatusNoShow:
		if s.now().Before(s.slotEnd(apt)) {
			return nil, apperrors.Conflict("cannot mark no-show before the appointment time has passed")
		}
		apt.Status = model.AppointmentStatusNoShow
		if req.Notes != "" {
			apt.Notes = req.Notes
		}
		if err := s.appointments.Update(ctx, apt); err != nil {
			return nil, err
		}

	case model.AppointmentStatusCancelled:
		apt.Status = model.AppointmentStatusCancelled
		if req.Reason != "" {
			apt.CancelReason = &req.Reason
		}
		by := cancelActor(actor.Role)
		apt.CancelledBy = &by
		if err := s.appointments.Update(ctx, apt); err != nil {
			return nil, err
		}
	}

	s.logger.Info("appointment status changed", map[string]interface{}{
		"appointment_id": apt.ID,
		"from":           from,
		"to":             apt.Status,
	})
	s.emit(ctx, model.EventAppointmentStatusChanged, &model.AppointmentEvent{
		Appointment: apt,
		From:        from,
		To:          apt.Status,
	})

	return apt, nil
}

// Cancel is sugar over the cancelled transition.
func (s *Service) Cancel(ctx context.Context, actor access.Actor, id uuid.UUID, req *model.CancelAppointmentRequest) (*model.Appointment, error) {
	return s.UpdateStatus(ctx, actor, id, &model.UpdateStatusRequest{
		Status: model.AppointmentStatusCancelled,
		Reason: req.Reason,
	})
}

// Availability lists a doctor's slot availability for one day.
func (s *Service) Availability(ctx context.Context, doctorID uuid.UUID, dateStr string) ([]model.TimeSlot, error) {
	date, err := model.ParseDate(dateStr)
	if err != nil {
		return nil, apperrors.Validation("date must be formatted as YYYY-MM-DD")
	}
	doctor, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return s.checker.AvailableSlots(ctx, doctor, date)
}

func (s *Service) slotEnd(apt *model.Appointment) time.Time {
	start, err := model.ParseSlot(apt.Time)
	if err != nil {
		return apt.Date.Time
	}
	end := start + model.SlotDuration
	if apt.EndTime != nil {
		if parsed, err := model.ParseSlot(*apt.EndTime); err == nil && parsed > start {
			end = parsed
		}
	}
	return apt.Date.Add(end)
}

// resource resolves the user identities on both sides of an appointment for
// authorization.
func (s *Service) resource(ctx context.Context, apt *model.Appointment) (access.Resource, error) {
	doctor, err := s.doctors.Get(ctx, apt.DoctorID)
	if err != nil {
		return access.Resource{}, err
	}
	patient, err := s.patients.Get(ctx, apt.PatientID)
	if err != nil {
		return access.Resource{}, err
	}
	return access.Resource{PatientUserID: patient.UserID, DoctorUserID: doctor.UserID}, nil
}

func (s *Service) emit(ctx context.Context, eventType string, payload interface{}) {
	if err := s.emitter.Emit(ctx, eventType, payload); err != nil {
		// Notification loss is tolerable; the booking itself already committed.
		s.logger.Error(err, "failed to emit event", map[string]interface{}{"event_type": eventType})
	}
}

func cancelActor(role model.Role) model.CancelActor {
	switch role {
	case model.RolePatient:
		return model.CancelledByPatient
	case model.RoleDoctor:
		return model.CancelledByDoctor
	default:
		return model.CancelledBySystem
	}
}
