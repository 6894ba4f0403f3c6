package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/careconnect/api/internal/model"
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		Deactivate(ctx context.Context, id uuid.UUID) error
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error)
		FirstAvailable(ctx context.Context) (*model.Doctor, error)
		// RecountStats rebuilds the denormalized appointment counters from the
		// appointments table; used for reconciliation, never in request paths.
		RecountStats(ctx context.Context, doctorID uuid.UUID) error
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
	}

	AppointmentRepository interface {
		// Book atomically verifies the slot is still free and persists the
		// appointment together with its side effects (doctor counters, patient
		// appointment index). Returns a slot-taken error when a concurrent
		// booking won the slot.
		Book(ctx context.Context, apt *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, apt *model.Appointment) error
		// Complete persists the completed transition and increments the
		// doctor's completed counter in one transaction. Fails if the row is
		// no longer in confirmed status.
		Complete(ctx context.Context, apt *model.Appointment) error
		ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error)
		ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error)
		ListActiveForDay(ctx context.Context, doctorID uuid.UUID, date model.Date) ([]*model.Appointment, error)
		// HasRelationship reports whether the doctor has any non-cancelled
		// appointment with the patient.
		HasRelationship(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error)
	}

	MedicalRecordRepository interface {
		Create(ctx context.Context, record *model.MedicalRecord) error
		Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error)
		Update(ctx context.Context, record *model.MedicalRecord) error
		ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error)
	}

	ChatRepository interface {
		SaveMessage(ctx context.Context, msg *model.ChatMessage) error
		History(ctx context.Context, userID uuid.UUID, sessionID string, limit int) ([]*model.ChatMessage, error)
	}

	EmergencyRepository interface {
		Create(ctx context.Context, session *model.EmergencySession) error
		Get(ctx context.Context, id uuid.UUID) (*model.EmergencySession, error)
		Update(ctx context.Context, session *model.EmergencySession) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
