package medical

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/internal/repository"
	"github.com/careconnect/api/internal/service/access"
	apperrors "github.com/careconnect/api/pkg/errors"
	"github.com/careconnect/api/pkg/logger"
)

// Service manages medical records. Records are authored by doctors for
// patients they have actually treated, and are append-only after creation.
type Service struct {
	records      repository.MedicalRecordRepository
	doctors      repository.DoctorRepository
	patients     repository.PatientRepository
	appointments repository.AppointmentRepository
	logger       *logger.Logger
}

func NewService(
	records repository.MedicalRecordRepository,
	doctors repository.DoctorRepository,
	patients repository.PatientRepository,
	appointments repository.AppointmentRepository,
	log *logger.Logger,
) *Service {
	return &Service{
		records:      records,
		doctors:      doctors,
		patients:     patients,
		appointments: appointments,
		logger:       log,
	}
}

// Create authors a new record. The doctor must have at least one non-cancelled
// appointment with the patient.
func (s *Service) Create(ctx context.Context, actor access.Actor, req *model.CreateMedicalRecordRequest) (*model.MedicalRecord, error) {
	if err := access.Authorize(actor, access.OpRecordCreate, access.Resource{}); err != nil {
		return nil, err
	}
	doctor, err := s.doctors.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	patient, err := s.patients.Get(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}

	related, err := s.appointments.HasRelationship(ctx, doctor.ID, patient.ID)
	if err != nil {
		return nil, err
	}
	if !related {
		return nil, apperrors.Forbidden("medical records require an existing care relationship with the patient")
	}

	if req.AppointmentID != nil {
		apt, err := s.appointments.Get(ctx, *req.AppointmentID)
		if err != nil {
			return nil, err
		}
		if apt.DoctorID != doctor.ID || apt.PatientID != patient.ID {
			return nil, apperrors.Validation("appointmentId does not belong to this doctor and patient")
		}
	}

	recordDate := model.NewDate(time.Now())
	if req.RecordDate != nil {
		recordDate = *req.RecordDate
	}

	record := &model.MedicalRecord{
		PatientID:            patient.ID,
		DoctorID:             doctor.ID,
		AppointmentID:        req.AppointmentID,
		RecordType:           req.RecordType,
		Title:                req.Title,
		Description:          req.Description,
		Diagnosis:            req.Diagnosis,
		Treatment:            req.Treatment,
		Medications:          req.Medications,
		LabResults:           req.LabResults,
		Vitals:               req.Vitals,
		Attachments:          req.Attachments,
		FollowUpDate:         req.FollowUpDate,
		FollowUpInstructions: req.FollowUpInstructions,
		Confidential:         req.Confidential,
		RecordDate:           recordDate,
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("medical record created", map[string]interface{}{
		"record_id":  record.ID,
		"patient_id": patient.ID,
		"doctor_id":  doctor.ID,
		"type":       record.RecordType,
	})
	return record, nil
}

func (s *Service) Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*model.MedicalRecord, error) {
	record, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.resource(ctx, record)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.OpRecordView, res); err != nil {
		return nil, err
	}
	return record, nil
}

// Amend appends to an existing record. Only the authoring doctor may amend,
// and the original clinical narrative is immutable.
func (s *Service) Amend(ctx context.Context, actor access.Actor, id uuid.UUID, req *model.AmendMedicalRecordRequest) (*model.MedicalRecord, error) {
	record, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.resource(ctx, record)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.OpRecordAmend, res); err != nil {
		return nil, err
	}

	if req.Treatment != nil {
		record.Treatment = *req.Treatment
	}
	record.Medications = append(record.Medications, req.Medications...)
	record.LabResults = append(record.LabResults, req.LabResults...)
	record.Attachments = append(record.Attachments, req.Attachments...)
	if req.FollowUpDate != nil {
		record.FollowUpDate = req.FollowUpDate
	}
	if req.FollowUpInstructions != nil {
		record.FollowUpInstructions = *req.FollowUpInstructions
	}

	if err := s.records.Update(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// ListForPatient returns a patient's records. Patients don't see records
// marked confidential; treating doctors and admins see everything.
func (s *Service) ListForPatient(ctx context.Context, actor access.Actor, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}

	res := access.Resource{PatientUserID: patient.UserID}
	if actor.Role == model.RoleDoctor {
		doctor, err := s.doctors.GetByUserID(ctx, actor.UserID)
		if err == nil {
			related, err := s.appointments.HasRelationship(ctx, doctor.ID, patient.ID)
			if err != nil {
				return nil, err
			}
			if related {
				res.DoctorUserID = doctor.UserID
			}
		}
	}
	if err := access.Authorize(actor, access.OpProfileView, res); err != nil {
		return nil, err
	}

	records, err := s.records.ListForPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RolePatient {
		visible := records[:0]
		for _, record := range records {
			if !record.Confidential {
				visible = append(visible, record)
			}
		}
		records = visible
	}
	return records, nil
}

func (s *Service) resource(ctx context.Context, record *model.MedicalRecord) (access.Resource, error) {
	doctor, err := s.doctors.Get(ctx, record.DoctorID)
	if err != nil {
		return access.Resource{}, err
	}
	patient, err := s.patients.Get(ctx, record.PatientID)
	if err != nil {
		return access.Resource{}, err
	}
	return access.Resource{
		PatientUserID: patient.UserID,
		DoctorUserID:  doctor.UserID,
		Confidential:  record.Confidential,
	}, nil
}
