package patient

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/internal/repository"
	"github.com/careconnect/api/internal/service/access"
	"github.com/careconnect/api/pkg/logger"
)

// Service manages patient medical profiles. Unlike doctor profiles these are
// private: visible to the patient, admins, and doctors who have treated them.
type Service struct {
	patients     repository.PatientRepository
	doctors      repository.DoctorRepository
	appointments repository.AppointmentRepository
	logger       *logger.Logger
}

func NewService(
	patients repository.PatientRepository,
	doctors repository.DoctorRepository,
	appointments repository.AppointmentRepository,
	log *logger.Logger,
) *Service {
	return &Service{patients: patients, doctors: doctors, appointments: appointments, logger: log}
}

// Me returns the acting patient's own profile.
func (s *Service) Me(ctx context.Context, actor access.Actor) (*model.Patient, error) {
	return s.patients.GetByUserID(ctx, actor.UserID)
}

// Get returns a patient profile if the actor may see it.
func (s *Service) Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.patients.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	res := access.Resource{PatientUserID: patient.UserID}
	if actor.Role == model.RoleDoctor {
		// A treating doctor gets access through the care relationship.
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
	return patient, nil
}

// UpdateProfile applies a partial update to the acting patient's own profile.
func (s *Service) UpdateProfile(ctx context.Context, actor access.Actor, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.patients.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.OpProfileUpdate, access.Resource{PatientUserID: patient.UserID}); err != nil {
		return nil, err
	}

	if req.DateOfBirth != nil {
		patient.DateOfBirth = req.DateOfBirth
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
	}
	if req.BloodType != nil {
		patient.BloodType = *req.BloodType
	}
	if req.Allergies != nil {
		patient.Allergies = pq.StringArray(req.Allergies)
	}
	if req.ChronicConditions != nil {
		patient.ChronicConditions = pq.StringArray(req.ChronicConditions)
	}
	if req.Medications != nil {
		patient.Medications = req.Medications
	}
	if req.EmergencyContact != nil {
		patient.EmergencyContact = *req.EmergencyContact
	}
	if req.Insurance != nil {
		patient.Insurance = *req.Insurance
	}
	if req.HealthScore != nil {
		patient.HealthScore = *req.HealthScore
	}

	if err := s.patients.Update(ctx, patient); err != nil {
		return nil, err
	}

	s.logger.Info("patient profile updated", map[string]interface{}{"patient_id": patient.ID})
	return patient, nil
}
