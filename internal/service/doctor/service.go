package doctor

import (
	"context"

	"github.com/google/uuid"

	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/internal/repository"
	"github.com/careconnect/api/internal/service/access"
	apperrors "github.com/careconnect/api/pkg/errors"
	"github.com/careconnect/api/pkg/logger"
)

// Service exposes the doctor directory and profile management. Doctor profiles
// are public to authenticated users; only the owner edits them.
type Service struct {
	doctors repository.DoctorRepository
	logger  *logger.Logger
}

func NewService(doctors repository.DoctorRepository, log *logger.Logger) *Service {
	return &Service{doctors: doctors, logger: log}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return s.doctors.Get(ctx, id)
}

func (s *Service) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	return s.doctors.GetByUserID(ctx, userID)
}

func (s *Service) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	return s.doctors.List(ctx, filters)
}

// UpdateProfile applies a partial update to the acting doctor's own profile.
func (s *Service) UpdateProfile(ctx context.Context, actor access.Actor, req *model.UpdateDoctorRequest) (*model.Doctor, error) {
	doctor, err := s.doctors.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.OpProfileUpdate, access.Resource{DoctorUserID: doctor.UserID}); err != nil {
		return nil, err
	}

	if req.Specialty != nil {
		doctor.Specialty = *req.Specialty
	}
	if req.LicenseNumber != nil {
		doctor.LicenseNumber = *req.LicenseNumber
	}
	if req.Experience != nil {
		doctor.Experience = *req.Experience
	}
	if req.Bio != nil {
		doctor.Bio = *req.Bio
	}
	if req.ConsultationFee != nil {
		doctor.ConsultationFee = *req.ConsultationFee
	}
	if req.Available != nil {
		doctor.Available = *req.Available
	}
	if req.WorkingHours != nil {
		if err := validateWorkingHours(req.WorkingHours); err != nil {
			return nil, err
		}
		doctor.WorkingHours = req.WorkingHours
	}

	if err := s.doctors.Update(ctx, doctor); err != nil {
		return nil, err
	}

	s.logger.Info("doctor profile updated", map[string]interface{}{"doctor_id": doctor.ID})
	return doctor, nil
}

func validateWorkingHours(hours model.WorkingHours) error {
	valid := map[string]bool{
		"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
		"friday": true, "saturday": true, "sunday": true,
	}
	for day, window := range hours {
		if !valid[day] {
			return apperrors.Validation("workingHours keys must be lowercase weekday names")
		}
		if !window.Available {
			continue
		}
		start, err := model.ParseSlot(window.Start)
		if err != nil {
			return apperrors.Validation("workingHours start must be formatted as HH:MM")
		}
		end, err := model.ParseSlot(window.End)
		if err != nil {
			return apperrors.Validation("workingHours end must be formatted as HH:MM")
		}
		if end <= start {
			return apperrors.Validation("workingHours end must be after start")
		}
	}
	return nil
}
