package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careconnect/api/internal/model"
	apperrors "github.com/careconnect/api/pkg/errors"
)

const doctorColumns = `
	d.id, d.user_id, u.name AS name, d.specialty, d.license_number, d.experience,
	d.bio, d.consultation_fee, d.rating, d.available, d.working_hours,
	d.total_appointments, d.completed_appointments, d.patient_ids,
	d.created_at, d.updated_at
`

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (
			id, user_id, specialty, license_number, experience, bio,
			consultation_fee, rating, available, working_hours, patient_ids,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	doctor.ID = uuid.New()
	doctor.CreatedAt = time.Now()
	doctor.UpdatedAt = time.Now()
	if doctor.WorkingHours == nil {
		doctor.WorkingHours = model.DefaultWorkingHours()
	}
	if doctor.PatientIDs == nil {
		doctor.PatientIDs = model.UUIDList{}
	}

	_, err := r.db.ExecContext(ctx, query,
		doctor.ID,
		doctor.UserID,
		doctor.Specialty,
		doctor.LicenseNumber,
		doctor.Experience,
		doctor.Bio,
		doctor.ConsultationFee,
		doctor.Rating,
		doctor.Available,
		doctor.WorkingHours,
		doctor.PatientIDs,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("doctor profile already exists for this user")
		}
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors d JOIN users u ON u.id = d.user_id WHERE d.id = $1`

	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("doctor")
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors d JOIN users u ON u.id = d.user_id WHERE d.user_id = $1`

	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("doctor")
		}
		return nil, fmt.Errorf("failed to get doctor by user: %w", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	query := `
		UPDATE doctors
		SET specialty = $1, license_number = $2, experience = $3, bio = $4,
			consultation_fee = $5, rating = $6, available = $7,
			working_hours = $8, updated_at = $9
		WHERE id = $10
	`
	doctor.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		doctor.Specialty,
		doctor.LicenseNumber,
		doctor.Experience,
		doctor.Bio,
		doctor.ConsultationFee,
		doctor.Rating,
		doctor.Available,
		doctor.WorkingHours,
		doctor.UpdatedAt,
		doctor.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("doctor")
	}
	return nil
}

func (r *doctorRepository) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors d JOIN users u ON u.id = d.user_id WHERE u.active`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.Specialty != "" {
			query += fmt.Sprintf(" AND d.specialty = $%d", argCount)
			args = append(args, filters.Specialty)
			argCount++
		}
		if filters.Available != nil {
			query += fmt.Sprintf(" AND d.available = $%d", argCount)
			args = append(args, *filters.Available)
			argCount++
		}
		if filters.Search != "" {
			query += fmt.Sprintf(" AND (u.name ILIKE $%d OR d.specialty ILIKE $%d)", argCount, argCount)
			args = append(args, "%"+filters.Search+"%")
			argCount++
		}
	}

	query += " ORDER BY d.rating DESC, u.name ASC"

	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) FirstAvailable(ctx context.Context) (*model.Doctor, error) {
	query := `
		SELECT ` + doctorColumns + `
		FROM doctors d JOIN users u ON u.id = d.user_id
		WHERE d.available AND u.active
		ORDER BY d.rating DESC
		LIMIT 1
	`
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("available doctor")
		}
		return nil, fmt.Errorf("failed to find available doctor: %w", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) RecountStats(ctx context.Context, doctorID uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE doctors SET
				total_appointments = (
					SELECT COUNT(*) FROM appointments WHERE doctor_id = $1
				),
				completed_appointments = (
					SELECT COUNT(*) FROM appointments WHERE doctor_id = $1 AND status = 'completed'
				),
				updated_at = $2
			WHERE id = $1
		`
		if _, err := tx.ExecContext(ctx, query, doctorID, time.Now()); err != nil {
			return fmt.Errorf("failed to recount doctor stats: %w", err)
		}
		return nil
	})
}
