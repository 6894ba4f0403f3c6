package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/careconnect/api/internal/model"
	apperrors "github.com/careconnect/api/pkg/errors"
)

const patientColumns = `
	p.id, p.user_id, u.name AS name, p.date_of_birth, p.gender, p.blood_type,
	p.allergies, p.chronic_conditions, p.medications, p.emergency_contact,
	p.insurance, p.health_score, p.appointment_ids, p.medical_record_ids,
	p.last_checkup, p.created_at, p.updated_at
`

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (
			id, user_id, date_of_birth, gender, blood_type, allergies,
			chronic_conditions, medications, emergency_contact, insurance,
			health_score, appointment_ids, medical_record_ids,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	patient.ID = uuid.New()
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()
	if patient.Allergies == nil {
		patient.Allergies = pq.StringArray{}
	}
	if patient.ChronicConditions == nil {
		patient.ChronicConditions = pq.StringArray{}
	}
	if patient.Medications == nil {
		patient.Medications = model.MedicationList{}
	}
	if patient.AppointmentIDs == nil {
		patient.AppointmentIDs = model.UUIDList{}
	}
	if patient.MedicalRecordIDs == nil {
		patient.MedicalRecordIDs = model.UUIDList{}
	}

	_, err := r.db.ExecContext(ctx, query,
		patient.ID,
		patient.UserID,
		patient.DateOfBirth,
		patient.Gender,
		patient.BloodType,
		patient.Allergies,
		patient.ChronicConditions,
		patient.Medications,
		patient.EmergencyContact,
		patient.Insurance,
		patient.HealthScore,
		patient.AppointmentIDs,
		patient.MedicalRecordIDs,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("patient profile already exists for this user")
		}
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients p JOIN users u ON u.id = p.user_id WHERE p.id = $1`

	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("patient")
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients p JOIN users u ON u.id = p.user_id WHERE p.user_id = $1`

	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("patient")
		}
		return nil, fmt.Errorf("failed to get patient by user: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients
		SET date_of_birth = $1, gender = $2, blood_type = $3, allergies = $4,
			chronic_conditions = $5, medications = $6, emergency_contact = $7,
			insurance = $8, health_score = $9, last_checkup = $10,
			updated_at = $11
		WHERE id = $12
	`
	patient.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		patient.DateOfBirth,
		patient.Gender,
		patient.BloodType,
		patient.Allergies,
		patient.ChronicConditions,
		patient.Medications,
		patient.EmergencyContact,
		patient.Insurance,
		patient.HealthScore,
		patient.LastCheckup,
		patient.UpdatedAt,
		patient.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("patient")
	}
	return nil
}
