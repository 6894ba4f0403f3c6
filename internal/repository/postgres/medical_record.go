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

const medicalRecordColumns = `
	id, patient_id, doctor_id, appointment_id, record_type, title, description,
	diagnosis, treatment, medications, lab_results, vitals, attachments,
	follow_up_date, follow_up_instructions, confidential, record_date,
	created_at, updated_at
`

func (r *medicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	record.ID = uuid.New()
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()
	if record.Medications == nil {
		record.Medications = model.MedicationList{}
	}
	if record.LabResults == nil {
		record.LabResults = model.LabResultList{}
	}
	if record.Attachments == nil {
		record.Attachments = model.AttachmentList{}
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		insert := `
			INSERT INTO medical_records (` + medicalRecordColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
					$14, $15, $16, $17, $18, $19)
		`
		if _, err := tx.ExecContext(ctx, insert,
			record.ID, record.PatientID, record.DoctorID, record.AppointmentID,
			record.RecordType, record.Title, record.Description, record.Diagnosis,
			record.Treatment, record.Medications, record.LabResults, record.Vitals,
			record.Attachments, record.FollowUpDate, record.FollowUpInstructions,
			record.Confidential, record.RecordDate, record.CreatedAt, record.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create medical record: %w", err)
		}

		index := `
			UPDATE patients SET
				medical_record_ids = medical_record_ids || to_jsonb($2::text),
				updated_at = $3
			WHERE id = $1
		`
		if _, err := tx.ExecContext(ctx, index, record.PatientID, record.ID.String(), time.Now()); err != nil {
			return fmt.Errorf("failed to update patient record index: %w", err)
		}
		return nil
	})
}

func (r *medicalRecordRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	query := `SELECT ` + medicalRecordColumns + ` FROM medical_records WHERE id = $1`

	var record model.MedicalRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("medical record")
		}
		return nil, fmt.Errorf("failed to get medical record: %w", err)
	}
	return &record, nil
}

func (r *medicalRecordRepository) Update(ctx context.Context, record *model.MedicalRecord) error {
	query := `
		UPDATE medical_records
		SET treatment = $1, medications = $2, lab_results = $3, attachments = $4,
			follow_up_date = $5, follow_up_instructions = $6, updated_at = $7
		WHERE id = $8
	`
	record.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		record.Treatment,
		record.Medications,
		record.LabResults,
		record.Attachments,
		record.FollowUpDate,
		record.FollowUpInstructions,
		record.UpdatedAt,
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update medical record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("medical record")
	}
	return nil
}

func (r *medicalRecordRepository) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	query := `
		SELECT ` + medicalRecordColumns + `
		FROM medical_records
		WHERE patient_id = $1
		ORDER BY record_date DESC, created_at DESC
	`
	var records []*model.MedicalRecord
	if err := r.db.SelectContext(ctx, &records, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}
	return records, nil
}
