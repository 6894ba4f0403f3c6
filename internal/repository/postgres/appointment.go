package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/careconnect/api/internal/model"
	apperrors "github.com/careconnect/api/pkg/errors"
)

const appointmentColumns = `
	id, patient_id, doctor_id, patient_name, doctor_name, date, time, end_time,
	type, specialty, reason, symptoms, status, notes, diagnosis, prescription,
	vitals, fee, cancel_reason, cancelled_by, created_at, updated_at
`

// slotLockKey derives the advisory-lock key serializing all bookings for one
// doctor-day. Locking the whole day (rather than one slot) keeps interval
// overlap checks race-free when an explicit endTime spans several buckets.
func slotLockKey(doctorID uuid.UUID, date model.Date) int64 {
	h := fnv.New64a()
	h.Write([]byte(doctorID.String()))
	h.Write([]byte(date.String()))
	return int64(h.Sum64())
}

func (r *appointmentRepository) Book(ctx context.Context, apt *model.Appointment) error {
	apt.ID = uuid.New()
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = time.Now()
	if apt.Symptoms == nil {
		apt.Symptoms = pq.StringArray{}
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, slotLockKey(apt.DoctorID, apt.Date)); err != nil {
			return fmt.Errorf("failed to acquire slot lock: %w", err)
		}

		// Re-check under the lock: a concurrent transaction may have taken the
		// slot between the availability check and this insert.
		existing, err := listActiveForDayTx(ctx, tx, apt.DoctorID, apt.Date)
		if err != nil {
			return err
		}
		for _, other := range existing {
			if other.ConflictsWith(apt.Date, apt.Time, apt.EndTime) {
				return apperrors.SlotTaken(apt.Date.String(), apt.Time)
			}
		}

		insert := `
			INSERT INTO appointments (` + appointmentColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
					$14, $15, $16, $17, $18, $19, $20, $21, $22)
		`
		if _, err := tx.ExecContext(ctx, insert,
			apt.ID, apt.PatientID, apt.DoctorID, apt.PatientName, apt.DoctorName,
			apt.Date, apt.Time, apt.EndTime, apt.Type, apt.Specialty, apt.Reason,
			apt.Symptoms, apt.Status, apt.Notes, apt.Diagnosis, apt.Prescription,
			apt.Vitals, apt.Fee, apt.CancelReason, apt.CancelledBy,
			apt.CreatedAt, apt.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert appointment: %w", err)
		}

		// Side effects ride the same transaction so the counter and the
		// patient's appointment index can never drift from the insert.
		counter := `
			UPDATE doctors SET
				total_appointments = total_appointments + 1,
				patient_ids = CASE
					WHEN patient_ids @> to_jsonb($2::text) THEN patient_ids
					ELSE patient_ids || to_jsonb($2::text)
				END,
				updated_at = $3
			WHERE id = $1
		`
		if _, err := tx.ExecContext(ctx, counter, apt.DoctorID, apt.PatientID.String(), time.Now()); err != nil {
			return fmt.Errorf("failed to update doctor counters: %w", err)
		}

		index := `
			UPDATE patients SET
				appointment_ids = appointment_ids || to_jsonb($2::text),
				updated_at = $3
			WHERE id = $1
		`
		if _, err := tx.ExecContext(ctx, index, apt.PatientID, apt.ID.String(), time.Now()); err != nil {
			return fmt.Errorf("failed to update patient appointment index: %w", err)
		}

		return nil
	})
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var apt model.Appointment
	if err := r.db.GetContext(ctx, &apt, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("appointment")
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &apt, nil
}

func (r *appointmentRepository) Update(ctx context.Context, apt *model.Appointment) error {
	query := `
		UPDATE appointments
		SET status = $1, notes = $2, diagnosis = $3, prescription = $4,
			vitals = $5, cancel_reason = $6, cancelled_by = $7, updated_at = $8
		WHERE id = $9
	`
	apt.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		apt.Status,
		apt.Notes,
		apt.Diagnosis,
		apt.Prescription,
		apt.Vitals,
		apt.CancelReason,
		apt.CancelledBy,
		apt.UpdatedAt,
		apt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment")
	}
	return nil
}

func (r *appointmentRepository) Complete(ctx context.Context, apt *model.Appointment) error {
	apt.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		// The status guard makes concurrent completion attempts lose cleanly
		// instead of double-incrementing the counter.
		update := `
			UPDATE appointments
			SET status = $1, notes = $2, diagnosis = $3, prescription = $4,
				vitals = $5, updated_at = $6
			WHERE id = $7 AND status = 'confirmed'
		`
		result, err := tx.ExecContext(ctx, update,
			model.AppointmentStatusCompleted,
			apt.Notes,
			apt.Diagnosis,
			apt.Prescription,
			apt.Vitals,
			apt.UpdatedAt,
			apt.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to complete appointment: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return apperrors.Conflict("appointment is no longer confirmed")
		}

		counter := `
			UPDATE doctors SET
				completed_appointments = completed_appointments + 1,
				updated_at = $2
			WHERE id = $1
		`
		if _, err := tx.ExecContext(ctx, counter, apt.DoctorID, time.Now()); err != nil {
			return fmt.Errorf("failed to update doctor counters: %w", err)
		}

		checkup := `
			UPDATE patients SET last_checkup = $2, updated_at = $3 WHERE id = $1
		`
		if _, err := tx.ExecContext(ctx, checkup, apt.PatientID, apt.Date, time.Now()); err != nil {
			return fmt.Errorf("failed to update patient last checkup: %w", err)
		}

		return nil
	})
}

func (r *appointmentRepository) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE patient_id = $1
		ORDER BY date DESC, time DESC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list patient appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1
		ORDER BY date DESC, time DESC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list doctor appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListActiveForDay(ctx context.Context, doctorID uuid.UUID, date model.Date) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1 AND date = $2 AND status IN ('pending', 'confirmed')
		ORDER BY time ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, doctorID, date); err != nil {
		return nil, fmt.Errorf("failed to list active appointments: %w", err)
	}
	return appointments, nil
}

func listActiveForDayTx(ctx context.Context, tx *sqlx.Tx, doctorID uuid.UUID, date model.Date) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1 AND date = $2 AND status IN ('pending', 'confirmed')
	`
	var appointments []*model.Appointment
	if err := tx.SelectContext(ctx, &appointments, query, doctorID, date); err != nil {
		return nil, fmt.Errorf("failed to list active appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) HasRelationship(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND patient_id = $2 AND status != 'cancelled'
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, doctorID, patientID); err != nil {
		return false, fmt.Errorf("failed to check doctor-patient relationship: %w", err)
	}
	return exists, nil
}
