package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careconnect/api/internal/model"
	apperrors "github.com/careconnect/api/pkg/errors"
)

const emergencyColumns = `
	id, patient_id, doctor_id, status, severity, location, start_time, end_time,
	notes, created_at, updated_at
`

func (r *emergencyRepository) Create(ctx context.Context, session *model.EmergencySession) error {
	query := `
		INSERT INTO emergency_sessions (` + emergencyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	session.UpdatedAt = time.Now()

	if _, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.PatientID,
		session.DoctorID,
		session.Status,
		session.Severity,
		session.Location,
		session.StartTime,
		session.EndTime,
		session.Notes,
		session.CreatedAt,
		session.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create emergency session: %w", err)
	}
	return nil
}

func (r *emergencyRepository) Get(ctx context.Context, id uuid.UUID) (*model.EmergencySession, error) {
	query := `SELECT ` + emergencyColumns + ` FROM emergency_sessions WHERE id = $1`

	var session model.EmergencySession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("emergency session")
		}
		return nil, fmt.Errorf("failed to get emergency session: %w", err)
	}
	return &session, nil
}

func (r *emergencyRepository) Update(ctx context.Context, session *model.EmergencySession) error {
	query := `
		UPDATE emergency_sessions
		SET status = $1, end_time = $2, notes = $3, updated_at = $4
		WHERE id = $5
	`
	session.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		session.Status,
		session.EndTime,
		session.Notes,
		session.UpdatedAt,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update emergency session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("emergency session")
	}
	return nil
}
