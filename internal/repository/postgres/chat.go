package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careconnect/api/internal/model"
)

func (r *chatRepository) SaveMessage(ctx context.Context, msg *model.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (
			id, user_id, session_id, role, content, type, metadata,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	msg.UpdatedAt = time.Now()

	if _, err := r.db.ExecContext(ctx, query,
		msg.ID,
		msg.UserID,
		msg.SessionID,
		msg.Role,
		msg.Content,
		msg.Type,
		msg.Metadata,
		msg.CreatedAt,
		msg.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to save chat message: %w", err)
	}
	return nil
}

func (r *chatRepository) History(ctx context.Context, userID uuid.UUID, sessionID string, limit int) ([]*model.ChatMessage, error) {
	query := `
		SELECT id, user_id, session_id, role, content, type, metadata,
			   created_at, updated_at
		FROM chat_messages
		WHERE user_id = $1 AND session_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	var messages []*model.ChatMessage
	if err := r.db.SelectContext(ctx, &messages, query, userID, sessionID, limit); err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}

	// Reverse to chronological order for the caller.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
