package model

import (
	"database/sql/driver"

	"github.com/google/uuid"
)

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

type ChatMessageType string

const (
	ChatMessageText      ChatMessageType = "text"
	ChatMessageSymptom   ChatMessageType = "symptom"
	ChatMessageAdvice    ChatMessageType = "advice"
	ChatMessageEmergency ChatMessageType = "emergency"
)

type ChatMetadata struct {
	Symptoms             []string `json:"symptoms,omitempty"`
	Severity             int      `json:"severity,omitempty"`
	RecommendedSpecialty string   `json:"recommendedSpecialty,omitempty"`
	RecommendedAction    string   `json:"recommendedAction,omitempty"`
	RedFlags             []string `json:"redFlags,omitempty"`
}

func (m ChatMetadata) Value() (driver.Value, error) { return jsonValue(m) }
func (m *ChatMetadata) Scan(src interface{}) error  { return jsonScan(src, m) }

type ChatMessage struct {
	Base
	UserID    uuid.UUID       `db:"user_id" json:"userId"`
	SessionID string          `db:"session_id" json:"sessionId"`
	Role      ChatRole        `db:"role" json:"role"`
	Content   string          `db:"content" json:"content"`
	Type      ChatMessageType `db:"type" json:"type"`
	Metadata  ChatMetadata    `db:"metadata" json:"metadata"`
}

type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message" binding:"required,max=2000"`
}
