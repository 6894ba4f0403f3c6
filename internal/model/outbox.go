package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Domain event types emitted through the outbox.
const (
	EventAppointmentCreated       = "APPOINTMENT_CREATED"
	EventAppointmentStatusChanged = "APPOINTMENT_STATUS_CHANGED"
	EventEmergencyRequested       = "EMERGENCY_REQUESTED"
	EventEmergencyAccepted        = "EMERGENCY_ACCEPTED"
	EventEmergencyEnded           = "EMERGENCY_ENDED"
)

// AppointmentEvent is the payload carried by appointment outbox events.
type AppointmentEvent struct {
	Appointment *Appointment      `json:"appointment"`
	From        AppointmentStatus `json:"from,omitempty"`
	To          AppointmentStatus `json:"to,omitempty"`
}

// EmergencyEvent is the payload carried by emergency outbox events.
type EmergencyEvent struct {
	Session *EmergencySession `json:"session"`
}

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}
