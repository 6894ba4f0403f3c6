package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

type EmergencyStatus string

const (
	EmergencyStatusConnecting EmergencyStatus = "connecting"
	EmergencyStatusConnected  EmergencyStatus = "connected"
	EmergencyStatusEnded      EmergencyStatus = "ended"
)

type EmergencySeverity string

const (
	EmergencySeverityLow      EmergencySeverity = "low"
	EmergencySeverityMedium   EmergencySeverity = "medium"
	EmergencySeverityHigh     EmergencySeverity = "high"
	EmergencySeverityCritical EmergencySeverity = "critical"
)

type Location struct {
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	Address   string  `json:"address,omitempty"`
}

func (l Location) Value() (driver.Value, error) { return jsonValue(l) }
func (l *Location) Scan(src interface{}) error  { return jsonScan(src, l) }

// EmergencySession tracks an emergency-connect request from dispatch to
// hang-up. Call signaling itself happens outside this service.
type EmergencySession struct {
	Base
	PatientID uuid.UUID         `db:"patient_id" json:"patientId"`
	DoctorID  uuid.UUID         `db:"doctor_id" json:"doctorId"`
	Status    EmergencyStatus   `db:"status" json:"status"`
	Severity  EmergencySeverity `db:"severity" json:"severity"`
	Location  Location          `db:"location" json:"location"`
	StartTime time.Time         `db:"start_time" json:"startTime"`
	EndTime   *time.Time        `db:"end_time" json:"endTime,omitempty"`
	Notes     string            `db:"notes" json:"notes,omitempty"`
}

type EmergencyConnectRequest struct {
	Severity EmergencySeverity `json:"severity" binding:"omitempty,oneof=low medium high critical"`
	Location Location          `json:"location"`
	Notes    string            `json:"notes" binding:"max=1000"`
}
