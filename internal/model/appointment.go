package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no-show"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCompleted,
		AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

// Active appointments count against slot availability.
func (s AppointmentStatus) Active() bool {
	return s == AppointmentStatusPending || s == AppointmentStatusConfirmed
}

// Terminal statuses permit no further transitions.
func (s AppointmentStatus) Terminal() bool {
	switch s {
	case AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

type AppointmentType string

const (
	AppointmentTypeConsultation AppointmentType = "consultation"
	AppointmentTypeFollowUp     AppointmentType = "follow-up"
	AppointmentTypeCheckUp      AppointmentType = "check-up"
	AppointmentTypeEmergency    AppointmentType = "emergency"
)

// CancelActor records who triggered a cancellation.
type CancelActor string

const (
	CancelledByPatient CancelActor = "patient"
	CancelledByDoctor  CancelActor = "doctor"
	CancelledBySystem  CancelActor = "system"
)

type Vitals struct {
	BloodPressure string  `json:"bloodPressure,omitempty"`
	HeartRate     int     `json:"heartRate,omitempty"`
	Temperature   float64 `json:"temperature,omitempty"`
	Weight        float64 `json:"weight,omitempty"`
}

func (v Vitals) Value() (driver.Value, error) { return jsonValue(v) }
func (v *Vitals) Scan(src interface{}) error  { return jsonScan(src, v) }

// SlotDuration is the bucket size slot labels are generated on.
const SlotDuration = 30 * time.Minute

const slotLayout = "15:04"

// ParseSlot validates an "HH:MM" slot label and returns its offset from
// midnight.
func ParseSlot(label string) (time.Duration, error) {
	t, err := time.Parse(slotLayout, label)
	if err != nil {
		return 0, fmt.Errorf("invalid slot label %q: %w", label, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Appointment is the central workflow entity. PatientName, DoctorName,
// Specialty and Fee are snapshots taken at booking time and are not kept in
// sync with later profile edits. Appointments are never deleted, only moved to
// a terminal status.
type Appointment struct {
	Base
	PatientID    uuid.UUID         `db:"patient_id" json:"patientId"`
	DoctorID     uuid.UUID         `db:"doctor_id" json:"doctorId"`
	PatientName  string            `db:"patient_name" json:"patientName"`
	DoctorName   string            `db:"doctor_name" json:"doctorName"`
	Date         Date              `db:"date" json:"date"`
	Time         string            `db:"time" json:"time"`
	EndTime      *string           `db:"end_time" json:"endTime,omitempty"`
	Type         AppointmentType   `db:"type" json:"type"`
	Specialty    string            `db:"specialty" json:"specialty"`
	Reason       string            `db:"reason" json:"reason"`
	Symptoms     pq.StringArray    `db:"symptoms" json:"symptoms"`
	Status       AppointmentStatus `db:"status" json:"status"`
	Notes        string            `db:"notes" json:"notes,omitempty"`
	Diagnosis    string            `db:"diagnosis" json:"diagnosis,omitempty"`
	Prescription string            `db:"prescription" json:"prescription,omitempty"`
	Vitals       *Vitals           `db:"vitals" json:"vitals,omitempty"`
	Fee          float64           `db:"fee" json:"fee"`
	CancelReason *string           `db:"cancel_reason" json:"cancelReason,omitempty"`
	CancelledBy  *CancelActor      `db:"cancelled_by" json:"cancelledBy,omitempty"`
}

// StartsAt combines date and slot label into a point in time.
func (a *Appointment) StartsAt() time.Time {
	offset, err := ParseSlot(a.Time)
	if err != nil {
		return a.Date.Time
	}
	return a.Date.Add(offset)
}

// interval returns the appointment's [start, end) offsets within its day.
// Without an explicit end the slot occupies exactly one bucket.
func (a *Appointment) interval() (time.Duration, time.Duration) {
	start, _ := ParseSlot(a.Time)
	end := start + SlotDuration
	if a.EndTime != nil {
		if parsed, err := ParseSlot(*a.EndTime); err == nil && parsed > start {
			end = parsed
		}
	}
	return start, end
}

// ConflictsWith reports whether an active appointment blocks a booking for the
// given slot on the same doctor and day. Without explicit end times this is an
// exact slot-bucket match; with one, a true interval-overlap check.
func (a *Appointment) ConflictsWith(date Date, slot string, endTime *string) bool {
	if !a.Status.Active() || !a.Date.Equal(date.Time) {
		return false
	}
	if a.EndTime == nil && endTime == nil {
		return a.Time == slot
	}

	probe := Appointment{Date: date, Time: slot, EndTime: endTime}
	aStart, aEnd := a.interval()
	pStart, pEnd := probe.interval()
	return aStart < pEnd && pStart < aEnd
}

type CreateAppointmentRequest struct {
	DoctorID uuid.UUID       `json:"doctorId" binding:"required"`
	Date     string          `json:"date" binding:"required"`
	Time     string          `json:"time" binding:"required,slot"`
	EndTime  *string         `json:"endTime" binding:"omitempty,slot"`
	Type     AppointmentType `json:"type" binding:"omitempty,oneof=consultation follow-up check-up emergency"`
	Reason   string          `json:"reason" binding:"required,max=1000"`
	Symptoms []string        `json:"symptoms"`
}

// UpdateStatusRequest drives one state-machine transition. The clinical fields
// are merged only when transitioning to completed.
type UpdateStatusRequest struct {
	Status       AppointmentStatus `json:"status" binding:"required,oneof=pending confirmed completed cancelled no-show"`
	Notes        string            `json:"notes"`
	Diagnosis    string            `json:"diagnosis"`
	Prescription string            `json:"prescription"`
	Vitals       *Vitals           `json:"vitals"`
	Reason       string            `json:"reason"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// TimeSlot is one bookable window offered by the availability endpoint.
type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}
