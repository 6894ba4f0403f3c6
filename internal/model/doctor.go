package model

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DayHours is one weekday's booking window. Slot labels run from Start
// (inclusive) to End (exclusive) in fixed buckets.
type DayHours struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

// WorkingHours maps lowercase weekday names ("monday") to booking windows.
type WorkingHours map[string]DayHours

func (w WorkingHours) Value() (driver.Value, error) { return jsonValue(w) }
func (w *WorkingHours) Scan(src interface{}) error  { return jsonScan(src, w) }

// ForWeekday returns the window for a weekday, if configured.
func (w WorkingHours) ForWeekday(day time.Weekday) (DayHours, bool) {
	hours, ok := w[strings.ToLower(day.String())]
	return hours, ok
}

// DefaultWorkingHours is the Mon-Fri 09:00-17:00 schedule new doctors start with.
func DefaultWorkingHours() WorkingHours {
	hours := WorkingHours{}
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday"} {
		hours[day] = DayHours{Start: "09:00", End: "17:00", Available: true}
	}
	for _, day := range []string{"saturday", "sunday"} {
		hours[day] = DayHours{Available: false}
	}
	return hours
}

// Doctor is the 1:1 professional profile of a user with role=doctor.
// TotalAppointments and CompletedAppointments are denormalized counters
// maintained by the appointment lifecycle inside its transactions.
type Doctor struct {
	Base
	UserID                uuid.UUID    `db:"user_id" json:"userId"`
	Name                  string       `db:"name" json:"name"`
	Specialty             string       `db:"specialty" json:"specialty"`
	LicenseNumber         string       `db:"license_number" json:"licenseNumber,omitempty"`
	Experience            int          `db:"experience" json:"experience"`
	Bio                   string       `db:"bio" json:"bio,omitempty"`
	ConsultationFee       float64      `db:"consultation_fee" json:"consultationFee"`
	Rating                float64      `db:"rating" json:"rating"`
	Available             bool         `db:"available" json:"isAvailable"`
	WorkingHours          WorkingHours `db:"working_hours" json:"workingHours"`
	TotalAppointments     int          `db:"total_appointments" json:"totalAppointments"`
	CompletedAppointments int          `db:"completed_appointments" json:"completedAppointments"`
	PatientIDs            UUIDList     `db:"patient_ids" json:"patients"`
}

type UpdateDoctorRequest struct {
	Specialty       *string      `json:"specialty"`
	LicenseNumber   *string      `json:"licenseNumber"`
	Experience      *int         `json:"experience" binding:"omitempty,min=0"`
	Bio             *string      `json:"bio" binding:"omitempty,max=2000"`
	ConsultationFee *float64     `json:"consultationFee" binding:"omitempty,min=0"`
	Available       *bool        `json:"isAvailable"`
	WorkingHours    WorkingHours `json:"workingHours"`
}

type DoctorFilters struct {
	Specialty string `form:"specialty"`
	Available *bool  `form:"available"`
	Search    string `form:"search"`
}
