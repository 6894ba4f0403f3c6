package model

import (
	"database/sql/driver"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type BloodType string

const (
	BloodTypeAPositive  BloodType = "A+"
	BloodTypeANegative  BloodType = "A-"
	BloodTypeBPositive  BloodType = "B+"
	BloodTypeBNegative  BloodType = "B-"
	BloodTypeABPositive BloodType = "AB+"
	BloodTypeABNegative BloodType = "AB-"
	BloodTypeOPositive  BloodType = "O+"
	BloodTypeONegative  BloodType = "O-"
)

func (b BloodType) Valid() bool {
	switch b {
	case BloodTypeAPositive, BloodTypeANegative, BloodTypeBPositive, BloodTypeBNegative,
		BloodTypeABPositive, BloodTypeABNegative, BloodTypeOPositive, BloodTypeONegative:
		return true
	}
	return false
}

type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
}

type MedicationList []Medication

func (l MedicationList) Value() (driver.Value, error) { return jsonValue(l) }
func (l *MedicationList) Scan(src interface{}) error  { return jsonScan(src, l) }

type EmergencyContact struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation"`
}

func (c EmergencyContact) Value() (driver.Value, error) { return jsonValue(c) }
func (c *EmergencyContact) Scan(src interface{}) error  { return jsonScan(src, c) }

type InsuranceInfo struct {
	Provider     string `json:"provider"`
	PolicyNumber string `json:"policyNumber"`
}

func (i InsuranceInfo) Value() (driver.Value, error) { return jsonValue(i) }
func (i *InsuranceInfo) Scan(src interface{}) error  { return jsonScan(src, i) }

// Patient is the 1:1 medical profile of a user with role=patient.
// AppointmentIDs and MedicalRecordIDs are convenience indexes maintained by the
// lifecycle/record services; they never drive deletion.
type Patient struct {
	Base
	UserID            uuid.UUID        `db:"user_id" json:"userId"`
	Name              string           `db:"name" json:"name"`
	DateOfBirth       *Date            `db:"date_of_birth" json:"dateOfBirth,omitempty"`
	Gender            string           `db:"gender" json:"gender,omitempty"`
	BloodType         BloodType        `db:"blood_type" json:"bloodType,omitempty"`
	Allergies         pq.StringArray   `db:"allergies" json:"allergies"`
	ChronicConditions pq.StringArray   `db:"chronic_conditions" json:"chronicConditions"`
	Medications       MedicationList   `db:"medications" json:"medications"`
	EmergencyContact  EmergencyContact `db:"emergency_contact" json:"emergencyContact"`
	Insurance         InsuranceInfo    `db:"insurance" json:"insurance"`
	HealthScore       int              `db:"health_score" json:"healthScore"`
	AppointmentIDs    UUIDList         `db:"appointment_ids" json:"appointments"`
	MedicalRecordIDs  UUIDList         `db:"medical_record_ids" json:"medicalRecords"`
	LastCheckup       *Date            `db:"last_checkup" json:"lastCheckup,omitempty"`
}

type UpdatePatientRequest struct {
	DateOfBirth       *Date             `json:"dateOfBirth"`
	Gender            *string           `json:"gender" binding:"omitempty,oneof=male female other"`
	BloodType         *BloodType        `json:"bloodType" binding:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Allergies         []string          `json:"allergies"`
	ChronicConditions []string          `json:"chronicConditions"`
	Medications       MedicationList    `json:"medications"`
	EmergencyContact  *EmergencyContact `json:"emergencyContact"`
	Insurance         *InsuranceInfo    `json:"insurance"`
	HealthScore       *int              `json:"healthScore" binding:"omitempty,min=0,max=100"`
}
