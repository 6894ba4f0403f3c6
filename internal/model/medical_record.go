package model

import (
	"database/sql/driver"

	"github.com/google/uuid"
)

type RecordType string

const (
	RecordTypeLabReport        RecordType = "lab-report"
	RecordTypePrescription     RecordType = "prescription"
	RecordTypeImaging          RecordType = "imaging"
	RecordTypeDiagnosis        RecordType = "diagnosis"
	RecordTypeVaccination      RecordType = "vaccination"
	RecordTypeSurgery          RecordType = "surgery"
	RecordTypeDischargeSummary RecordType = "discharge-summary"
	RecordTypeOther            RecordType = "other"
)

type LabResultStatus string

const (
	LabResultNormal   LabResultStatus = "normal"
	LabResultAbnormal LabResultStatus = "abnormal"
	LabResultCritical LabResultStatus = "critical"
)

type LabResult struct {
	Name   string          `json:"name"`
	Value  string          `json:"value"`
	Unit   string          `json:"unit,omitempty"`
	Status LabResultStatus `json:"status"`
}

type LabResultList []LabResult

func (l LabResultList) Value() (driver.Value, error) { return jsonValue(l) }
func (l *LabResultList) Scan(src interface{}) error  { return jsonScan(src, l) }

type Attachment struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	ContentType string `json:"type,omitempty"`
}

type AttachmentList []Attachment

func (l AttachmentList) Value() (driver.Value, error) { return jsonValue(l) }
func (l *AttachmentList) Scan(src interface{}) error  { return jsonScan(src, l) }

// MedicalRecord is authored by a doctor for one of their patients. Records are
// append-only: only the authoring doctor may amend one after creation.
type MedicalRecord struct {
	Base
	PatientID            uuid.UUID      `db:"patient_id" json:"patientId"`
	DoctorID             uuid.UUID      `db:"doctor_id" json:"doctorId"`
	AppointmentID        *uuid.UUID     `db:"appointment_id" json:"appointmentId,omitempty"`
	RecordType           RecordType     `db:"record_type" json:"recordType"`
	Title                string         `db:"title" json:"title"`
	Description          string         `db:"description" json:"description,omitempty"`
	Diagnosis            string         `db:"diagnosis" json:"diagnosis,omitempty"`
	Treatment            string         `db:"treatment" json:"treatment,omitempty"`
	Medications          MedicationList `db:"medications" json:"medications"`
	LabResults           LabResultList  `db:"lab_results" json:"labResults"`
	Vitals               *Vitals        `db:"vitals" json:"vitals,omitempty"`
	Attachments          AttachmentList `db:"attachments" json:"attachments"`
	FollowUpDate         *Date          `db:"follow_up_date" json:"followUpDate,omitempty"`
	FollowUpInstructions string         `db:"follow_up_instructions" json:"followUpInstructions,omitempty"`
	Confidential         bool           `db:"confidential" json:"confidential"`
	RecordDate           Date           `db:"record_date" json:"recordDate"`
}

type CreateMedicalRecordRequest struct {
	PatientID            uuid.UUID      `json:"patientId" binding:"required"`
	AppointmentID        *uuid.UUID     `json:"appointmentId"`
	RecordType           RecordType     `json:"recordType" binding:"required,oneof=lab-report prescription imaging diagnosis vaccination surgery discharge-summary other"`
	Title                string         `json:"title" binding:"required,max=200"`
	Description          string         `json:"description" binding:"max=5000"`
	Diagnosis            string         `json:"diagnosis"`
	Treatment            string         `json:"treatment"`
	Medications          MedicationList `json:"medications"`
	LabResults           LabResultList  `json:"labResults"`
	Vitals               *Vitals        `json:"vitals"`
	Attachments          AttachmentList `json:"attachments"`
	FollowUpDate         *Date          `json:"followUpDate"`
	FollowUpInstructions string         `json:"followUpInstructions"`
	Confidential         bool           `json:"confidential"`
	RecordDate           *Date          `json:"recordDate"`
}

// AmendMedicalRecordRequest appends to an existing record; it cannot rewrite
// the original clinical narrative.
type AmendMedicalRecordRequest struct {
	Treatment            *string        `json:"treatment"`
	Medications          MedicationList `json:"medications"`
	LabResults           LabResultList  `json:"labResults"`
	Attachments          AttachmentList `json:"attachments"`
	FollowUpDate         *Date          `json:"followUpDate"`
	FollowUpInstructions *string        `json:"followUpInstructions"`
}
