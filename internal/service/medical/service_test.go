package medical

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/internal/service/access"
	apperrors "github.com/careconnect/api/pkg/errors"
	"github.com/careconnect/api/pkg/logger"
)

type stubRecordRepo struct {
	byID map[uuid.UUID]*model.MedicalRecord
}

func (s *stubRecordRepo) Create(_ context.Context, r *model.MedicalRecord) error {
	r.ID = uuid.New()
	s.byID[r.ID] = r
	return nil
}

func (s *stubRecordRepo) Get(_ context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	r, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NotFound("medical record")
	}
	copied := *r
	return &copied, nil
}

func (s *stubRecordRepo) Update(_ context.Context, r *model.MedicalRecord) error {
	if _, ok := s.byID[r.ID]; !ok {
		return apperrors.NotFound("medical record")
	}
	copied := *r
	s.byID[r.ID] = &copied
	return nil
}

func (s *stubRecordRepo) ListForPatient(_ context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error) {
	var out []*model.MedicalRecord
	for _, r := range s.byID {
		if r.PatientID == patientID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

type stubDoctorRepo struct{ doctor *model.Doctor }

func (s *stubDoctorRepo) Create(_ context.Context, _ *model.Doctor) error { return nil }
func (s *stubDoctorRepo) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	if s.doctor != nil && s.doctor.ID == id {
		return s.doctor, nil
	}
	return nil, apperrors.NotFound("doctor")
}
func (s *stubDoctorRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*model.Doctor, error) {
	if s.doctor != nil && s.doctor.UserID == userID {
		return s.doctor, nil
	}
	return nil, apperrors.NotFound("doctor")
}
func (s *stubDoctorRepo) Update(_ context.Context, _ *model.Doctor) error { return nil }
func (s *stubDoctorRepo) List(_ context.Context, _ *model.DoctorFilters) ([]*model.Doctor, error) {
	return nil, nil
}
func (s *stubDoctorRepo) FirstAvailable(_ context.Context) (*model.Doctor, error) {
	return s.doctor, nil
}
func (s *stubDoctorRepo) RecountStats(_ context.Context, _ uuid.UUID) error { return nil }

type stubPatientRepo struct{ patient *model.Patient }

func (s *stubPatientRepo) Create(_ context.Context, _ *model.Patient) error { return nil }
func (s *stubPatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	if s.patient != nil && s.patient.ID == id {
		return s.patient, nil
	}
	return nil, apperrors.NotFound("patient")
}
func (s *stubPatientRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*model.Patient, error) {
	if s.patient != nil && s.patient.UserID == userID {
		return s.patient, nil
	}
	return nil, apperrors.NotFound("patient")
}
func (s *stubPatientRepo) Update(_ context.Context, _ *model.Patient) error { return nil }

type stubAppointmentRepo struct{ related bool }

func (s *stubAppointmentRepo) Book(_ context.Context, _ *model.Appointment) error { return nil }
func (s *stubAppointmentRepo) Get(_ context.Context, _ uuid.UUID) (*model.Appointment, error) {
	return nil, apperrors.NotFound("appointment")
}
func (s *stubAppointmentRepo) Update(_ context.Context, _ *model.Appointment) error   { return nil }
func (s *stubAppointmentRepo) Complete(_ context.Context, _ *model.Appointment) error { return nil }
func (s *stubAppointmentRepo) ListForPatient(_ context.Context, _ uuid.UUID) ([]*model.Appointment, error) {
	return nil, nil
}
func (s *stubAppointmentRepo) ListForDoctor(_ context.Context, _ uuid.UUID) ([]*model.Appointment, error) {
	return nil, nil
}
func (s *stubAppointmentRepo) ListActiveForDay(_ context.Context, _ uuid.UUID, _ model.Date) ([]*model.Appointment, error) {
	return nil, nil
}
func (s *stubAppointmentRepo) HasRelationship(_ context.Context, _, _ uuid.UUID) (bool, error) {
	return s.related, nil
}

type medicalFixture struct {
	svc          *Service
	records      *stubRecordRepo
	appointments *stubAppointmentRepo

	doctor  *model.Doctor
	patient *model.Patient

	doctorActor  access.Actor
	patientActor access.Actor
}

func newMedicalFixture(t *testing.T, related bool) *medicalFixture {
	t.Helper()

	doctor := &model.Doctor{Base: model.Base{ID: uuid.New()}, UserID: uuid.New(), Name: "Dr. Chen"}
	patient := &model.Patient{Base: model.Base{ID: uuid.New()}, UserID: uuid.New(), Name: "John"}

	records := &stubRecordRepo{byID: map[uuid.UUID]*model.MedicalRecord{}}
	appointments := &stubAppointmentRepo{related: related}
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})

	svc := NewService(records, &stubDoctorRepo{doctor: doctor}, &stubPatientRepo{patient: patient}, appointments, log)
	return &medicalFixture{
		svc:          svc,
		records:      records,
		appointments: appointments,
		doctor:       doctor,
		patient:      patient,
		doctorActor:  access.Actor{UserID: doctor.UserID, Role: model.RoleDoctor},
		patientActor: access.Actor{UserID: patient.UserID, Role: model.RolePatient},
	}
}

func TestCreateRecordRequiresRelationship(t *testing.T) {
	f := newMedicalFixture(t, false)

	_, err := f.svc.Create(context.Background(), f.doctorActor, &model.CreateMedicalRecordRequest{
		PatientID:  f.patient.ID,
		RecordType: model.RecordTypeDiagnosis,
		Title:      "Hypertension",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestCreateRecord(t *testing.T) {
	f := newMedicalFixture(t, true)

	record, err := f.svc.Create(context.Background(), f.doctorActor, &model.CreateMedicalRecordRequest{
		PatientID:  f.patient.ID,
		RecordType: model.RecordTypeDiagnosis,
		Title:      "Hypertension",
		Diagnosis:  "stage 1 hypertension",
	})
	require.NoError(t, err)
	assert.Equal(t, f.doctor.ID, record.DoctorID)
	assert.Equal(t, f.patient.ID, record.PatientID)
	assert.False(t, record.RecordDate.IsZero())
}

func TestCreateRecordPatientForbidden(t *testing.T) {
	f := newMedicalFixture(t, true)

	_, err := f.svc.Create(context.Background(), f.patientActor, &model.CreateMedicalRecordRequest{
		PatientID:  f.patient.ID,
		RecordType: model.RecordTypeOther,
		Title:      "self-authored",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestConfidentialRecordHiddenFromPatient(t *testing.T) {
	f := newMedicalFixture(t, true)

	record, err := f.svc.Create(context.Background(), f.doctorActor, &model.CreateMedicalRecordRequest{
		PatientID:    f.patient.ID,
		RecordType:   model.RecordTypeOther,
		Title:        "psych evaluation",
		Confidential: true,
	})
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), f.patientActor, record.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	// The authoring doctor still sees it.
	_, err = f.svc.Get(context.Background(), f.doctorActor, record.ID)
	assert.NoError(t, err)

	// And it is filtered from the patient's listing.
	listed, err := f.svc.ListForPatient(context.Background(), f.patientActor, f.patient.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestAmendRecordAppendsOnly(t *testing.T) {
	f := newMedicalFixture(t, true)

	record, err := f.svc.Create(context.Background(), f.doctorActor, &model.CreateMedicalRecordRequest{
		PatientID:   f.patient.ID,
		RecordType:  model.RecordTypePrescription,
		Title:       "initial prescription",
		Medications: model.MedicationList{{Name: "lisinopril", Dosage: "10mg", Frequency: "daily"}},
	})
	require.NoError(t, err)

	amended, err := f.svc.Amend(context.Background(), f.doctorActor, record.ID, &model.AmendMedicalRecordRequest{
		Medications: model.MedicationList{{Name: "amlodipine", Dosage: "5mg", Frequency: "daily"}},
	})
	require.NoError(t, err)
	require.Len(t, amended.Medications, 2)
	assert.Equal(t, "lisinopril", amended.Medications[0].Name)
	assert.Equal(t, "amlodipine", amended.Medications[1].Name)
}

func TestAmendRecordOnlyAuthor(t *testing.T) {
	f := newMedicalFixture(t, true)

	record, err := f.svc.Create(context.Background(), f.doctorActor, &model.CreateMedicalRecordRequest{
		PatientID:  f.patient.ID,
		RecordType: model.RecordTypeOther,
		Title:      "note",
	})
	require.NoError(t, err)

	otherDoctor := access.Actor{UserID: uuid.New(), Role: model.RoleDoctor}
	_, err = f.svc.Amend(context.Background(), otherDoctor, record.ID, &model.AmendMedicalRecordRequest{})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	_, err = f.svc.Amend(context.Background(), f.patientActor, record.ID, &model.AmendMedicalRecordRequest{})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}
