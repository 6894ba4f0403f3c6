package appointment

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/internal/service/access"
	apperrors "github.com/careconnect/api/pkg/errors"
	"github.com/careconnect/api/pkg/logger"
)

// In-memory fakes. The appointment fake reproduces the repository's
// check-under-lock booking semantics so concurrency behavior is testable.

type fakeAppointmentRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{byID: map[uuid.UUID]*model.Appointment{}}
}

func (f *fakeAppointmentRepo) Book(_ context.Context, apt *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.DoctorID == apt.DoctorID && existing.ConflictsWith(apt.Date, apt.Time, apt.EndTime) {
			return apperrors.SlotTaken(apt.Date.String(), apt.Time)
		}
	}
	apt.ID = uuid.New()
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = time.Now()
	stored := *apt
	f.byID[apt.ID] = &stored
	return nil
}

func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	apt, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NotFound("appointment")
	}
	copied := *apt
	return &copied, nil
}

func (f *fakeAppointmentRepo) Update(_ context.Context, apt *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[apt.ID]; !ok {
		return apperrors.NotFound("appointment")
	}
	stored := *apt
	f.byID[apt.ID] = &stored
	return nil
}

func (f *fakeAppointmentRepo) Complete(_ context.Context, apt *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.byID[apt.ID]
	if !ok {
		return apperrors.NotFound("appointment")
	}
	if stored.Status != model.AppointmentStatusConfirmed {
		return apperrors.Conflict("appointment is no longer confirmed")
	}
	copied := *apt
	f.byID[apt.ID] = &copied
	return nil
}

func (f *fakeAppointmentRepo) ListForPatient(_ context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Appointment
	for _, apt := range f.byID {
		if apt.PatientID == patientID {
			copied := *apt
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) ListForDoctor(_ context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Appointment
	for _, apt := range f.byID {
		if apt.DoctorID == doctorID {
			copied := *apt
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) ListActiveForDay(_ context.Context, doctorID uuid.UUID, date model.Date) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Appointment
	for _, apt := range f.byID {
		if apt.DoctorID == doctorID && apt.Date.Equal(date.Time) && apt.Status.Active() {
			copied := *apt
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) HasRelationship(_ context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, apt := range f.byID {
		if apt.DoctorID == doctorID && apt.PatientID == patientID && apt.Status != model.AppointmentStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

// put seeds an appointment directly, bypassing booking checks.
func (f *fakeAppointmentRepo) put(apt *model.Appointment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if apt.ID == uuid.Nil {
		apt.ID = uuid.New()
	}
	stored := *apt
	f.byID[apt.ID] = &stored
}

type fakeDoctorRepo struct {
	byID map[uuid.UUID]*model.Doctor
}

func (f *fakeDoctorRepo) Create(_ context.Context, d *model.Doctor) error {
	d.ID = uuid.New()
	f.byID[d.ID] = d
	return nil
}

func (f *fakeDoctorRepo) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	d, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NotFound("doctor")
	}
	return d, nil
}

func (f *fakeDoctorRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*model.Doctor, error) {
	for _, d := range f.byID {
		if d.UserID == userID {
			return d, nil
		}
	}
	return nil, apperrors.NotFound("doctor")
}

func (f *fakeDoctorRepo) Update(_ context.Context, d *model.Doctor) error { return nil }
func (f *fakeDoctorRepo) List(_ context.Context, _ *model.DoctorFilters) ([]*model.Doctor, error) {
	return nil, nil
}
func (f *fakeDoctorRepo) FirstAvailable(_ context.Context) (*model.Doctor, error) {
	for _, d := range f.byID {
		if d.Available {
			return d, nil
		}
	}
	return nil, apperrors.NotFound("available doctor")
}
func (f *fakeDoctorRepo) RecountStats(_ context.Context, _ uuid.UUID) error { return nil }

type fakePatientRepo struct {
	byID map[uuid.UUID]*model.Patient
}

func (f *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	p.ID = uuid.New()
	f.byID[p.ID] = p
	return nil
}

func (f *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NotFound("patient")
	}
	return p, nil
}

func (f *fakePatientRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*model.Patient, error) {
	for _, p := range f.byID {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, apperrors.NotFound("patient")
}

func (f *fakePatientRepo) Update(_ context.Context, _ *model.Patient) error { return nil }

type fakeEmitter struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeEmitter) Emit(_ context.Context, eventType string, _ interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
	return nil
}

func (f *fakeEmitter) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

type fixture struct {
	svc     *Service
	repo    *fakeAppointmentRepo
	emitter *fakeEmitter

	doctor  *model.Doctor
	patient *model.Patient

	doctorActor  access.Actor
	patientActor access.Actor
	adminActor   access.Actor
}

// testNow is a Tuesday at 08:00 UTC; bookings in tests target the next day.
var testNow = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	doctor := &model.Doctor{
		Base:            model.Base{ID: uuid.New()},
		UserID:          uuid.New(),
		Name:            "Dr. Sarah Chen",
		Specialty:       "cardiology",
		ConsultationFee: 150,
		Available:       true,
		WorkingHours:    model.DefaultWorkingHours(),
	}
	patient := &model.Patient{
		Base:   model.Base{ID: uuid.New()},
		UserID: uuid.New(),
		Name:   "John Miller",
	}

	doctors := &fakeDoctorRepo{byID: map[uuid.UUID]*model.Doctor{doctor.ID: doctor}}
	patients := &fakePatientRepo{byID: map[uuid.UUID]*model.Patient{patient.ID: patient}}
	repo := newFakeAppointmentRepo()
	emitter := &fakeEmitter{}

	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	svc := NewService(repo, doctors, patients, NewChecker(repo), emitter, log)
	svc.now = func() time.Time { return testNow }

	return &fixture{
		svc:          svc,
		repo:         repo,
		emitter:      emitter,
		doctor:       doctor,
		patient:      patient,
		doctorActor:  access.Actor{UserID: doctor.UserID, Role: model.RoleDoctor},
		patientActor: access.Actor{UserID: patient.UserID, Role: model.RolePatient},
		adminActor:   access.Actor{UserID: uuid.New(), Role: model.RoleAdmin},
	}
}

func (f *fixture) book(t *testing.T, slot string) *model.Appointment {
	t.Helper()
	apt, err := f.svc.Create(context.Background(), f.patientActor, &model.CreateAppointmentRequest{
		DoctorID: f.doctor.ID,
		Date:     "2026-09-02",
		Time:     slot,
		Reason:   "chest pain",
	})
	require.NoError(t, err)
	return apt
}

func TestCreateAppointment(t *testing.T) {
	f := newFixture(t)

	apt, err := f.svc.Create(context.Background(), f.patientActor, &model.CreateAppointmentRequest{
		DoctorID: f.doctor.ID,
		Date:     "2026-09-02",
		Time:     "10:00",
		Reason:   "chest pain",
		Symptoms: []string{"palpitations"},
	})
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusPending, apt.Status)
	assert.Equal(t, model.AppointmentTypeConsultation, apt.Type)
	assert.Equal(t, "John Miller", apt.PatientName)
	assert.Equal(t, "Dr. Sarah Chen", apt.DoctorName)
	assert.Equal(t, "cardiology", apt.Specialty)
	assert.Equal(t, 150.0, apt.Fee)
	assert.Equal(t, []string{model.EventAppointmentCreated}, f.emitter.types())
}

func TestCreateAppointmentRejectsPastDate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.patientActor, &model.CreateAppointmentRequest{
		DoctorID: f.doctor.ID,
		Date:     "2026-08-31",
		Time:     "10:00",
		Reason:   "checkup",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestCreateAppointmentOutsideWorkingHours(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		date string
		slot string
	}{
		{"after hours", "2026-09-02", "18:00"},
		{"before hours", "2026-09-02", "08:00"},
		{"weekend", "2026-09-05", "10:00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), f.patientActor, &model.CreateAppointmentRequest{
				DoctorID: f.doctor.ID,
				Date:     tc.date,
				Time:     tc.slot,
				Reason:   "checkup",
			})
			require.Error(t, err)
			assert.Equal(t, apperrors.KindOutsideWorkingHours, apperrors.KindOf(err))
		})
	}
}

func TestCreateAppointmentSlotTaken(t *testing.T) {
	f := newFixture(t)
	f.book(t, "10:00")

	_, err := f.svc.Create(context.Background(), f.patientActor, &model.CreateAppointmentRequest{
		DoctorID: f.doctor.ID,
		Date:     "2026-09-02",
		Time:     "10:00",
		Reason:   "second try",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindSlotTaken, apperrors.KindOf(err))
}

func TestCreateAppointmentDoctorCannotBook(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.doctorActor, &model.CreateAppointmentRequest{
		DoctorID: f.doctor.ID,
		Date:     "2026-09-02",
		Time:     "10:00",
		Reason:   "self-booking",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestUpdateStatusConfirm(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t, "10:00")

	updated, err := f.svc.UpdateStatus(context.Background(), f.doctorActor, apt.ID, &model.UpdateStatusRequest{
		Status: model.AppointmentStatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, updated.Status)
	assert.Contains(t, f.emitter.types(), model.EventAppointmentStatusChanged)
}

func TestUpdateStatusPatientCannotConfirm(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t, "10:00")

	_, err := f.svc.UpdateStatus(context.Background(), f.patientActor, apt.ID, &model.UpdateStatusRequest{
		Status: model.AppointmentStatusConfirmed,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestUpdateStatusInvalidTransitions(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		from model.AppointmentStatus
		to   model.AppointmentStatus
	}{
		{"pending to completed", model.AppointmentStatusPending, model.AppointmentStatusCompleted},
		{"pending to no-show", model.AppointmentStatusPending, model.AppointmentStatusNoShow},
		{"completed to confirmed", model.AppointmentStatusCompleted, model.AppointmentStatusConfirmed},
		{"cancelled to confirmed", model.AppointmentStatusCancelled, model.AppointmentStatusConfirmed},
		{"no-show to completed", model.AppointmentStatusNoShow, model.AppointmentStatusCompleted},
		{"confirmed to pending", model.AppointmentStatusConfirmed, model.AppointmentStatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			apt := &model.Appointment{
				PatientID: f.patient.ID,
				DoctorID:  f.doctor.ID,
				Date:      model.NewDate(testNow.AddDate(0, 0, 1)),
				Time:      "10:00",
				Status:    tc.from,
			}
			f.repo.put(apt)

			_, err := f.svc.UpdateStatus(context.Background(), f.doctorActor, apt.ID, &model.UpdateStatusRequest{
				Status: tc.to,
			})
			require.Error(t, err)
			assert.Equal(t, apperrors.KindInvalidTransition, apperrors.KindOf(err))
		})
	}
}

func TestUpdateStatusIdempotentRetry(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t, "10:00")

	_, err := f.svc.UpdateStatus(context.Background(), f.doctorActor, apt.ID, &model.UpdateStatusRequest{
		Status: model.AppointmentStatusConfirmed,
	})
	require.NoError(t, err)
	eventsAfterFirst := len(f.emitter.types())

	// Retrying the same transition is a no-op, not an error.
	again, err := f.svc.UpdateStatus(context.Background(), f.doctorActor, apt.ID, &model.UpdateStatusRequest{
		Status: model.AppointmentStatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, again.Status)
	assert.Len(t, f.emitter.types(), eventsAfterFirst)
}

func TestUpdateStatusComplete(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t, "10:00")

	_, err := f.svc.UpdateStatus(context.Background(), f.doctorActor, apt.ID, &model.UpdateStatusRequest{
		Status: model.AppointmentStatusConfirmed,
	})
	require.NoError(t, err)

	completed, err := f.svc.UpdateStatus(context.Background(), f.doctorActor, apt.ID, &model.UpdateStatusRequest{
		Status:       model.AppointmentStatusCompleted,
		Notes:        "follow up in two weeks",
		Diagnosis:    "arrhythmia",
		Prescription: "beta blockers",
		Vitals:       &model.Vitals{HeartRate: 88, BloodPressure: "130/85"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, completed.Status)
	assert.Equal(t, "arrhythmia", completed.Diagnosis)
	assert.Equal(t, "beta blockers", completed.Prescription)
	require.NotNil(t, completed.Vitals)
	assert.Equal(t, 88, completed.Vitals.HeartRate)
}

func TestUpdateStatusNoShowRequiresElapsedSlot(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t, "10:00")
	_, err := f.svc.UpdateStatus(context.Background(), f.doctorActor, apt.ID, &model.UpdateStatusRequest{
		Status: model.AppointmentStatusConfirmed,
	})
	require.NoError(t, err)

	// Before the slot has passed.
	_, err = f.svc.UpdateStatus(context.Background(), f.doctorActor, apt.ID, &model.UpdateStatusRequest{
		Status: model.AppointmentStatusNoShow,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	// After the slot has passed.
	f.svc.now = func() time.Time { return time.Date(2026, 9, 2, 11, 0, 0, 0, time.UTC) }
	marked, err := f.svc.UpdateStatus(context.Background(), f.doctorActor, apt.ID, &model.UpdateStatusRequest{
		Status: model.AppointmentStatusNoShow,
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusNoShow, marked.Status)
}

func TestCancelRecordsActor(t *testing.T) {
	f := newFixture(t)

	t.Run("patient cancels", func(t *testing.T) {
		apt := f.book(t, "10:00")
		cancelled, err := f.svc.Cancel(context.Background(), f.patientActor, apt.ID, &model.CancelAppointmentRequest{
			Reason: "feeling better",
		})
		require.NoError(t, err)
		assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
		require.NotNil(t, cancelled.CancelledBy)
		assert.Equal(t, model.CancelledByPatient, *cancelled.CancelledBy)
		require.NotNil(t, cancelled.CancelReason)
		assert.Equal(t, "feeling better", *cancelled.CancelReason)
	})

	t.Run("doctor rejects", func(t *testing.T) {
		apt := f.book(t, "11:00")
		cancelled, err := f.svc.Cancel(context.Background(), f.doctorActor, apt.ID, &model.CancelAppointmentRequest{
			Reason: "emergency surgery",
		})
		require.NoError(t, err)
		require.NotNil(t, cancelled.CancelledBy)
		assert.Equal(t, model.CancelledByDoctor, *cancelled.CancelledBy)
	})
}

func TestCancelledSlotBecomesBookableAgain(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t, "10:00")

	_, err := f.svc.Cancel(context.Background(), f.patientActor, apt.ID, &model.CancelAppointmentRequest{})
	require.NoError(t, err)

	rebooked := f.book(t, "10:00")
	assert.Equal(t, model.AppointmentStatusPending, rebooked.Status)
}

func TestGetAuthorization(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t, "10:00")

	_, err := f.svc.Get(context.Background(), f.patientActor, apt.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(context.Background(), f.doctorActor, apt.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(context.Background(), f.adminActor, apt.ID)
	assert.NoError(t, err)

	stranger := access.Actor{UserID: uuid.New(), Role: model.RolePatient}
	_, err = f.svc.Get(context.Background(), stranger, apt.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestConcurrentBookingSingleWinner(t *testing.T) {
	f := newFixture(t)

	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), f.patientActor, &model.CreateAppointmentRequest{
				DoctorID: f.doctor.ID,
				Date:     "2026-09-02",
				Time:     "14:00",
				Reason:   "race",
			})
			errs[i] = err
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.Equal(t, apperrors.KindSlotTaken, apperrors.KindOf(err))
		}
	}
	assert.Equal(t, 1, winners)
}
