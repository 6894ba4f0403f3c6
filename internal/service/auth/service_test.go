package auth_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/internal/service/auth"
	pkgauth "github.com/careconnect/api/pkg/auth"
	apperrors "github.com/careconnect/api/pkg/errors"
	"github.com/careconnect/api/pkg/logger"
	"github.com/careconnect/api/pkg/security"
)

type memUsers struct {
	byID    map[uuid.UUID]*model.User
	byEmail map[string]*model.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[uuid.UUID]*model.User{}, byEmail: map[string]*model.User{}}
}

func (m *memUsers) Create(_ context.Context, user *model.User) error {
	if _, exists := m.byEmail[strings.ToLower(user.Email)]; exists {
		return apperrors.Conflict("email is already registered")
	}
	user.ID = uuid.New()
	m.byID[user.ID] = user
	m.byEmail[strings.ToLower(user.Email)] = user
	return nil
}

func (m *memUsers) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	return user, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	user, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	return user, nil
}

func (m *memUsers) Update(_ context.Context, user *model.User) error {
	m.byID[user.ID] = user
	return nil
}

func (m *memUsers) Deactivate(_ context.Context, id uuid.UUID) error {
	if user, ok := m.byID[id]; ok {
		user.Active = false
	}
	return nil
}

type memDoctorProfiles struct{ created []*model.Doctor }

func (m *memDoctorProfiles) Create(_ context.Context, doctor *model.Doctor) error {
	doctor.ID = uuid.New()
	m.created = append(m.created, doctor)
	return nil
}
func (m *memDoctorProfiles) Get(_ context.Context, _ uuid.UUID) (*model.Doctor, error) {
	return nil, apperrors.NotFound("doctor")
}
func (m *memDoctorProfiles) GetByUserID(_ context.Context, _ uuid.UUID) (*model.Doctor, error) {
	return nil, apperrors.NotFound("doctor")
}
func (m *memDoctorProfiles) Update(_ context.Context, _ *model.Doctor) error { return nil }
func (m *memDoctorProfiles) List(_ context.Context, _ *model.DoctorFilters) ([]*model.Doctor, error) {
	return nil, nil
}
func (m *memDoctorProfiles) FirstAvailable(_ context.Context) (*model.Doctor, error) {
	return nil, apperrors.NotFound("doctor")
}
func (m *memDoctorProfiles) RecountStats(_ context.Context, _ uuid.UUID) error { return nil }

type memPatientProfiles struct{ created []*model.Patient }

func (m *memPatientProfiles) Create(_ context.Context, patient *model.Patient) error {
	patient.ID = uuid.New()
	m.created = append(m.created, patient)
	return nil
}
func (m *memPatientProfiles) Get(_ context.Context, _ uuid.UUID) (*model.Patient, error) {
	return nil, apperrors.NotFound("patient")
}
func (m *memPatientProfiles) GetByUserID(_ context.Context, _ uuid.UUID) (*model.Patient, error) {
	return nil, apperrors.NotFound("patient")
}
func (m *memPatientProfiles) Update(_ context.Context, _ *model.Patient) error { return nil }

type fixture struct {
	svc      *auth.Service
	users    *memUsers
	doctors  *memDoctorProfiles
	patients *memPatientProfiles
	tokens   pkgauth.TokenService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := newMemUsers()
	doctors := &memDoctorProfiles{}
	patients := &memPatientProfiles{}
	tokens := pkgauth.NewJWTService(pkgauth.Config{
		Secret:        "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		Expiry:        15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
	})
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	svc := auth.NewService(users, doctors, patients, tokens, security.NewBcryptHasher(bcrypt.MinCost), log)
	return &fixture{svc: svc, users: users, doctors: doctors, patients: patients, tokens: tokens}
}

func registerPatient(t *testing.T, f *fixture, email, password string) *model.TokenResponse {
	t.Helper()
	resp, err := f.svc.Register(context.Background(), &model.RegisterRequest{
		Name:     "Test Patient",
		Email:    email,
		Password: password,
		Role:     model.RolePatient,
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterPatientCreatesProfile(t *testing.T) {
	f := newFixture(t)

	resp := registerPatient(t, f, "pat@example.com", "correct-horse-battery")

	require.NotNil(t, resp.User)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	require.Len(t, f.patients.created, 1)
	assert.Equal(t, resp.User.ID, f.patients.created[0].UserID)

	claims, err := f.tokens.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "patient", claims.Role)
}

func TestRegisterDoctorRequiresCredentials(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), &model.RegisterRequest{
		Name:     "Dr. Incomplete",
		Email:    "doc@example.com",
		Password: "long-enough-pass",
		Role:     model.RoleDoctor,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	resp, err := f.svc.Register(context.Background(), &model.RegisterRequest{
		Name:          "Dr. Complete",
		Email:         "doc@example.com",
		Password:      "long-enough-pass",
		Role:          model.RoleDoctor,
		Specialty:     "cardiology",
		LicenseNumber: "LIC-1234",
	})
	require.NoError(t, err)
	require.Len(t, f.doctors.created, 1)
	assert.Equal(t, resp.User.ID, f.doctors.created[0].UserID)
	assert.Equal(t, "cardiology", f.doctors.created[0].Specialty)
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), &model.RegisterRequest{
		Name:     "Wannabe Admin",
		Email:    "admin@example.com",
		Password: "long-enough-pass",
		Role:     model.RoleAdmin,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	registerPatient(t, f, "login@example.com", "correct-horse-battery")

	resp, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email:    "login@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	require.NotNil(t, resp.User.LastLoginAt)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)
	registerPatient(t, f, "login@example.com", "correct-horse-battery")

	_, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email:    "login@example.com",
		Password: "wrong-password",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestLoginUnknownEmailIndistinguishable(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever-pass",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	f := newFixture(t)
	registerPatient(t, f, "locked@example.com", "correct-horse-battery")

	for i := 0; i < 5; i++ {
		_, err := f.svc.Login(context.Background(), &model.LoginRequest{
			Email:    "locked@example.com",
			Password: "wrong-password",
		})
		require.Error(t, err)
	}

	// Even the correct password is rejected while the lockout holds.
	_, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email:    "locked@example.com",
		Password: "correct-horse-battery",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestDeactivateBlocksLoginAndRefresh(t *testing.T) {
	f := newFixture(t)
	resp := registerPatient(t, f, "gone@example.com", "correct-horse-battery")

	require.NoError(t, f.svc.Deactivate(context.Background(), resp.User.ID))

	_, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email:    "gone@example.com",
		Password: "correct-horse-battery",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))

	// Tokens issued before deactivation cannot mint new ones either.
	_, err = f.svc.Refresh(context.Background(), &model.RefreshRequest{
		RefreshToken: resp.RefreshToken,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestDeactivateUnknownUser(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Deactivate(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	resp := registerPatient(t, f, "refresh@example.com", "correct-horse-battery")

	refreshed, err := f.svc.Refresh(context.Background(), &model.RefreshRequest{
		RefreshToken: resp.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, resp.User.ID, refreshed.User.ID)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newFixture(t)
	resp := registerPatient(t, f, "refresh@example.com", "correct-horse-battery")

	// Access tokens are signed with a different secret and must not be usable
	// as refresh tokens.
	_, err := f.svc.Refresh(context.Background(), &model.RefreshRequest{
		RefreshToken: resp.AccessToken,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}
