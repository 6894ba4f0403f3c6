package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/internal/repository"
	"github.com/careconnect/api/pkg/auth"
	apperrors "github.com/careconnect/api/pkg/errors"
	"github.com/careconnect/api/pkg/logger"
	"github.com/careconnect/api/pkg/security"
)

const (
	maxLoginAttempts = 5
	lockoutWindow    = 15 * time.Minute
)

// Service handles registration, login and token refresh. Registration creates
// the user together with its role-matching profile row.
type Service struct {
	users    repository.UserRepository
	doctors  repository.DoctorRepository
	patients repository.PatientRepository
	tokens   auth.TokenService
	hasher   security.PasswordHasher
	logger   *logger.Logger
}

func NewService(
	users repository.UserRepository,
	doctors repository.DoctorRepository,
	patients repository.PatientRepository,
	tokens auth.TokenService,
	hasher security.PasswordHasher,
	log *logger.Logger,
) *Service {
	return &Service{
		users:    users,
		doctors:  doctors,
		patients: patients,
		tokens:   tokens,
		hasher:   hasher,
		logger:   log,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.TokenResponse, error) {
	if !req.Role.Valid() || req.Role == model.RoleAdmin {
		return nil, apperrors.Validation("role must be patient or doctor")
	}
	if req.Role == model.RoleDoctor && (req.Specialty == "" || req.LicenseNumber == "") {
		return nil, apperrors.Validation("doctors must provide specialty and licenseNumber")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Validation("password does not meet requirements")
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Phone:        req.Phone,
		Address:      req.Address,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	switch req.Role {
	case model.RoleDoctor:
		doctor := &model.Doctor{
			UserID:          user.ID,
			Specialty:       req.Specialty,
			LicenseNumber:   req.LicenseNumber,
			ConsultationFee: req.ConsultationFee,
			Available:       true,
		}
		if err := s.doctors.Create(ctx, doctor); err != nil {
			return nil, err
		}
	case model.RolePatient:
		if err := s.patients.Create(ctx, &model.Patient{UserID: user.ID}); err != nil {
			return nil, err
		}
	}

	s.logger.Info("user registered", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return s.issueTokens(user)
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, err
	}
	if !user.Active {
		return nil, apperrors.Unauthorized("account is deactivated")
	}

	if s.lockedOut(user) {
		return nil, apperrors.Unauthorized("too many failed attempts, try again later")
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		s.recordFailedAttempt(ctx, user)
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	now := time.Now()
	user.LoginAttempts = 0
	user.LastLoginAttempt = nil
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error(err, "failed to record login", map[string]interface{}{"user_id": user.ID})
	}

	return s.issueTokens(user)
}

func (s *Service) Refresh(ctx context.Context, req *model.RefreshRequest) (*model.TokenResponse, error) {
	userID, err := s.tokens.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return nil, apperrors.Unauthorized("invalid refresh token")
		}
		return nil, err
	}
	if !user.Active {
		return nil, apperrors.Unauthorized("account is deactivated")
	}
	return s.issueTokens(user)
}

func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	return s.users.Get(ctx, userID)
}

func (s *Service) UpdateMe(ctx context.Context, userID uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Deactivate soft-disables the account. The user record is kept; sign-in and
// token refresh are refused until support reactivates it.
func (s *Service) Deactivate(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return err
	}
	if err := s.users.Deactivate(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("account deactivated", map[string]interface{}{"user_id": userID})
	return nil
}

func (s *Service) lockedOut(user *model.User) bool {
	if user.LoginAttempts < maxLoginAttempts || user.LastLoginAttempt == nil {
		return false
	}
	if time.Since(*user.LastLoginAttempt) > lockoutWindow {
		return false
	}
	return true
}

func (s *Service) recordFailedAttempt(ctx context.Context, user *model.User) {
	now := time.Now()
	if user.LastLoginAttempt != nil && time.Since(*user.LastLoginAttempt) > lockoutWindow {
		user.LoginAttempts = 0
	}
	user.LoginAttempts++
	user.LastLoginAttempt = &now
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error(err, "failed to record login attempt", map[string]interface{}{"user_id": user.ID})
	}
}

func (s *Service) issueTokens(user *model.User) (*model.TokenResponse, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
	}, nil
}
