package model

import (
	"time"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// User represents a system identity. Users are never hard-deleted; deactivation
// flips the active flag.
type User struct {
	Base
	Name             string     `db:"name" json:"name"`
	Email            string     `db:"email" json:"email"`
	Password         string     `db:"-" json:"password,omitempty"`
	PasswordHash     string     `db:"password_hash" json:"-"`
	Role             Role       `db:"role" json:"role"`
	Phone            string     `db:"phone" json:"phone,omitempty"`
	Address          string     `db:"address" json:"address,omitempty"`
	Active           bool       `db:"active" json:"active"`
	LoginAttempts    int        `db:"login_attempts" json:"-"`
	LastLoginAttempt *time.Time `db:"last_login_attempt" json:"-"`
	LastLoginAt      *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
}

// RegisterRequest creates a User plus the role-matching profile record.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     Role   `json:"role" binding:"required,oneof=patient doctor"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`

	// Doctor-only fields, ignored for patients.
	Specialty       string  `json:"specialty"`
	LicenseNumber   string  `json:"licenseNumber"`
	ConsultationFee float64 `json:"consultationFee"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user"`
}

type UpdateUserRequest struct {
	Name    *string `json:"name" binding:"omitempty,max=50"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}
