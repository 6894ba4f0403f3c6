package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/careconnect/api/internal/repository"
)

type userRepository struct {
	BaseRepository
}

type doctorRepository struct {
	BaseRepository
}

type patientRepository struct {
	BaseRepository
}

type appointmentRepository struct {
	BaseRepository
}

type medicalRecordRepository struct {
	BaseRepository
}

type chatRepository struct {
	BaseRepository
}

type emergencyRepository struct {
	BaseRepository
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{NewBaseRepository(db)}
}

func NewDoctorRepository(db *sqlx.DB) repository.DoctorRepository {
	return &doctorRepository{NewBaseRepository(db)}
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{NewBaseRepository(db)}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{NewBaseRepository(db)}
}

func NewMedicalRecordRepository(db *sqlx.DB) repository.MedicalRecordRepository {
	return &medicalRecordRepository{NewBaseRepository(db)}
}

func NewChatRepository(db *sqlx.DB) repository.ChatRepository {
	return &chatRepository{NewBaseRepository(db)}
}

func NewEmergencyRepository(db *sqlx.DB) repository.EmergencyRepository {
	return &emergencyRepository{NewBaseRepository(db)}
}
