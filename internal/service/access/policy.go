// Package access centralizes every role/ownership authorization decision.
// Services call Authorize instead of spreading role checks across handlers.
package access

import (
	"github.com/google/uuid"

	"github.com/careconnect/api/internal/model"
	apperrors "github.com/careconnect/api/pkg/errors"
)

type Operation string

const (
	OpAppointmentView     Operation = "appointment:view"
	OpAppointmentCreate   Operation = "appointment:create"
	OpAppointmentConfirm  Operation = "appointment:confirm"
	OpAppointmentComplete Operation = "appointment:complete"
	OpAppointmentCancel   Operation = "appointment:cancel"
	OpAppointmentNoShow   Operation = "appointment:no-show"

	OpRecordCreate Operation = "record:create"
	OpRecordView   Operation = "record:view"
	OpRecordAmend  Operation = "record:amend"

	OpProfileView   Operation = "profile:view"
	OpProfileUpdate Operation = "profile:update"

	OpEmergencyRequest Operation = "emergency:request"
	OpEmergencyAccept  Operation = "emergency:accept"
	OpEmergencyEnd     Operation = "emergency:end"
)

// Actor is the authenticated principal attempting an operation.
type Actor struct {
	UserID uuid.UUID
	Role   model.Role
}

// Resource names the owners of the object being operated on. Services fill in
// the user IDs of the patient and doctor sides where applicable; a zero UUID
// means "no such party".
type Resource struct {
	PatientUserID uuid.UUID
	DoctorUserID  uuid.UUID
	Confidential  bool
}

func (r Resource) ownedByPatient(a Actor) bool {
	return a.Role == model.RolePatient && r.PatientUserID == a.UserID
}

func (r Resource) ownedByDoctor(a Actor) bool {
	return a.Role == model.RoleDoctor && r.DoctorUserID == a.UserID
}

// Authorize returns nil when the actor may perform op on res, and a forbidden
// error otherwise. Unknown operations are always denied.
func Authorize(actor Actor, op Operation, res Resource) error {
	if allowed(actor, op, res) {
		return nil
	}
	return apperrors.Forbidden("you do not have permission to perform this action")
}

func allowed(actor Actor, op Operation, res Resource) bool {
	admin := actor.Role == model.RoleAdmin

	switch op {
	case OpAppointmentView:
		return admin || res.ownedByPatient(actor) || res.ownedByDoctor(actor)

	case OpAppointmentCreate, OpEmergencyRequest:
		// Patients book for themselves only.
		return res.ownedByPatient(actor)

	case OpAppointmentConfirm, OpAppointmentComplete, OpAppointmentNoShow, OpEmergencyAccept:
		return res.ownedByDoctor(actor)

	case OpAppointmentCancel, OpEmergencyEnd:
		return admin || res.ownedByPatient(actor) || res.ownedByDoctor(actor)

	case OpRecordCreate:
		// Clinical authorship stays with doctors; admins manage, they don't treat.
		return actor.Role == model.RoleDoctor

	case OpRecordView:
		if admin || res.ownedByDoctor(actor) {
			return true
		}
		// Patients see their own records unless marked confidential.
		return res.ownedByPatient(actor) && !res.Confidential

	case OpRecordAmend:
		// Only the authoring doctor may amend.
		return res.ownedByDoctor(actor)

	case OpProfileView:
		return admin || actor.UserID == res.PatientUserID || actor.UserID == res.DoctorUserID

	case OpProfileUpdate:
		return actor.UserID == res.PatientUserID || actor.UserID == res.DoctorUserID
	}

	return false
}
