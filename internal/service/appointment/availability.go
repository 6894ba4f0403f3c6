package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/internal/repository"
	apperrors "github.com/careconnect/api/pkg/errors"
)

// Checker answers "can this slot be booked" against a doctor's schedule and
// their existing active appointments. The same conflict predicate runs again
// inside the booking transaction, so a stale answer here can never double-book.
type Checker struct {
	appointments repository.AppointmentRepository
}

func NewChecker(appointments repository.AppointmentRepository) *Checker {
	return &Checker{appointments: appointments}
}

func formatSlot(offset time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(offset.Hours()), int(offset.Minutes())%60)
}

// CheckSlot validates the requested slot against the doctor's working hours
// and active bookings. It distinguishes schedule violations (outside working
// hours) from contention (slot taken) so clients can react differently.
func (c *Checker) CheckSlot(ctx context.Context, doctor *model.Doctor, date model.Date, slot string, endTime *string) error {
	start, err := model.ParseSlot(slot)
	if err != nil {
		return apperrors.Validation("time must be a valid HH:MM slot label")
	}
	if start%model.SlotDuration != 0 {
		return apperrors.Validation(fmt.Sprintf("time must align to a %d-minute slot", int(model.SlotDuration.Minutes())))
	}

	end := start + model.SlotDuration
	if endTime != nil {
		parsed, err := model.ParseSlot(*endTime)
		if err != nil {
			return apperrors.Validation("endTime must be a valid HH:MM slot label")
		}
		if parsed <= start {
			return apperrors.Validation("endTime must be after time")
		}
		end = parsed
	}

	if !doctor.Available {
		return apperrors.OutsideWorkingHours("doctor is not currently accepting appointments")
	}

	hours, ok := doctor.WorkingHours.ForWeekday(date.Weekday())
	if !ok || !hours.Available {
		return apperrors.OutsideWorkingHours(fmt.Sprintf("doctor does not work on %s", date.Weekday()))
	}
	dayStart, err := model.ParseSlot(hours.Start)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("malformed working hours for doctor %s: %w", doctor.ID, err))
	}
	dayEnd, err := model.ParseSlot(hours.End)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("malformed working hours for doctor %s: %w", doctor.ID, err))
	}
	if start < dayStart || end > dayEnd {
		return apperrors.OutsideWorkingHours(fmt.Sprintf(
			"slot %s is outside working hours (%s-%s)", slot, hours.Start, hours.End))
	}

	active, err := c.appointments.ListActiveForDay(ctx, doctor.ID, date)
	if err != nil {
		return err
	}
	for _, existing := range active {
		if existing.ConflictsWith(date, slot, endTime) {
			return apperrors.SlotTaken(date.String(), slot)
		}
	}
	return nil
}

// AvailableSlots lists every slot label of the doctor's working day with its
// current availability. Days off yield an empty list.
func (c *Checker) AvailableSlots(ctx context.Context, doctor *model.Doctor, date model.Date) ([]model.TimeSlot, error) {
	if !doctor.Available {
		return []model.TimeSlot{}, nil
	}
	hours, ok := doctor.WorkingHours.ForWeekday(date.Weekday())
	if !ok || !hours.Available {
		return []model.TimeSlot{}, nil
	}
	dayStart, err := model.ParseSlot(hours.Start)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("malformed working hours for doctor %s: %w", doctor.ID, err))
	}
	dayEnd, err := model.ParseSlot(hours.End)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("malformed working hours for doctor %s: %w", doctor.ID, err))
	}

	active, err := c.appointments.ListActiveForDay(ctx, doctor.ID, date)
	if err != nil {
		return nil, err
	}

	slots := make([]model.TimeSlot, 0, int((dayEnd-dayStart)/model.SlotDuration))
	for offset := dayStart; offset+model.SlotDuration <= dayEnd; offset += model.SlotDuration {
		label := formatSlot(offset)
		available := true
		for _, existing := range active {
			if existing.ConflictsWith(date, label, nil) {
				available = false
				break
			}
		}
		slots = append(slots, model.TimeSlot{Time: label, Available: available})
	}
	return slots, nil
}
