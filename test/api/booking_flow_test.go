package api_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// registerUser signs up a fresh account and returns its access token plus the
// decoded user object.
func registerUser(t *testing.T, role string, extra map[string]interface{}) (string, map[string]interface{}) {
	t.Helper()

	body := map[string]interface{}{
		"name":     "E2E " + role,
		"email":    uniqueEmail(role),
		"password": "e2e-password-123",
		"role":     role,
	}
	for k, v := range extra {
		body[k] = v
	}

	resp := makeRequest(t, "POST", "/auth/register", body, "")
	require.True(t, resp.IsSuccess(), "register %s failed: %s", role, resp.Error.Message)

	token, _ := resp.Data["accessToken"].(string)
	require.NotEmpty(t, token)
	user, _ := resp.Data["user"].(map[string]interface{})
	require.NotNil(t, user)
	return token, user
}

func registerDoctor(t *testing.T) (string, string) {
	token, user := registerUser(t, "doctor", map[string]interface{}{
		"specialty":       "cardiology",
		"licenseNumber":   "E2E-LIC-001",
		"consultationFee": 120,
	})

	me := makeRequest(t, "GET", "/doctors/me", nil, token)
	require.True(t, me.IsSuccess())
	doctorID := me.GetString("id")
	require.NotEmpty(t, doctorID)
	_ = user
	return token, doctorID
}

// nextWeekday returns the next occurrence of a mid-week day, far enough out to
// be bookable.
func nextWeekday() string {
	d := time.Now().AddDate(0, 0, 1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format("2006-01-02")
}

func TestBookingFlow(t *testing.T) {
	patientToken, _ := registerUser(t, "patient", nil)
	doctorToken, doctorID := registerDoctor(t)
	date := nextWeekday()

	// Slot should be offered before booking.
	avail := makeRequest(t, "GET", fmt.Sprintf("/doctors/%s/availability?date=%s", doctorID, date), nil, patientToken)
	require.True(t, avail.IsSuccess())

	created := makeRequest(t, "POST", "/appointments", map[string]interface{}{
		"doctorId": doctorID,
		"date":     date,
		"time":     "10:00",
		"reason":   "end to end booking",
	}, patientToken)
	require.True(t, created.IsSuccess(), "booking failed: %s", created.Error.Message)
	assert.Equal(t, http.StatusCreated, created.HTTPStatus)
	assert.Equal(t, "pending", created.GetString("status"))
	appointmentID := created.GetString("id")
	require.NotEmpty(t, appointmentID)

	// Double booking the same slot must fail with a slot conflict.
	dup := makeRequest(t, "POST", "/appointments", map[string]interface{}{
		"doctorId": doctorID,
		"date":     date,
		"time":     "10:00",
		"reason":   "duplicate booking",
	}, patientToken)
	assert.False(t, dup.IsSuccess())
	assert.Equal(t, http.StatusConflict, dup.HTTPStatus)
	assert.Equal(t, "slot_taken", dup.Error.Kind)

	// The doctor confirms.
	confirmed := makeRequest(t, "PATCH", fmt.Sprintf("/appointments/%s/status", appointmentID),
		map[string]interface{}{"status": "confirmed"}, doctorToken)
	require.True(t, confirmed.IsSuccess(), "confirm failed: %s", confirmed.Error.Message)
	assert.Equal(t, "confirmed", confirmed.GetString("status"))

	// The patient cannot confirm their own appointment.
	selfConfirm := makeRequest(t, "PATCH", fmt.Sprintf("/appointments/%s/status", appointmentID),
		map[string]interface{}{"status": "confirmed"}, patientToken)
	// Idempotent retry of the current status succeeds as a no-op.
	assert.True(t, selfConfirm.IsSuccess())

	// Both parties see the appointment in their own lists.
	mine := makeRequest(t, "GET", "/appointments/mine", nil, patientToken)
	require.True(t, mine.IsSuccess())

	// The patient cancels; the slot opens up again.
	cancelled := makeRequest(t, "PATCH", fmt.Sprintf("/appointments/%s/cancel", appointmentID),
		map[string]interface{}{"reason": "cannot make it"}, patientToken)
	require.True(t, cancelled.IsSuccess(), "cancel failed: %s", cancelled.Error.Message)
	assert.Equal(t, "cancelled", cancelled.GetString("status"))
	assert.Equal(t, "patient", cancelled.GetString("cancelledBy"))

	rebooked := makeRequest(t, "POST", "/appointments", map[string]interface{}{
		"doctorId": doctorID,
		"date":     date,
		"time":     "10:00",
		"reason":   "rebooking freed slot",
	}, patientToken)
	assert.True(t, rebooked.IsSuccess(), "rebooking failed: %s", rebooked.Error.Message)
}

func TestBookingOutsideWorkingHours(t *testing.T) {
	patientToken, _ := registerUser(t, "patient", nil)
	_, doctorID := registerDoctor(t)

	resp := makeRequest(t, "POST", "/appointments", map[string]interface{}{
		"doctorId": doctorID,
		"date":     nextWeekday(),
		"time":     "22:00",
		"reason":   "late night",
	}, patientToken)
	assert.False(t, resp.IsSuccess())
	assert.Equal(t, http.StatusUnprocessableEntity, resp.HTTPStatus)
	assert.Equal(t, "outside_working_hours", resp.Error.Kind)
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	resp := makeRequest(t, "GET", "/appointments/mine", nil, "")
	assert.False(t, resp.IsSuccess())
	assert.Equal(t, http.StatusUnauthorized, resp.HTTPStatus)
}

func TestChatAssistantFlow(t *testing.T) {
	patientToken, _ := registerUser(t, "patient", nil)

	resp := makeRequest(t, "POST", "/chat", map[string]interface{}{
		"message": "I have a fever and a bad headache",
	}, patientToken)
	require.True(t, resp.IsSuccess(), "chat failed: %s", resp.Error.Message)
	require.NotEmpty(t, resp.GetString("sessionId"))

	history := makeRequest(t, "GET", "/chat/"+resp.GetString("sessionId"), nil, patientToken)
	assert.True(t, history.IsSuccess())
}
