package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/careconnect/api/internal/handler"
	"github.com/careconnect/api/internal/middleware"
	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/internal/service/appointment"
	apperrors "github.com/careconnect/api/pkg/errors"
)

type Handler struct {
	svc *appointment.Service
}

func NewHandler(svc *appointment.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/appointments", h.Create)
	r.GET("/appointments/mine", h.ListMine)
	r.GET("/appointments/:id", h.Get)
	r.PATCH("/appointments/:id/status", h.UpdateStatus)
	r.PATCH("/appointments/:id/cancel", h.Cancel)
	r.GET("/doctors/:id/availability", h.Availability)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	apt, err := h.svc.Create(c.Request.Context(), middleware.Actor(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusCreated, apt)
}

func (h *Handler) ListMine(c *gin.Context) {
	appointments, err := h.svc.ListForActor(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	if appointments == nil {
		appointments = []*model.Appointment{}
	}
	handler.Success(c, http.StatusOK, appointments)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.Error(c, apperrors.Validation("id must be a valid UUID"))
		return
	}

	apt, err := h.svc.Get(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusOK, apt)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.Error(c, apperrors.Validation("id must be a valid UUID"))
		return
	}
	var req model.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	apt, err := h.svc.UpdateStatus(c.Request.Context(), middleware.Actor(c), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusOK, apt)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.Error(c, apperrors.Validation("id must be a valid UUID"))
		return
	}
	var req model.CancelAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	apt, err := h.svc.Cancel(c.Request.Context(), middleware.Actor(c), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusOK, apt)
}

func (h *Handler) Availability(c *gin.Context) {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.Error(c, apperrors.Validation("id must be a valid UUID"))
		return
	}
	date := c.Query("date")
	if date == "" {
		handler.Error(c, apperrors.Validation("date query parameter is required"))
		return
	}

	slots, err := h.svc.Availability(c.Request.Context(), doctorID, date)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusOK, gin.H{
		"date":  date,
		"slots": slots,
	})
}
