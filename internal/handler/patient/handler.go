package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/careconnect/api/internal/handler"
	"github.com/careconnect/api/internal/middleware"
	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/internal/service/patient"
	apperrors "github.com/careconnect/api/pkg/errors"
)

type Handler struct {
	svc *patient.Service
}

func NewHandler(svc *patient.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/patients/me", middleware.RequireRole(model.RolePatient), h.Me)
	r.PATCH("/patients/me", middleware.RequireRole(model.RolePatient), h.UpdateProfile)
	r.GET("/patients/:id", h.Get)
}

func (h *Handler) Me(c *gin.Context) {
	p, err := h.svc.Me(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusOK, p)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.Error(c, apperrors.Validation("id must be a valid UUID"))
		return
	}

	p, err := h.svc.Get(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusOK, p)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	p, err := h.svc.UpdateProfile(c.Request.Context(), middleware.Actor(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusOK, p)
}
