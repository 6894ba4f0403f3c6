package doctor

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/careconnect/api/internal/handler"
	"github.com/careconnect/api/internal/middleware"
	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/internal/service/doctor"
	apperrors "github.com/careconnect/api/pkg/errors"
)

type Handler struct {
	svc *doctor.Service
}

func NewHandler(svc *doctor.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/doctors", h.List)
	r.GET("/doctors/me", middleware.RequireRole(model.RoleDoctor), h.Me)
	r.PATCH("/doctors/me", middleware.RequireRole(model.RoleDoctor), h.UpdateProfile)
	r.GET("/doctors/:id", h.Get)
}

func (h *Handler) List(c *gin.Context) {
	var filters model.DoctorFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		handler.BindError(c, err)
		return
	}

	doctors, err := h.svc.List(c.Request.Context(), &filters)
	if err != nil {
		handler.Error(c, err)
		return
	}
	if doctors == nil {
		doctors = []*model.Doctor{}
	}
	handler.Success(c, http.StatusOK, doctors)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.Error(c, apperrors.Validation("id must be a valid UUID"))
		return
	}

	doc, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusOK, doc)
}

func (h *Handler) Me(c *gin.Context) {
	doc, err := h.svc.GetByUserID(c.Request.Context(), middleware.Actor(c).UserID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusOK, doc)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req model.UpdateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	doc, err := h.svc.UpdateProfile(c.Request.Context(), middleware.Actor(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusOK, doc)
}
