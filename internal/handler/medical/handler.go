package medical

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/careconnect/api/internal/handler"
	"github.com/careconnect/api/internal/middleware"
	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/internal/service/medical"
	apperrors "github.com/careconnect/api/pkg/errors"
)

type Handler struct {
	svc *medical.Service
}

func NewHandler(svc *medical.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/medical-records", middleware.RequireRole(model.RoleDoctor), h.Create)
	r.GET("/medical-records/:id", h.Get)
	r.PATCH("/medical-records/:id", middleware.RequireRole(model.RoleDoctor), h.Amend)
	r.GET("/patients/:id/medical-records", h.ListForPatient)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateMedicalRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	record, err := h.svc.Create(c.Request.Context(), middleware.Actor(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusCreated, record)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.Error(c, apperrors.Validation("id must be a valid UUID"))
		return
	}

	record, err := h.svc.Get(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusOK, record)
}

func (h *Handler) Amend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.Error(c, apperrors.Validation("id must be a valid UUID"))
		return
	}
	var req model.AmendMedicalRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	record, err := h.svc.Amend(c.Request.Context(), middleware.Actor(c), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusOK, record)
}

func (h *Handler) ListForPatient(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.Error(c, apperrors.Validation("id must be a valid UUID"))
		return
	}

	records, err := h.svc.ListForPatient(c.Request.Context(), middleware.Actor(c), patientID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	if records == nil {
		records = []*model.MedicalRecord{}
	}
	handler.Success(c, http.StatusOK, records)
}
