package emergency

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/careconnect/api/internal/handler"
	"github.com/careconnect/api/internal/middleware"
	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/internal/service/emergency"
	apperrors "github.com/careconnect/api/pkg/errors"
)

type Handler struct {
	svc *emergency.Service
}

func NewHandler(svc *emergency.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/emergency", middleware.RequireRole(model.RolePatient), h.Request)
	r.GET("/emergency/:id", h.Get)
	r.PATCH("/emergency/:id/accept", middleware.RequireRole(model.RoleDoctor), h.Accept)
	r.PATCH("/emergency/:id/end", h.End)
}

func (h *Handler) Request(c *gin.Context) {
	var req model.EmergencyConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	session, err := h.svc.Request(c.Request.Context(), middleware.Actor(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusCreated, session)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.Error(c, apperrors.Validation("id must be a valid UUID"))
		return
	}

	session, err := h.svc.Get(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusOK, session)
}

func (h *Handler) Accept(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.Error(c, apperrors.Validation("id must be a valid UUID"))
		return
	}

	session, err := h.svc.Accept(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusOK, session)
}

func (h *Handler) End(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.Error(c, apperrors.Validation("id must be a valid UUID"))
		return
	}

	session, err := h.svc.End(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusOK, session)
}
