package chat

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careconnect/api/internal/handler"
	"github.com/careconnect/api/internal/middleware"
	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/internal/service/chat"
	apperrors "github.com/careconnect/api/pkg/errors"
)

type Handler struct {
	svc *chat.Service
}

func NewHandler(svc *chat.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/chat", h.Send)
	r.GET("/chat/:sessionId", h.History)
}

func (h *Handler) Send(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BindError(c, err)
		return
	}

	reply, err := h.svc.Respond(c.Request.Context(), middleware.Actor(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	handler.Success(c, http.StatusOK, reply)
}

func (h *Handler) History(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		handler.Error(c, apperrors.Validation("sessionId is required"))
		return
	}

	messages, err := h.svc.History(c.Request.Context(), middleware.Actor(c), sessionID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	if messages == nil {
		messages = []*model.ChatMessage{}
	}
	handler.Success(c, http.StatusOK, messages)
}
