package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/internal/repository"
	"github.com/careconnect/api/internal/service/access"
	"github.com/careconnect/api/pkg/logger"
)

const (
	sessionTTL     = 30 * time.Minute
	historyLimit   = 50
	emergencyLevel = 5
)

// sessionContext is the short-lived conversational memory kept per session.
type sessionContext struct {
	Symptoms []string
}

// Service is the rule-based health assistant. It matches reported symptoms
// against a fixed rule table, persists the conversation, and keeps a rolling
// per-session symptom context in memory.
type Service struct {
	messages repository.ChatRepository
	sessions *gocache.Cache
	logger   *logger.Logger
}

func NewService(messages repository.ChatRepository, log *logger.Logger) *Service {
	return &Service{
		messages: messages,
		sessions: gocache.New(sessionTTL, 10*time.Minute),
		logger:   log,
	}
}

// Respond stores the user's message, produces the assistant's reply and stores
// that too. Both messages share the session ID so history reads back in order.
func (s *Service) Respond(ctx context.Context, actor access.Actor, req *model.ChatRequest) (*model.ChatMessage, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	userMsg := &model.ChatMessage{
		UserID:    actor.UserID,
		SessionID: sessionID,
		Role:      model.ChatRoleUser,
		Content:   req.Message,
		Type:      model.ChatMessageText,
	}
	if err := s.messages.SaveMessage(ctx, userMsg); err != nil {
		return nil, err
	}

	reply := s.compose(actor.UserID, sessionID, req.Message)
	if err := s.messages.SaveMessage(ctx, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// History returns the session transcript in chronological order.
func (s *Service) History(ctx context.Context, actor access.Actor, sessionID string) ([]*model.ChatMessage, error) {
	return s.messages.History(ctx, actor.UserID, sessionID, historyLimit)
}

func (s *Service) compose(userID uuid.UUID, sessionID, message string) *model.ChatMessage {
	matched := matchSymptoms(message)
	session := s.session(userID, sessionID)

	reply := &model.ChatMessage{
		UserID:    userID,
		SessionID: sessionID,
		Role:      model.ChatRoleAssistant,
	}

	if len(matched) == 0 {
		reply.Type = model.ChatMessageText
		if len(session.Symptoms) > 0 {
			reply.Content = fmt.Sprintf(
				"I understand. Earlier you mentioned %s. Could you tell me more about how "+
					"you're feeling now, or would you like me to help you book an appointment?",
				strings.Join(session.Symptoms, ", "))
		} else {
			reply.Content = "I can help with health questions and finding the right doctor. " +
				"Could you describe your symptoms? For example: \"I have a fever and a headache\"."
		}
		return reply
	}

	maxSeverity := 0
	var names, redFlags []string
	specialty := ""
	var advice strings.Builder
	for i, rule := range matched {
		names = append(names, rule.name)
		redFlags = append(redFlags, rule.redFlags...)
		if rule.severity > maxSeverity {
			maxSeverity = rule.severity
			specialty = rule.specialty
		}
		if i > 0 {
			advice.WriteString("\n\n")
		}
		advice.WriteString(rule.advice)
	}

	session.Symptoms = appendUnique(session.Symptoms, names)
	s.sessions.Set(sessionKey(userID, sessionID), session, sessionTTL)

	action := "book_appointment"
	reply.Type = model.ChatMessageAdvice
	if maxSeverity >= emergencyLevel {
		reply.Type = model.ChatMessageEmergency
		action = "emergency_connect"
	}
	reply.Content = advice.String()
	reply.Metadata = model.ChatMetadata{
		Symptoms:             names,
		Severity:             maxSeverity,
		RecommendedSpecialty: specialty,
		RecommendedAction:    action,
		RedFlags:             redFlags,
	}
	return reply
}

func (s *Service) session(userID uuid.UUID, sessionID string) *sessionContext {
	if cached, ok := s.sessions.Get(sessionKey(userID, sessionID)); ok {
		if session, ok := cached.(*sessionContext); ok {
			return session
		}
	}
	return &sessionContext{}
}

func sessionKey(userID uuid.UUID, sessionID string) string {
	return userID.String() + ":" + sessionID
}

func appendUnique(existing []string, more []string) []string {
	seen := map[string]bool{}
	for _, s := range existing {
		seen[s] = true
	}
	for _, s := range more {
		if !seen[s] {
			existing = append(existing, s)
			seen[s] = true
		}
	}
	return existing
}
