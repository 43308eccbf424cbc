package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jurigo/jurigo/internal/chat"
	"github.com/jurigo/jurigo/internal/session"
)

// maxRequestBody bounds the ask/create request bodies.
const maxRequestBody = 64 * 1024

// Advisor answers one question with retrieved context. *chat.Advisor
// satisfies it.
type Advisor interface {
	Ask(ctx context.Context, conversationID uuid.UUID, question string) (*chat.Answer, error)
}

// ConversationStore is the slice of *session.Store the handlers need.
type ConversationStore interface {
	CreateConversation(ctx context.Context, userID, title string) (*session.Conversation, error)
	GetConversation(ctx context.Context, id uuid.UUID) (*session.Conversation, error)
	ListConversations(ctx context.Context, userID string, limit, offset int32) ([]*session.Conversation, error)
	Messages(ctx context.Context, conversationID uuid.UUID, limit, offset int32) ([]session.Message, error)
}

type chatHandler struct {
	advisor       Advisor
	conversations ConversationStore
	logger        *slog.Logger
}

type askRequest struct {
	ConversationID string `json:"conversation_id"`
	Question       string `json:"question"`
}

// ask handles POST /api/v1/ask. An omitted conversation_id starts a new
// conversation titled after the question.
func (h *chatHandler) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "missing_question", "question is required")
		return
	}
	if len(req.Question) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "question_too_long", "question exceeds maximum length")
		return
	}

	userID := userIDFromContext(r.Context())

	var convID uuid.UUID
	if req.ConversationID != "" {
		var err error
		convID, err = uuid.Parse(req.ConversationID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_conversation_id", "conversation_id must be a UUID")
			return
		}
		conv, err := h.conversations.GetConversation(r.Context(), convID)
		if err != nil {
			writeError(w, http.StatusNotFound, "conversation_not_found", "conversation not found")
			return
		}
		if conv.UserID != userID {
			// Not 403: do not reveal that the conversation exists.
			writeError(w, http.StatusNotFound, "conversation_not_found", "conversation not found")
			return
		}
	} else {
		conv, err := h.conversations.CreateConversation(r.Context(), userID, titleFromQuestion(req.Question))
		if err != nil {
			h.logger.Error("failed to create conversation", "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to create conversation")
			return
		}
		convID = conv.ID
	}

	answer, err := h.advisor.Ask(r.Context(), convID, req.Question)
	if err != nil {
		h.logger.Error("failed to generate answer", "conversation_id", convID, "error", err)
		writeError(w, http.StatusBadGateway, "generation_failed", "failed to generate answer")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversation_id": convID,
		"answer":          answer.Text,
		"sources":         answer.Sources,
	})
}

type createConversationRequest struct {
	Title string `json:"title"`
}

// createConversation handles POST /api/v1/conversations.
func (h *chatHandler) createConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	conv, err := h.conversations.CreateConversation(r.Context(), userIDFromContext(r.Context()), req.Title)
	if err != nil {
		h.logger.Error("failed to create conversation", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create conversation")
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

// listConversations handles GET /api/v1/conversations.
func (h *chatHandler) listConversations(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 20)

	convs, err := h.conversations.ListConversations(r.Context(), userIDFromContext(r.Context()), limit, offset)
	if err != nil {
		h.logger.Error("failed to list conversations", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list conversations")
		return
	}
	if convs == nil {
		convs = []*session.Conversation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": convs})
}

// getMessages handles GET /api/v1/conversations/{id}/messages.
func (h *chatHandler) getMessages(w http.ResponseWriter, r *http.Request) {
	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_conversation_id", "conversation id must be a UUID")
		return
	}

	conv, err := h.conversations.GetConversation(r.Context(), convID)
	if err != nil || conv.UserID != userIDFromContext(r.Context()) {
		writeError(w, http.StatusNotFound, "conversation_not_found", "conversation not found")
		return
	}

	limit, offset := pagination(r, 100)
	messages, err := h.conversations.Messages(r.Context(), convID, limit, offset)
	if err != nil {
		h.logger.Error("failed to get messages", "conversation_id", convID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to get messages")
		return
	}
	if messages == nil {
		messages = []session.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// decodeJSON decodes a bounded JSON request body, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// pagination parses limit/offset query parameters with a per-endpoint
// default limit. Values are clamped, never rejected.
func pagination(r *http.Request, defaultLimit int32) (limit, offset int32) {
	limit = defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 32); err == nil && n > 0 {
			limit = min(int32(n), 200)
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 32); err == nil && n > 0 {
			offset = int32(n)
		}
	}
	return limit, offset
}

// titleFromQuestion derives a conversation title from its first question.
func titleFromQuestion(q string) string {
	const maxTitle = 80
	runes := []rune(q)
	if len(runes) <= maxTitle {
		return q
	}
	return string(runes[:maxTitle-1]) + "…"
}
