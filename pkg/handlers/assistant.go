// Package handlers contains the HTTP surface of the assistant backend.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/easydayai/daisy-engine/pkg/apperrors"
	"github.com/easydayai/daisy-engine/pkg/auth"
	"github.com/easydayai/daisy-engine/pkg/llm"
	"github.com/easydayai/daisy-engine/pkg/models"
	"github.com/easydayai/daisy-engine/pkg/services"
)

// ChatRequest is the client-facing request body.
type ChatRequest struct {
	Messages        []ChatMessage `json:"messages"`
	IsAuthenticated bool          `json:"isAuthenticated"`
	CurrentPage     string        `json:"currentPage"`
}

// ChatMessage is one transcript entry from the client.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is the success body.
type ChatResponse struct {
	Content        string          `json:"content"`
	Actions        []models.Action `json:"actions"`
	CreditsCharged int64           `json:"creditsCharged"`
}

// creditDeniedResponse is the 402 body.
type creditDeniedResponse struct {
	Error   string          `json:"error"`
	Content string          `json:"content"`
	Actions []models.Action `json:"actions"`
}

const (
	genericErrorMessage = "Something went wrong. Please try again."

	insufficientCreditsMessage = "I'm sorry, but you don't have enough credits for that. " +
		"You can top up on the pricing page and I'll be happy to finish this for you."
)

// AssistantHandler exposes the assistant chat endpoint.
type AssistantHandler struct {
	assistantService services.AssistantService
	authService      auth.AuthService
	logger           *zap.Logger
}

// NewAssistantHandler creates a new AssistantHandler.
func NewAssistantHandler(assistantService services.AssistantService, authService auth.AuthService, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{
		assistantService: assistantService,
		authService:      authService,
		logger:           logger.Named("assistant-handler"),
	}
}

// RegisterRoutes registers the assistant handler's routes on the given mux.
func (h *AssistantHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/assistant/chat", h.Chat)
}

// Chat handles POST /api/assistant/chat.
// The endpoint is public: anonymous visitors get the restricted tool set.
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		_ = ErrorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Malformed chat request body", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, genericErrorMessage)
		return
	}

	messages, err := convertMessages(req.Messages)
	if err != nil {
		h.logger.Warn("Invalid chat transcript", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, genericErrorMessage)
		return
	}

	// Auth failures downgrade to anonymous, they never fail the request.
	identity := h.authService.ResolveIdentity(r, req.IsAuthenticated)

	output, err := h.assistantService.Chat(r.Context(), &services.ChatInput{
		Messages:    messages,
		CurrentPage: req.CurrentPage,
		Identity:    identity,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInsufficientCredits) {
			_ = WriteJSON(w, http.StatusPaymentRequired, creditDeniedResponse{
				Error:   "Insufficient credits",
				Content: insufficientCreditsMessage,
				Actions: []models.Action{
					{Type: models.ActionTypeNavigate, Path: "/pricing", Label: "View pricing"},
				},
			})
			return
		}

		h.logger.Error("Chat request failed", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, genericErrorMessage)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ChatResponse{
		Content:        output.Content,
		Actions:        output.Actions,
		CreditsCharged: output.CreditsCharged,
	}); err != nil {
		h.logger.Error("Failed to write chat response", zap.Error(err))
	}
}

// convertMessages validates the client transcript. Clients only ever send
// user and assistant turns; tool plumbing stays server-side.
func convertMessages(in []ChatMessage) ([]llm.Message, error) {
	if len(in) == 0 {
		return nil, errors.New("messages is required")
	}

	out := make([]llm.Message, 0, len(in))
	for _, msg := range in {
		if msg.Role != llm.RoleUser && msg.Role != llm.RoleAssistant {
			return nil, errors.New("message role must be user or assistant")
		}
		if msg.Content == "" {
			return nil, errors.New("message content is required")
		}
		out = append(out, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	return out, nil
}

// setCORSHeaders applies the permissive CORS policy the widget relies on.
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}
