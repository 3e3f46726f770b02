// Package services contains the assistant orchestration and supporting
// business logic.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/easydayai/daisy-engine/pkg/apperrors"
	"github.com/easydayai/daisy-engine/pkg/auth"
	"github.com/easydayai/daisy-engine/pkg/llm"
	"github.com/easydayai/daisy-engine/pkg/models"
	"github.com/easydayai/daisy-engine/pkg/prompts"
	"github.com/easydayai/daisy-engine/pkg/repositories"
	"github.com/easydayai/daisy-engine/pkg/tools"
)

// ChatInput is one assistant request after authentication has been resolved.
// Identity is nil for anonymous sessions.
type ChatInput struct {
	Messages    []llm.Message
	CurrentPage string
	Identity    *auth.Identity
}

// ChatOutput is the assistant's final answer for one request.
type ChatOutput struct {
	Content        string
	Actions        []models.Action
	CreditsCharged int64
}

// AssistantService runs the two-phase completion protocol: one completion
// with the tool catalog, tool dispatch, one follow-up completion with the
// tool results and no tools.
type AssistantService interface {
	Chat(ctx context.Context, input *ChatInput) (*ChatOutput, error)
}

type assistantService struct {
	chatClient    llm.ChatClient
	registry      *tools.Registry
	profileRepo   repositories.ProfileRepository
	knowledgeRepo repositories.KnowledgeRepository
	creditService CreditService
	logger        *zap.Logger
}

// AssistantServiceConfig holds dependencies for the assistant service.
type AssistantServiceConfig struct {
	ChatClient    llm.ChatClient
	Registry      *tools.Registry
	ProfileRepo   repositories.ProfileRepository
	KnowledgeRepo repositories.KnowledgeRepository
	CreditService CreditService
	Logger        *zap.Logger
}

// NewAssistantService creates a new AssistantService.
func NewAssistantService(cfg *AssistantServiceConfig) AssistantService {
	return &assistantService{
		chatClient:    cfg.ChatClient,
		registry:      cfg.Registry,
		profileRepo:   cfg.ProfileRepo,
		knowledgeRepo: cfg.KnowledgeRepo,
		creditService: cfg.CreditService,
		logger:        cfg.Logger.Named("assistant"),
	}
}

var _ AssistantService = (*assistantService)(nil)

func (s *assistantService) Chat(ctx context.Context, input *ChatInput) (*ChatOutput, error) {
	if len(input.Messages) == 0 {
		return nil, fmt.Errorf("chat request has no messages")
	}

	systemPrompt, identity, err := s.assembleContext(ctx, input)
	if err != nil {
		return nil, err
	}
	authenticated := identity != nil

	first, err := s.chatClient.CreateCompletion(ctx, &llm.ChatRequest{
		SystemPrompt: systemPrompt,
		Messages:     input.Messages,
		Tools:        s.registry.Definitions(authenticated),
	})
	if err != nil {
		return nil, fmt.Errorf("first completion failed: %w", err)
	}

	// No tools requested: the model's text is the final answer.
	if len(first.ToolCalls) == 0 {
		return &ChatOutput{
			Content: first.Content,
			Actions: []models.Action{},
		}, nil
	}

	// One debit decision covers the whole model turn. Summing before any
	// dispatch keeps chargeable side effects behind the payment check.
	totalCost := int64(0)
	for _, call := range first.ToolCalls {
		totalCost += s.registry.CreditCost(call.Function.Name)
	}

	if totalCost > 0 {
		if identity == nil {
			return nil, apperrors.ErrInsufficientCredits
		}
		charged, err := s.creditService.Charge(ctx, identity.UserID, totalCost, chargeSource(first.ToolCalls))
		if err != nil {
			return nil, fmt.Errorf("credit charge failed: %w", err)
		}
		if !charged {
			return nil, apperrors.ErrInsufficientCredits
		}
	}

	// Dispatch sequentially in the order the model issued the calls so the
	// follow-up transcript aligns positionally with the tool-call list.
	toolMessages := make([]llm.Message, 0, len(first.ToolCalls))
	actions := make([]models.Action, 0)
	for _, call := range first.ToolCalls {
		result := s.registry.Dispatch(ctx, call.Function.Name, call.Function.Arguments, identity)
		if action, ok := parseNavigateResult(call.Function.Name, result); ok {
			actions = append(actions, action)
		}
		toolMessages = append(toolMessages, llm.Message{
			Role:       llm.RoleTool,
			Content:    result,
			ToolCallID: call.ID,
		})
	}

	// Follow-up completion: original transcript, the assistant's tool-call
	// message, one tool result per call. Tools are disabled this time.
	followupMessages := make([]llm.Message, 0, len(input.Messages)+1+len(toolMessages))
	followupMessages = append(followupMessages, input.Messages...)
	followupMessages = append(followupMessages, llm.Message{
		Role:      llm.RoleAssistant,
		Content:   first.Content,
		ToolCalls: first.ToolCalls,
	})
	followupMessages = append(followupMessages, toolMessages...)

	followup, err := s.chatClient.CreateCompletion(ctx, &llm.ChatRequest{
		SystemPrompt: systemPrompt,
		Messages:     followupMessages,
	})
	if err != nil {
		// The charge bought a follow-up that never happened. Give it back.
		if totalCost > 0 && identity != nil {
			if refundErr := s.creditService.Refund(ctx, identity.UserID, totalCost, "assistant:followup_failure"); refundErr != nil {
				s.logger.Error("Failed to refund after follow-up failure",
					zap.String("user_id", identity.UserID.String()),
					zap.Int64("amount", totalCost),
					zap.Error(refundErr))
			}
		}
		return nil, fmt.Errorf("follow-up completion failed: %w", err)
	}

	return &ChatOutput{
		Content:        followup.Content,
		Actions:        actions,
		CreditsCharged: totalCost,
	}, nil
}

// assembleContext builds the system prompt and settles which identity the
// rest of the request runs under. An identity without a profile row cannot
// ground the operator template, so it downgrades to the public one.
func (s *assistantService) assembleContext(ctx context.Context, input *ChatInput) (string, *auth.Identity, error) {
	knowledge, err := s.knowledgeRepo.ListActive(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load knowledge base: %w", err)
	}

	entries := make([]models.KnowledgeEntry, 0, len(knowledge))
	for _, e := range knowledge {
		entries = append(entries, *e)
	}

	promptCtx := &prompts.PromptContext{
		CurrentPage: input.CurrentPage,
		Knowledge:   entries,
	}

	if input.Identity == nil {
		return prompts.BuildPublicPrompt(promptCtx), nil, nil
	}

	profile, err := s.profileRepo.GetByUserID(ctx, input.Identity.UserID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		s.logger.Warn("Authenticated user has no profile, treating as anonymous",
			zap.String("user_id", input.Identity.UserID.String()))
		return prompts.BuildPublicPrompt(promptCtx), nil, nil
	}

	promptCtx.FullName = profile.FullName
	promptCtx.BusinessName = profile.BusinessName
	promptCtx.Slug = profile.Slug
	return prompts.BuildAuthPrompt(promptCtx), input.Identity, nil
}

// chargeSource names a consumption ledger entry after the tools that caused it.
func chargeSource(calls []llm.ToolCall) string {
	names := make([]string, 0, len(calls))
	for _, call := range calls {
		names = append(names, call.Function.Name)
	}
	return "assistant:" + strings.Join(names, ",")
}

// parseNavigateResult turns a successful navigate_internal result into a
// client action.
func parseNavigateResult(toolName, result string) (models.Action, bool) {
	if toolName != "navigate_internal" {
		return models.Action{}, false
	}

	var parsed struct {
		Navigating bool   `json:"navigating"`
		Path       string `json:"path"`
		Label      string `json:"label"`
	}
	if err := json.Unmarshal([]byte(result), &parsed); err != nil || !parsed.Navigating {
		return models.Action{}, false
	}

	return models.Action{
		Type:  models.ActionTypeNavigate,
		Path:  parsed.Path,
		Label: parsed.Label,
	}, true
}
