package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/easydayai/daisy-engine/pkg/apperrors"
	"github.com/easydayai/daisy-engine/pkg/auth"
	"github.com/easydayai/daisy-engine/pkg/llm"
	"github.com/easydayai/daisy-engine/pkg/models"
	"github.com/easydayai/daisy-engine/pkg/tools"
)

// ============================================================================
// Mocks
// ============================================================================

type mockProfileRepo struct {
	GetByUserIDFunc func(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

func (m *mockProfileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return m.GetByUserIDFunc(ctx, userID)
}

type mockKnowledgeRepo struct {
	ListActiveFunc func(ctx context.Context) ([]*models.KnowledgeEntry, error)
	CountFunc      func(ctx context.Context) (int, error)
	InsertFunc     func(ctx context.Context, entry *models.KnowledgeEntry) error
}

func (m *mockKnowledgeRepo) ListActive(ctx context.Context) ([]*models.KnowledgeEntry, error) {
	return m.ListActiveFunc(ctx)
}

func (m *mockKnowledgeRepo) Count(ctx context.Context) (int, error) {
	return m.CountFunc(ctx)
}

func (m *mockKnowledgeRepo) Insert(ctx context.Context, entry *models.KnowledgeEntry) error {
	return m.InsertFunc(ctx, entry)
}

type mockCreditService struct {
	ChargeFunc  func(ctx context.Context, userID uuid.UUID, amount int64, source string) (bool, error)
	RefundFunc  func(ctx context.Context, userID uuid.UUID, amount int64, source string) error
	BalanceFunc func(ctx context.Context, userID uuid.UUID) (int64, error)

	ChargeCalls []int64
	RefundCalls []int64
}

func (m *mockCreditService) Charge(ctx context.Context, userID uuid.UUID, amount int64, source string) (bool, error) {
	m.ChargeCalls = append(m.ChargeCalls, amount)
	if m.ChargeFunc != nil {
		return m.ChargeFunc(ctx, userID, amount, source)
	}
	return true, nil
}

func (m *mockCreditService) Refund(ctx context.Context, userID uuid.UUID, amount int64, source string) error {
	m.RefundCalls = append(m.RefundCalls, amount)
	if m.RefundFunc != nil {
		return m.RefundFunc(ctx, userID, amount, source)
	}
	return nil
}

func (m *mockCreditService) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	if m.BalanceFunc != nil {
		return m.BalanceFunc(ctx, userID)
	}
	return 0, nil
}

// ============================================================================
// Test Setup
// ============================================================================

type assistantTestContext struct {
	service       AssistantService
	chatClient    *llm.MockChatClient
	creditService *mockCreditService
	identity      *auth.Identity
	dispatched    []string
}

func setupAssistantTest(t *testing.T) *assistantTestContext {
	t.Helper()

	tc := &assistantTestContext{
		chatClient:    llm.NewMockChatClient(),
		creditService: &mockCreditService{},
		identity:      &auth.Identity{UserID: uuid.New(), Email: "op@example.com"},
	}

	registry := tools.NewRegistry(zap.NewNop())
	registry.Register(&tools.ToolSpec{
		Definition: llm.NewToolDefinition("navigate_internal", "navigate", map[string]llm.ParameterProperty{}, []string{}),
		CreditCost: 0,
		Handler: func(ctx context.Context, arguments string, identity *auth.Identity) (string, error) {
			tc.dispatched = append(tc.dispatched, "navigate_internal")
			return `{"navigating":true,"path":"/pricing","label":"Pricing"}`, nil
		},
	})
	registry.Register(&tools.ToolSpec{
		Definition:   llm.NewToolDefinition("get_profile", "read profile", map[string]llm.ParameterProperty{}, []string{}),
		CreditCost:   0,
		RequiresAuth: true,
		Handler: func(ctx context.Context, arguments string, identity *auth.Identity) (string, error) {
			tc.dispatched = append(tc.dispatched, "get_profile")
			return `{"full_name":"Dana Okafor"}`, nil
		},
	})
	registry.Register(&tools.ToolSpec{
		Definition:   llm.NewToolDefinition("create_appointment_type", "create", map[string]llm.ParameterProperty{}, []string{}),
		CreditCost:   1,
		RequiresAuth: true,
		Handler: func(ctx context.Context, arguments string, identity *auth.Identity) (string, error) {
			tc.dispatched = append(tc.dispatched, "create_appointment_type")
			return `{"created":true}`, nil
		},
	})

	profileRepo := &mockProfileRepo{
		GetByUserIDFunc: func(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
			return &models.Profile{UserID: userID, FullName: "Dana Okafor", BusinessName: "Okafor Wellness", Slug: "okafor-wellness"}, nil
		},
	}
	knowledgeRepo := &mockKnowledgeRepo{
		ListActiveFunc: func(ctx context.Context) ([]*models.KnowledgeEntry, error) {
			return []*models.KnowledgeEntry{
				{Topic: "pricing", Content: "Plans start at $19 per month.", IsActive: true},
			}, nil
		},
	}

	tc.service = NewAssistantService(&AssistantServiceConfig{
		ChatClient:    tc.chatClient,
		Registry:      registry,
		ProfileRepo:   profileRepo,
		KnowledgeRepo: knowledgeRepo,
		CreditService: tc.creditService,
		Logger:        zap.NewNop(),
	})

	return tc
}

func userMessage(content string) []llm.Message {
	return []llm.Message{{Role: llm.RoleUser, Content: content}}
}

func toolCall(id, name, args string) llm.ToolCall {
	return llm.ToolCall{ID: id, Function: llm.ToolCallFunc{Name: name, Arguments: args}}
}

// ============================================================================
// Tests
// ============================================================================

func TestChat_NoToolCalls(t *testing.T) {
	tc := setupAssistantTest(t)
	tc.chatClient.Responses = []*llm.ChatResponse{
		{Content: "Easy Day AI is a booking platform."},
	}

	out, err := tc.service.Chat(context.Background(), &ChatInput{
		Messages: userMessage("What is Easy Day AI?"),
	})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}

	if out.Content != "Easy Day AI is a booking platform." {
		t.Errorf("content must be the model's text verbatim, got %q", out.Content)
	}
	if len(out.Actions) != 0 {
		t.Errorf("expected no actions, got %v", out.Actions)
	}
	if out.CreditsCharged != 0 {
		t.Errorf("expected creditsCharged 0, got %d", out.CreditsCharged)
	}
	if tc.chatClient.CreateCompletionCalls != 1 {
		t.Errorf("no follow-up without tool calls, got %d completions", tc.chatClient.CreateCompletionCalls)
	}
}

func TestChat_AnonymousCatalogAndPrompt(t *testing.T) {
	tc := setupAssistantTest(t)
	tc.chatClient.Responses = []*llm.ChatResponse{{Content: "Hello!"}}

	_, err := tc.service.Chat(context.Background(), &ChatInput{
		Messages:    userMessage("Hi"),
		CurrentPage: "/",
	})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}

	req := tc.chatClient.Requests[0]
	if len(req.Tools) != 1 || req.Tools[0].Name != "navigate_internal" {
		t.Fatalf("anonymous catalog must be exactly navigate_internal, got %v", req.Tools)
	}
	for _, leaked := range []string{"Dana Okafor", "Okafor Wellness", "okafor-wellness"} {
		if strings.Contains(req.SystemPrompt, leaked) {
			t.Errorf("anonymous prompt must not contain %q", leaked)
		}
	}
	if !strings.Contains(req.SystemPrompt, "[PRICING]") {
		t.Error("knowledge base missing from anonymous prompt")
	}
}

func TestChat_AuthenticatedPromptAndCatalog(t *testing.T) {
	tc := setupAssistantTest(t)
	tc.chatClient.Responses = []*llm.ChatResponse{{Content: "Hello Dana!"}}

	_, err := tc.service.Chat(context.Background(), &ChatInput{
		Messages: userMessage("Hi"),
		Identity: tc.identity,
	})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}

	req := tc.chatClient.Requests[0]
	if len(req.Tools) != 3 {
		t.Errorf("authenticated catalog must contain all tools, got %d", len(req.Tools))
	}
	if !strings.Contains(req.SystemPrompt, "Dana Okafor") {
		t.Error("operator name missing from authenticated prompt")
	}
}

func TestChat_ToolTurnChargesOnceAndRunsFollowup(t *testing.T) {
	tc := setupAssistantTest(t)
	tc.chatClient.Responses = []*llm.ChatResponse{
		{ToolCalls: []llm.ToolCall{
			toolCall("call_1", "get_profile", "{}"),
			toolCall("call_2", "create_appointment_type", `{"name":"Consultation","duration_minutes":30}`),
		}},
		{Content: "Done, I created the consultation type."},
	}

	out, err := tc.service.Chat(context.Background(), &ChatInput{
		Messages: userMessage("Create a 30-minute consultation type"),
		Identity: tc.identity,
	})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}

	if out.Content != "Done, I created the consultation type." {
		t.Errorf("unexpected content: %q", out.Content)
	}
	if out.CreditsCharged != 1 {
		t.Errorf("expected creditsCharged 1, got %d", out.CreditsCharged)
	}
	if len(tc.creditService.ChargeCalls) != 1 || tc.creditService.ChargeCalls[0] != 1 {
		t.Errorf("expected one charge of 1 credit, got %v", tc.creditService.ChargeCalls)
	}
	if len(tc.dispatched) != 2 || tc.dispatched[0] != "get_profile" || tc.dispatched[1] != "create_appointment_type" {
		t.Errorf("tools must run in the model's order, got %v", tc.dispatched)
	}

	// Follow-up transcript: user, assistant tool-call message, two results.
	followup := tc.chatClient.Requests[1]
	if len(followup.Tools) != 0 {
		t.Error("follow-up completion must not offer tools")
	}
	if len(followup.Messages) != 4 {
		t.Fatalf("expected 4 follow-up messages, got %d", len(followup.Messages))
	}
	if followup.Messages[2].Role != llm.RoleTool || followup.Messages[2].ToolCallID != "call_1" {
		t.Error("tool results must align positionally with the tool calls")
	}
	if followup.Messages[3].ToolCallID != "call_2" {
		t.Error("tool results must align positionally with the tool calls")
	}
}

func TestChat_InsufficientCreditsStopsBeforeDispatch(t *testing.T) {
	tc := setupAssistantTest(t)
	tc.creditService.ChargeFunc = func(ctx context.Context, userID uuid.UUID, amount int64, source string) (bool, error) {
		return false, nil
	}
	tc.chatClient.Responses = []*llm.ChatResponse{
		{ToolCalls: []llm.ToolCall{
			toolCall("call_1", "create_appointment_type", `{"name":"Consultation","duration_minutes":30}`),
		}},
	}

	_, err := tc.service.Chat(context.Background(), &ChatInput{
		Messages: userMessage("Create a 30-minute consultation type"),
		Identity: tc.identity,
	})
	if !errors.Is(err, apperrors.ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}

	if len(tc.dispatched) != 0 {
		t.Errorf("declined charge must prevent chargeable dispatch, ran %v", tc.dispatched)
	}
	if tc.chatClient.CreateCompletionCalls != 1 {
		t.Errorf("follow-up must not run after credit denial, got %d completions", tc.chatClient.CreateCompletionCalls)
	}
}

func TestChat_AnonymousChargeableToolIsDenied(t *testing.T) {
	tc := setupAssistantTest(t)
	// The anonymous catalog excludes paid tools, but the model can still
	// hallucinate one. The turn must be denied, not silently free.
	tc.chatClient.Responses = []*llm.ChatResponse{
		{ToolCalls: []llm.ToolCall{
			toolCall("call_1", "create_appointment_type", `{}`),
		}},
	}

	_, err := tc.service.Chat(context.Background(), &ChatInput{
		Messages: userMessage("Create something"),
	})
	if !errors.Is(err, apperrors.ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if len(tc.creditService.ChargeCalls) != 0 {
		t.Error("no identity to charge")
	}
}

func TestChat_FollowupFailureRefunds(t *testing.T) {
	tc := setupAssistantTest(t)
	tc.chatClient.CreateCompletionFunc = func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
		if tc.chatClient.CreateCompletionCalls == 1 {
			return &llm.ChatResponse{ToolCalls: []llm.ToolCall{
				toolCall("call_1", "create_appointment_type", `{"name":"Consultation","duration_minutes":30}`),
			}}, nil
		}
		return nil, errors.New("gateway timeout")
	}

	_, err := tc.service.Chat(context.Background(), &ChatInput{
		Messages: userMessage("Create a 30-minute consultation type"),
		Identity: tc.identity,
	})
	if err == nil {
		t.Fatal("expected error from failed follow-up")
	}

	if len(tc.creditService.RefundCalls) != 1 || tc.creditService.RefundCalls[0] != 1 {
		t.Errorf("failed follow-up must refund the charge, got %v", tc.creditService.RefundCalls)
	}
}

func TestChat_FreeToolTurnNeverCharges(t *testing.T) {
	tc := setupAssistantTest(t)
	tc.chatClient.Responses = []*llm.ChatResponse{
		{ToolCalls: []llm.ToolCall{toolCall("call_1", "navigate_internal", `{"path":"/pricing"}`)}},
		{Content: "Here is the pricing page."},
	}

	out, err := tc.service.Chat(context.Background(), &ChatInput{
		Messages: userMessage("Show me pricing"),
	})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}

	if out.CreditsCharged != 0 {
		t.Errorf("free turn must not charge, got %d", out.CreditsCharged)
	}
	if len(tc.creditService.ChargeCalls) != 0 {
		t.Errorf("zero-cost turn must not call Charge, got %v", tc.creditService.ChargeCalls)
	}
	if len(out.Actions) != 1 || out.Actions[0].Type != models.ActionTypeNavigate || out.Actions[0].Path != "/pricing" {
		t.Errorf("navigate result must become a client action, got %v", out.Actions)
	}
}

func TestChat_UnknownToolSurfacesAsResult(t *testing.T) {
	tc := setupAssistantTest(t)
	tc.chatClient.Responses = []*llm.ChatResponse{
		{ToolCalls: []llm.ToolCall{toolCall("call_1", "delete_everything", `{}`)}},
		{Content: "I cannot do that."},
	}

	out, err := tc.service.Chat(context.Background(), &ChatInput{
		Messages: userMessage("Delete everything"),
		Identity: tc.identity,
	})
	if err != nil {
		t.Fatalf("unknown tool must not fail the request: %v", err)
	}

	followup := tc.chatClient.Requests[1]
	result := followup.Messages[len(followup.Messages)-1]
	if !strings.Contains(result.Content, "Unknown tool: delete_everything") {
		t.Errorf("unknown tool must produce a structured error result, got %q", result.Content)
	}
	if out.CreditsCharged != 0 {
		t.Errorf("unknown tools cost nothing, got %d", out.CreditsCharged)
	}
}

func TestChat_EmptyMessagesRejected(t *testing.T) {
	tc := setupAssistantTest(t)

	_, err := tc.service.Chat(context.Background(), &ChatInput{})
	if err == nil {
		t.Fatal("empty transcript must be rejected")
	}
	if tc.chatClient.CreateCompletionCalls != 0 {
		t.Error("no completion should run for an empty transcript")
	}
}

func TestChat_MissingProfileDowngradesToAnonymous(t *testing.T) {
	tc := setupAssistantTest(t)
	service := tc.service.(*assistantService)
	service.profileRepo = &mockProfileRepo{
		GetByUserIDFunc: func(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
			return nil, nil
		},
	}
	tc.chatClient.Responses = []*llm.ChatResponse{{Content: "Hello!"}}

	_, err := tc.service.Chat(context.Background(), &ChatInput{
		Messages: userMessage("Hi"),
		Identity: tc.identity,
	})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}

	req := tc.chatClient.Requests[0]
	if len(req.Tools) != 1 || req.Tools[0].Name != "navigate_internal" {
		t.Errorf("identity without a profile must get the anonymous catalog, got %v", req.Tools)
	}
}
