package llm

import (
	"testing"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

func TestNewOpenAIClient_RequiresEndpointAndModel(t *testing.T) {
	logger := zap.NewNop()

	if _, err := NewOpenAIClient(&Config{Model: "gpt-4o-mini"}, logger); err == nil {
		t.Error("expected error without endpoint")
	}
	if _, err := NewOpenAIClient(&Config{Endpoint: "https://api.openai.com/v1"}, logger); err == nil {
		t.Error("expected error without model")
	}
	if _, err := NewOpenAIClient(&Config{Endpoint: "https://api.openai.com/v1", Model: "gpt-4o-mini"}, logger); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBuildOpenAIMessages(t *testing.T) {
	messages := []Message{
		{Role: RoleUser, Content: "Create a consultation type"},
		{
			Role:    RoleAssistant,
			Content: "",
			ToolCalls: []ToolCall{
				{ID: "call_1", Function: ToolCallFunc{Name: "create_appointment_type", Arguments: `{"name":"Consultation"}`}},
			},
		},
		{Role: RoleTool, Content: `{"success":true}`, ToolCallID: "call_1"},
	}

	result := buildOpenAIMessages(messages, "You are Daisy.")

	if len(result) != 4 {
		t.Fatalf("expected 4 messages (system + 3), got %d", len(result))
	}
	if result[0].Role != openai.ChatMessageRoleSystem || result[0].Content != "You are Daisy." {
		t.Errorf("unexpected system message: %+v", result[0])
	}
	if len(result[2].ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call on assistant message, got %d", len(result[2].ToolCalls))
	}
	if result[2].ToolCalls[0].Function.Name != "create_appointment_type" {
		t.Errorf("unexpected tool call name %s", result[2].ToolCalls[0].Function.Name)
	}
	if result[3].ToolCallID != "call_1" {
		t.Errorf("expected tool result linked to call_1, got %s", result[3].ToolCallID)
	}
}

func TestBuildOpenAIMessages_NoSystemPrompt(t *testing.T) {
	result := buildOpenAIMessages([]Message{{Role: RoleUser, Content: "hi"}}, "")
	if len(result) != 1 {
		t.Fatalf("expected 1 message, got %d", len(result))
	}
}

func TestBuildOpenAITools(t *testing.T) {
	defs := []ToolDefinition{
		NewToolDefinition("navigate_internal", "Navigate the app", map[string]ParameterProperty{
			"path": {Type: "string", Description: "Target path"},
		}, []string{"path"}),
	}

	tools := buildOpenAITools(defs)
	if len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}
	if tools[0].Function.Name != "navigate_internal" {
		t.Errorf("unexpected tool name %s", tools[0].Function.Name)
	}

	if buildOpenAITools(nil) != nil {
		t.Error("expected nil for empty tool list")
	}
}
