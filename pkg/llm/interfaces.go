// Package llm provides chat-completion clients for the assistant's LLM
// gateway. Two providers are supported: any OpenAI-compatible endpoint and
// Anthropic. Both satisfy ChatClient so callers never see provider types.
package llm

import (
	"context"
)

// Message role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a chat message in the transcript.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall represents a tool invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Function ToolCallFunc `json:"function"`
}

// ToolCallFunc represents the function portion of a tool call.
type ToolCallFunc struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // Raw JSON object
}

// ChatRequest is a single chat-completion request.
type ChatRequest struct {
	SystemPrompt string
	Messages     []Message
	Tools        []ToolDefinition // Empty disables tool calling
	Temperature  float64
	MaxTokens    int
}

// ChatResponse is the model's reply: final text, requested tool calls, or both.
// ToolCalls preserves the order the model emitted them in.
type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
}

// ChatClient defines the interface for chat-completion operations.
// Use this interface for dependency injection to enable mocking in tests.
type ChatClient interface {
	// CreateCompletion performs one chat completion. The gateway is treated as
	// a black box: errors propagate without retries.
	CreateCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// GetModel returns the configured model name.
	GetModel() string
}
