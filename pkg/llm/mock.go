package llm

import (
	"context"
)

// MockChatClient is a configurable mock for testing chat-completion callers.
// Set Responses to queue replies in order, or CreateCompletionFunc for full
// control of each call.
type MockChatClient struct {
	// CreateCompletionFunc is called when CreateCompletion is invoked.
	// If nil, responses are popped from Responses instead.
	CreateCompletionFunc func(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Responses is a FIFO queue of canned responses used when
	// CreateCompletionFunc is nil. An exhausted queue returns an empty response.
	Responses []*ChatResponse

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Call tracking for verification.
	CreateCompletionCalls int
	Requests              []*ChatRequest
}

// NewMockChatClient creates a new mock with sensible defaults.
func NewMockChatClient() *MockChatClient {
	return &MockChatClient{
		Model: "mock-model",
	}
}

// CreateCompletion implements ChatClient.
func (m *MockChatClient) CreateCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	m.CreateCompletionCalls++
	m.Requests = append(m.Requests, req)

	if m.CreateCompletionFunc != nil {
		return m.CreateCompletionFunc(ctx, req)
	}

	if len(m.Responses) > 0 {
		resp := m.Responses[0]
		m.Responses = m.Responses[1:]
		return resp, nil
	}

	return &ChatResponse{}, nil
}

// GetModel implements ChatClient.
func (m *MockChatClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// Reset clears call tracking and queued responses.
func (m *MockChatClient) Reset() {
	m.CreateCompletionCalls = 0
	m.Requests = nil
	m.Responses = nil
}

// Ensure MockChatClient implements ChatClient at compile time.
var _ ChatClient = (*MockChatClient)(nil)
