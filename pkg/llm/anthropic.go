package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

const anthropicDefaultMaxTokens = 1024

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

// NewAnthropicClient creates a client for the Anthropic Messages API.
func NewAnthropicClient(cfg *Config, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	return &AnthropicClient{
		client: anthropic.NewClient(cfg.APIKey),
		model:  cfg.Model,
		logger: logger.Named("llm"),
	}, nil
}

// CreateCompletion performs one chat completion with optional tool support.
func (c *AnthropicClient) CreateCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	anthReq := anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		System:    req.SystemPrompt,
		Messages:  buildAnthropicMessages(req.Messages),
		MaxTokens: maxTokens,
	}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		anthReq.Temperature = &temp
	}
	for _, def := range req.Tools {
		anthReq.Tools = append(anthReq.Tools, anthropic.ToolDefinition{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.Parameters,
		})
	}

	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("message_count", len(anthReq.Messages)),
		zap.Int("tool_count", len(anthReq.Tools)))

	start := time.Now()

	resp, err := c.client.CreateMessages(ctx, anthReq)
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, wrapAnthropicError(err)
	}

	var content string
	var toolCalls []ToolCall
	for _, block := range resp.Content {
		switch block.Type {
		case anthropic.MessagesContentTypeText:
			content += block.GetText()
		case anthropic.MessagesContentTypeToolUse:
			if block.MessageContentToolUse == nil {
				continue
			}
			toolCalls = append(toolCalls, ToolCall{
				ID: block.MessageContentToolUse.ID,
				Function: ToolCallFunc{
					Name:      block.MessageContentToolUse.Name,
					Arguments: string(block.MessageContentToolUse.Input),
				},
			})
		}
	}

	c.logger.Info("LLM request completed",
		zap.Int("tool_calls", len(toolCalls)),
		zap.Duration("elapsed", time.Since(start)))

	return &ChatResponse{
		Content:   content,
		ToolCalls: toolCalls,
	}, nil
}

// GetModel returns the configured model name.
func (c *AnthropicClient) GetModel() string {
	return c.model
}

// wrapAnthropicError converts a provider error into a GatewayError.
func wrapAnthropicError(err error) error {
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		return &GatewayError{
			Message: fmt.Sprintf("messages request failed (%s)", apiErr.Type),
			Cause:   err,
		}
	}
	return &GatewayError{Message: "messages request failed", Cause: err}
}

// buildAnthropicMessages converts our message format to the Messages API
// format. Tool results become tool_result blocks inside a user message;
// consecutive tool results collapse into one user message so roles alternate.
func buildAnthropicMessages(messages []Message) []anthropic.Message {
	var result []anthropic.Message

	for _, msg := range messages {
		switch msg.Role {
		case RoleUser:
			result = append(result, anthropic.NewUserTextMessage(msg.Content))

		case RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				result = append(result, anthropic.NewAssistantTextMessage(msg.Content))
				continue
			}
			var blocks []anthropic.MessageContent
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextMessageContent(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				blocks = append(blocks, anthropic.MessageContent{
					Type: anthropic.MessagesContentTypeToolUse,
					MessageContentToolUse: &anthropic.MessageContentToolUse{
						ID:    tc.ID,
						Name:  tc.Function.Name,
						Input: json.RawMessage(tc.Function.Arguments),
					},
				})
			}
			result = append(result, anthropic.Message{
				Role:    anthropic.RoleAssistant,
				Content: blocks,
			})

		case RoleTool:
			block := anthropic.NewToolResultMessageContent(msg.ToolCallID, msg.Content, false)
			if len(result) > 0 && result[len(result)-1].Role == anthropic.RoleUser &&
				len(result[len(result)-1].Content) > 0 &&
				result[len(result)-1].Content[0].Type == anthropic.MessagesContentTypeToolResult {
				last := &result[len(result)-1]
				last.Content = append(last.Content, block)
				continue
			}
			result = append(result, anthropic.Message{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{block},
			})
		}
	}

	return result
}

// Ensure AnthropicClient implements ChatClient at compile time.
var _ ChatClient = (*AnthropicClient)(nil)
