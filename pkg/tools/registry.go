// Package tools implements the whitelisted server-side tools the assistant
// can invoke, plus the registry that gates them by auth and credit cost.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/easydayai/daisy-engine/pkg/auth"
	"github.com/easydayai/daisy-engine/pkg/llm"
)

// Handler executes one tool invocation. The identity is nil for anonymous
// sessions. Returned strings are JSON tool results fed back to the model;
// a non-nil error means an internal failure that should not reach the model
// verbatim.
type Handler func(ctx context.Context, arguments string, identity *auth.Identity) (string, error)

// ToolSpec binds a tool definition to its credit cost, auth requirement,
// and handler.
type ToolSpec struct {
	Definition   llm.ToolDefinition
	CreditCost   int64
	RequiresAuth bool
	Handler      Handler
}

// Registry holds the tool catalog in registration order.
type Registry struct {
	specs  map[string]*ToolSpec
	order  []string
	logger *zap.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		specs:  make(map[string]*ToolSpec),
		logger: logger.Named("tools"),
	}
}

// Register adds a tool to the registry. Re-registering a name replaces the
// spec but keeps its original catalog position.
func (r *Registry) Register(spec *ToolSpec) {
	name := spec.Definition.Name
	if _, exists := r.specs[name]; !exists {
		r.order = append(r.order, name)
	}
	r.specs[name] = spec
}

// Definitions returns the tool catalog offered to the model. Anonymous
// sessions see only the tools that do not require auth.
func (r *Registry) Definitions(authenticated bool) []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		spec := r.specs[name]
		if spec.RequiresAuth && !authenticated {
			continue
		}
		defs = append(defs, spec.Definition)
	}
	return defs
}

// CreditCost returns the cost of one invocation of the named tool.
// Unknown tools cost nothing; their dispatch produces an error result.
func (r *Registry) CreditCost(name string) int64 {
	spec, ok := r.specs[name]
	if !ok {
		return 0
	}
	return spec.CreditCost
}

// Dispatch runs one tool call and always returns a JSON result string.
// Unknown tools, missing auth, and handler failures all surface as structured
// error results so the model can react; they never fail the request.
func (r *Registry) Dispatch(ctx context.Context, name, arguments string, identity *auth.Identity) string {
	spec, ok := r.specs[name]
	if !ok {
		return errorResult(fmt.Sprintf("Unknown tool: %s", name))
	}

	if spec.RequiresAuth && identity == nil {
		return errorResult("Not authenticated")
	}

	result, err := spec.Handler(ctx, arguments, identity)
	if err != nil {
		r.logger.Error("Tool handler failed",
			zap.String("tool", name),
			zap.Error(err))
		return errorResult(fmt.Sprintf("Tool %s failed", name))
	}

	return result
}

// errorResult marshals a message into the structured error shape tool
// results use.
func errorResult(message string) string {
	payload, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return `{"error": "internal error"}`
	}
	return string(payload)
}
