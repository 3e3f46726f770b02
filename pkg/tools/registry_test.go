package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/easydayai/daisy-engine/pkg/auth"
	"github.com/easydayai/daisy-engine/pkg/llm"
)

func newTestRegistry() *Registry {
	return NewRegistry(zap.NewNop())
}

func echoSpec(name string, requiresAuth bool, cost int64) *ToolSpec {
	return &ToolSpec{
		Definition:   llm.NewToolDefinition(name, "test tool", map[string]llm.ParameterProperty{}, []string{}),
		CreditCost:   cost,
		RequiresAuth: requiresAuth,
		Handler: func(ctx context.Context, arguments string, identity *auth.Identity) (string, error) {
			return `{"ok":true}`, nil
		},
	}
}

func TestRegistry_DefinitionsNarrowedForAnonymous(t *testing.T) {
	r := newTestRegistry()
	r.Register(echoSpec("navigate_internal", false, 0))
	r.Register(echoSpec("get_profile", true, 0))
	r.Register(echoSpec("update_theme", true, 1))

	defs := r.Definitions(false)
	if len(defs) != 1 {
		t.Fatalf("anonymous catalog must contain exactly one tool, got %d", len(defs))
	}
	if defs[0].Name != "navigate_internal" {
		t.Errorf("anonymous catalog must be navigate_internal only, got %s", defs[0].Name)
	}

	defs = r.Definitions(true)
	if len(defs) != 3 {
		t.Errorf("authenticated catalog must contain all tools, got %d", len(defs))
	}
}

func TestRegistry_DefinitionsPreserveRegistrationOrder(t *testing.T) {
	r := newTestRegistry()
	names := []string{"navigate_internal", "get_profile", "list_bookings", "update_theme"}
	for _, name := range names {
		r.Register(echoSpec(name, false, 0))
	}

	defs := r.Definitions(true)
	for i, def := range defs {
		if def.Name != names[i] {
			t.Errorf("position %d: expected %s, got %s", i, names[i], def.Name)
		}
	}
}

func TestRegistry_DispatchUnknownTool(t *testing.T) {
	r := newTestRegistry()

	result := r.Dispatch(context.Background(), "delete_everything", "{}", nil)

	var parsed map[string]string
	if err := json.Unmarshal([]byte(result), &parsed); err != nil {
		t.Fatalf("result must be valid JSON: %v", err)
	}
	if parsed["error"] != "Unknown tool: delete_everything" {
		t.Errorf("unexpected error result: %q", parsed["error"])
	}
}

func TestRegistry_DispatchRequiresAuth(t *testing.T) {
	r := newTestRegistry()
	r.Register(echoSpec("get_profile", true, 0))

	result := r.Dispatch(context.Background(), "get_profile", "{}", nil)

	var parsed map[string]string
	if err := json.Unmarshal([]byte(result), &parsed); err != nil {
		t.Fatalf("result must be valid JSON: %v", err)
	}
	if parsed["error"] != "Not authenticated" {
		t.Errorf("unexpected error result: %q", parsed["error"])
	}

	identity := &auth.Identity{UserID: uuid.New()}
	result = r.Dispatch(context.Background(), "get_profile", "{}", identity)
	if result != `{"ok":true}` {
		t.Errorf("authenticated dispatch failed: %s", result)
	}
}

func TestRegistry_DispatchHandlerErrorIsStructured(t *testing.T) {
	r := newTestRegistry()
	r.Register(&ToolSpec{
		Definition: llm.NewToolDefinition("get_theme", "test tool", map[string]llm.ParameterProperty{}, []string{}),
		Handler: func(ctx context.Context, arguments string, identity *auth.Identity) (string, error) {
			return "", errors.New("connection refused to db-internal.example.com")
		},
	})

	result := r.Dispatch(context.Background(), "get_theme", "{}", nil)

	var parsed map[string]string
	if err := json.Unmarshal([]byte(result), &parsed); err != nil {
		t.Fatalf("result must be valid JSON: %v", err)
	}
	if parsed["error"] != "Tool get_theme failed" {
		t.Errorf("internal error detail must not leak to the model, got %q", parsed["error"])
	}
}

func TestRegistry_CreditCost(t *testing.T) {
	r := newTestRegistry()
	r.Register(echoSpec("get_profile", true, 0))
	r.Register(echoSpec("update_theme", true, 1))

	if cost := r.CreditCost("get_profile"); cost != 0 {
		t.Errorf("expected cost 0, got %d", cost)
	}
	if cost := r.CreditCost("update_theme"); cost != 1 {
		t.Errorf("expected cost 1, got %d", cost)
	}
	if cost := r.CreditCost("nonexistent"); cost != 0 {
		t.Errorf("unknown tool must cost 0, got %d", cost)
	}
}
