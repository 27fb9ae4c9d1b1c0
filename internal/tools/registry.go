// Package tools is the registry of capabilities the model may request. Each
// tool declares a closed argument schema; arguments are validated before
// dispatch so the handler never sees malformed input.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/monalabs/mona/internal/llm"
	"github.com/monalabs/mona/internal/session"
)

var (
	// ErrUnknownTool reports a requested tool name with no registered
	// handler. The loop surfaces it to the model as a tool failure
	// instead of returning a silent empty result.
	ErrUnknownTool = errors.New("tools: unknown tool")
	// ErrInvalidArgs reports arguments that do not match the declared
	// schema.
	ErrInvalidArgs = errors.New("tools: invalid arguments")
)

// Handler executes a validated tool call.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Tool is one registered capability.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     Handler
}

// Registry holds tools by name, preserving registration order for the
// schema list advertised to the model.
type Registry struct {
	order []string
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return errors.New("tool name is required")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %s has no handler", t.Name)
	}
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool %s already registered", t.Name)
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Definitions lists the registered tool schemas in registration order.
func (r *Registry) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return defs
}

// Dispatch validates and executes one tool call, returning the text result
// to hand back to the model.
func (r *Registry) Dispatch(ctx context.Context, call session.ToolCall) (string, error) {
	t, ok := r.tools[call.Name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, call.Name)
	}

	args, err := validateArgs(t.Parameters, call.Arguments)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	return t.Handler(ctx, args)
}

// validateArgs enforces the closed-schema policy: every argument must be a
// declared property, every required property must be present, and string
// properties must carry strings.
func validateArgs(schema map[string]any, raw string) (map[string]any, error) {
	var args map[string]any
	if raw == "" {
		raw = "{}"
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("arguments are not a JSON object: %v", err)
	}

	properties, _ := schema["properties"].(map[string]any)
	for key := range args {
		if _, ok := properties[key]; !ok {
			return nil, fmt.Errorf("unknown argument %q", key)
		}
	}

	for key, spec := range properties {
		val, present := args[key]
		if !present {
			continue
		}
		propSchema, _ := spec.(map[string]any)
		if propSchema["type"] == "string" {
			if _, ok := val.(string); !ok {
				return nil, fmt.Errorf("argument %q must be a string", key)
			}
		}
	}

	for _, key := range requiredKeys(schema["required"]) {
		if _, present := args[key]; !present {
			return nil, fmt.Errorf("missing required argument %q", key)
		}
	}
	return args, nil
}

// requiredKeys accepts both the Go-literal form of the required list and
// the []any form a schema takes after a JSON round trip.
func requiredKeys(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		keys := make([]string, 0, len(vals))
		for _, val := range vals {
			if key, ok := val.(string); ok {
				keys = append(keys, key)
			}
		}
		return keys
	default:
		return nil
	}
}
