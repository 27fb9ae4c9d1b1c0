package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/monalabs/mona/internal/session"
)

func echoTool(name string) Tool {
	return Tool{
		Name:        name,
		Description: "echo",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
			},
			"required":             []string{"text"},
			"additionalProperties": false,
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			s, _ := args["text"].(string)
			return "echo: " + s, nil
		},
	}
}

func TestDispatchRunsHandler(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoTool("echo_text")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	out, err := r.Dispatch(context.Background(), session.ToolCall{
		ID:        "call_1",
		Name:      "echo_text",
		Arguments: `{"text":"hello"}`,
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if out != "echo: hello" {
		t.Fatalf("Dispatch() = %q", out)
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Dispatch(context.Background(), session.ToolCall{Name: "missing", Arguments: "{}"})
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("Dispatch() error = %v, want ErrUnknownTool", err)
	}
}

func TestDispatchRejectsBadArguments(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoTool("echo_text")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	cases := []struct {
		name string
		args string
	}{
		{"unknown field", `{"text":"x","extra":1}`},
		{"missing required", `{}`},
		{"wrong type", `{"text":7}`},
		{"not an object", `"just a string"`},
	}
	for _, tc := range cases {
		_, err := r.Dispatch(context.Background(), session.ToolCall{Name: "echo_text", Arguments: tc.args})
		if !errors.Is(err, ErrInvalidArgs) {
			t.Fatalf("%s: Dispatch() error = %v, want ErrInvalidArgs", tc.name, err)
		}
	}
}

func TestDispatchEnforcesDecodedRequiredList(t *testing.T) {
	// A schema that went through a JSON round trip carries its required
	// list as []any; the closed-schema policy must still hold.
	r := NewRegistry()
	tool := echoTool("echo_text")
	tool.Parameters = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{"type": "string"},
		},
		"required":             []any{"text"},
		"additionalProperties": false,
	}
	if err := r.Register(tool); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := r.Dispatch(context.Background(), session.ToolCall{Name: "echo_text", Arguments: `{}`})
	if !errors.Is(err, ErrInvalidArgs) {
		t.Fatalf("Dispatch() error = %v, want ErrInvalidArgs", err)
	}

	out, err := r.Dispatch(context.Background(), session.ToolCall{Name: "echo_text", Arguments: `{"text":"ok"}`})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if out != "echo: ok" {
		t.Fatalf("Dispatch() = %q", out)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(echoTool("echo_text")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(echoTool("echo_text")); err == nil {
		t.Fatalf("duplicate Register() should fail")
	}
}

func TestDefinitionsPreserveOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"tool_b", "tool_a", "tool_c"} {
		if err := r.Register(echoTool(name)); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}
	defs := r.Definitions()
	if len(defs) != 3 {
		t.Fatalf("Definitions() = %d entries", len(defs))
	}
	want := []string{"tool_b", "tool_a", "tool_c"}
	for i, name := range want {
		if defs[i].Name != name {
			t.Fatalf("Definitions()[%d] = %q, want %q", i, defs[i].Name, name)
		}
	}
}
