package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/monalabs/mona/internal/session"
)

// MockClient provides deterministic local replies when no model backend is
// configured. It always answers with a tagged text payload so the response
// shaper can decode it like a real completion.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) Complete(ctx context.Context, turns []session.Turn, tools []ToolDefinition) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	last := ""
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == session.RoleUser {
			last = strings.TrimSpace(turns[i].Content)
			break
		}
	}
	if last == "" {
		last = "I am listening."
	}

	payload, err := json.Marshal(map[string]string{
		"type":    "text",
		"content": fmt.Sprintf("I heard you: %s", last),
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Content: string(payload)}, nil
}

// ScriptedClient replays a fixed sequence of completions. Tests use it to
// drive the agent loop through tool rounds without a live model.
type ScriptedClient struct {
	mu    sync.Mutex
	steps []ScriptStep
	calls [][]session.Turn
}

// ScriptStep is one scripted completion.
type ScriptStep struct {
	Result Result
	Err    error
}

func NewScriptedClient(steps ...ScriptStep) *ScriptedClient {
	return &ScriptedClient{steps: steps}
}

func (c *ScriptedClient) Complete(ctx context.Context, turns []session.Turn, tools []ToolDefinition) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make([]session.Turn, len(turns))
	copy(snapshot, turns)
	c.calls = append(c.calls, snapshot)

	if len(c.steps) == 0 {
		return Result{}, fmt.Errorf("scripted client exhausted after %d calls", len(c.calls))
	}
	step := c.steps[0]
	c.steps = c.steps[1:]
	return step.Result, step.Err
}

// Calls returns the history snapshots seen by each Complete invocation.
func (c *ScriptedClient) Calls() [][]session.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]session.Turn, len(c.calls))
	copy(out, c.calls)
	return out
}
