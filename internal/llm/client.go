// Package llm abstracts the chat model behind a single Complete call so the
// agent loop does not care which backend produces tokens.
package llm

import (
	"context"
	"errors"

	"github.com/monalabs/mona/internal/session"
)

// Sentinel errors for upstream failure classes. Handlers map these to
// distinct HTTP statuses.
var (
	ErrUpstreamTimeout     = errors.New("llm: upstream timed out")
	ErrUpstreamUnavailable = errors.New("llm: upstream unavailable")
)

// ToolDefinition describes one callable tool advertised to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Result is one model completion: either final content, or a batch of tool
// calls to execute before asking again.
type Result struct {
	Content   string
	ToolCalls []session.ToolCall
}

// Client produces one completion from the full conversation history.
type Client interface {
	Complete(ctx context.Context, turns []session.Turn, tools []ToolDefinition) (Result, error)
}
