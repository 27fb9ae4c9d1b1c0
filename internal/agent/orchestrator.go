// Package agent runs the conversation control loop: append the user turn,
// ask the model, execute whatever tools it requests, and repeat until it
// produces a final answer.
package agent

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/monalabs/mona/internal/imagecache"
	"github.com/monalabs/mona/internal/llm"
	"github.com/monalabs/mona/internal/observability"
	"github.com/monalabs/mona/internal/session"
	"github.com/monalabs/mona/internal/tools"
)

// ErrToolRoundsExceeded reports a turn that hit the tool round bound
// without producing a final answer. The session history up to that point is
// preserved.
var ErrToolRoundsExceeded = errors.New("agent: tool call rounds exceeded")

// Reply is the shaped outcome of one user turn.
type Reply struct {
	SessionID string
	Response  string
}

// Orchestrator mediates between the session store, the model, and the tool
// registry.
type Orchestrator struct {
	sessions  *session.Store
	client    llm.Client
	registry  *tools.Registry
	cache     *imagecache.Cache
	shaper    *Shaper
	maxRounds int
	metrics   *observability.Metrics
	window    *observability.LatencyWindow
	logger    *slog.Logger
}

func NewOrchestrator(
	sessions *session.Store,
	client llm.Client,
	registry *tools.Registry,
	cache *imagecache.Cache,
	shaper *Shaper,
	maxRounds int,
	metrics *observability.Metrics,
	window *observability.LatencyWindow,
	logger *slog.Logger,
) *Orchestrator {
	if maxRounds <= 0 {
		maxRounds = 8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		sessions:  sessions,
		client:    client,
		registry:  registry,
		cache:     cache,
		shaper:    shaper,
		maxRounds: maxRounds,
		metrics:   metrics,
		window:    window,
		logger:    logger,
	}
}

// HandleMessage runs one full user turn against a session. An empty
// sessionID creates a new session; an unknown one fails with
// session.ErrNotFound. Exactly one turn runs per session at a time.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID, message, rawImageB64 string) (Reply, error) {
	sess, err := o.resolveSession(sessionID)
	if err != nil {
		return Reply{}, err
	}

	unlock := sess.BeginCycle()
	defer unlock()

	if err := o.appendUserTurn(sess, message, rawImageB64); err != nil {
		return Reply{}, err
	}

	start := time.Now()
	reply, err := o.runLoop(ctx, sess)
	o.window.Observe(observability.StageTurnTotal, time.Since(start))
	return reply, err
}

func (o *Orchestrator) resolveSession(sessionID string) (*session.Session, error) {
	if sessionID == "" {
		sess := o.sessions.Create(SystemDirective())
		if o.metrics != nil {
			o.metrics.ActiveSessions.Set(float64(o.sessions.Count()))
		}
		o.logger.Info("session created", "session_id", sess.ID)
		return sess, nil
	}
	return o.sessions.Get(sessionID)
}

// appendUserTurn registers an uploaded image in the cache before the model
// sees its id, and substitutes the default prompt for image-only turns.
func (o *Orchestrator) appendUserTurn(sess *session.Session, message, rawImageB64 string) error {
	if rawImageB64 == "" {
		sess.Append(session.UserTurn(message))
		return nil
	}

	raw, err := base64.StdEncoding.DecodeString(rawImageB64)
	if err != nil {
		return fmt.Errorf("decode image payload: %w", err)
	}
	imageID := o.cache.Put(raw)
	if o.metrics != nil {
		o.metrics.CachedImages.Set(float64(o.cache.Len()))
	}

	prompt := message
	if prompt == "" {
		prompt = DefaultImagePrompt
	}
	text := fmt.Sprintf("%s (image_id: %s)", prompt, imageID)
	sess.Append(session.UserImageTurn(text, imageID, rawImageB64))
	return nil
}

func (o *Orchestrator) runLoop(ctx context.Context, sess *session.Session) (Reply, error) {
	defs := o.registry.Definitions()

	for round := 1; ; round++ {
		if round > o.maxRounds {
			o.countChat("rounds_exceeded")
			o.logger.Warn("tool round bound hit", "session_id", sess.ID, "max_rounds", o.maxRounds)
			return Reply{}, ErrToolRoundsExceeded
		}

		roundStart := time.Now()
		res, err := o.client.Complete(ctx, sess.History(), defs)
		o.window.Observe(observability.StageLLMRound, time.Since(roundStart))
		if err != nil {
			o.countChat("llm_error")
			o.countUpstream("llm", err)
			return Reply{}, err
		}

		sess.Append(session.AssistantTurn(res.Content, res.ToolCalls))

		if len(res.ToolCalls) == 0 {
			shapeStart := time.Now()
			shaped, err := o.shaper.Shape(res.Content)
			o.window.Observe(observability.StageShape, time.Since(shapeStart))
			if err != nil {
				o.countChat("malformed_output")
				return Reply{}, err
			}
			if o.metrics != nil {
				o.metrics.LLMRounds.Observe(float64(round))
			}
			o.countChat("ok")
			o.logger.Info("turn complete", "session_id", sess.ID, "rounds", round, "turns", sess.Len())
			return Reply{SessionID: sess.ID, Response: shaped}, nil
		}

		if err := o.executeToolCalls(ctx, sess, res.ToolCalls); err != nil {
			o.countChat("tool_error")
			return Reply{}, err
		}
	}
}

// executeToolCalls resolves every request from one assistant message in
// request order. Schema and unknown-tool rejections become tool results so
// the model can react; anything else fails the turn.
func (o *Orchestrator) executeToolCalls(ctx context.Context, sess *session.Session, calls []session.ToolCall) error {
	for _, call := range calls {
		dispatchStart := time.Now()
		out, err := o.registry.Dispatch(ctx, call)
		o.window.Observe(observability.StageToolDispatch, time.Since(dispatchStart))

		switch {
		case err == nil:
			o.countTool(call.Name, "ok")
		case errors.Is(err, tools.ErrUnknownTool), errors.Is(err, tools.ErrInvalidArgs):
			o.countTool(call.Name, "rejected")
			o.logger.Warn("tool call rejected", "session_id", sess.ID, "tool", call.Name, "error", err)
			out = fmt.Sprintf("tool call failed: %v", err)
		default:
			o.countTool(call.Name, "error")
			return fmt.Errorf("dispatch %s: %w", call.Name, err)
		}

		sess.Append(session.ToolResultTurn(call.ID, out))
	}
	return nil
}

func (o *Orchestrator) countChat(outcome string) {
	if o.metrics != nil {
		o.metrics.ChatRequests.WithLabelValues(outcome).Inc()
	}
}

func (o *Orchestrator) countTool(tool, outcome string) {
	if o.metrics != nil {
		o.metrics.ToolCalls.WithLabelValues(tool, outcome).Inc()
	}
}

func (o *Orchestrator) countUpstream(component string, err error) {
	if o.metrics == nil {
		return
	}
	class := "other"
	switch {
	case errors.Is(err, llm.ErrUpstreamTimeout):
		class = "timeout"
	case errors.Is(err, llm.ErrUpstreamUnavailable):
		class = "unavailable"
	}
	o.metrics.UpstreamErrors.WithLabelValues(component, class).Inc()
}
