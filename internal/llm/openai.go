package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/semaphore"

	"github.com/monalabs/mona/internal/reliability"
	"github.com/monalabs/mona/internal/session"
)

const completionAttempts = 3

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint.
// A weighted semaphore bounds in-flight requests across all sessions.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	sem     *semaphore.Weighted
	logger  *slog.Logger
}

func NewOpenAIClient(apiKey, baseURL, model string, timeout time.Duration, maxConcurrent int, logger *slog.Logger) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		logger:  logger,
	}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, turns []session.Turn, tools []ToolDefinition) (Result, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return Result{}, fmt.Errorf("acquire llm slot: %w", err)
	}
	defer c.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toMessages(turns),
		Tools:    toTools(tools),
	}

	var lastErr error
	for attempt := 0; attempt < completionAttempts; attempt++ {
		if attempt > 0 {
			delay := reliability.ExponentialBackoff(attempt-1, 250*time.Millisecond, 2*time.Second)
			select {
			case <-ctx.Done():
				return Result{}, classifyCtxErr(ctx.Err())
			case <-time.After(delay):
			}
		}

		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err == nil {
			return fromResponse(resp)
		}
		lastErr = err

		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && reliability.IsRetryableHTTPStatus(apiErr.HTTPStatusCode) {
			c.logger.Warn("retrying chat completion", "attempt", attempt+1, "status", apiErr.HTTPStatusCode)
			continue
		}
		if ctx.Err() != nil {
			return Result{}, classifyCtxErr(ctx.Err())
		}
		break
	}

	if ctx.Err() != nil {
		return Result{}, classifyCtxErr(ctx.Err())
	}
	var apiErr *openai.APIError
	if errors.As(lastErr, &apiErr) {
		if apiErr.HTTPStatusCode >= 500 || apiErr.HTTPStatusCode == 429 {
			return Result{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, lastErr)
		}
		return Result{}, fmt.Errorf("chat completion: %w", lastErr)
	}
	// No HTTP response at all: connection refused, DNS failure, reset.
	return Result{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, lastErr)
}

func classifyCtxErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}
	return err
}

func toMessages(turns []session.Turn) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, turn := range turns {
		msg := openai.ChatCompletionMessage{Role: string(turn.Role)}
		switch turn.Role {
		case session.RoleUser:
			if turn.ImageB64 != "" {
				msg.MultiContent = []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: turn.Content},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: "data:image/jpeg;base64," + turn.ImageB64,
						},
					},
				}
			} else {
				msg.Content = turn.Content
			}
		case session.RoleAssistant:
			msg.Content = turn.Content
			for _, call := range turn.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   call.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      call.Name,
						Arguments: call.Arguments,
					},
				})
			}
		case session.RoleTool:
			msg.Content = turn.Content
			msg.ToolCallID = turn.ToolCallID
		default:
			msg.Content = turn.Content
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

func toTools(tools []ToolDefinition) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

func fromResponse(resp openai.ChatCompletionResponse) (Result, error) {
	if len(resp.Choices) == 0 {
		return Result{}, errors.New("chat completion has no choices")
	}
	choice := resp.Choices[0]

	res := Result{Content: choice.Message.Content}
	for _, call := range choice.Message.ToolCalls {
		res.ToolCalls = append(res.ToolCalls, session.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return res, nil
}
