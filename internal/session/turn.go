package session

import "time"

// Role identifies who produced a turn in the conversation history.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a tool invocation requested by the assistant, correlated to
// its result by ID.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Turn is one entry in a session's ordered history.
//
// User turns may carry an uploaded image: ImageID references the ephemeral
// image cache and ImageB64 holds the payload so later model invocations can
// re-send it without re-upload. Assistant turns may carry tool calls; tool
// turns carry the result for exactly one prior call (ToolCallID).
type Turn struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ImageID    string     `json:"image_id,omitempty"`
	ImageB64   string     `json:"image_b64,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func SystemTurn(content string) Turn {
	return Turn{Role: RoleSystem, Content: content, CreatedAt: time.Now().UTC()}
}

func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content, CreatedAt: time.Now().UTC()}
}

// UserImageTurn builds a user turn carrying an uploaded image.
func UserImageTurn(content, imageID, imageB64 string) Turn {
	return Turn{
		Role:      RoleUser,
		Content:   content,
		ImageID:   imageID,
		ImageB64:  imageB64,
		CreatedAt: time.Now().UTC(),
	}
}

func AssistantTurn(content string, calls []ToolCall) Turn {
	return Turn{Role: RoleAssistant, Content: content, ToolCalls: calls, CreatedAt: time.Now().UTC()}
}

func ToolResultTurn(callID, content string) Turn {
	return Turn{Role: RoleTool, Content: content, ToolCallID: callID, CreatedAt: time.Now().UTC()}
}
