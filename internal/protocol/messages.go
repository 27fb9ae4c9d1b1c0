// Package protocol defines the wire shapes for the chat API, shared by the
// HTTP and websocket transports.
package protocol

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrValidation marks requests rejected at the boundary, before any agent
// work happens.
var ErrValidation = errors.New("protocol: invalid request")

// ChatRequest is one user turn. At least one of Message and RawImage must
// be set; RawImage carries standard base64 JPEG/PNG bytes.
type ChatRequest struct {
	Message   string `json:"message,omitempty"`
	RawImage  string `json:"raw_image,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

func (r ChatRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" && r.RawImage == "" {
		return fmt.Errorf("%w: either message or raw_image must be provided", ErrValidation)
	}
	if r.RawImage != "" {
		if _, err := base64.StdEncoding.DecodeString(r.RawImage); err != nil {
			return fmt.Errorf("%w: invalid base64 image data: %v", ErrValidation, err)
		}
	}
	return nil
}

// ChatResponse carries the assistant's shaped answer. Response is itself a
// JSON document following the tagged output contract.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
}

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeChatRequest  MessageType = "chat_request"
	TypeChatResponse MessageType = "chat_response"
	TypeErrorEvent   MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// WSChatRequest is the websocket envelope around a ChatRequest.
type WSChatRequest struct {
	Type MessageType `json:"type"`
	ChatRequest
}

// WSChatResponse is the websocket envelope around a ChatResponse.
type WSChatResponse struct {
	Type MessageType `json:"type"`
	ChatResponse
}

// ErrorEvent reports a failed websocket turn without closing the
// connection.
type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail"`
}

// ParseClientMessage decodes and validates one inbound websocket frame.
func ParseClientMessage(raw []byte) (WSChatRequest, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return WSChatRequest{}, fmt.Errorf("%w: invalid envelope: %v", ErrValidation, err)
	}
	if env.Type != TypeChatRequest {
		return WSChatRequest{}, fmt.Errorf("%w: %q", ErrUnsupportedType, env.Type)
	}

	var msg WSChatRequest
	if err := json.Unmarshal(raw, &msg); err != nil {
		return WSChatRequest{}, fmt.Errorf("%w: invalid chat_request: %v", ErrValidation, err)
	}
	if err := msg.Validate(); err != nil {
		return WSChatRequest{}, err
	}
	return msg, nil
}
