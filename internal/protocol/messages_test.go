package protocol

import (
	"encoding/base64"
	"errors"
	"testing"
)

func TestChatRequestValidate(t *testing.T) {
	validImage := base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8})

	cases := []struct {
		name    string
		req     ChatRequest
		wantErr bool
	}{
		{"text only", ChatRequest{Message: "hello"}, false},
		{"image only", ChatRequest{RawImage: validImage}, false},
		{"both", ChatRequest{Message: "hi", RawImage: validImage}, false},
		{"neither", ChatRequest{}, true},
		{"whitespace message", ChatRequest{Message: "   "}, true},
		{"bad base64", ChatRequest{RawImage: "!!not-base64!!"}, true},
	}
	for _, tc := range cases {
		err := tc.req.Validate()
		if tc.wantErr {
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("%s: Validate() error = %v, want ErrValidation", tc.name, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: Validate() error = %v", tc.name, err)
		}
	}
}

func TestParseClientMessage(t *testing.T) {
	msg, err := ParseClientMessage([]byte(`{"type":"chat_request","message":"find a sofa","session_id":"s1"}`))
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	if msg.Message != "find a sofa" || msg.SessionID != "s1" {
		t.Fatalf("parsed = %+v", msg)
	}
}

func TestParseClientMessageRejectsUnknownType(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":"audio_chunk"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("ParseClientMessage() error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseClientMessageRejectsInvalidPayload(t *testing.T) {
	cases := []string{
		`not json`,
		`{"type":"chat_request"}`,
		`{"type":"chat_request","raw_image":"%%%"}`,
	}
	for _, raw := range cases {
		if _, err := ParseClientMessage([]byte(raw)); !errors.Is(err, ErrValidation) {
			t.Fatalf("ParseClientMessage(%q) error = %v, want ErrValidation", raw, err)
		}
	}
}
