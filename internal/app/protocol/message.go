package protocol

import (
	"encoding/json"
	"errors"
)

// ChatMessage is the nested payload of a message envelope.
type ChatMessage struct {
	// From is the sender's display name.
	From string `json:"from"`

	// Message is the body, unvalidated.
	Message string `json:"message"`
}

// DecodeChatMessage runs the second decode pass on a message envelope's payload.
// Both fields must be present.
func DecodeChatMessage(text string) (ChatMessage, error) {
	var w struct {
		From    *string `json:"from"`
		Message *string `json:"message"`
	}

	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return ChatMessage{}, &DecodeError{Reason: ReasonNestedPayloadInvalid, Err: err}
	}

	if w.From == nil || w.Message == nil {
		return ChatMessage{}, &DecodeError{Reason: ReasonNestedPayloadInvalid, Err: errors.New("from and message are required")}
	}

	return ChatMessage{From: *w.From, Message: *w.Message}, nil
}

// EncodeChatMessage renders m as the payload of a message envelope.
func EncodeChatMessage(m ChatMessage) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
