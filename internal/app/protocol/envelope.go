/*
Package protocol defines the wire format exchanged with the chat server.

Every frame is one JSON object, the Envelope, carrying a kind tag and at most one of two optional
fields: an ordered list of strings (the roster) or a string payload (a username, or a nested
ChatMessage encoded as its own JSON document). This file holds the Envelope and its codec.
*/
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind is the tag of an Envelope. Its values are the lowercase tokens used on the wire.
type Kind string

const (
	// KindUsers carries the full roster in List.
	KindUsers Kind = "users"

	// KindRegister carries the username in Payload. Outbound only.
	KindRegister Kind = "register"

	// KindMessage carries an encoded ChatMessage in Payload.
	KindMessage Kind = "message"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindUsers, KindRegister, KindMessage:
		return true
	default:
		return false
	}
}

// Envelope is the unit exchanged over the transport.
// A nil List or Payload means the field is absent on the wire. An empty payload is present.
type Envelope struct {
	Kind    Kind
	List    []string
	Payload *string
}

// wireEnvelope is the JSON shape of an Envelope. Field order is the serialization order.
type wireEnvelope struct {
	MessageType *Kind     `json:"messageType"`
	DataArray   *[]string `json:"dataArray,omitempty"`
	Data        *string   `json:"data,omitempty"`
}

// Text returns a pointer to s, for building payloads inline.
func Text(s string) *string {
	return &s
}

// Encode serializes e into its canonical text form.
func Encode(e Envelope) (string, error) {
	if !e.Kind.Valid() {
		return "", fmt.Errorf("encode envelope: unknown kind %q", e.Kind)
	}

	kind := e.Kind
	w := wireEnvelope{MessageType: &kind, Data: e.Payload}
	if e.List != nil {
		w.DataArray = &e.List
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(w); err != nil {
		return "", fmt.Errorf("encode envelope: %w", err)
	}

	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// Decode parses a frame into an Envelope. It checks the shape and the kind tag only; whether the
// fields a kind needs are present is left to the consumer.
func Decode(text string) (Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return Envelope{}, &DecodeError{Reason: ReasonMalformed, Err: err}
	}

	if w.MessageType == nil {
		return Envelope{}, &DecodeError{Reason: ReasonMalformed, Err: errors.New("missing messageType")}
	}

	if !w.MessageType.Valid() {
		return Envelope{}, &DecodeError{Reason: ReasonUnknownKind, Err: fmt.Errorf("messageType %q", *w.MessageType)}
	}

	e := Envelope{Kind: *w.MessageType, Payload: w.Data}
	if w.DataArray != nil {
		e.List = *w.DataArray
	}

	return e, nil
}
