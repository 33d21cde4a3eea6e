package protocol

import "fmt"

// Reason classifies a DecodeError.
type Reason string

const (
	// ReasonMalformed means the text is not a well-formed envelope.
	ReasonMalformed Reason = "malformed"

	// ReasonUnknownKind means the envelope has an unrecognized messageType.
	ReasonUnknownKind Reason = "unknown_kind"

	// ReasonNestedPayloadInvalid means the ChatMessage inside a message envelope failed to decode.
	ReasonNestedPayloadInvalid Reason = "nested_payload_invalid"
)

// Sentinels for errors.Is. They compare by Reason only.
var (
	ErrMalformed            = &DecodeError{Reason: ReasonMalformed}
	ErrUnknownKind          = &DecodeError{Reason: ReasonUnknownKind}
	ErrNestedPayloadInvalid = &DecodeError{Reason: ReasonNestedPayloadInvalid}
)

// DecodeError is returned by Decode and DecodeChatMessage.
type DecodeError struct {
	Reason Reason
	Err    error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode %s", e.Reason)
}

// Unwrap returns the underlying JSON error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is matches any DecodeError with the same Reason.
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	if !ok {
		return false
	}
	return t.Reason == e.Reason
}
