/*
Package errs provides custom error types and application-level error code constants.

The codes identify failures of the chat client both in logs and in responses of the local
control API.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request or send rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Chat State and Delivery Errors
const (
	// ErrLookupMiss indicates that a sender name has no entry in the current roster.
	ErrLookupMiss = 2101

	// ErrNoActiveChat indicates that an action needs a chat session but nobody has logged in yet.
	ErrNoActiveChat = 2102

	// ErrSendFailed indicates that the transport refused an outbound frame.
	ErrSendFailed = 2201

	// ErrConnectFailed indicates that the chat server could not be reached.
	ErrConnectFailed = 2202
)

// 3xxx: Session Errors
const (
	// ErrInvalidUsername indicates that the chosen username is empty.
	ErrInvalidUsername = 3001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal error.
	ErrUnknown = 5000
)
