/*
Package errs provides custom error types and application-level error code constants.

This file maps every code to its CustomError template.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Chat State and Delivery Errors
	ErrLookupMiss:    {Code: ErrLookupMiss, Message: "User %q is not in the roster.", Status: http.StatusNotFound},
	ErrNoActiveChat:  {Code: ErrNoActiveChat, Message: "Log in before chatting.", Status: http.StatusConflict},
	ErrSendFailed:    {Code: ErrSendFailed, Message: "Message could not be sent. Please try again.", Status: http.StatusServiceUnavailable},
	ErrConnectFailed: {Code: ErrConnectFailed, Message: "Could not connect to the chat server.", Status: http.StatusBadGateway},

	// 3xxx: Session Errors
	ErrInvalidUsername: {Code: ErrInvalidUsername, Message: "Invalid username.", Status: http.StatusBadRequest},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
