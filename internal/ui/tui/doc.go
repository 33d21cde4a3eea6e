// Package tui is the terminal renderer of the chat client: a login page that picks the username and
// a chat page with the roster, the transcript and a message input.
package tui
