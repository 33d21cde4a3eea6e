package protocol

// BuildRegister encodes the frame announcing username to the server.
func BuildRegister(username string) (string, error) {
	return Encode(Envelope{Kind: KindRegister, Payload: Text(username)})
}

// BuildMessage encodes the frame sending body to the chat. The body is passed through unchanged,
// including the empty string.
func BuildMessage(body string) (string, error) {
	return Encode(Envelope{Kind: KindMessage, Payload: Text(body)})
}
