package protocol_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livechat/internal/app/protocol"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		in   protocol.Envelope
		want string
	}{
		{
			name: "register",
			in:   protocol.Envelope{Kind: protocol.KindRegister, Payload: protocol.Text("alice")},
			want: `{"messageType":"register","data":"alice"}`,
		},
		{
			name: "users",
			in:   protocol.Envelope{Kind: protocol.KindUsers, List: []string{"alice", "bob"}},
			want: `{"messageType":"users","dataArray":["alice","bob"]}`,
		},
		{
			name: "empty payload is kept",
			in:   protocol.Envelope{Kind: protocol.KindMessage, Payload: protocol.Text("")},
			want: `{"messageType":"message","data":""}`,
		},
		{
			name: "no optional fields",
			in:   protocol.Envelope{Kind: protocol.KindUsers},
			want: `{"messageType":"users"}`,
		},
		{
			name: "html is not escaped",
			in:   protocol.Envelope{Kind: protocol.KindMessage, Payload: protocol.Text("<b>&</b>")},
			want: `{"messageType":"message","data":"<b>&</b>"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := protocol.Encode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeUnknownKind(t *testing.T) {
	_, err := protocol.Encode(protocol.Envelope{Kind: "typing"})
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	envelopes := []protocol.Envelope{
		{Kind: protocol.KindRegister, Payload: protocol.Text("alice")},
		{Kind: protocol.KindRegister, Payload: protocol.Text("名前 with spaces")},
		{Kind: protocol.KindMessage, Payload: protocol.Text(`{"from":"alice","message":"hi"}`)},
		{Kind: protocol.KindMessage, Payload: protocol.Text("")},
	}

	for _, e := range envelopes {
		text, err := protocol.Encode(e)
		require.NoError(t, err)

		got, err := protocol.Decode(text)
		require.NoError(t, err)
		assert.Equal(t, e, got)
	}
}

func TestDecode(t *testing.T) {
	got, err := protocol.Decode(`{"messageType":"users","dataArray":["alice","bob"]}`)
	require.NoError(t, err)
	assert.Equal(t, protocol.KindUsers, got.Kind)
	assert.Equal(t, []string{"alice", "bob"}, got.List)
	assert.Nil(t, got.Payload)

	// Field presence is not checked per kind.
	got, err = protocol.Decode(`{"messageType":"message"}`)
	require.NoError(t, err)
	assert.Nil(t, got.Payload)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{"not json", `hello`, protocol.ErrMalformed},
		{"empty", ``, protocol.ErrMalformed},
		{"array", `["users"]`, protocol.ErrMalformed},
		{"null", `null`, protocol.ErrMalformed},
		{"missing kind", `{"dataArray":["a"]}`, protocol.ErrMalformed},
		{"wrong list type", `{"messageType":"users","dataArray":"a"}`, protocol.ErrMalformed},
		{"wrong payload type", `{"messageType":"message","data":42}`, protocol.ErrMalformed},
		{"unknown kind", `{"messageType":"typing","data":"alice"}`, protocol.ErrUnknownKind},
		{"kind is case sensitive", `{"messageType":"Users","dataArray":[]}`, protocol.ErrUnknownKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := protocol.Decode(tt.text)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var decodeErr *protocol.DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.NotNil(t, decodeErr.Unwrap())
		})
	}
}

func TestDecodeChatMessage(t *testing.T) {
	got, err := protocol.DecodeChatMessage(`{"from":"alice","message":"hi"}`)
	require.NoError(t, err)
	assert.Equal(t, protocol.ChatMessage{From: "alice", Message: "hi"}, got)

	got, err = protocol.DecodeChatMessage(`{"from":"alice","message":""}`)
	require.NoError(t, err)
	assert.Equal(t, "", got.Message)

	for _, text := range []string{`hi`, `{"from":"alice"}`, `{"message":"hi"}`, `{"from":1,"message":"hi"}`} {
		_, err := protocol.DecodeChatMessage(text)
		assert.ErrorIs(t, err, protocol.ErrNestedPayloadInvalid, text)
		assert.NotErrorIs(t, err, protocol.ErrMalformed, text)
	}
}

func TestChatMessageRoundTrip(t *testing.T) {
	in := protocol.ChatMessage{From: "bob", Message: `quote " and \ slash`}

	text, err := protocol.EncodeChatMessage(in)
	require.NoError(t, err)

	got, err := protocol.DecodeChatMessage(text)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestBuildActions(t *testing.T) {
	got, err := protocol.BuildRegister("alice")
	require.NoError(t, err)
	assert.Equal(t, `{"messageType":"register","data":"alice"}`, got)

	got, err = protocol.BuildMessage("hello there")
	require.NoError(t, err)
	assert.Equal(t, `{"messageType":"message","data":"hello there"}`, got)

	got, err = protocol.BuildMessage("")
	require.NoError(t, err)
	assert.Equal(t, `{"messageType":"message","data":""}`, got)
}
