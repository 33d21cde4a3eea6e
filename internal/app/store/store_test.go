package store_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livechat/internal/app/hub"
	"livechat/internal/app/protocol"
	"livechat/internal/app/store"
	"livechat/internal/app/user"
	"livechat/internal/pkg/errs"
	"livechat/internal/pkg/metrics"
)

const avatarBase = "https://avatars.dicebear.com/api/adventurer-neutral"

func messageFrame(t *testing.T, from, body string) string {
	t.Helper()
	payload, err := protocol.EncodeChatMessage(protocol.ChatMessage{From: from, Message: body})
	require.NoError(t, err)
	frame, err := protocol.Encode(protocol.Envelope{Kind: protocol.KindMessage, Payload: protocol.Text(payload)})
	require.NoError(t, err)
	return frame
}

func TestUsersFrameBuildsRoster(t *testing.T) {
	s := store.New()

	changed := s.HandleFrame(`{"messageType":"users","dataArray":["alice","bob"]}`)

	assert.True(t, changed)
	assert.Equal(t, []user.Profile{
		{Name: "alice", Avatar: avatarBase + "/alice.svg"},
		{Name: "bob", Avatar: avatarBase + "/bob.svg"},
	}, s.Roster())
}

func TestRosterReplacementIsTotal(t *testing.T) {
	s := store.New()

	s.Apply(protocol.Envelope{Kind: protocol.KindUsers, List: []string{"a", "b"}})
	s.Apply(protocol.Envelope{Kind: protocol.KindUsers, List: []string{"c"}})

	assert.Equal(t, []user.Profile{user.NewProfile(avatarBase, "c")}, s.Roster())
}

func TestUsersFrameAlwaysChanges(t *testing.T) {
	s := store.New()
	env := protocol.Envelope{Kind: protocol.KindUsers, List: []string{"alice"}}

	assert.True(t, s.Apply(env))
	assert.True(t, s.Apply(env))
}

func TestUsersFrameKeepsDuplicates(t *testing.T) {
	s := store.New()

	s.Apply(protocol.Envelope{Kind: protocol.KindUsers, List: []string{"alice", "alice"}})

	assert.Len(t, s.Roster(), 2)
}

func TestUsersFrameWithoutListClearsRoster(t *testing.T) {
	s := store.New()
	s.Apply(protocol.Envelope{Kind: protocol.KindUsers, List: []string{"alice"}})

	changed := s.HandleFrame(`{"messageType":"users"}`)

	assert.True(t, changed)
	assert.Empty(t, s.Roster())
}

func TestMessageFrameAppends(t *testing.T) {
	s := store.New()

	changed := s.HandleFrame(`{"messageType":"message","data":"{\"from\":\"alice\",\"message\":\"hi\"}"}`)

	require.True(t, changed)
	transcript := s.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, protocol.ChatMessage{From: "alice", Message: "hi"}, transcript[0].ChatMessage)
	assert.NotEmpty(t, transcript[0].ID)
}

func TestTranscriptIsAppendOnly(t *testing.T) {
	s := store.New()

	bodies := []string{"one", "two", "three", "four"}
	for i, body := range bodies {
		s.HandleFrame(messageFrame(t, "alice", body))
		if i%2 == 0 {
			s.HandleFrame(`{"messageType":"users","dataArray":["bob"]}`)
		}
	}

	transcript := s.Transcript()
	require.Len(t, transcript, len(bodies))
	for i, body := range bodies {
		assert.Equal(t, body, transcript[i].Message)
	}
}

func TestEntrySnapshotsSender(t *testing.T) {
	s := store.New()

	s.HandleFrame(`{"messageType":"users","dataArray":["alice"]}`)
	s.HandleFrame(messageFrame(t, "alice", "hello"))
	s.HandleFrame(messageFrame(t, "ghost", "boo"))
	s.HandleFrame(`{"messageType":"users","dataArray":[]}`)

	transcript := s.Transcript()
	require.Len(t, transcript, 2)

	assert.Equal(t, user.NewProfile(avatarBase, "alice"), transcript[0].Sender)
	assert.True(t, transcript[0].SenderOnline)

	assert.Equal(t, user.NewProfile(avatarBase, "ghost"), transcript[1].Sender)
	assert.False(t, transcript[1].SenderOnline)
}

func TestDiscardedFramesLeaveStoreUntouched(t *testing.T) {
	frames := map[string]string{
		"malformed":          `not json`,
		"unknown kind":       `{"messageType":"typing","data":"alice"}`,
		"nested invalid":     `{"messageType":"message","data":"not json"}`,
		"nested missing key": `{"messageType":"message","data":"{\"from\":\"alice\"}"}`,
		"message no data":    `{"messageType":"message"}`,
		"inbound register":   `{"messageType":"register","data":"alice"}`,
	}

	for name, frame := range frames {
		t.Run(name, func(t *testing.T) {
			s := store.New()
			s.HandleFrame(`{"messageType":"users","dataArray":["alice"]}`)
			s.HandleFrame(messageFrame(t, "alice", "hi"))
			before := s.Snapshot()

			notified := false
			s.OnChange(func() { notified = true })

			assert.False(t, s.HandleFrame(frame))
			assert.False(t, notified)
			assert.Equal(t, before, s.Snapshot())
		})
	}
}

func TestOnChangeFiresAfterChange(t *testing.T) {
	s := store.New()

	var rosterLens []int
	s.OnChange(func() { rosterLens = append(rosterLens, len(s.Roster())) })

	s.HandleFrame(`{"messageType":"users","dataArray":["a","b"]}`)
	s.HandleFrame(`{"messageType":"users","dataArray":["c"]}`)

	assert.Equal(t, []int{2, 1}, rosterLens)
}

func TestLookup(t *testing.T) {
	s := store.New()
	s.HandleFrame(`{"messageType":"users","dataArray":["alice"]}`)

	p, err := s.Lookup("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Name)

	_, err = s.Lookup("carol")
	require.Error(t, err)
	assert.True(t, errs.HasCode(err, errs.ErrLookupMiss))
}

func TestAccessorsReturnCopies(t *testing.T) {
	s := store.New()
	s.HandleFrame(`{"messageType":"users","dataArray":["alice"]}`)

	roster := s.Roster()
	roster[0].Name = "mallory"

	assert.Equal(t, "alice", s.Roster()[0].Name)
}

func TestAvatarBaseOption(t *testing.T) {
	s := store.New(store.WithAvatarBase("http://localhost/av"))
	s.HandleFrame(`{"messageType":"users","dataArray":["alice"]}`)

	assert.Equal(t, "http://localhost/av/alice.svg", s.Roster()[0].Avatar)
}

func TestAttachToHub(t *testing.T) {
	h := hub.New()
	s := store.New()

	sub := s.Attach(h)
	h.Publish(`{"messageType":"users","dataArray":["alice","bob"]}`)
	sub.Release()
	h.Publish(`{"messageType":"users","dataArray":["carol"]}`)

	assert.Len(t, s.Roster(), 2)
}

func TestMetricsCountFrames(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := store.New(store.WithMetrics(metrics.New(reg)))

	s.HandleFrame(`{"messageType":"users","dataArray":["alice"]}`)
	s.HandleFrame(`garbage`)

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			values[f.GetName()] += m.GetCounter().GetValue()
		}
	}

	assert.Equal(t, float64(2), values["livechat_frames_received_total"])
	assert.Equal(t, float64(1), values["livechat_frames_applied_total"])
	assert.Equal(t, float64(1), values["livechat_frames_discarded_total"])
}

func TestResetClearsState(t *testing.T) {
	s := store.New()
	s.HandleFrame(`{"messageType":"users","dataArray":["alice"]}`)
	s.HandleFrame(messageFrame(t, "alice", "hi"))

	notified := 0
	s.OnChange(func() { notified++ })

	s.Reset()

	assert.Empty(t, s.Roster())
	assert.Empty(t, s.Transcript())
	assert.Equal(t, 1, notified)
}
