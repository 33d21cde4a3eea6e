/*
Package store owns the client-side view of the chat: the roster of connected users and the
transcript of messages.

Apply is the only way to change either. A roster envelope replaces the roster wholesale; a message
envelope appends to the transcript. Frames that fail to decode are logged and dropped without
touching state. Each transcript entry keeps a snapshot of its sender's profile taken when it was
appended, so renderers never depend on the sender still being in the roster.
*/
package store

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"livechat/internal/app/hub"
	"livechat/internal/app/protocol"
	"livechat/internal/app/user"
	"livechat/internal/pkg/errs"
	"livechat/internal/pkg/logx"
	"livechat/internal/pkg/metrics"
	"livechat/internal/pkg/randx"
)

// Entry is one transcript line.
type Entry struct {
	// ID is a client-side key for renderers.
	ID string `json:"id"`

	protocol.ChatMessage

	// Sender is the sender's profile at the time the message arrived.
	Sender user.Profile `json:"sender"`

	// SenderOnline reports whether the sender was in the roster when the message arrived.
	SenderOnline bool `json:"senderOnline"`
}

// Snapshot is a consistent copy of the whole store.
type Snapshot struct {
	Roster     []user.Profile `json:"roster"`
	Transcript []Entry        `json:"transcript"`
}

// Store holds the roster and the transcript.
type Store struct {
	// mu serializes Apply and guards roster and transcript.
	mu sync.RWMutex

	roster     []user.Profile
	transcript []Entry

	// listenersMu guards listeners.
	listenersMu sync.Mutex
	listeners   []func()

	avatarBase string
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithAvatarBase sets the prefix avatars are derived from.
func WithAvatarBase(base string) Option {
	return func(s *Store) { s.avatarBase = base }
}

// WithMetrics records frame counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithLogger replaces the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		roster:     []user.Profile{},
		transcript: []Entry{},
		avatarBase: user.DefaultAvatarBase,
		logger:     logx.Component("Store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers fn to run after every change. Listeners run outside the store lock, in
// registration order, on the goroutine that applied the change.
func (s *Store) OnChange(fn func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Attach subscribes the store to raw frames published on h.
func (s *Store) Attach(h *hub.Hub) *hub.Subscription {
	return h.Subscribe(func(text string) {
		s.HandleFrame(text)
	})
}

// HandleFrame decodes a raw frame and applies it. A frame that does not decode is logged and
// dropped. It reports whether the store changed.
func (s *Store) HandleFrame(text string) bool {
	s.metrics.FrameReceived()

	env, err := protocol.Decode(text)
	if err != nil {
		reason := metrics.ReasonMalformed
		if errors.Is(err, protocol.ErrUnknownKind) {
			reason = metrics.ReasonUnknownKind
		}
		s.metrics.FrameDiscarded(reason)
		s.logger.Warn().Err(err).Str("frame", text).Msg("Discarding undecodable frame.")
		return false
	}

	return s.Apply(env)
}

// Apply folds env into the store and reports whether anything changed.
func (s *Store) Apply(env protocol.Envelope) bool {
	s.mu.Lock()
	changed := s.applyLocked(env)
	s.mu.Unlock()

	if changed {
		s.metrics.FrameApplied(string(env.Kind))
		s.notify()
	}
	return changed
}

func (s *Store) applyLocked(env protocol.Envelope) bool {
	switch env.Kind {
	case protocol.KindUsers:
		roster := make([]user.Profile, 0, len(env.List))
		for _, name := range env.List {
			roster = append(roster, user.NewProfile(s.avatarBase, name))
		}
		s.roster = roster
		return true

	case protocol.KindMessage:
		if env.Payload == nil {
			s.metrics.FrameDiscarded(metrics.ReasonMissingField)
			s.logger.Warn().Msg("Discarding message frame without data.")
			return false
		}

		msg, err := protocol.DecodeChatMessage(*env.Payload)
		if err != nil {
			s.metrics.FrameDiscarded(metrics.ReasonNestedInvalid)
			s.logger.Warn().Err(err).Str("data", *env.Payload).Msg("Discarding message frame with invalid payload.")
			return false
		}

		sender, online := s.lookupLocked(msg.From)
		s.transcript = append(s.transcript, Entry{
			ID:           randx.EntryID(),
			ChatMessage:  msg,
			Sender:       sender,
			SenderOnline: online,
		})
		return true

	case protocol.KindRegister:
		s.logger.Debug().Msg("Ignoring inbound register frame.")
		return false

	default:
		return false
	}
}

// Reset empties the roster and the transcript for a new chat and notifies listeners.
func (s *Store) Reset() {
	s.mu.Lock()
	s.roster = []user.Profile{}
	s.transcript = []Entry{}
	s.mu.Unlock()

	s.logger.Debug().Msg("Store reset.")
	s.notify()
}

// lookupLocked resolves name against the roster, falling back to a derived profile.
func (s *Store) lookupLocked(name string) (user.Profile, bool) {
	for _, p := range s.roster {
		if p.Name == name {
			return p, true
		}
	}
	return user.NewProfile(s.avatarBase, name), false
}

func (s *Store) notify() {
	s.listenersMu.Lock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Roster returns a copy of the current roster.
func (s *Store) Roster() []user.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]user.Profile(nil), s.roster...)
}

// Transcript returns a copy of the transcript.
func (s *Store) Transcript() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.transcript...)
}

// Snapshot returns the roster and transcript as of the same instant.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Roster:     append([]user.Profile{}, s.roster...),
		Transcript: append([]Entry{}, s.transcript...),
	}
}

// Lookup finds name in the current roster. A miss returns an ErrLookupMiss error.
func (s *Store) Lookup(name string) (user.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.lookupLocked(name)
	if !ok {
		return user.Profile{}, errs.NewError(errs.ErrLookupMiss, name)
	}
	return p, nil
}
