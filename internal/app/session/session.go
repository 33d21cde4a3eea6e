/*
Package session models the user's path through the client: the entry screen that picks a username
and the chat screen that follows.

This file defines the Session struct, which owns the shared Identity and performs the transition
from entry to chat. The chat is created only through Login, so the identity is always written
before the chat reads it.
*/
package session

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"livechat/internal/app/hub"
	"livechat/internal/app/store"
	"livechat/internal/pkg/errs"
	"livechat/internal/pkg/logx"
	"livechat/internal/pkg/metrics"
)

// Session coordinates identity, inbound frames and the active chat.
type Session struct {
	// identity is written by Login and read by the chat it creates.
	identity *Identity

	hub     *hub.Hub
	store   *store.Store
	sender  Sender
	limiter *rate.Limiter
	metrics *metrics.Metrics

	// mu protects chat and loginHooks.
	mu         sync.Mutex
	chat       *Chat
	loginHooks []func(*Chat)

	logger zerolog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLimiter throttles Submit.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *Session) { s.limiter = l }
}

// WithMetrics records outbound sends on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// New constructs a Session with no active chat.
func New(id *Identity, h *hub.Hub, st *store.Store, sender Sender, opts ...Option) *Session {
	s := &Session{
		identity: id,
		hub:      h,
		store:    st,
		sender:   sender,
		logger:   logx.Component("Session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Identity returns the shared identity cell.
func (s *Session) Identity() *Identity {
	return s.identity
}

// Store returns the state store the chat feeds.
func (s *Session) Store() *store.Store {
	return s.store
}

// OnLogin registers fn to run after every successful Login, with the new chat. Hooks run on the
// caller's goroutine, outside the session lock.
func (s *Session) OnLogin(fn func(*Chat)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginHooks = append(s.loginHooks, fn)
}

// Login sets the username and opens the chat. An existing chat is closed first and the store is
// emptied, so the new chat starts without the previous roster or transcript.
func (s *Session) Login(name string) (*Chat, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.NewError(errs.ErrInvalidUsername)
	}

	s.mu.Lock()

	if s.chat != nil {
		s.logger.Info().Str("previous", s.chat.Username).Str("username", name).Msg("Replacing active chat.")
		s.chat.Close()
		s.chat = nil
	}

	s.store.Reset()
	s.identity.Set(name)
	chat := NewChat(s.identity, s.hub, s.store, s.sender, s.limiter, s.metrics)
	s.chat = chat

	hooks := make([]func(*Chat), len(s.loginHooks))
	copy(hooks, s.loginHooks)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(chat)
	}

	return chat, nil
}

// Chat returns the active chat, or nil before Login.
func (s *Session) Chat() *Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat
}

// Submit sends body through the active chat.
func (s *Session) Submit(body string) error {
	c := s.Chat()
	if c == nil {
		return errs.NewError(errs.ErrNoActiveChat)
	}
	return c.Submit(body)
}

// Close closes the active chat, if any.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chat != nil {
		s.chat.Close()
		s.chat = nil
	}

	s.logger.Info().Msg("Session closed.")
}
