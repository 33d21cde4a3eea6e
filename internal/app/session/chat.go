package session

import (
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"livechat/internal/app/hub"
	"livechat/internal/app/protocol"
	"livechat/internal/app/store"
	"livechat/internal/pkg/errs"
	"livechat/internal/pkg/logx"
	"livechat/internal/pkg/metrics"
)

// Sender is the outbound side of the transport.
type Sender interface {
	// SendFrame queues text for delivery without blocking.
	SendFrame(text string) error
}

// Chat is the active chat screen: it is subscribed to inbound frames and sends the user's messages.
type Chat struct {
	// Username is the identity the chat registered with.
	Username string

	sender  Sender
	sub     *hub.Subscription
	limiter *rate.Limiter
	metrics *metrics.Metrics
	logger  zerolog.Logger

	mu     sync.Mutex
	closed bool
}

// NewChat reads the username from id, attaches st to h and registers the username with the server.
// A failed register is logged; the chat still opens.
func NewChat(id *Identity, h *hub.Hub, st *store.Store, sender Sender, limiter *rate.Limiter, m *metrics.Metrics) *Chat {
	username := id.Get()

	c := &Chat{
		Username: username,
		sender:   sender,
		limiter:  limiter,
		metrics:  m,
		logger:   logx.Logger().With().Str("component", "Chat").Str("username", username).Logger(),
	}
	if c.limiter == nil {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
	}

	c.sub = st.Attach(h)

	frame, err := protocol.BuildRegister(username)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to build register frame.")
		return c
	}

	if err := sender.SendFrame(frame); err != nil {
		c.metrics.Send(metrics.ResultFailed)
		c.logger.Warn().Err(err).Msg("Register frame was not sent.")
		return c
	}

	c.metrics.Send(metrics.ResultOK)
	c.logger.Info().Str("subscription_id", c.sub.ID).Msg("Chat opened and registered.")

	return c
}

// Submit sends body as a chat message. On failure the caller should keep the input so the user
// can retry; nothing is retried here.
func (c *Chat) Submit(body string) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return errs.NewError(errs.ErrNoActiveChat)
	}

	if !c.limiter.Allow() {
		c.metrics.Send(metrics.ResultRateLimited)
		return errs.NewError(errs.ErrRateLimitExceeded)
	}

	frame, err := protocol.BuildMessage(body)
	if err != nil {
		return errs.Wrap(errs.ErrUnknown, err)
	}

	if err := c.sender.SendFrame(frame); err != nil {
		c.metrics.Send(metrics.ResultFailed)
		c.logger.Warn().Err(err).Int("body_len", len(body)).Msg("Message was not sent.")

		if errs.HasCode(err, errs.ErrSendFailed) {
			return err
		}
		return errs.Wrap(errs.ErrSendFailed, err)
	}

	c.metrics.Send(metrics.ResultOK)
	return nil
}

// Close releases the hub subscription. Safe to call more than once.
func (c *Chat) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.sub.Release()

	c.logger.Info().Msg("Chat closed.")
}
