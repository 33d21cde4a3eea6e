/*
Package transport owns the WebSocket connection to the chat server.

It exposes the two capabilities the rest of the client needs: every inbound text frame is
forwarded verbatim to a Publisher, and SendFrame queues an outbound frame without blocking.
ReadPump and WritePump run on their own goroutines, one reader and one writer per connection.
*/
package transport

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"livechat/internal/pkg/errs"
	"livechat/internal/pkg/logx"
)

// Publisher receives inbound frames.
type Publisher interface {
	Publish(text string)
}

// Options tunes the connection.
type Options struct {
	// HandshakeTimeout bounds the opening handshake.
	HandshakeTimeout time.Duration

	// WriteWait is the time allowed to write one frame.
	WriteWait time.Duration

	// PongWait is the time allowed between pongs from the server. Pings go out at 9/10 of it.
	PongWait time.Duration

	// MaxMessageSize is the largest inbound frame accepted, in bytes.
	MaxMessageSize int64

	// SendBuffer is the capacity of the outbound queue.
	SendBuffer int

	// Header is sent with the handshake request.
	Header http.Header
}

// DefaultOptions returns the settings used when no option overrides them.
func DefaultOptions() Options {
	return Options{
		HandshakeTimeout: 10 * time.Second,
		WriteWait:        10 * time.Second,
		PongWait:         60 * time.Second,
		MaxMessageSize:   64 << 10,
		SendBuffer:       256,
	}
}

// Option modifies Options.
type Option func(*Options)

// WithOptions replaces every setting at once.
func WithOptions(o Options) Option {
	return func(dst *Options) { *dst = o }
}

// WithSendBuffer sets the outbound queue capacity.
func WithSendBuffer(n int) Option {
	return func(o *Options) { o.SendBuffer = n }
}

// Conn is an open connection to the chat server.
type Conn struct {
	// underlying WebSocket connection.
	conn *websocket.Conn

	// receives every inbound text frame.
	publisher Publisher

	// queued outbound frames.
	send chan []byte

	// closed when the connection shuts down.
	done chan struct{}

	closeOnce sync.Once

	opts Options

	logger zerolog.Logger
}

// Dial opens a connection to url. Frames start flowing once ReadPump and WritePump are running.
func Dial(ctx context.Context, url string, pub Publisher, opts ...Option) (*Conn, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: o.HandshakeTimeout,
	}

	wsConn, resp, err := dialer.DialContext(ctx, url, o.Header)
	if err != nil {
		if resp != nil {
			logx.Warn("WebSocket handshake rejected", "url", url, "status", resp.StatusCode)
		}
		return nil, errs.Wrap(errs.ErrConnectFailed, err)
	}

	return newConn(wsConn, pub, o), nil
}

func newConn(wsConn *websocket.Conn, pub Publisher, o Options) *Conn {
	if o.SendBuffer < 1 {
		o.SendBuffer = 1
	}

	c := &Conn{
		conn:      wsConn,
		publisher: pub,
		send:      make(chan []byte, o.SendBuffer),
		done:      make(chan struct{}),
		opts:      o,
		logger: logx.Logger().With().
			Str("component", "Transport").
			Str("remote_addr", wsConn.RemoteAddr().String()).
			Logger(),
	}

	c.logger.Info().Msg("Connected to chat server.")
	return c
}

// ReadPump reads frames until the connection fails or is closed, forwarding text frames to the
// publisher. It closes the connection on return.
func (c *Conn) ReadPump() {
	defer c.Close()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("Connection closed unexpectedly")
			} else {
				c.logger.Info().Err(err).Msg("Read loop finished")
			}
			return
		}

		if messageType != websocket.TextMessage {
			c.logger.Debug().Int("message_type", messageType).Msg("Ignoring non-text frame")
			continue
		}

		c.publisher.Publish(string(data))
	}
}

// WritePump writes queued frames and periodic pings until the connection closes.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(c.opts.PongWait * 9 / 10)

	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return

		case frame := <-c.send:
			if !c.write(websocket.TextMessage, frame) {
				return
			}

		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

// write sends one frame. It returns false if the pump should stop.
func (c *Conn) write(messageType int, data []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(messageType, data); err != nil {
		c.logger.Error().Err(err).Int("message_type", messageType).Msg("Error writing frame")
		return false
	}

	return true
}

// SendFrame queues text for the write pump. It never blocks: a full queue or a closed connection
// returns an ErrSendFailed error.
func (c *Conn) SendFrame(text string) error {
	select {
	case <-c.done:
		return errs.Wrap(errs.ErrSendFailed, errors.New("connection closed"))
	default:
	}

	select {
	case c.send <- []byte(text):
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Send queue full, dropping frame")
		return errs.Wrap(errs.ErrSendFailed, errors.New("send queue full"))
	}
}

// Done is closed once the connection has shut down.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close sends a normal close frame and closes the connection. Safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.opts.WriteWait)); err != nil {
			c.logger.Debug().Err(err).Msg("Close frame not sent")
		}

		if err := c.conn.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Connection close error")
		}

		c.logger.Info().Msg("Disconnected from chat server.")
	})
}
