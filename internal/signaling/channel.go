// Package signaling carries playback commands and session negotiation to the
// media server over a WebSocket.
package signaling

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	xlog "github.com/junsooki/remoteplay/internal/log"
	"github.com/junsooki/remoteplay/internal/protocol"
)

const (
	defaultPingInterval     = 25 * time.Second
	defaultWriteTimeout     = 10 * time.Second
	defaultHandshakeTimeout = 10 * time.Second
	defaultQueueSize        = 64
	defaultCloseTimeout     = time.Second
)

// Options configures a Channel.
type Options struct {
	URL string
	// Generation is stamped on every Event this channel emits.
	Generation uint64
	// SessionID is a log correlation id.
	SessionID string
	// Events receives Established, Message and Closed events in order.
	Events chan<- Event

	// InsecureSkipVerify disables server certificate verification.
	InsecureSkipVerify bool
	PingInterval       time.Duration
	WriteTimeout       time.Duration
	HandshakeTimeout   time.Duration
	// CloseTimeout bounds the wait for the server's answer to our close frame.
	CloseTimeout time.Duration
	QueueSize    int

	Logger zerolog.Logger
}

// Channel is one WebSocket connection to the media server. It is not
// reusable: after Disconnect a new Channel must be created.
type Channel struct {
	opts   Options
	log    zerolog.Logger
	dialer *websocket.Dialer

	outbox  chan []byte
	closing chan struct{}
	// dead is closed once the connection is gone and nothing drains outbox.
	dead     chan struct{}
	deadOnce sync.Once

	mu        sync.Mutex
	cancel    context.CancelFunc
	started   bool
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a channel. Nothing is dialed until Connect.
func New(opts Options) *Channel {
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = defaultHandshakeTimeout
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.CloseTimeout <= 0 {
		opts.CloseTimeout = defaultCloseTimeout
	}

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: opts.HandshakeTimeout,
	}
	if opts.InsecureSkipVerify {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via config
	}

	return &Channel{
		opts: opts,
		log: opts.Logger.With().
			Uint64(xlog.FieldGeneration, opts.Generation).
			Str(xlog.FieldSessionID, opts.SessionID).
			Logger(),
		dialer:  dialer,
		outbox:  make(chan []byte, opts.QueueSize),
		closing: make(chan struct{}),
		dead:    make(chan struct{}),
	}
}

// Connect dials the server on a background goroutine and returns
// immediately. Only the first call has an effect.
func (c *Channel) Connect(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true
	select {
	case <-c.closing:
		return
	default:
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.run(ctx)
}

// Send encodes cmd and queues it for delivery without blocking. Commands
// queued before the connection is up are flushed once it is.
func (c *Channel) Send(cmd protocol.Command) {
	select {
	case <-c.closing:
		c.log.Debug().Str("command", cmd.CommandID()).Msg("channel closed, command dropped")
		return
	case <-c.dead:
		c.log.Debug().Str("command", cmd.CommandID()).Msg("connection lost, command dropped")
		return
	default:
	}

	data, err := protocol.Encode(cmd)
	if err != nil {
		c.log.Error().Err(err).Msg("encode command")
		return
	}

	select {
	case c.outbox <- data:
		c.log.Trace().Bytes("frame", data).Msg("queued")
	default:
		c.log.Warn().Str("command", cmd.CommandID()).Msg("send queue full, command dropped")
	}
}

// Disconnect flushes queued commands, closes the connection and waits for
// every channel goroutine to exit. It is idempotent and safe to call on a
// channel that never connected.
func (c *Channel) Disconnect() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		close(c.closing)
		cancel := c.cancel
		c.mu.Unlock()
		if cancel != nil {
			defer cancel()
		}
	})
	c.wg.Wait()
}

func (c *Channel) run(ctx context.Context) {
	defer c.wg.Done()

	if c.opts.InsecureSkipVerify {
		c.log.Warn().Msg("TLS certificate verification disabled")
	}
	c.log.Info().Str("url", c.opts.URL).Msg("connecting")

	conn, _, err := c.dialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		select {
		case <-c.closing:
		default:
			c.log.Error().Err(err).Msg("signaling dial failed")
		}
		c.markDead()
		c.emit(Event{Kind: Closed, Err: fmt.Errorf("signaling dial: %w", err)})
		return
	}

	select {
	case <-c.closing:
		conn.Close()
		return
	default:
	}

	c.log.Info().Msg("connection established")
	c.emit(Event{Kind: Established})

	readDone := make(chan struct{})
	c.wg.Add(1)
	go c.writeLoop(ctx, conn, readDone)

	c.readLoop(conn)
	close(readDone)
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closing:
			default:
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.log.Info().Msg("server closed connection")
				} else {
					c.log.Warn().Err(err).Msg("signaling read error")
				}
			}
			c.markDead()
			c.emit(Event{Kind: Closed, Err: err})
			return
		}
		if typ != websocket.TextMessage {
			c.log.Debug().Int("type", typ).Msg("non-text frame skipped")
			continue
		}

		c.log.Trace().Bytes("frame", data).Msg("received")
		msg, err := protocol.Decode(data)
		if err != nil {
			reason := "frame dropped"
			if errors.Is(err, protocol.ErrIgnored) {
				reason = "frame ignored"
			}
			c.log.Debug().Err(err).Msg(reason)
			continue
		}
		c.emit(Event{Kind: Message, Message: msg})
	}
}

func (c *Channel) writeLoop(ctx context.Context, conn *websocket.Conn, readDone <-chan struct{}) {
	defer c.wg.Done()
	defer conn.Close()

	ping := time.NewTicker(c.opts.PingInterval)
	defer ping.Stop()

	for {
		select {
		case data := <-c.outbox:
			if err := c.write(conn, data); err != nil {
				c.log.Warn().Err(err).Msg("signaling write error")
				return
			}
		case <-ping.C:
			deadline := time.Now().Add(c.opts.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.log.Warn().Err(err).Msg("signaling ping error")
				return
			}
		case <-readDone:
			return
		case <-c.closing:
			c.shutdown(conn, readDone)
			return
		case <-ctx.Done():
			c.shutdown(conn, readDone)
			return
		}
	}
}

// shutdown drains whatever is still queued and performs the close handshake,
// giving the server up to CloseTimeout to answer it.
func (c *Channel) shutdown(conn *websocket.Conn, readDone <-chan struct{}) {
flush:
	for {
		select {
		case data := <-c.outbox:
			if err := c.write(conn, data); err != nil {
				c.log.Debug().Err(err).Msg("flush aborted")
				return
			}
		default:
			break flush
		}
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.opts.WriteTimeout)); err != nil {
		c.log.Debug().Err(err).Msg("close frame not sent")
		return
	}

	timer := time.NewTimer(c.opts.CloseTimeout)
	defer timer.Stop()
	select {
	case <-readDone:
	case <-timer.C:
	}
}

func (c *Channel) write(conn *websocket.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout)); err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	c.log.Trace().Bytes("frame", data).Msg("sent")
	return nil
}

func (c *Channel) markDead() {
	c.deadOnce.Do(func() { close(c.dead) })
}

// emit delivers ev unless the channel is being torn down.
func (c *Channel) emit(ev Event) {
	ev.Generation = c.opts.Generation
	select {
	case c.opts.Events <- ev:
	case <-c.closing:
	}
}
