// Package live maintains the push-channel subscription that keeps a mounted
// board in sync with remote edits.
package live

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tOgg1/leadboard/internal/logging"
)

const (
	// EventLeadUpdate signals that lead data changed remotely. It carries no
	// payload; subscribers refetch the full lead list.
	EventLeadUpdate = "lead_update"

	defaultDialTimeout      = 5 * time.Second
	defaultReconnectMin     = time.Second
	defaultReconnectMax     = 30 * time.Second
	defaultEventBufferSize  = 8
	defaultHandshakeTimeout = 5 * time.Second
)

// Event is the wire shape of a push notification.
type Event struct {
	Type string `json:"type"`
}

// Config holds listener construction parameters.
type Config struct {
	// URL is the websocket endpoint (ws:// or wss://).
	URL string

	// Token is the bearer credential for the connection handshake.
	Token string

	// ReconnectMin/ReconnectMax bound the reconnect backoff. Zero values
	// use the defaults.
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

// Listener holds one websocket subscription. Events are delivered on the
// Events channel; consecutive notifications coalesce when the consumer is
// slow, which is safe because every event means the same thing: refetch.
type Listener struct {
	id     string
	url    string
	token  string
	minOff time.Duration
	maxOff time.Duration
	log    zerolog.Logger

	events chan struct{}

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// New creates a Listener. Call Run to start it.
func New(cfg Config) *Listener {
	minOff := cfg.ReconnectMin
	if minOff <= 0 {
		minOff = defaultReconnectMin
	}
	maxOff := cfg.ReconnectMax
	if maxOff < minOff {
		maxOff = defaultReconnectMax
	}

	id := uuid.New().String()
	return &Listener{
		id:     id,
		url:    strings.TrimSpace(cfg.URL),
		token:  strings.TrimSpace(cfg.Token),
		minOff: minOff,
		maxOff: maxOff,
		log:    logging.Component("live").With().Str("subscription_id", id).Logger(),
		events: make(chan struct{}, defaultEventBufferSize),
	}
}

// Events returns the notification channel. Closed when Run exits.
func (l *Listener) Events() <-chan struct{} {
	return l.events
}

// Run dials the push channel and reads events until ctx is cancelled or
// Close is called, reconnecting with capped exponential backoff.
func (l *Listener) Run(ctx context.Context) {
	defer close(l.events)

	backoff := l.minOff
	for {
		if ctx.Err() != nil || l.isClosed() {
			return
		}

		conn, err := l.dial(ctx)
		if err != nil {
			l.log.Debug().Err(err).Dur("backoff", backoff).Msg("dial failed")
			if !sleepWithContext(ctx, backoff) {
				return
			}
			backoff = minDuration(backoff*2, l.maxOff)
			continue
		}

		backoff = l.minOff
		l.setConn(conn)
		l.log.Debug().Msg("push channel connected")

		l.readLoop(ctx, conn)
		l.setConn(nil)
	}
}

// Close tears down the subscription. Safe to call more than once.
func (l *Listener) Close() {
	l.mu.Lock()
	l.closed = true
	conn := l.conn
	l.conn = nil
	l.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

func (l *Listener) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: defaultHandshakeTimeout}

	header := http.Header{}
	if l.token != "" {
		header.Set("Authorization", "Bearer "+l.token)
	}

	dialCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	conn, _, err := dialer.DialContext(dialCtx, l.url, header)
	return conn, err
}

func (l *Listener) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		if ctx.Err() != nil || l.isClosed() {
			_ = conn.Close()
			return
		}

		var event Event
		if err := conn.ReadJSON(&event); err != nil {
			if !l.isClosed() && ctx.Err() == nil {
				l.log.Debug().Err(err).Msg("push channel read failed")
			}
			_ = conn.Close()
			return
		}

		if event.Type != EventLeadUpdate {
			continue
		}

		select {
		case l.events <- struct{}{}:
		default:
			// Buffer full: a refetch is already pending.
		}
	}
}

func (l *Listener) setConn(conn *websocket.Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed && conn != nil {
		_ = conn.Close()
		return
	}
	l.conn = conn
}

func (l *Listener) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
