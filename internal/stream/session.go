// Package stream implements the venue's two long-lived WebSocket feeds:
// market data (order book) and the authenticated user stream (orders,
// fills, balances, positions). Both are built on the same reconnecting
// session state machine; reconnection uses a fixed backoff rather than
// the exponential kind, trading faster recovery for predictable staleness
// windows on a low-latency trading path.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/latentspeed/hl-connector/internal/metrics"
)

// State is a session's position in its connection lifecycle.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateHandshaking
	StateSubscribing
	StateStreaming
	StateClosing
	StateFaulted
	StateBackoff
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateSubscribing:
		return "subscribing"
	case StateStreaming:
		return "streaming"
	case StateClosing:
		return "closing"
	case StateFaulted:
		return "faulted"
	case StateBackoff:
		return "backoff"
	default:
		return "unknown"
	}
}

const (
	// ReconnectBackoff is the fixed delay between a dropped connection
	// and the next dial attempt. Unlike a typical exponential backoff,
	// a fixed delay keeps the maximum feed staleness window bounded and
	// predictable for a trading path.
	ReconnectBackoff = 5 * time.Second
	pingInterval     = 50 * time.Second
	readTimeout      = 90 * time.Second
	writeTimeout     = 10 * time.Second
)

// session holds the reconnecting WebSocket plumbing shared by the market
// and user streams. dispatch is called with every inbound text frame;
// resubscribe is called once per successful connection to replay whatever
// subscriptions the caller has registered.
type session struct {
	url         string
	name        string
	log         *slog.Logger
	dispatch    func([]byte)
	resubscribe func(*session) error
	metrics     *metrics.Registry

	mu    sync.RWMutex
	state State
	conn  *websocket.Conn

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func newSession(name, url string, log *slog.Logger, dispatch func([]byte), resubscribe func(*session) error) *session {
	return &session{
		url:         url,
		name:        name,
		log:         log,
		dispatch:    dispatch,
		resubscribe: resubscribe,
		state:       StateIdle,
	}
}

// SetMetrics attaches a metrics registry; reconnect attempts are counted
// against it, labeled by this session's stream name.
func (s *session) SetMetrics(m *metrics.Registry) { s.metrics = m }

// Start begins the connect-and-read loop in the background. It returns
// immediately; call Stop to shut the session down.
func (s *session) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop tears the session down and waits for its goroutine to exit.
func (s *session) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// State reports the session's current lifecycle position.
func (s *session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *session) run(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			s.setState(StateClosing)
			return
		default:
		}

		if err := s.connectAndStream(ctx); err != nil {
			s.log.Warn("stream session fault", "url", s.url, "error", err)
			s.setState(StateFaulted)
			if s.metrics != nil {
				s.metrics.WSReconnects.WithLabelValues(s.name).Inc()
			}
		}

		select {
		case <-ctx.Done():
			s.setState(StateClosing)
			return
		case <-time.After(ReconnectBackoff):
			s.setState(StateBackoff)
		}
	}
}

func (s *session) connectAndStream(ctx context.Context) error {
	s.setState(StateConnecting)
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	s.setState(StateHandshaking)
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	s.setState(StateSubscribing)
	if s.resubscribe != nil {
		if err := s.resubscribe(s); err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
	}

	s.setState(StateStreaming)
	return s.readLoop(ctx, conn)
}

func (s *session) readLoop(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)

	go s.pingLoop(ctx, conn, done)

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		if s.dispatch != nil {
			s.dispatch(msg)
		}
	}
}

func (s *session) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// send writes a JSON message to the currently connected socket, if any.
func (s *session) send(v any) error {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	if conn == nil {
		return fmt.Errorf("send: no active connection")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, raw)
}
