package relay

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/acp-protocol/bridge/internal/metrics"
)

// ErrSessionClosed is returned by Send once a session has left the Open
// state.
var ErrSessionClosed = errors.New("session is closed")

// State is the lifecycle state of a session. Transitions are driven by I/O
// completion: Connecting -> Open on registration, Open -> Closing on close or
// write failure, Closing -> Closed once the connection is torn down.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "closed"
	}
}

// Conn is the subset of *websocket.Conn a session needs. Tests substitute
// in-memory fakes.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Session is one open real-time connection. Outbound frames go through a
// bounded queue drained by a single writer goroutine, so a stalled peer can
// never block a publisher; when the queue overflows the oldest frame is
// dropped.
type Session struct {
	ID uuid.UUID

	// OnClose, if set before Open, runs exactly once when the session
	// closes for any reason.
	OnClose func(*Session)

	conn         Conn
	out          chan []byte
	done         chan struct{}
	state        atomic.Int32
	closeOnce    sync.Once
	writeTimeout time.Duration
}

// NewSession wraps conn in a session in the Connecting state.
func NewSession(conn Conn, writeTimeout time.Duration, queueSize int) *Session {
	if queueSize <= 0 {
		queueSize = 32
	}
	return &Session{
		ID:           uuid.New(),
		conn:         conn,
		out:          make(chan []byte, queueSize),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Open transitions the session to Open and starts the writer goroutine.
func (s *Session) Open() {
	if s.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen)) {
		go s.writeLoop()
	}
}

// Read blocks until the next inbound frame or a connection error.
func (s *Session) Read() ([]byte, error) {
	_, data, err := s.conn.ReadMessage()
	return data, err
}

// Send queues frame for delivery. When the queue is full the oldest queued
// frame is dropped to make room: bounded back-pressure, never a blocked
// publisher. Per-sender FIFO order is preserved by the queue.
func (s *Session) Send(frame []byte) error {
	for {
		if s.State() != StateOpen {
			return ErrSessionClosed
		}
		select {
		case s.out <- frame:
			return nil
		default:
		}
		select {
		case <-s.out:
			metrics.RelayFramesDropped.Inc()
		default:
		}
	}
}

// Close moves the session to Closing, stops the writer and runs OnClose.
// Idempotent and safe from any goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		prev := State(s.state.Swap(int32(StateClosing)))
		close(s.done)
		if prev == StateConnecting {
			// Writer never started, so nothing else will tear down the conn.
			s.conn.Close()
			s.state.Store(int32(StateClosed))
		}
		if s.OnClose != nil {
			s.OnClose(s)
		}
	})
}

// writeLoop drains the outbound queue. A failed or timed-out write closes
// the session; each frame gets a bounded deadline so one dead peer cannot
// wedge the writer.
func (s *Session) writeLoop() {
	defer s.state.Store(int32(StateClosed))
	for {
		select {
		case frame := <-s.out:
			if s.writeTimeout > 0 {
				s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				metrics.RelaySendFailures.Inc()
				s.conn.Close()
				s.Close()
				return
			}
		case <-s.done:
			s.conn.Close()
			return
		}
	}
}
