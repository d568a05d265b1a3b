package relay

import (
	"sync"
	"time"

	"github.com/relaychat/relay/internal/protocol"
)

// Conn is the transport a session speaks over. The TCP path frames messages
// with the protocol package; the gateway adapts WebSocket connections to the
// same shape. ReadMessage is called only by the session's owning handler.
type Conn interface {
	ReadMessage() (protocol.Message, error)
	WriteText(text string) error
	Close() error
}

// Session is the server-side state for one connected client. The connection
// is read exclusively by the session's handler goroutine; writes come from
// any goroutine routing a delivery here and are serialized by a write lock.
type Session struct {
	id       int64
	username string
	joinedAt time.Time
	conn     Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newSession(id int64, username string, conn Conn) *Session {
	return &Session{
		id:       id,
		username: username,
		joinedAt: time.Now(),
		conn:     conn,
	}
}

// ID returns the connection ID, unique for the lifetime of the relay.
func (s *Session) ID() int64 { return s.id }

// Username returns the name the client declared at connection time. Not
// guaranteed unique across sessions.
func (s *Session) Username() string { return s.username }

// JoinedAt returns the session creation time.
func (s *Session) JoinedAt() time.Time { return s.joinedAt }

// Send writes one text line to the client and reports whether the write
// succeeded. It never panics across component boundaries; on failure the
// caller decides whether to evict the session.
func (s *Session) Send(text string) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteText(text) == nil
}

// Receive blocks the owning handler until one complete message is decoded,
// the peer closes the connection, or a transport error occurs.
func (s *Session) Receive() (protocol.Message, error) {
	return s.conn.ReadMessage()
}

// Close releases the connection. Safe to call multiple times and from a
// different goroutine than the one that detected a failure.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
	})
}
