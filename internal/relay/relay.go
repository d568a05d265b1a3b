package relay

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/relaychat/relay/internal/protocol"
)

// Relay accepts client connections, registers a session per connection, and
// runs a handler goroutine per session until logout or transport failure.
type Relay struct {
	cfg      Config
	registry *Registry
	router   *Router
	log      *logrus.Entry

	listener net.Listener
	running  atomic.Bool
	nextID   atomic.Int64
	wg       sync.WaitGroup
	done     chan struct{}
}

// New creates a relay from the given configuration. Call Start to begin
// accepting connections.
func New(cfg Config, logger *logrus.Logger) *Relay {
	cfg = cfg.sanitize()
	registry := NewRegistry()
	return &Relay{
		cfg:      cfg,
		registry: registry,
		router:   NewRouter(registry, logger.WithField("component", "router")),
		log:      logger.WithField("component", "relay"),
		done:     make(chan struct{}),
	}
}

// Registry exposes the session registry, shared with the gateway.
func (r *Relay) Registry() *Registry { return r.registry }

// Router exposes the message router, shared with the gateway.
func (r *Relay) Router() *Router { return r.router }

// Start binds the listening socket and launches the accept loop. A bind
// failure is fatal: the relay does not start.
func (r *Relay) Start() error {
	listener, err := net.Listen("tcp", r.cfg.listenAddr())
	if err != nil {
		return fmt.Errorf("relay: listen on %s: %w", r.cfg.listenAddr(), err)
	}
	r.listener = listener
	r.running.Store(true)
	r.wg.Add(1)
	go r.acceptLoop()
	return nil
}

// Addr returns the listening address, useful when Port 0 asked the OS for
// an ephemeral port.
func (r *Relay) Addr() net.Addr {
	return r.listener.Addr()
}

// Stop flips the running flag and unblocks the pending Accept by opening
// and closing a throwaway connection to the relay's own port. It then waits
// for the accept loop and all handlers to finish, up to the timeout. Only
// the accept loop is cancelled directly; in-flight handlers terminate
// through their own receive failure paths once their connections close.
func (r *Relay) Stop(timeout time.Duration) {
	if !r.running.CompareAndSwap(true, false) {
		return
	}
	if conn, err := net.Dial("tcp", r.listener.Addr().String()); err == nil {
		conn.Close()
	}

	finished := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		r.log.Info("Relay shutdown completed")
	case <-time.After(timeout):
		r.log.Warn("Relay shutdown timeout reached, some handlers may still be running")
	}
}

// Done is closed once the accept loop has exited and every remaining
// session's connection has been closed.
func (r *Relay) Done() <-chan struct{} { return r.done }

func (r *Relay) acceptLoop() {
	defer r.wg.Done()
	defer close(r.done)

	r.log.Infof("Waiting for clients on %s", r.listener.Addr())
	for r.running.Load() {
		conn, err := r.listener.Accept()
		if err != nil {
			if !r.running.Load() {
				break
			}
			r.log.Warnf("Accept failed: %v", err)
			continue
		}
		if !r.running.Load() {
			conn.Close()
			break
		}
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.serveConn(conn)
		}()
	}

	r.listener.Close()
	for _, s := range r.registry.Snapshot() {
		s.Close()
	}
}

// serveConn bootstraps one TCP connection: the client's first frame must be
// a TEXT frame declaring its username. The read blocks with no timeout, a
// known limitation of the baseline design: a stalled bootstrap holds only
// its own goroutine.
func (r *Relay) serveConn(nc net.Conn) {
	conn := protocol.NewConn(nc, r.cfg.MaxFrameSize)
	first, err := conn.ReadMessage()
	if err != nil || first.Kind != protocol.KindText {
		r.log.Warnf("Rejecting %s: bad username frame (%v)", nc.RemoteAddr(), err)
		conn.Close()
		return
	}
	session, err := r.Join(conn, first.Body)
	if err != nil {
		conn.Close()
		return
	}
	r.Serve(session)
}

// Join registers a new session over an established connection, assigns it a
// fresh connection ID, and announces the arrival. The gateway uses this
// entry point for WebSocket clients.
func (r *Relay) Join(conn Conn, username string) (*Session, error) {
	if !r.running.Load() {
		return nil, ErrStopped
	}
	session := newSession(r.nextID.Add(1), username, conn)
	r.registry.Insert(session)
	r.router.AnnounceJoin(username)
	return session, nil
}

// Serve runs the session's handler loop until logout, graceful close, or a
// transport error. Every exit path removes the session from the registry,
// announces the departure, and closes the connection.
func (r *Relay) Serve(s *Session) {
	limiter := newTokenBucket(r.cfg.RateLimitBurst, r.cfg.RateLimitRefill)
	defer s.Close()

	for {
		msg, err := s.Receive()
		if err != nil {
			if !isExpectedCloseError(err) {
				r.log.Warnf("%s: receive failed: %v", s.Username(), err)
			}
			r.router.Depart(s)
			return
		}

		switch msg.Kind {
		case protocol.KindLogout:
			r.log.Infof("%s disconnected with a LOGOUT message", s.Username())
			r.router.Depart(s)
			return
		case protocol.KindWhoIsIn:
			r.router.WhoIsIn(s)
		case protocol.KindText:
			if !limiter.allow() {
				r.log.Warnf("Rate limit exceeded for %s; discarding message", s.Username())
				continue
			}
			if !r.router.Text(s, msg.Body) {
				s.Send(NoSuchUserNotice)
			}
		}
	}
}
