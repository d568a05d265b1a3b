package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/relaychat/relay/internal/relay"
)

// Gateway serves the WebSocket access point and the health endpoint over
// one HTTP server.
type Gateway struct {
	relay    *relay.Relay
	origins  *originPolicy
	upgrader websocket.Upgrader
	server   *http.Server
	log      *logrus.Entry
}

// New creates a gateway bound to addr that feeds upgraded connections into
// the given relay.
func New(rl *relay.Relay, addr string, allowedOrigins []string, logger *logrus.Logger) *Gateway {
	log := logger.WithField("component", "gateway")
	g := &Gateway{
		relay:   rl,
		origins: newOriginPolicy(allowedOrigins, log),
		log:     log,
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     g.origins.check,
	}
	g.server = &http.Server{
		Addr:        addr,
		Handler:     g.Routes(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	return g
}

// Routes configures and returns the HTTP mux with all gateway routes.
func (g *Gateway) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", g.healthHandler)
	mux.HandleFunc("/ws", g.websocketHandler)
	return mux
}

// Start begins listening for HTTP connections and blocks until the server
// exits. It returns nil after a graceful Shutdown.
func (g *Gateway) Start() error {
	g.log.Infof("Gateway listening on %s", g.server.Addr)
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("gateway: serve on %s: %w", g.server.Addr, err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server. Sessions already upgraded are
// torn down by the relay's own shutdown, which closes their connections.
func (g *Gateway) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return g.server.Shutdown(ctx)
}

func (g *Gateway) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Chat relay is running!")
}

// websocketHandler upgrades the request and runs the session handler loop
// on the request goroutine. The first client message declares the username,
// mirroring the TCP connection bootstrap.
func (g *Gateway) websocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warnf("WebSocket upgrade failed: %v", err)
		return
	}

	_, username, err := conn.ReadMessage()
	if err != nil {
		g.log.Warnf("Rejecting %s: no username received (%v)", r.RemoteAddr, err)
		conn.Close()
		return
	}

	session, err := g.relay.Join(&wsConn{conn: conn}, string(username))
	if err != nil {
		conn.Close()
		return
	}
	g.relay.Serve(session)
}
