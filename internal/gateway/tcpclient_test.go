package gateway

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relaychat/relay/internal/protocol"
	"github.com/relaychat/relay/internal/relay"
)

// tcpClient is a minimal raw-protocol client for mixed-transport tests.
type tcpClient struct {
	t    *testing.T
	nc   net.Conn
	conn *protocol.Conn
}

func newTCPClient(t *testing.T, rl *relay.Relay, username string) *tcpClient {
	t.Helper()
	nc, err := net.Dial("tcp", rl.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() {
		nc.Close()
	})

	conn := protocol.NewConn(nc, 0)
	require.NoError(t, conn.WriteMessage(protocol.Message{Kind: protocol.KindText, Body: username}))
	return &tcpClient{t: t, nc: nc, conn: conn}
}

func (c *tcpClient) sendText(body string) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteMessage(protocol.Message{Kind: protocol.KindText, Body: body}))
}

func (c *tcpClient) expectLine(contains string) string {
	c.t.Helper()
	require.NoError(c.t, c.nc.SetReadDeadline(time.Now().Add(2*time.Second)))
	text, err := c.conn.ReadText()
	require.NoError(c.t, err)
	require.Contains(c.t, text, contains)
	return text
}
