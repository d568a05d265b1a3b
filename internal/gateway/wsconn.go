package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/relaychat/relay/internal/protocol"
)

// inboundFrame is the JSON shape WebSocket clients send after declaring
// their username. Kind values mirror the TCP protocol tags.
type inboundFrame struct {
	Kind int    `json:"kind"`
	Body string `json:"body"`
}

// wsConn adapts a WebSocket connection to the relay's session transport.
// Writes are serialized by the session's write lock; reads belong to the
// session handler alone.
type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadMessage() (protocol.Message, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return protocol.Message{}, err
	}
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return protocol.Message{}, fmt.Errorf("gateway: decode frame: %w", err)
	}
	kind := protocol.Kind(frame.Kind)
	if frame.Kind < 0 || frame.Kind > 255 || kind > protocol.KindLogout {
		return protocol.Message{}, fmt.Errorf("%w: %d", protocol.ErrUnknownKind, frame.Kind)
	}
	return protocol.Message{Kind: kind, Body: frame.Body}, nil
}

func (c *wsConn) WriteText(text string) error {
	return c.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
