package protocol

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeConns(t *testing.T, maxFrame int) (client, server *Conn, raw net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return NewConn(a, maxFrame), NewConn(b, maxFrame), a
}

func TestMessageRoundTrip(t *testing.T) {
	client, server, _ := pipeConns(t, 0)

	go func() {
		_ = client.WriteMessage(Message{Kind: KindText, Body: "hello world"})
	}()

	msg, err := server.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, KindText, msg.Kind)
	assert.Equal(t, "hello world", msg.Body)
}

func TestMessageWithoutPayload(t *testing.T) {
	client, server, _ := pipeConns(t, 0)

	go func() {
		_ = client.WriteMessage(Message{Kind: KindWhoIsIn})
	}()

	msg, err := server.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, KindWhoIsIn, msg.Kind)
	assert.Empty(t, msg.Body)
}

func TestTextRoundTrip(t *testing.T) {
	client, server, _ := pipeConns(t, 0)

	go func() {
		_ = server.WriteText("10:30:00 alice: hi")
	}()

	text, err := client.ReadText()
	require.NoError(t, err)
	assert.Equal(t, "10:30:00 alice: hi", text)
}

// A frame must decode even when the transport delivers it one byte at a
// time.
func TestPartialDelivery(t *testing.T) {
	_, server, raw := pipeConns(t, 0)

	frame := encodeMessage(Message{Kind: KindText, Body: "chunked"})
	go func() {
		for i := range frame {
			if _, err := raw.Write(frame[i : i+1]); err != nil {
				return
			}
		}
	}()

	msg, err := server.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "chunked", msg.Body)
}

// Two frames written in a single transport write must come back as two
// separate messages.
func TestCoalescedFrames(t *testing.T) {
	_, server, raw := pipeConns(t, 0)

	combined := append(encodeMessage(Message{Kind: KindText, Body: "first"}),
		encodeMessage(Message{Kind: KindLogout})...)
	go func() {
		_, _ = raw.Write(combined)
	}()

	first, err := server.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "first", first.Body)

	second, err := server.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, KindLogout, second.Kind)
}

func TestUnknownKind(t *testing.T) {
	_, server, raw := pipeConns(t, 0)

	go func() {
		_, _ = raw.Write([]byte{0, 0, 0, 2, 9, 'x'})
	}()

	_, err := server.ReadMessage()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestEmptyFrame(t *testing.T) {
	_, server, raw := pipeConns(t, 0)

	go func() {
		_, _ = raw.Write([]byte{0, 0, 0, 0})
	}()

	_, err := server.ReadMessage()
	assert.ErrorIs(t, err, ErrEmptyFrame)
}

func TestFrameTooLarge(t *testing.T) {
	_, server, raw := pipeConns(t, 16)

	go func() {
		_, _ = raw.Write([]byte{0, 0, 1, 0})
	}()

	_, err := server.ReadMessage()
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestTruncatedFrame(t *testing.T) {
	_, server, raw := pipeConns(t, 0)

	go func() {
		_, _ = raw.Write([]byte{0, 0, 0, 10, byte(KindText), 'h', 'i'})
		time.Sleep(50 * time.Millisecond)
		raw.Close()
	}()

	_, err := server.ReadMessage()
	require.Error(t, err)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.ErrClosedPipe))
}

func TestWriteInvalidKind(t *testing.T) {
	client, _, _ := pipeConns(t, 0)

	err := client.WriteMessage(Message{Kind: Kind(7)})
	assert.ErrorIs(t, err, ErrUnknownKind)
}
