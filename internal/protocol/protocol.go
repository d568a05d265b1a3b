package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
)

// Kind identifies what a client frame asks the relay to do. The numeric
// values are part of the wire contract and must not change.
type Kind byte

const (
	// KindWhoIsIn requests the roster of connected users.
	KindWhoIsIn Kind = 0
	// KindText carries an ordinary chat message.
	KindText Kind = 1
	// KindLogout announces that the client is disconnecting.
	KindLogout Kind = 2
)

func (k Kind) valid() bool {
	return k <= KindLogout
}

// Message is one decoded client frame.
type Message struct {
	Kind Kind
	Body string
}

// headerSize is the length prefix preceding every frame payload.
const headerSize = 4

// DefaultMaxFrameSize bounds frame payloads when no limit is configured.
const DefaultMaxFrameSize = 4096

var (
	// ErrUnknownKind reports a client frame with an unrecognized kind tag.
	ErrUnknownKind = errors.New("protocol: unknown message kind")
	// ErrFrameTooLarge reports a frame whose declared payload exceeds the
	// configured limit.
	ErrFrameTooLarge = errors.New("protocol: frame exceeds size limit")
	// ErrEmptyFrame reports a client frame too short to hold a kind tag.
	ErrEmptyFrame = errors.New("protocol: empty frame")
)

// Conn frames messages over a single network connection. Reads and writes
// are independent; neither is safe for concurrent use with itself.
type Conn struct {
	nc       net.Conn
	maxFrame int
}

// NewConn wraps nc with the frame codec. A maxFrame of zero or less falls
// back to DefaultMaxFrameSize.
func NewConn(nc net.Conn, maxFrame int) *Conn {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrameSize
	}
	return &Conn{nc: nc, maxFrame: maxFrame}
}

// Close releases the underlying network connection.
func (c *Conn) Close() error {
	return c.nc.Close()
}

// WriteMessage sends one tagged client frame.
func (c *Conn) WriteMessage(m Message) error {
	if !m.Kind.valid() {
		return ErrUnknownKind
	}
	if _, err := c.nc.Write(encodeMessage(m)); err != nil {
		return fmt.Errorf("protocol: write frame: %w", err)
	}
	return nil
}

// ReadMessage blocks until one complete tagged frame arrives and decodes it.
func (c *Conn) ReadMessage() (Message, error) {
	payload, err := c.readFrame()
	if err != nil {
		return Message{}, err
	}
	if len(payload) == 0 {
		return Message{}, ErrEmptyFrame
	}
	kind := Kind(payload[0])
	if !kind.valid() {
		return Message{}, fmt.Errorf("%w: %d", ErrUnknownKind, payload[0])
	}
	return Message{Kind: kind, Body: string(payload[1:])}, nil
}

// WriteText sends one untagged text frame, the only shape the relay emits.
func (c *Conn) WriteText(text string) error {
	if _, err := c.nc.Write(encodeText(text)); err != nil {
		return fmt.Errorf("protocol: write frame: %w", err)
	}
	return nil
}

// ReadText blocks until one complete untagged frame arrives.
func (c *Conn) ReadText() (string, error) {
	payload, err := c.readFrame()
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func (c *Conn) readFrame() ([]byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(c.nc, header[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(header[:])
	if size > uint32(c.maxFrame) {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, size, c.maxFrame)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(c.nc, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}

func encodeMessage(m Message) []byte {
	frame := make([]byte, headerSize+1+len(m.Body))
	binary.BigEndian.PutUint32(frame, uint32(1+len(m.Body)))
	frame[headerSize] = byte(m.Kind)
	copy(frame[headerSize+1:], m.Body)
	return frame
}

func encodeText(text string) []byte {
	frame := make([]byte, headerSize+len(text))
	binary.BigEndian.PutUint32(frame, uint32(len(text)))
	copy(frame[headerSize:], text)
	return frame
}
