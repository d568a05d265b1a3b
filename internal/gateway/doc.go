// Package gateway exposes the chat relay to WebSocket clients. Upgraded
// connections join the same registry and router as raw TCP clients: the
// first text message declares the username, subsequent JSON messages map to
// the inbound message kinds, and rendered chat lines come back as WebSocket
// text messages.
package gateway
