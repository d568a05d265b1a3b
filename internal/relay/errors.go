package relay

import (
	"errors"
	"io"
	"strings"
)

// ErrStopped reports an attempt to join a relay that is not accepting
// sessions.
var ErrStopped = errors.New("relay: not running")

// isExpectedCloseError checks if an error is expected during connection
// closure, so routine disconnects are not logged as failures.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "connection reset by peer") ||
		strings.Contains(errStr, "broken pipe")
}
