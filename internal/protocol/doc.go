// Package protocol implements the framing used between chat clients and the
// relay. Every frame starts with a 4-byte big-endian payload length so that
// frame boundaries survive partial or coalesced TCP reads.
//
// Client frames carry a one-byte kind tag (WHOISIN, TEXT, LOGOUT) followed by
// an optional UTF-8 body. Relay frames are untagged UTF-8 text lines.
//
// Private delivery is not a wire-level concept: a TEXT body whose first word
// starts with "@" is routed privately by the relay. Promoting the recipient to
// an explicit field would change client-observable behavior, so the quirk is
// kept as-is.
package protocol
