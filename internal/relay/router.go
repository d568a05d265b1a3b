package relay

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// noticeMark wraps informational notices, matching the original protocol.
const noticeMark = " * "

// NoSuchUserNotice is sent to a sender whose private message named a
// username with no connected session.
const NoSuchUserNotice = noticeMark + "Sorry. No such user exists." + noticeMark

// Router turns one decoded inbound message plus its sender into outbound
// deliveries and registry mutations. Announcements and roster lines are
// plain informational strings and bypass the private-message heuristic;
// only TEXT bodies are inspected for an "@" target.
type Router struct {
	registry *Registry
	clock    func() time.Time
	log      *logrus.Entry
}

// NewRouter creates a router over the given registry.
func NewRouter(registry *Registry, log *logrus.Entry) *Router {
	return &Router{
		registry: registry,
		clock:    time.Now,
		log:      log,
	}
}

// Text renders and routes one chat message. It reports whether the message
// found its recipients: always true for broadcasts, false when a private
// target does not exist (the caller then notifies the sender).
func (rt *Router) Text(sender *Session, body string) bool {
	line := sender.Username() + ": " + body
	target, message, private := splitPrivate(line)
	if !private {
		rt.Broadcast(line)
		return true
	}
	return rt.sendPrivate(target, message)
}

// splitPrivate applies the private-message heuristic to a rendered
// "user: body" line: split on single spaces into at most three parts, and
// treat the line as private when the second part starts with "@". The
// reconstructed message drops the "@target" token.
func splitPrivate(line string) (target, message string, private bool) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 || !strings.HasPrefix(parts[1], "@") {
		return "", "", false
	}
	target = strings.TrimPrefix(parts[1], "@")
	message = parts[0]
	if len(parts) > 2 {
		message += " " + parts[2]
	}
	return target, message, true
}

// Broadcast time-stamps the text once and delivers it to every session in
// the current registry snapshot, including the sender if still registered.
// Sessions whose write fails are evicted without aborting the broadcast.
func (rt *Router) Broadcast(text string) {
	stamped := rt.stamp(text)
	rt.log.Info(stamped)
	for _, s := range rt.registry.Snapshot() {
		if !s.Send(stamped) {
			rt.evict(s)
		}
	}
}

// sendPrivate delivers to the most recently connected session with the
// target username. A delivery failure still counts as found: the target
// existed, so the failure is logged and the session evicted, not retried.
func (rt *Router) sendPrivate(target, text string) bool {
	s, ok := rt.registry.FindLast(target)
	if !ok {
		return false
	}
	if !s.Send(rt.stamp(text)) {
		rt.evict(s)
	}
	return true
}

// WhoIsIn sends the requester a header with the current time, then one
// numbered line per registered session. Read-only; send failures are left
// for the requester's own handler to notice.
func (rt *Router) WhoIsIn(sender *Session) {
	sender.Send("List of the users connected at " + rt.clock().Format("15:04:05"))
	for i, s := range rt.registry.Snapshot() {
		sender.Send(fmt.Sprintf("%d) %s since %s", i+1, s.Username(), s.JoinedAt().Format("2006-01-02 15:04:05")))
	}
}

// AnnounceJoin broadcasts an arrival notice.
func (rt *Router) AnnounceJoin(username string) {
	rt.Broadcast(notice(username + " has joined the chat room."))
}

// Depart removes the session from the registry and, if it was still
// registered, broadcasts exactly one departure notice to the remaining
// sessions.
func (rt *Router) Depart(s *Session) {
	if rt.registry.RemoveSession(s) {
		rt.Broadcast(notice(s.Username() + " has left the chat room."))
	}
}

func (rt *Router) evict(s *Session) {
	if rt.registry.RemoveSession(s) {
		rt.log.Infof("Disconnected client %s removed from the registry", s.Username())
	}
	s.Close()
}

func (rt *Router) stamp(text string) string {
	return rt.clock().Format("15:04:05") + " " + text
}

func notice(text string) string {
	return noticeMark + text + noticeMark
}
