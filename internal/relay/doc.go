// Package relay implements the core of the chat service: the synchronized
// registry of connected sessions, the router that turns inbound frames into
// broadcast or private deliveries, and the TCP accept/handler lifecycle.
//
// The implementation is organized into specialized files for configuration,
// sessions, the registry, routing, and lifecycle to keep the codebase
// maintainable and testable as the project grows.
package relay
