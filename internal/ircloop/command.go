// Package ircloop implements the per-connection event loop: a single-writer
// state machine that owns one authenticated transport, coordinates the init,
// incoming, outgoing, and ping tasks through a command channel, and exposes
// the connection's lifecycle to callers as a stream of events.
package ircloop

import (
	"context"
	"time"

	"github.com/kstaniek/go-twitch-irc/internal/command"
	"github.com/kstaniek/go-twitch-irc/internal/irc"
	"github.com/kstaniek/go-twitch-irc/internal/login"
	"github.com/kstaniek/go-twitch-irc/internal/ratelimit"
	"github.com/kstaniek/go-twitch-irc/internal/transport"
)

// CommandKind tags the kind of Command flowing through the worker's inbound
// channel.
type CommandKind int

const (
	KindSendMessage CommandKind = iota
	KindTransportInitFinished
	KindSendError
	KindIncomingMessage
	KindSendPing
	KindCheckPong
)

// InitResult is what the init task reports back to the worker: either an
// opened transport and the credentials used to open it, or the cause it
// failed with.
type InitResult struct {
	Transport   transport.Transport
	Credentials login.CredentialsPair
	Err         *SharedError
}

// Command is a single tagged entry on the worker's inbound queue. Only the
// fields relevant to Kind are populated; the rest are zero.
type Command struct {
	Kind CommandKind

	// KindSendMessage
	SendFrame irc.Message
	ReplySlot chan<- error // optional; nil means fire-and-forget

	// KindTransportInitFinished
	InitResult InitResult

	// KindSendError
	SendErr *SharedError

	// KindIncomingMessage
	IncomingFrame irc.Message
	IncomingErr   *SharedError
	IncomingEOF   bool
}

// EventKind tags the kind of IncomingEvent published outward.
type EventKind int

const (
	EventStateOpen EventKind = iota
	EventIncomingMessage
	EventStateClosed
)

// IncomingEvent is what callers observe from Worker.Events.
type IncomingEvent struct {
	Kind    EventKind
	Message command.ServerMessage // set when Kind == EventIncomingMessage
	Cause   error                 // set when Kind == EventStateClosed
}

// Config is everything the worker and its init task need to open and run a
// connection.
type Config struct {
	Credentials        login.Source
	Limiter            *ratelimit.Semaphore
	ConnectTimeout     time.Duration
	NewConnectionEvery time.Duration
	// Dial opens the transport. Production callers wire this to
	// transport.Dial against the real Twitch endpoint; tests supply a
	// constructor around transport.Fake.
	Dial func(ctx context.Context) (transport.Transport, error)

	// PingInterval and PongWindow default to 30s/5s. Exposed for tests that
	// need the liveness probe to fire on a schedule shorter than real-time
	// 30s; production callers should leave these at zero.
	PingInterval time.Duration
	PongWindow   time.Duration
}

func (c Config) pingInterval() time.Duration {
	if c.PingInterval > 0 {
		return c.PingInterval
	}
	return defaultPingInterval
}

func (c Config) pongWindow() time.Duration {
	if c.PongWindow > 0 {
		return c.PongWindow
	}
	return defaultPongWindow
}
