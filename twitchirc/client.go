// Package twitchirc is the public client library for the Twitch variant of
// IRC chat: one Connection per authenticated TLS link, built on the
// internal event loop in package ircloop.
package twitchirc

import (
	"context"
	"time"

	"github.com/kstaniek/go-twitch-irc/internal/command"
	"github.com/kstaniek/go-twitch-irc/internal/irc"
	"github.com/kstaniek/go-twitch-irc/internal/ircloop"
	"github.com/kstaniek/go-twitch-irc/internal/login"
	"github.com/kstaniek/go-twitch-irc/internal/ratelimit"
	"github.com/kstaniek/go-twitch-irc/internal/transport"
)

// Re-exported so callers never need to import the internal packages
// directly.
type (
	Message           = irc.Message
	CredentialsPair   = login.CredentialsPair
	CredentialSource  = login.Source
	ServerMessage     = command.ServerMessage
	PingMessage       = command.PingMessage
	PongMessage       = command.PongMessage
	ReconnectMessage  = command.ReconnectMessage
	JoinMessage       = command.JoinMessage
	PrivmsgMessage    = command.PrivmsgMessage
	ClearmsgMessage   = command.ClearmsgMessage
	GenericMessage    = command.GenericMessage
)

// EventKind identifies what an Event carries.
type EventKind int

const (
	EventStateOpen EventKind = iota
	EventMessage
	EventStateClosed
)

// Event is a single lifecycle or message notification from a Connection.
type Event struct {
	Kind    EventKind
	Message ServerMessage // set when Kind == EventMessage
	Cause   error         // set when Kind == EventStateClosed
}

// Config configures a single connection attempt.
type Config struct {
	// Credentials resolves the (login, token) pair used for the handshake.
	// A StaticSource with an empty token produces an anonymous connection.
	Credentials login.Source

	// Limiter gates how often new connections may be opened. Shared across
	// every Connection a process opens; required.
	Limiter *ratelimit.Semaphore

	// Addr overrides the Twitch chat endpoint; defaults to transport.DefaultAddr.
	Addr string

	// ConnectTimeout bounds how long opening the transport may take.
	// Defaults to 10s.
	ConnectTimeout time.Duration

	// NewConnectionEvery is how long after a successful connect the rate
	// limiter permit is held before being released. Defaults to 1s.
	NewConnectionEvery time.Duration
}

func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.NewConnectionEvery <= 0 {
		c.NewConnectionEvery = time.Second
	}
	return c
}

// NewStaticCredentials builds a CredentialSource that always returns the
// given login and token. Pass an empty token for an anonymous connection.
func NewStaticCredentials(loginName, token string) CredentialSource {
	return login.NewStatic(loginName, token)
}

// NewEnvCredentials builds a CredentialSource reading TWITCH_CHAT_LOGIN and
// TWITCH_CHAT_OAUTH_TOKEN from the environment.
func NewEnvCredentials() CredentialSource {
	return login.NewEnvSource()
}

// NewRateLimiter builds a connection-rate limiter with capacity permits.
// Each connection attempt holds one permit from before it dials until
// NewConnectionEvery after it connects (or until its dial fails). Share one
// Limiter across every Connect call in a process.
func NewRateLimiter(capacity int) *ratelimit.Semaphore {
	return ratelimit.NewSemaphore(capacity)
}

// Connection is one authenticated link to Twitch chat.
type Connection struct {
	worker *ircloop.Worker
}

// Connect starts opening a connection and returns immediately; the result
// of the attempt (success or failure) arrives as the first event on
// Events. ctx bounds the connection's entire lifetime: cancelling it closes
// the connection exactly as Close does.
func Connect(ctx context.Context, cfg Config) (*Connection, error) {
	cfg = cfg.withDefaults()
	addr := cfg.Addr

	loopCfg := ircloop.Config{
		Credentials:        cfg.Credentials,
		Limiter:            cfg.Limiter,
		ConnectTimeout:     cfg.ConnectTimeout,
		NewConnectionEvery: cfg.NewConnectionEvery,
		Dial: func(dialCtx context.Context) (transport.Transport, error) {
			return transport.Dial(dialCtx, addr)
		},
	}

	w := ircloop.Start(ctx, loopCfg)
	return &Connection{worker: w}, nil
}

// Events returns the stream of lifecycle and message events. It is closed
// right after StateClosed is delivered, or when the connection is closed by
// its owner, whichever comes first.
func (c *Connection) Events() <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		for ev := range c.worker.Events() {
			out <- translateEvent(ev)
		}
	}()
	return out
}

func translateEvent(ev ircloop.IncomingEvent) Event {
	switch ev.Kind {
	case ircloop.EventStateOpen:
		return Event{Kind: EventStateOpen}
	case ircloop.EventIncomingMessage:
		return Event{Kind: EventMessage, Message: ev.Message}
	case ircloop.EventStateClosed:
		return Event{Kind: EventStateClosed, Cause: ev.Cause}
	default:
		return Event{}
	}
}

// Send enqueues frame without waiting for delivery.
func (c *Connection) Send(frame irc.Message, reply chan<- error) {
	c.worker.Send(frame, reply)
}

// SendMessage sends a PRIVMSG to channel and blocks until it either
// reaches the transport or the connection reports a terminal failure.
func (c *Connection) SendMessage(ctx context.Context, channel, text string) error {
	reply := make(chan error, 1)
	c.worker.Send(irc.New("PRIVMSG", "#"+channel, text), reply)
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the connection. Safe to call more than once.
func (c *Connection) Close() { c.worker.Close() }
