// Package transport defines the abstract bidirectional framed channel the
// connection core speaks over, plus a real TLS implementation and an
// in-memory fake used by tests. The core (package ircloop) never imports
// net or crypto/tls directly; it only depends on the interfaces here.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/kstaniek/go-twitch-irc/internal/irc"
)

// Transport is an opened, authenticated bidirectional connection, ready to
// be split into independently owned read/write halves.
type Transport interface {
	// Split consumes the transport and returns its two halves. Each half is
	// owned exclusively by one forwarder goroutine from that point on.
	Split() (Incoming, Outgoing)
}

// Incoming is the read half of a Transport.
type Incoming interface {
	// Next blocks for the next frame. Exactly one of these holds on return:
	//   - eof is true: the stream ended cleanly (remote closed); msg and err are zero.
	//   - err is non-nil: a fatal failure, already classified as a
	//     *TransportError or *ParseError; msg and eof are zero/false.
	//   - otherwise: msg holds a successfully parsed frame.
	Next(ctx context.Context) (msg irc.Message, err error, eof bool)
}

// Outgoing is the write half of a Transport.
type Outgoing interface {
	Send(ctx context.Context, m irc.Message) error
}

// TransportError wraps a fatal I/O-level failure from the underlying link,
// as opposed to a frame that arrived but failed to parse.
type TransportError struct{ Err error }

func (e *TransportError) Error() string { return fmt.Sprintf("transport: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError wraps err as a TransportError, or returns nil if err is nil.
func NewTransportError(err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Err: err}
}

// ParseError wraps a malformed-frame failure: the bytes arrived but didn't
// parse as IRC. Like TransportError this still ends the connection (it
// reaches the loop as an IncomingMessage error), unlike a failure to decode
// an otherwise well-formed frame into a typed command, which does not.
type ParseError struct{ Err error }

func (e *ParseError) Error() string { return fmt.Sprintf("parse: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError wraps err as a ParseError, or returns nil if err is nil.
func NewParseError(err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Err: err}
}

// IsParseError reports whether err (or something it wraps) is a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
