package ircloop

import "errors"

// Sentinel causes a connection can close with, wrapped with context via
// fmt.Errorf("%w: ...") at the point of occurrence so errors.Is still
// classifies them after wrapping.
var (
	ErrLogin          = errors.New("login failed")
	ErrConnect        = errors.New("connect failed")
	ErrConnectTimeout = errors.New("connect timed out")
	ErrOutgoing       = errors.New("outgoing send failed")
	ErrIncoming       = errors.New("incoming read failed")
	ErrIRCParse       = errors.New("malformed irc frame")
	ErrRemoteClosed   = errors.New("remote closed connection unexpectedly")
	ErrPingTimeout    = errors.New("no pong within liveness window")
	ErrReconnectCmd   = errors.New("server requested reconnect")
)

// SharedError is a cheap-to-clone immutable handle around a terminal cause.
// Copying the pointer, not the underlying error, is what makes delivering
// the same cause to a reply slot, a SendError command, and the eventual
// StateClosed event cheap regardless of what the wrapped error itself
// costs to copy.
type SharedError struct {
	err error
}

// NewSharedError wraps err, or returns nil if err is nil.
func NewSharedError(err error) *SharedError {
	if err == nil {
		return nil
	}
	return &SharedError{err: err}
}

func (e *SharedError) Error() string { return e.err.Error() }
func (e *SharedError) Unwrap() error { return e.err }
