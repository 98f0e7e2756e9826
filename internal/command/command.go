// Package command decodes raw irc.Message frames into the small set of
// typed Twitch chat commands the connection core reacts to (PING, PONG,
// RECONNECT) plus the commands a chat bot actually cares about receiving
// (PRIVMSG, JOIN, CLEARMSG). Anything else decodes successfully into
// GenericMessage rather than failing, and anything that looks like a known
// command but is missing required fields fails with a ParseError, matching
// ServerMessageParseError in the reference implementation this was ported
// from.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kstaniek/go-twitch-irc/internal/irc"
)

// ParseError describes why a raw frame could not be decoded into its typed command.
type ParseError struct {
	Command string
	Reason  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("command: parsing %s: %v", e.Command, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Reason }

// Reasons a typed decode can fail; wrapped inside ParseError.
var (
	ErrMissingParam      = errors.New("missing parameter")
	ErrMissingTag        = errors.New("missing tag")
	ErrMalformedChannel  = errors.New("malformed channel parameter")
	ErrMissingPrefixNick = errors.New("missing nickname in prefix")
)

// ServerMessage is any typed (or generic-fallback) decoded Twitch chat command.
type ServerMessage interface {
	// Raw returns the original wire frame this command was decoded from.
	Raw() irc.Message
}

// PingMessage is a server-initiated liveness probe; clients must reply with PONG.
type PingMessage struct {
	Argument string
	raw      irc.Message
}

func (m PingMessage) Raw() irc.Message { return m.raw }

// PongMessage is the server's reply to a client-initiated PING.
type PongMessage struct {
	Argument string
	raw      irc.Message
}

func (m PongMessage) Raw() irc.Message { return m.raw }

// ReconnectMessage asks the client to reconnect; the current connection will
// be dropped by Twitch shortly after this is sent.
type ReconnectMessage struct {
	raw irc.Message
}

func (m ReconnectMessage) Raw() irc.Message { return m.raw }

// JoinMessage announces that a user (possibly this client) joined a channel.
type JoinMessage struct {
	Channel   string
	UserLogin string
	raw       irc.Message
}

func (m JoinMessage) Raw() irc.Message { return m.raw }

// PrivmsgMessage is an ordinary chat message sent to a channel.
type PrivmsgMessage struct {
	Channel     string
	SenderLogin string
	Text        string
	Bits        int64 // 0 if not a bits/cheer message
	raw         irc.Message
}

func (m PrivmsgMessage) Raw() irc.Message { return m.raw }

// ClearmsgMessage announces that a single chat message was deleted by a moderator.
type ClearmsgMessage struct {
	Channel     string
	Login       string
	Message     string
	TargetMsgID string
	raw         irc.Message
}

func (m ClearmsgMessage) Raw() irc.Message { return m.raw }

// GenericMessage wraps any frame that parsed fine at the wire level but
// either isn't one of the typed commands above, or failed typed decoding.
type GenericMessage struct {
	raw irc.Message
}

func (m GenericMessage) Raw() irc.Message { return m.raw }

// NewGeneric wraps a raw frame as a GenericMessage, used both for genuinely
// uninteresting commands and as the fallback after a failed typed decode.
func NewGeneric(raw irc.Message) GenericMessage { return GenericMessage{raw: raw} }

// Decode attempts to turn a raw frame into one of the typed commands above.
// An error here is never fatal to the connection: callers should fall back
// to NewGeneric(raw) and keep the connection open.
func Decode(raw irc.Message) (ServerMessage, error) {
	switch raw.Command {
	case "PING":
		return PingMessage{Argument: firstParam(raw), raw: raw}, nil
	case "PONG":
		return PongMessage{Argument: firstParam(raw), raw: raw}, nil
	case "RECONNECT":
		return ReconnectMessage{raw: raw}, nil
	case "JOIN":
		return decodeJoin(raw)
	case "PRIVMSG":
		return decodePrivmsg(raw)
	case "CLEARMSG":
		return decodeClearmsg(raw)
	default:
		return NewGeneric(raw), nil
	}
}

func firstParam(m irc.Message) string {
	if len(m.Params) == 0 {
		return ""
	}
	return m.Params[0]
}

func decodeJoin(raw irc.Message) (ServerMessage, error) {
	channel, err := channelLogin(raw, 0)
	if err != nil {
		return nil, &ParseError{Command: raw.Command, Reason: err}
	}
	login, err := prefixNick(raw)
	if err != nil {
		return nil, &ParseError{Command: raw.Command, Reason: err}
	}
	return JoinMessage{Channel: channel, UserLogin: login, raw: raw}, nil
}

func decodePrivmsg(raw irc.Message) (ServerMessage, error) {
	channel, err := channelLogin(raw, 0)
	if err != nil {
		return nil, &ParseError{Command: raw.Command, Reason: err}
	}
	if len(raw.Params) < 2 {
		return nil, &ParseError{Command: raw.Command, Reason: fmt.Errorf("%w: text", ErrMissingParam)}
	}
	login, err := prefixNick(raw)
	if err != nil {
		return nil, &ParseError{Command: raw.Command, Reason: err}
	}
	var bits int64
	if v, ok := raw.Tags["bits"]; ok && v != "" {
		if n, perr := strconv.ParseInt(v, 10, 64); perr == nil {
			bits = n
		}
	}
	return PrivmsgMessage{
		Channel:     channel,
		SenderLogin: login,
		Text:        raw.Params[1],
		Bits:        bits,
		raw:         raw,
	}, nil
}

func decodeClearmsg(raw irc.Message) (ServerMessage, error) {
	channel, err := channelLogin(raw, 0)
	if err != nil {
		return nil, &ParseError{Command: raw.Command, Reason: err}
	}
	login, ok := raw.Tags["login"]
	if !ok || login == "" {
		return nil, &ParseError{Command: raw.Command, Reason: fmt.Errorf("%w: login", ErrMissingTag)}
	}
	targetMsgID, ok := raw.Tags["target-msg-id"]
	if !ok || targetMsgID == "" {
		return nil, &ParseError{Command: raw.Command, Reason: fmt.Errorf("%w: target-msg-id", ErrMissingTag)}
	}
	var message string
	if len(raw.Params) > 1 {
		message = raw.Params[1]
	}
	return ClearmsgMessage{
		Channel:     channel,
		Login:       login,
		Message:     message,
		TargetMsgID: targetMsgID,
		raw:         raw,
	}, nil
}

func channelLogin(raw irc.Message, index int) (string, error) {
	if len(raw.Params) <= index {
		return "", fmt.Errorf("%w: channel", ErrMissingParam)
	}
	param := raw.Params[index]
	if !strings.HasPrefix(param, "#") || len(param) < 2 {
		return "", ErrMalformedChannel
	}
	return param[1:], nil
}

func prefixNick(raw irc.Message) (string, error) {
	if raw.Prefix == nil || raw.Prefix.Nick == "" {
		return "", ErrMissingPrefixNick
	}
	return raw.Prefix.Nick, nil
}
