// Package irc implements the minimal wire-level IRC message grammar used by
// Twitch chat: tags, an optional prefix, a command and parameters. Typed
// decoding of specific commands (PRIVMSG, JOIN, ...) lives in package
// command; this package only knows how to turn a line of text into a
// structured frame and back.
package irc

import (
	"errors"
	"strings"
)

// ErrEmptyMessage is returned by Parse when given an empty or whitespace-only line.
var ErrEmptyMessage = errors.New("irc: empty message")

// ErrMissingCommand is returned by Parse when a line has a prefix or tags but no command.
var ErrMissingCommand = errors.New("irc: missing command")

// Prefix identifies the origin of a message: either just a server host, or a
// full nick!user@host triplet (the only two shapes IRC prefixes take).
type Prefix struct {
	Nick string
	User string
	Host string
}

// HostOnly reports whether the prefix carries only a server hostname.
func (p Prefix) HostOnly() bool { return p.Nick == "" }

func (p Prefix) String() string {
	if p.HostOnly() {
		return p.Host
	}
	var b strings.Builder
	b.WriteString(p.Nick)
	if p.User != "" {
		b.WriteByte('!')
		b.WriteString(p.User)
	}
	if p.Host != "" {
		b.WriteByte('@')
		b.WriteString(p.Host)
	}
	return b.String()
}

// Message is a single parsed (or to-be-serialized) IRC line.
type Message struct {
	Tags    map[string]string
	Prefix  *Prefix
	Command string
	Params  []string
}

// New builds an outgoing message from a command and its parameters. The last
// parameter is sent as a trailing parameter (prefixed with ':') whenever it
// contains a space or is empty, matching standard IRC client behaviour.
func New(command string, params ...string) Message {
	return Message{Command: command, Params: params}
}

// Parse decodes a single raw IRC line (without the trailing CRLF) into a Message.
func Parse(raw string) (Message, error) {
	line := strings.TrimRight(raw, "\r\n")
	if strings.TrimSpace(line) == "" {
		return Message{}, ErrEmptyMessage
	}

	var msg Message
	rest := line

	if strings.HasPrefix(rest, "@") {
		sp := strings.IndexByte(rest, ' ')
		if sp < 0 {
			return Message{}, ErrMissingCommand
		}
		msg.Tags = parseTags(rest[1:sp])
		rest = strings.TrimLeft(rest[sp+1:], " ")
	}

	if strings.HasPrefix(rest, ":") {
		sp := strings.IndexByte(rest, ' ')
		if sp < 0 {
			return Message{}, ErrMissingCommand
		}
		msg.Prefix = parsePrefix(rest[1:sp])
		rest = strings.TrimLeft(rest[sp+1:], " ")
	}

	if rest == "" {
		return Message{}, ErrMissingCommand
	}

	// Split command + params, honoring a single trailing ':' parameter.
	if idx := strings.Index(rest, " :"); idx >= 0 {
		head := rest[:idx]
		trailing := rest[idx+2:]
		fields := strings.Fields(head)
		if len(fields) == 0 {
			return Message{}, ErrMissingCommand
		}
		msg.Command = strings.ToUpper(fields[0])
		msg.Params = append(fields[1:], trailing)
	} else {
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return Message{}, ErrMissingCommand
		}
		msg.Command = strings.ToUpper(fields[0])
		msg.Params = fields[1:]
	}

	return msg, nil
}

func parseTags(raw string) map[string]string {
	tags := make(map[string]string)
	for _, pair := range strings.Split(raw, ";") {
		if pair == "" {
			continue
		}
		if eq := strings.IndexByte(pair, '='); eq >= 0 {
			tags[unescapeTagValue(pair[:eq])] = unescapeTagValue(pair[eq+1:])
		} else {
			tags[pair] = ""
		}
	}
	return tags
}

var tagUnescaper = strings.NewReplacer(
	`\:`, ";",
	`\s`, " ",
	`\\`, `\`,
	`\r`, "\r",
	`\n`, "\n",
)

func unescapeTagValue(v string) string { return tagUnescaper.Replace(v) }

func parsePrefix(raw string) *Prefix {
	p := &Prefix{}
	host := raw
	if at := strings.IndexByte(raw, '@'); at >= 0 {
		host = raw[at+1:]
		raw = raw[:at]
	} else {
		raw = ""
	}
	if ex := strings.IndexByte(raw, '!'); ex >= 0 {
		p.Nick = raw[:ex]
		p.User = raw[ex+1:]
	} else {
		p.Nick = raw
	}
	if p.Nick == "" {
		p.Host = host
	} else {
		p.Host = host
	}
	return p
}

// Raw serializes the message back into wire form, without a trailing CRLF.
func (m Message) Raw() string {
	var b strings.Builder
	if len(m.Tags) > 0 {
		b.WriteByte('@')
		first := true
		for k, v := range m.Tags {
			if !first {
				b.WriteByte(';')
			}
			first = false
			b.WriteString(k)
			if v != "" {
				b.WriteByte('=')
				b.WriteString(v)
			}
		}
		b.WriteByte(' ')
	}
	if m.Prefix != nil {
		b.WriteByte(':')
		b.WriteString(m.Prefix.String())
		b.WriteByte(' ')
	}
	b.WriteString(m.Command)
	for i, p := range m.Params {
		b.WriteByte(' ')
		last := i == len(m.Params)-1
		if last && (p == "" || strings.ContainsRune(p, ' ') || strings.HasPrefix(p, ":")) {
			b.WriteByte(':')
		}
		b.WriteString(p)
	}
	return b.String()
}
