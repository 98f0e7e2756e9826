package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/kstaniek/go-twitch-irc/internal/irc"
)

// DefaultAddr is the well-known Twitch IRC-over-TLS endpoint.
const DefaultAddr = "irc.chat.twitch.tv:6697"

// TLSTransport is a real connection to Twitch chat over TLS, framing
// messages on CRLF exactly as the wire protocol requires.
type TLSTransport struct {
	conn   *tls.Conn
	reader *bufio.Reader
}

// Dial opens a TLS connection to addr (DefaultAddr if empty), performing the
// TLS handshake before returning. Honors ctx for the TCP dial and the TLS
// handshake; once established the connection has no per-call deadline (that
// is the core's ping/pong liveness probe's job, not the transport's).
func Dial(ctx context.Context, addr string) (*TLSTransport, error) {
	if addr == "" {
		addr = DefaultAddr
	}
	var d net.Dialer
	rawConn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if tcpConn, ok := rawConn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
		_ = tcpConn.SetKeepAlive(true)
		_ = tcpConn.SetKeepAlivePeriod(30 * time.Second)
		tuneKeepaliveTimeout(tcpConn)
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	tlsConn := tls.Client(rawConn, &tls.Config{ServerName: host})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = rawConn.Close()
		return nil, fmt.Errorf("tls handshake %s: %w", addr, err)
	}

	return &TLSTransport{conn: tlsConn, reader: bufio.NewReader(tlsConn)}, nil
}

// Split consumes the transport; the two halves share the underlying
// *tls.Conn but read and write are independently safe to call concurrently.
func (t *TLSTransport) Split() (Incoming, Outgoing) {
	return &tlsIncoming{conn: t.conn, reader: t.reader}, &tlsOutgoing{conn: t.conn}
}

type tlsIncoming struct {
	conn   *tls.Conn
	reader *bufio.Reader
}

func (in *tlsIncoming) Next(ctx context.Context) (irc.Message, error, bool) {
	if dl, ok := ctx.Deadline(); ok {
		_ = in.conn.SetReadDeadline(dl)
	} else {
		_ = in.conn.SetReadDeadline(time.Time{})
	}
	line, err := in.reader.ReadString('\n')
	if err != nil {
		if line == "" {
			if isEOF(err) {
				return irc.Message{}, nil, true
			}
			return irc.Message{}, NewTransportError(err), false
		}
		// fall through: try to parse whatever was read before the error surfaced.
	}
	msg, perr := irc.Parse(line)
	if perr != nil {
		return irc.Message{}, NewParseError(perr), false
	}
	return msg, nil, false
}

type tlsOutgoing struct {
	conn *tls.Conn
}

func (out *tlsOutgoing) Send(_ context.Context, m irc.Message) error {
	_, err := out.conn.Write([]byte(m.Raw() + "\r\n"))
	if err != nil {
		return fmt.Errorf("transport write: %w", err)
	}
	return nil
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
