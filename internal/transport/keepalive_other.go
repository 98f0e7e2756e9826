//go:build !linux

package transport

import "net"

// tuneKeepaliveTimeout is a no-op outside Linux; TCP_USER_TIMEOUT has no
// portable equivalent.
func tuneKeepaliveTimeout(_ *net.TCPConn) {}
