//go:build linux

package transport

import (
	"net"

	"golang.org/x/sys/unix"
)

// tuneKeepaliveTimeout bounds how long a connection may sit with unacked
// data in flight before the kernel gives up on it, tighter than relying on
// TCP keepalive probes alone. net.TCPConn has no portable accessor for
// TCP_USER_TIMEOUT, so this drops to a raw syscall.
func tuneKeepaliveTimeout(conn *net.TCPConn) {
	rawConn, err := conn.SyscallConn()
	if err != nil {
		return
	}
	const userTimeoutMillis = 45_000
	_ = rawConn.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_USER_TIMEOUT, userTimeoutMillis)
	})
}
