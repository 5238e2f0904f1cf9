//go:build unix

package ntp

import (
	"errors"
	"net"

	"golang.org/x/sys/unix"
)

// recvNonBlocking reads one queued datagram with MSG_DONTWAIT.
func recvNonBlocking(conn *net.UDPConn, b []byte) (int, error) {
	rc, err := conn.SyscallConn()
	if err != nil {
		return 0, err
	}

	var n int
	var rerr error
	err = rc.Read(func(fd uintptr) bool {
		n, _, rerr = unix.Recvfrom(int(fd), b, unix.MSG_DONTWAIT)
		// Done either way; never park on the poller.
		return true
	})
	if err != nil {
		return 0, err
	}
	if errors.Is(rerr, unix.EAGAIN) || errors.Is(rerr, unix.EWOULDBLOCK) {
		return 0, errNoData
	}
	if rerr != nil {
		return 0, rerr
	}
	return n, nil
}
