//go:build !unix

package ntp

import (
	"errors"
	"net"
	"os"
	"time"
)

// recvNonBlocking approximates a non-blocking read with a 1ms deadline.
func recvNonBlocking(conn *net.UDPConn, b []byte) (int, error) {
	if err := conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return 0, err
	}
	n, err := conn.Read(b)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return 0, errNoData
	}
	return n, err
}
