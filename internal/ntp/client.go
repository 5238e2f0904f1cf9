package ntp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/sweeney/alarm-clock/internal/logic"
	"go.uber.org/zap"
)

// ErrNotResolved is returned when the time server address is unknown.
// The device cannot recover from it without a restart.
var ErrNotResolved = fmt.Errorf("%w: time server address not resolved", logic.ErrRestart)

var errNoData = errors.New("no data")

var _ logic.TimeSource = (*Client)(nil)

// Client sends SNTP requests and polls for replies without blocking.
// Only one request is ever in flight; replies are not correlated.
type Client struct {
	log             *zap.Logger
	conn            *net.UDPConn
	server          *net.UDPAddr
	lastRequestTick uint32
	buf             [2 * PacketLen]byte
}

// NewClient returns a client with no server. Call Connect before use.
func NewClient(log *zap.Logger) *Client {
	return &Client{log: log}
}

// Resolve looks up host once. Failure wraps ErrNotResolved.
func Resolve(ctx context.Context, host string, port int) (*net.UDPAddr, error) {
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup %s: %v", ErrNotResolved, host, err)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("%w: lookup %s: no addresses", ErrNotResolved, host)
	}
	return &net.UDPAddr{IP: ips[0], Port: port}, nil
}

// Connect resolves host and opens a UDP socket bound to the server address.
func (c *Client) Connect(ctx context.Context, host string, port int) error {
	addr, err := Resolve(ctx, host, port)
	if err != nil {
		return err
	}
	return c.ConnectAddr(addr)
}

// ConnectAddr opens a UDP socket to an already resolved server address.
// The kernel drops datagrams from any other source.
func (c *Client) ConnectAddr(addr *net.UDPAddr) error {
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = conn
	c.server = addr
	c.log.Info("time server resolved", zap.Stringer("server", addr),
		zap.String("local", conn.LocalAddr().String()))
	return nil
}

// Server returns the resolved server address, or "" before Connect.
func (c *Client) Server() string {
	if c.server == nil {
		return ""
	}
	return net.JoinHostPort(c.server.IP.String(), strconv.Itoa(c.server.Port))
}

// RequestTime sends one request and records now as the request tick.
func (c *Client) RequestTime(now uint32) error {
	if c.conn == nil {
		return ErrNotResolved
	}
	c.lastRequestTick = now

	req := NewRequest()
	if _, err := c.conn.Write(req[:]); err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	c.log.Debug("sent time request", zap.Uint32("tick", now), zap.Stringer("server", c.server))
	return nil
}

// LastRequestTick returns the tick of the most recent request.
func (c *Client) LastRequestTick() uint32 {
	return c.lastRequestTick
}

// PollReply returns the Unix time of one queued reply, if any. It never blocks.
// Short replies and replies with a zero transmit timestamp count as no data.
func (c *Client) PollReply() (uint32, bool) {
	if c.conn == nil {
		return 0, false
	}

	n, err := recvNonBlocking(c.conn, c.buf[:])
	if err != nil {
		if !errors.Is(err, errNoData) {
			c.log.Debug("time reply receive failed", zap.Error(err))
		}
		return 0, false
	}

	pkt, err := ParsePacket(c.buf[:n])
	if err != nil {
		c.log.Warn("discarding time reply", zap.Int("len", n), zap.Error(err))
		return 0, false
	}
	if pkt.TransmitSeconds() == 0 {
		c.log.Warn("discarding time reply with zero transmit timestamp")
		return 0, false
	}

	unix := pkt.UnixSeconds()
	c.log.Debug("received time reply", zap.Uint32("unix", unix))
	return unix, true
}

// Close releases the socket.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
