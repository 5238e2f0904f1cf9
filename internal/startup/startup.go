// Package startup brings the device online before the main loop starts:
// wait for a network address, then resolve the time server once.
package startup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/alarm-clock/internal/logic"
	"github.com/sweeney/alarm-clock/internal/ntp"
)

// ErrNoNetwork is returned when no usable network came up in time.
var ErrNoNetwork = fmt.Errorf("%w: network unavailable", logic.ErrRestart)

// Probe reports nil once the network is usable.
type Probe func(ctx context.Context) error

// Wait describes the network wait loop.
type Wait struct {
	Probe    Probe
	Sleep    func(ctx context.Context, d time.Duration) error
	Attempts int
	Interval time.Duration
	// Frame is called once per attempt with the attempt index, for the
	// connect animation. May be nil.
	Frame func(int)
}

// WaitForNetwork polls w.Probe until it succeeds or attempts run out.
func WaitForNetwork(ctx context.Context, log *zap.Logger, w Wait) error {
	if w.Attempts <= 0 {
		w.Attempts = 1
	}
	if w.Sleep == nil {
		w.Sleep = Sleep
	}

	var err error
	for i := 0; i < w.Attempts; i++ {
		if w.Frame != nil {
			w.Frame(i)
		}
		if err = w.Probe(ctx); err == nil {
			log.Info("network up", zap.Int("attempts", i+1))
			return nil
		}
		log.Debug("network not ready", zap.Int("attempt", i+1), zap.Error(err))
		if i == w.Attempts-1 {
			break
		}
		if serr := w.Sleep(ctx, w.Interval); serr != nil {
			return serr
		}
	}
	return fmt.Errorf("%w: after %d attempts: %v", ErrNoNetwork, w.Attempts, err)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var errNoAddress = errors.New("no non-loopback IPv4 address")

// InterfaceProbe succeeds once any up, non-loopback interface carries an
// IPv4 address. If name is set only that interface is considered.
func InterfaceProbe(name string) Probe {
	return func(ctx context.Context) error {
		ifaces, err := net.Interfaces()
		if err != nil {
			return err
		}
		for _, iface := range ifaces {
			if name != "" && iface.Name != name {
				continue
			}
			if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
				continue
			}
			addrs, err := iface.Addrs()
			if err != nil {
				continue
			}
			for _, a := range addrs {
				if ipn, ok := a.(*net.IPNet); ok && ipn.IP.To4() != nil {
					return nil
				}
			}
		}
		return errNoAddress
	}
}

// ResolveServer looks up the time server once and connects c to it.
func ResolveServer(ctx context.Context, log *zap.Logger, c *ntp.Client, host string) error {
	if err := c.Connect(ctx, host, ntp.Port); err != nil {
		log.Error("time server lookup failed", zap.String("host", host), zap.Error(err))
		return err
	}
	return nil
}
