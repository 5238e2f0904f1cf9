package main

import (
	"fmt"
	"io"
	"time"

	beevik "github.com/beevik/ntp"

	"github.com/sweeney/alarm-clock/internal/analog"
	"github.com/sweeney/alarm-clock/internal/config"
	"github.com/sweeney/alarm-clock/internal/gpio"
	"github.com/sweeney/alarm-clock/internal/logic"
)

// printTime queries the time server once and prints UTC, local time under
// the configured rule pair, and the offset of the system clock.
func printTime(w io.Writer, cfg config.Config) error {
	resp, err := beevik.QueryWithOptions(cfg.TimeServer, beevik.QueryOptions{Timeout: 5 * time.Second})
	if err != nil {
		return fmt.Errorf("query %s: %w", cfg.TimeServer, err)
	}
	if err := resp.Validate(); err != nil {
		return fmt.Errorf("invalid reply from %s: %w", cfg.TimeServer, err)
	}
	return writeTime(w, cfg.Machine().Zone, resp.Time, resp.ClockOffset, resp.RTT, resp.Stratum)
}

func writeTime(w io.Writer, zone logic.Zone, t time.Time, offset, rtt time.Duration, stratum uint8) error {
	utc := uint32(t.Unix())
	local := time.Unix(int64(zone.ToLocal(utc)), 0).UTC()
	name := zone.STD.Name
	if zone.IsDST(utc) {
		name = zone.DST.Name
	}
	if name == "" {
		name = "UTC"
	}
	_, err := fmt.Fprintf(w, "UTC:     %s\nLocal:   %s %s\nOffset:  %v\nRTT:     %v\nStratum: %d\n",
		t.UTC().Format(time.RFC3339), local.Format("2006-01-02 15:04:05"), name, offset, rtt, stratum)
	return err
}

// printState prints one sample of every input.
func printState(w io.Writer, r gpio.Reader, dial analog.Reader) error {
	in, err := r.Read()
	if err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}
	v, err := dial.Read()
	if err != nil {
		return fmt.Errorf("read dial: %w", err)
	}
	_, err = fmt.Fprintf(w, "Button: %s, Sleep: %s, Dial: %d\n", onOff(in.Button), onOff(in.Sleep), v)
	return err
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
