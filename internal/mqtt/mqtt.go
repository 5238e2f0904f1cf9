// Package mqtt publishes clock and lifecycle events to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/alarm-clock/internal/logic"
)

// Topic carries machine events.
const Topic = "home/alarm-clock/events"

// TopicSystem carries lifecycle events.
const TopicSystem = "home/alarm-clock/system"

// Lifecycle event names.
const (
	EventStartup     = "STARTUP"
	EventShutdown    = "SHUTDOWN"
	EventHeartbeat   = "HEARTBEAT"
	EventRestart     = "RESTART"
	EventReconnected = "RECONNECTED"
)

// localLayout formats local civil time, which carries no zone.
const localLayout = "2006-01-02T15:04:05"

// Publisher publishes events. Errors are reported but must never stop the device.
type Publisher interface {
	Publish(event logic.Event) error
	PublishSystem(event SystemEvent) error
	Close() error
}

// ConnectionStatus reports whether the broker connection is up.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a lifecycle event.
type SystemEvent struct {
	Timestamp time.Time
	Event     string
	Reason    string
	// RawPayload, if set, is published as is (full status snapshots).
	RawPayload []byte
	Retained   bool
}

// Payload is the JSON envelope for machine events.
type Payload struct {
	Clock ClockPayload `json:"clock"`
}

// ClockPayload describes one machine event.
type ClockPayload struct {
	Event     string `json:"event"`
	Tick      uint32 `json:"tick"`
	LocalTime string `json:"local_time,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Alarm     string `json:"alarm,omitempty"`
}

// FormatPayload encodes a machine event. LocalTime is omitted until the
// clock has been synced.
func FormatPayload(event logic.Event) ([]byte, error) {
	p := ClockPayload{
		Event: string(event.Type),
		Tick:  event.Tick,
		From:  string(event.From),
		To:    string(event.To),
		Alarm: event.Alarm,
	}
	if event.LocalTime != 0 {
		p.LocalTime = time.Unix(int64(event.LocalTime), 0).UTC().Format(localLayout)
	}
	return json.Marshal(Payload{Clock: p})
}

// SystemPayload is the JSON envelope for simple lifecycle events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner holds the lifecycle event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload encodes a lifecycle event, or returns RawPayload if set.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}
