// Package logic contains the pure alarm-clock state machine and time keeping.
// This package has NO external dependencies (no GPIO, network, display or OS).
// Time is always injected as a 32-bit millisecond tick value.
package logic

import "time"

// Mode is the operating mode of the device.
type Mode string

const (
	ModeNormal Mode = "NORMAL"
	ModeSleep  Mode = "SLEEP"
	ModeAlarm  Mode = "ALARM"
	ModeEdit   Mode = "EDIT"
)

// EventType identifies something worth reporting to the outside world.
type EventType string

const (
	EventModeChanged   EventType = "MODE_CHANGED"
	EventAlarmFired    EventType = "ALARM_FIRED"
	EventAlarmSet      EventType = "ALARM_SET"
	EventTimeSynced    EventType = "TIME_SYNCED"
	EventSyncRequested EventType = "SYNC_REQUESTED"
)

// Event is emitted by Machine.Step.
type Event struct {
	Type EventType
	// Tick is the monotonic tick at which the event happened.
	Tick uint32
	// LocalTime is the extrapolated local time (0 if never synced).
	LocalTime uint32
	From      Mode // MODE_CHANGED only
	To        Mode // MODE_CHANGED only
	Alarm     string
}

// Input is one sample of the physical inputs, taken on a scheduler tick.
type Input struct {
	Now    uint32 // monotonic milliseconds, wraps after ~49.7 days
	Button bool   // function button pressed (level)
	Sleep  bool   // sleep switch asserted
	Analog uint16 // potentiometer reading, only used in Edit mode
}

// ScreenKind selects a display layout.
type ScreenKind int

const (
	ScreenClock ScreenKind = iota
	ScreenAlarmSet
	ScreenWake
)

func (k ScreenKind) String() string {
	switch k {
	case ScreenClock:
		return "clock"
	case ScreenAlarmSet:
		return "alarm-set"
	case ScreenWake:
		return "wake"
	}
	return "unknown"
}

// WakeMessage is shown full screen while the alarm is active.
const WakeMessage = "GO TO BED"

// Screen describes what the display should show. Rendering is someone else's job.
type Screen struct {
	Kind        ScreenKind
	LocalTime   uint32 // ScreenClock only, local civil seconds since the Unix epoch
	AlarmHour   uint8
	AlarmMinute uint8
}

// Output is the set of effects the caller must apply after a Step.
type Output struct {
	// DisplayOn is the desired panel power state.
	DisplayOn bool
	// Screen is nil when nothing needs redrawing.
	Screen *Screen
	// Vibrate is the desired motor output.
	Vibrate bool
	Events  []Event
	// Err is a non-fatal problem worth logging.
	Err error
	// Fatal is set when the device must restart.
	Fatal error
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	Transitions int
	AlarmsFired int
	AlarmsSet   int
	Syncs       int
	Requests    int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}

// TimeSource is the network time collaborator. PollReply must not block.
type TimeSource interface {
	RequestTime(now uint32) error
	PollReply() (uint32, bool)
	LastRequestTick() uint32
}
