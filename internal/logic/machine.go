package logic

import (
	"errors"
	"fmt"
	"time"
)

// ErrRestart marks errors that can only be recovered from by restarting the device.
var ErrRestart = errors.New("restart required")

// ErrSyncStale is returned when no time sync succeeded for longer than Config.StaleLimit.
var ErrSyncStale = fmt.Errorf("%w: no successful time sync within the stale limit", ErrRestart)

const secondsPerDay = 86400

// Config holds the timing parameters of the machine. All durations are milliseconds.
type Config struct {
	TickPeriod     uint32
	ResyncInterval uint32
	// UnsyncedRetry is the request spacing used until the first reply arrives.
	UnsyncedRetry uint32
	StaleLimit    uint32
	Zone          Zone
}

// DefaultConfig returns the reference timing: 500 ms ticks, resync every
// five minutes, restart after an hour without a sync.
func DefaultConfig() Config {
	return Config{
		TickPeriod:     500,
		ResyncInterval: 300_000,
		UnsyncedRetry:  10_000,
		StaleLimit:     3_600_000,
		Zone:           USEastern,
	}
}

// Machine is the device controller. It owns all device state and must only
// be driven from a single goroutine.
type Machine struct {
	cfg   Config
	src   TimeSource
	clock LocalClock
	alarm *AlarmSetting

	mode              Mode
	vibrateOn         bool
	ticked            bool
	lastTickProcessed uint32
	lastDisplayedTime uint32

	requested bool
	fatal     bool
	// firedMinute is the local minute (plus one, so zero means none) the alarm last fired in.
	firedMinute uint32
	editFrom    uint16

	counts        EventCounts
	startTime     time.Time
	lastHeartbeat time.Time
}

// NewMachine creates a machine in Normal mode. alarm should already hold the
// initial analog reading.
func NewMachine(cfg Config, src TimeSource, alarm *AlarmSetting, startTime time.Time) *Machine {
	return &Machine{
		cfg:           cfg,
		src:           src,
		alarm:         alarm,
		mode:          ModeNormal,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Due reports whether a scheduler tick should be processed at now.
func (m *Machine) Due(now uint32) bool {
	if !m.ticked {
		return true
	}
	return now-m.lastTickProcessed >= m.cfg.TickPeriod
}

// Step processes one scheduler tick and returns the effects to apply.
func (m *Machine) Step(in Input) Output {
	m.ticked = true
	m.lastTickProcessed = in.Now

	var out Output
	if next := m.transition(in); next != m.mode {
		m.enter(next, in.Now, &out)
	}

	switch m.mode {
	case ModeNormal:
		m.stepNormal(in, &out)
	case ModeSleep:
		m.vibrateOn = false
	case ModeAlarm:
		m.vibrateOn = !m.vibrateOn
		out.Screen = &Screen{Kind: ScreenWake}
	case ModeEdit:
		m.alarm.ReadFromAnalog(in.Analog)
		out.Screen = &Screen{
			Kind:        ScreenAlarmSet,
			AlarmHour:   m.alarm.Hour(),
			AlarmMinute: m.alarm.Minute(),
		}
	}

	out.Vibrate = m.vibrateOn
	out.DisplayOn = m.mode != ModeSleep
	return out
}

// transition applies the transition table; the first matching rule wins.
func (m *Machine) transition(in Input) Mode {
	switch {
	case in.Sleep:
		return ModeSleep
	case m.mode == ModeSleep:
		return ModeNormal
	case in.Button && m.mode == ModeAlarm:
		return ModeNormal
	case in.Button && m.mode == ModeNormal:
		return ModeEdit
	case in.Button && m.mode == ModeEdit:
		return ModeNormal
	}
	return m.mode
}

func (m *Machine) enter(next Mode, now uint32, out *Output) {
	prev := m.mode
	m.mode = next
	m.counts.Transitions++

	if next != ModeAlarm {
		m.vibrateOn = false
	}
	if next == ModeNormal {
		m.lastDisplayedTime = 0
	}
	if next == ModeEdit {
		m.editFrom = m.alarm.Quantized()
	}

	local := m.clock.Extrapolate(now)
	out.Events = append(out.Events, Event{
		Type:      EventModeChanged,
		Tick:      now,
		LocalTime: local,
		From:      prev,
		To:        next,
		Alarm:     m.alarm.String(),
	})

	if prev == ModeEdit && m.alarm.Quantized() != m.editFrom {
		m.counts.AlarmsSet++
		out.Events = append(out.Events, Event{
			Type:      EventAlarmSet,
			Tick:      now,
			LocalTime: local,
			Alarm:     m.alarm.String(),
		})
	}
}

// stepNormal runs the time-update protocol and the alarm check.
func (m *Machine) stepNormal(in Input, out *Output) {
	interval := m.cfg.ResyncInterval
	if !m.clock.Synced() {
		interval = m.cfg.UnsyncedRetry
	}
	if !m.requested || in.Now-m.src.LastRequestTick() > interval {
		m.requested = true
		if err := m.src.RequestTime(in.Now); err != nil {
			if errors.Is(err, ErrRestart) {
				m.fail(err, out)
				return
			}
			out.Err = fmt.Errorf("request time: %w", err)
		} else {
			m.counts.Requests++
			out.Events = append(out.Events, Event{
				Type:      EventSyncRequested,
				Tick:      in.Now,
				LocalTime: m.clock.Extrapolate(in.Now),
			})
		}
	}

	if utc, ok := m.src.PollReply(); ok {
		m.clock.OnSyncSuccess(m.cfg.Zone.ToLocal(utc), in.Now)
		m.counts.Syncs++
		out.Events = append(out.Events, Event{
			Type:      EventTimeSynced,
			Tick:      in.Now,
			LocalTime: m.clock.Extrapolate(in.Now),
		})
	} else if m.clock.Staleness(in.Now) > m.cfg.StaleLimit {
		m.fail(ErrSyncStale, out)
		return
	}

	t := m.clock.Extrapolate(in.Now)
	if t == 0 {
		return
	}

	if t != m.lastDisplayedTime {
		out.Screen = &Screen{
			Kind:        ScreenClock,
			LocalTime:   t,
			AlarmHour:   m.alarm.Hour(),
			AlarmMinute: m.alarm.Minute(),
		}
		m.lastDisplayedTime = t
	}

	minute := t/60 + 1
	if t%secondsPerDay == m.alarm.SecondOfDay() && m.firedMinute != minute {
		m.firedMinute = minute
		m.counts.AlarmsFired++
		out.Events = append(out.Events, Event{
			Type:      EventAlarmFired,
			Tick:      in.Now,
			LocalTime: t,
			Alarm:     m.alarm.String(),
		})
		m.enter(ModeAlarm, in.Now, out)
	}
}

// fail reports a restart condition once; later ticks stay quiet.
func (m *Machine) fail(err error, out *Output) {
	if m.fatal {
		return
	}
	m.fatal = true
	out.Fatal = err
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed or
// is <= 0 (disabled).
func (m *Machine) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.counts,
	}
}

// State is a point-in-time view of the machine for status consumers.
type State struct {
	Mode        Mode
	Vibrate     bool
	Alarm       string
	AlarmHour   uint8
	AlarmMinute uint8
	Synced      bool
	LocalTime   uint32
	Staleness   uint32
	Counts      EventCounts
}

// State returns a snapshot of the machine as seen at tick now.
func (m *Machine) State(now uint32) State {
	return State{
		Mode:        m.mode,
		Vibrate:     m.vibrateOn,
		Alarm:       m.alarm.String(),
		AlarmHour:   m.alarm.Hour(),
		AlarmMinute: m.alarm.Minute(),
		Synced:      m.clock.Synced(),
		LocalTime:   m.clock.Extrapolate(now),
		Staleness:   m.clock.Staleness(now),
		Counts:      m.counts,
	}
}

// Mode returns the current operating mode.
func (m *Machine) Mode() Mode { return m.mode }

// Vibrating returns the current motor state.
func (m *Machine) Vibrating() bool { return m.vibrateOn }

// Alarm returns the alarm setting owned by the machine.
func (m *Machine) Alarm() *AlarmSetting { return m.alarm }

// Counts returns event counts since startup.
func (m *Machine) Counts() EventCounts { return m.counts }
