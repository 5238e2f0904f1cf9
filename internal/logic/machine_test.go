package logic

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// fakeSource is a scripted TimeSource. Replies are handed out one per poll.
type fakeSource struct {
	replies  []uint32
	requests []uint32
	last     uint32
	err      error
}

func (f *fakeSource) RequestTime(now uint32) error {
	f.last = now
	if f.err != nil {
		return f.err
	}
	f.requests = append(f.requests, now)
	return nil
}

func (f *fakeSource) PollReply() (uint32, bool) {
	if len(f.replies) == 0 {
		return 0, false
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, true
}

func (f *fakeSource) LastRequestTick() uint32 { return f.last }

var startTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// testConfig uses a zone without offsets so local time equals UTC.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Zone = Zone{}
	return cfg
}

// newTestMachine returns a machine with the alarm set to 07:00.
func newTestMachine(src *fakeSource) *Machine {
	alarm := NewAlarmSetting(2, 1000, 24)
	alarm.ReadFromAnalog(315)
	return NewMachine(testConfig(), src, alarm, startTime)
}

func hasEvent(events []Event, typ EventType) bool {
	for _, e := range events {
		if e.Type == typ {
			return true
		}
	}
	return false
}

func TestInitialState(t *testing.T) {
	m := newTestMachine(&fakeSource{})
	if m.Mode() != ModeNormal {
		t.Errorf("expected initial mode NORMAL, got %s", m.Mode())
	}
	if m.Vibrating() {
		t.Error("motor should be off initially")
	}
	if !m.Due(0) {
		t.Error("first tick should always be due")
	}
}

func TestDueGate(t *testing.T) {
	m := newTestMachine(&fakeSource{})
	m.Step(Input{Now: 1000})

	if m.Due(1499) {
		t.Error("tick should not be due after 499ms")
	}
	if !m.Due(1500) {
		t.Error("tick should be due after 500ms")
	}
}

func TestDueGateWraparound(t *testing.T) {
	m := newTestMachine(&fakeSource{})
	m.Step(Input{Now: 0xFFFFFF00})

	if m.Due(0x00000010) {
		t.Error("tick should not be due 272ms later across the wrap")
	}
	if !m.Due(0x00000200) {
		t.Error("tick should be due 768ms later across the wrap")
	}
}

func TestFirstTickRequestsTime(t *testing.T) {
	src := &fakeSource{}
	m := newTestMachine(src)

	out := m.Step(Input{Now: 0})
	if len(src.requests) != 1 {
		t.Fatalf("expected one request on first tick, got %d", len(src.requests))
	}
	if !hasEvent(out.Events, EventSyncRequested) {
		t.Error("expected SYNC_REQUESTED event")
	}
	if out.Screen != nil {
		t.Error("nothing should be drawn before the first sync")
	}
	if !out.DisplayOn {
		t.Error("display should be on in NORMAL")
	}
}

func TestUnsyncedRetryThenResyncInterval(t *testing.T) {
	src := &fakeSource{}
	m := newTestMachine(src)

	for now := uint32(0); now <= 30_000; now += 500 {
		m.Step(Input{Now: now})
	}
	// Requests at 0, then every >10s: 10500, 21000.
	if len(src.requests) != 3 {
		t.Fatalf("expected 3 unsynced requests, got %v", src.requests)
	}

	src.replies = []uint32{1_000_000}
	m.Step(Input{Now: 30_500})
	n := len(src.requests)
	for now := uint32(31_000); now <= 300_000; now += 500 {
		m.Step(Input{Now: now})
	}
	if len(src.requests) != n {
		t.Errorf("no requests expected within the resync interval, got %d more", len(src.requests)-n)
	}
	m.Step(Input{Now: 321_500})
	if len(src.requests) != n+1 {
		t.Errorf("expected a resync request after 300s, got %d more", len(src.requests)-n)
	}
}

func TestSyncAndRender(t *testing.T) {
	src := &fakeSource{replies: []uint32{unixUTC(2026, time.January, 1, 6, 0, 0)}}
	m := newTestMachine(src)

	out := m.Step(Input{Now: 0})
	if !hasEvent(out.Events, EventTimeSynced) {
		t.Fatal("expected TIME_SYNCED event")
	}
	if out.Screen == nil || out.Screen.Kind != ScreenClock {
		t.Fatalf("expected clock screen, got %+v", out.Screen)
	}
	if out.Screen.AlarmHour != 7 || out.Screen.AlarmMinute != 0 {
		t.Errorf("expected alarm preview 07:00, got %02d:%02d", out.Screen.AlarmHour, out.Screen.AlarmMinute)
	}

	// Same second: no redraw.
	out = m.Step(Input{Now: 500})
	if out.Screen != nil {
		t.Error("expected no redraw within the same second")
	}

	// Next second: redraw.
	out = m.Step(Input{Now: 1000})
	if out.Screen == nil || out.Screen.LocalTime != unixUTC(2026, time.January, 1, 6, 0, 1) {
		t.Errorf("expected redraw at 06:00:01, got %+v", out.Screen)
	}
}

func TestZoneAppliedOnSync(t *testing.T) {
	src := &fakeSource{replies: []uint32{unixUTC(2026, time.January, 1, 12, 0, 0)}}
	alarm := NewAlarmSetting(2, 1000, 24)
	cfg := DefaultConfig()
	m := NewMachine(cfg, src, alarm, startTime)

	out := m.Step(Input{Now: 0})
	if out.Screen == nil || out.Screen.LocalTime != unixUTC(2026, time.January, 1, 7, 0, 0) {
		t.Errorf("expected local 07:00 EST, got %+v", out.Screen)
	}
}

// syncedBeforeAlarm returns a machine synced to 06:59:58 local with the alarm at 07:00.
func syncedBeforeAlarm(t *testing.T) (*Machine, *fakeSource) {
	t.Helper()
	src := &fakeSource{replies: []uint32{unixUTC(2026, time.January, 1, 6, 59, 58)}}
	m := newTestMachine(src)
	m.Step(Input{Now: 0})
	if m.Mode() != ModeNormal {
		t.Fatalf("expected NORMAL after sync, got %s", m.Mode())
	}
	return m, src
}

// syncedAt returns a machine synced to local time utc with the alarm at 07:00.
func syncedAt(t *testing.T, utc uint32) *Machine {
	t.Helper()
	m := newTestMachine(&fakeSource{replies: []uint32{utc}})
	m.Step(Input{Now: 0})
	return m
}

func TestAlarmFiresAtExactMinute(t *testing.T) {
	m, _ := syncedBeforeAlarm(t)

	for _, now := range []uint32{500, 1000, 1500} {
		out := m.Step(Input{Now: now})
		if m.Mode() != ModeNormal || hasEvent(out.Events, EventAlarmFired) {
			t.Fatalf("tick %d: alarm fired early", now)
		}
	}

	out := m.Step(Input{Now: 2000})
	if m.Mode() != ModeAlarm {
		t.Fatalf("expected ALARM at 07:00:00, got %s", m.Mode())
	}
	if !hasEvent(out.Events, EventAlarmFired) || !hasEvent(out.Events, EventModeChanged) {
		t.Errorf("expected ALARM_FIRED and MODE_CHANGED, got %+v", out.Events)
	}
	if m.Counts().AlarmsFired != 1 {
		t.Errorf("expected 1 alarm fired, got %d", m.Counts().AlarmsFired)
	}
}

func TestAlarmBuzzAndDismiss(t *testing.T) {
	m, _ := syncedBeforeAlarm(t)
	m.Step(Input{Now: 500})
	m.Step(Input{Now: 1000})
	m.Step(Input{Now: 1500})
	m.Step(Input{Now: 2000})

	// The motor toggles every tick while in ALARM.
	want := true
	for now := uint32(2500); now <= 4000; now += 500 {
		out := m.Step(Input{Now: now})
		if out.Vibrate != want {
			t.Fatalf("tick %d: vibrate %v, want %v", now, out.Vibrate, want)
		}
		if out.Screen == nil || out.Screen.Kind != ScreenWake {
			t.Fatalf("tick %d: expected wake screen", now)
		}
		want = !want
	}

	out := m.Step(Input{Now: 4500, Button: true})
	if m.Mode() != ModeNormal {
		t.Fatalf("expected NORMAL after dismiss, got %s", m.Mode())
	}
	if out.Vibrate || m.Vibrating() {
		t.Error("motor must be off after dismiss")
	}
	if out.Screen == nil || out.Screen.Kind != ScreenClock {
		t.Error("expected the clock face to be redrawn after dismiss")
	}
}

func TestDismissWithinAlarmSecondDoesNotRefire(t *testing.T) {
	m, _ := syncedBeforeAlarm(t)
	m.Step(Input{Now: 500})
	m.Step(Input{Now: 1000})
	m.Step(Input{Now: 1500})
	m.Step(Input{Now: 2000}) // fires at 07:00:00

	out := m.Step(Input{Now: 2500, Button: true}) // still 07:00:00
	if m.Mode() != ModeNormal {
		t.Fatalf("expected NORMAL, got %s", m.Mode())
	}
	if hasEvent(out.Events, EventAlarmFired) {
		t.Error("alarm must not refire in the same minute")
	}
	for now := uint32(3000); now < 60_000; now += 500 {
		m.Step(Input{Now: now})
		if m.Mode() != ModeNormal {
			t.Fatalf("tick %d: unexpected mode %s", now, m.Mode())
		}
	}
}

func TestAlarmFiresAgainNextDay(t *testing.T) {
	m, src := syncedBeforeAlarm(t)
	m.Step(Input{Now: 2000})
	m.Step(Input{Now: 2500, Button: true})

	// Resync to one day later, two seconds before the alarm.
	src.replies = []uint32{unixUTC(2026, time.January, 2, 6, 59, 58)}
	m.Step(Input{Now: 3000})
	m.Step(Input{Now: 5000})
	if m.Mode() != ModeAlarm {
		t.Errorf("expected the alarm to fire again the next day, got %s", m.Mode())
	}
}

func TestEditMode(t *testing.T) {
	m, _ := syncedBeforeAlarm(t)

	out := m.Step(Input{Now: 500, Button: true, Analog: 336})
	if m.Mode() != ModeEdit {
		t.Fatalf("expected EDIT, got %s", m.Mode())
	}
	if out.Screen == nil || out.Screen.Kind != ScreenAlarmSet {
		t.Fatalf("expected alarm-set screen, got %+v", out.Screen)
	}
	if out.Screen.AlarmHour != 7 || out.Screen.AlarmMinute != 30 {
		t.Errorf("expected 07:30, got %02d:%02d", out.Screen.AlarmHour, out.Screen.AlarmMinute)
	}

	// The potentiometer is re-sampled every tick.
	out = m.Step(Input{Now: 1000, Analog: 987})
	if out.Screen.AlarmHour != 23 || out.Screen.AlarmMinute != 0 {
		t.Errorf("expected 23:00, got %02d:%02d", out.Screen.AlarmHour, out.Screen.AlarmMinute)
	}

	out = m.Step(Input{Now: 1500, Button: true, Analog: 0})
	if m.Mode() != ModeNormal {
		t.Fatalf("expected NORMAL, got %s", m.Mode())
	}
	if !hasEvent(out.Events, EventAlarmSet) {
		t.Error("expected ALARM_SET when leaving EDIT with a new time")
	}
	if m.Alarm().String() != "23:00" {
		t.Errorf("analog input must be ignored outside EDIT, alarm is %s", m.Alarm())
	}
}

func TestEditWithoutChangeEmitsNoAlarmSet(t *testing.T) {
	m, _ := syncedBeforeAlarm(t)
	m.Step(Input{Now: 500, Button: true, Analog: 315})
	out := m.Step(Input{Now: 1000, Button: true, Analog: 315})
	if hasEvent(out.Events, EventAlarmSet) {
		t.Error("unexpected ALARM_SET for an unchanged alarm")
	}
}

func TestButtonIsLevelTriggered(t *testing.T) {
	m, _ := syncedBeforeAlarm(t)

	want := []Mode{ModeEdit, ModeNormal, ModeEdit, ModeNormal}
	for i, mode := range want {
		m.Step(Input{Now: uint32(500 * (i + 1)), Button: true, Analog: 900})
		if m.Mode() != mode {
			t.Fatalf("tick %d: expected %s, got %s", i, mode, m.Mode())
		}
	}
}

func TestSleepFromAnyMode(t *testing.T) {
	setups := map[Mode]func(t *testing.T) (*Machine, uint32){
		ModeNormal: func(t *testing.T) (*Machine, uint32) {
			return syncedAt(t, unixUTC(2026, time.January, 1, 12, 0, 0)), 500
		},
		ModeEdit: func(t *testing.T) (*Machine, uint32) {
			m := syncedAt(t, unixUTC(2026, time.January, 1, 12, 0, 0))
			m.Step(Input{Now: 500, Button: true, Analog: 315})
			return m, 1000
		},
		ModeAlarm: func(t *testing.T) (*Machine, uint32) {
			m, _ := syncedBeforeAlarm(t)
			m.Step(Input{Now: 2000})
			m.Step(Input{Now: 2500})
			return m, 3000
		},
	}

	for from, setup := range setups {
		t.Run(string(from), func(t *testing.T) {
			m, now := setup(t)
			if m.Mode() != from {
				t.Fatalf("setup: expected %s, got %s", from, m.Mode())
			}

			out := m.Step(Input{Now: now, Sleep: true, Button: true})
			if m.Mode() != ModeSleep {
				t.Fatalf("expected SLEEP, got %s", m.Mode())
			}
			if out.DisplayOn || out.Vibrate || out.Screen != nil {
				t.Errorf("SLEEP must power the display and motor off, got %+v", out)
			}

			// Staying asleep.
			out = m.Step(Input{Now: now + 500, Sleep: true})
			if m.Mode() != ModeSleep || out.DisplayOn {
				t.Error("expected to stay in SLEEP with the display off")
			}

			out = m.Step(Input{Now: now + 1000, Button: true})
			if m.Mode() != ModeNormal {
				t.Fatalf("expected NORMAL after release, got %s", m.Mode())
			}
			if !out.DisplayOn {
				t.Error("display should be back on")
			}
		})
	}
}

func TestStaleRestartExactlyOnce(t *testing.T) {
	src := &fakeSource{}
	m := newTestMachine(src)

	fatals := 0
	var firstFatal uint32
	for now := uint32(0); now <= 3_601_000; now += 500 {
		out := m.Step(Input{Now: now})
		if out.Fatal != nil {
			if !errors.Is(out.Fatal, ErrSyncStale) {
				t.Fatalf("unexpected fatal error: %v", out.Fatal)
			}
			if fatals == 0 {
				firstFatal = now
			}
			fatals++
		}
	}

	if fatals != 1 {
		t.Fatalf("expected restart to be signalled once, got %d", fatals)
	}
	if firstFatal != 3_600_500 {
		t.Errorf("expected restart at 3600500ms, got %d", firstFatal)
	}
}

func TestNoRestartWhileSyncing(t *testing.T) {
	src := &fakeSource{}
	m := newTestMachine(src)

	for now := uint32(0); now <= 7_200_000; now += 500 {
		if now%1_800_000 == 0 {
			src.replies = append(src.replies, 1_000_000+now/1000)
		}
		if out := m.Step(Input{Now: now}); out.Fatal != nil {
			t.Fatalf("tick %d: unexpected restart: %v", now, out.Fatal)
		}
	}
}

func TestUnresolvedSourceIsFatal(t *testing.T) {
	src := &fakeSource{err: fmt.Errorf("%w: no address", ErrRestart)}
	m := newTestMachine(src)

	out := m.Step(Input{Now: 0})
	if !errors.Is(out.Fatal, ErrRestart) {
		t.Fatalf("expected restart error, got %v", out.Fatal)
	}
}

func TestTransientRequestErrorIsNotFatal(t *testing.T) {
	src := &fakeSource{err: errors.New("network unreachable")}
	m := newTestMachine(src)

	out := m.Step(Input{Now: 0})
	if out.Fatal != nil {
		t.Fatalf("unexpected fatal: %v", out.Fatal)
	}
	if out.Err == nil {
		t.Error("expected the send error to be reported")
	}
}

func TestIdempotentTicks(t *testing.T) {
	src := &fakeSource{replies: []uint32{unixUTC(2026, time.January, 1, 12, 0, 0)}}
	m := newTestMachine(src)
	m.Step(Input{Now: 0, Analog: 900})

	hour, minute := m.Alarm().Hour(), m.Alarm().Minute()
	for now := uint32(500); now <= 120_000; now += 500 {
		out := m.Step(Input{Now: now, Analog: 900})
		if m.Mode() != ModeNormal {
			t.Fatalf("tick %d: mode changed to %s", now, m.Mode())
		}
		if hasEvent(out.Events, EventAlarmFired) || hasEvent(out.Events, EventModeChanged) {
			t.Fatalf("tick %d: spurious event %+v", now, out.Events)
		}
		if m.Alarm().Hour() != hour || m.Alarm().Minute() != minute {
			t.Fatalf("tick %d: alarm changed outside EDIT", now)
		}
	}
}

func TestState(t *testing.T) {
	m, _ := syncedBeforeAlarm(t)
	s := m.State(1000)

	if s.Mode != ModeNormal || !s.Synced {
		t.Errorf("unexpected state: %+v", s)
	}
	if s.Alarm != "07:00" {
		t.Errorf("expected alarm 07:00, got %s", s.Alarm)
	}
	if s.LocalTime != unixUTC(2026, time.January, 1, 6, 59, 59) {
		t.Errorf("unexpected local time %d", s.LocalTime)
	}
	if s.Staleness != 1000 {
		t.Errorf("expected staleness 1000, got %d", s.Staleness)
	}
}

// Heartbeat tests

func TestCheckHeartbeatDisabledWithZeroInterval(t *testing.T) {
	m := newTestMachine(&fakeSource{})
	if hb := m.CheckHeartbeat(startTime.Add(time.Hour), 0); hb != nil {
		t.Error("expected nil heartbeat with zero interval")
	}
}

func TestCheckHeartbeatAtInterval(t *testing.T) {
	m := newTestMachine(&fakeSource{})

	if hb := m.CheckHeartbeat(startTime.Add(14*time.Minute), 15*time.Minute); hb != nil {
		t.Error("expected no heartbeat before interval")
	}

	hb := m.CheckHeartbeat(startTime.Add(15*time.Minute), 15*time.Minute)
	if hb == nil {
		t.Fatal("expected heartbeat at interval")
	}
	if hb.Uptime != 15*time.Minute {
		t.Errorf("expected uptime 15m, got %v", hb.Uptime)
	}

	if hb := m.CheckHeartbeat(startTime.Add(16*time.Minute), 15*time.Minute); hb != nil {
		t.Error("expected interval to restart after a heartbeat")
	}
}

func TestHeartbeatContainsEventCounts(t *testing.T) {
	m, _ := syncedBeforeAlarm(t)
	m.Step(Input{Now: 2000})

	hb := m.CheckHeartbeat(startTime.Add(time.Hour), 15*time.Minute)
	if hb == nil {
		t.Fatal("expected heartbeat")
	}
	if hb.Counts.AlarmsFired != 1 || hb.Counts.Syncs != 1 || hb.Counts.Requests != 1 {
		t.Errorf("unexpected counts: %+v", hb.Counts)
	}
}
