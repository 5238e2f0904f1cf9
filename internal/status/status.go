// Package status keeps a copy of the device state for readers outside the
// control loop (HTTP handlers, lifecycle events).
package status

import (
	"sync"
	"time"

	"github.com/sweeney/alarm-clock/internal/logic"
)

// NetworkInfo describes the network the device joined.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config is the effective configuration shown on the status page.
type Config struct {
	TickMs      int64
	ResyncMs    int64
	StaleMs     int64
	HeartbeatMs int64
	TimeServer  string
	Zone        string
	Broker      string
	HTTPAddr    string
}

// Snapshot is a copy of the tracked state, safe to use without locking.
type Snapshot struct {
	State         logic.State
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	TimeServer    string
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the time since start.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds the latest state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update stores the machine state. Called from the control loop after each step.
func (t *Tracker) Update(state logic.State) {
	t.mu.Lock()
	t.snap.State = state
	t.mu.Unlock()
}

// SetMQTTConnected records the broker connection state.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetTimeServer records the resolved time server address.
func (t *Tracker) SetTimeServer(addr string) {
	t.mu.Lock()
	t.snap.TimeServer = addr
	t.mu.Unlock()
}

// SetNetwork records the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a copy of the state with Now set to the current time.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
