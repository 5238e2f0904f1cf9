package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner holds the status fields.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Mode          string       `json:"mode"`
	Vibrate       bool         `json:"vibrate"`
	Alarm         string       `json:"alarm"`
	Synced        bool         `json:"synced"`
	LocalTime     string       `json:"local_time,omitempty"`
	StalenessMs   uint32       `json:"staleness_ms"`
	TimeServer    string       `json:"time_server,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports the broker connection.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON form of logic.EventCounts.
type CountsJSON struct {
	Transitions int `json:"transitions"`
	AlarmsFired int `json:"alarms_fired"`
	AlarmsSet   int `json:"alarms_set"`
	Syncs       int `json:"syncs"`
	Requests    int `json:"requests"`
}

// NetworkJSON is the JSON form of NetworkInfo.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON form of Config.
type ConfigJSON struct {
	TickMs      int64  `json:"tick_ms"`
	ResyncMs    int64  `json:"resync_ms"`
	StaleMs     int64  `json:"stale_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	TimeServer  string `json:"time_server"`
	Zone        string `json:"zone,omitempty"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

// ModeOrUnknown returns the mode name, or UNKNOWN before the first update.
func (s Snapshot) ModeOrUnknown() string {
	if s.State.Mode == "" {
		return "UNKNOWN"
	}
	return string(s.State.Mode)
}

// LocalTimeString formats the local clock, or "" while unsynced.
func (s Snapshot) LocalTimeString() string {
	if !s.State.Synced {
		return ""
	}
	return time.Unix(int64(s.State.LocalTime), 0).UTC().Format("2006-01-02 15:04:05")
}

func buildInner(snap Snapshot) StatusInner {
	st := snap.State
	inner := StatusInner{
		Mode:          snap.ModeOrUnknown(),
		Vibrate:       st.Vibrate,
		Alarm:         st.Alarm,
		Synced:        st.Synced,
		LocalTime:     snap.LocalTimeString(),
		StalenessMs:   st.Staleness,
		TimeServer:    snap.TimeServer,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Transitions: st.Counts.Transitions,
			AlarmsFired: st.Counts.AlarmsFired,
			AlarmsSet:   st.Counts.AlarmsSet,
			Syncs:       st.Counts.Syncs,
			Requests:    st.Counts.Requests,
		},
		Config: ConfigJSON{
			TickMs:      snap.Config.TickMs,
			ResyncMs:    snap.Config.ResyncMs,
			StaleMs:     snap.Config.StaleMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			TimeServer:  snap.Config.TimeServer,
			Zone:        snap.Config.Zone,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
	if n := snap.Network; n != nil {
		inner.Network = &NetworkJSON{
			Type:       n.Type,
			IP:         n.IP,
			Status:     n.Status,
			Gateway:    n.Gateway,
			WifiStatus: n.WifiStatus,
			SSID:       n.SSID,
		}
	}
	return inner
}

// FormatJSON returns the indented status document served over HTTP.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the compact status document for a lifecycle event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
