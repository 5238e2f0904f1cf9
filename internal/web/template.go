package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/alarm-clock/internal/status"
)

func formatUptime(d time.Duration) string {
	d = d.Truncate(time.Second)
	days := int(d.Hours()) / 24
	h := int(d.Hours()) % 24
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

func formatMs(ms uint32) string {
	return (time.Duration(ms) * time.Millisecond).Truncate(time.Second).String()
}

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime":    formatUptime,
	"staleness": formatMs,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Alarm Clock</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.mode-ALARM { color: red; font-weight: bold; }
.mode-SLEEP { color: #888; }
.mode-EDIT { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Alarm Clock</h1>

<h2>Clock</h2>
<table>
<tr><th>Mode</th><td id="mode" class="mode-{{.ModeOrUnknown}}">{{.ModeOrUnknown}}</td></tr>
<tr><th>Local time</th><td id="local-time">{{if .State.Synced}}{{.LocalTimeString}}{{else}}not synced{{end}}</td></tr>
<tr><th>Alarm</th><td id="alarm">{{.State.Alarm}}</td></tr>
<tr><th>Motor</th><td>{{if .State.Vibrate}}on{{else}}off{{end}}</td></tr>
<tr><th>Since last sync</th><td>{{if .State.Synced}}{{staleness .State.Staleness}}{{else}}-{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>Time server</th><td>{{.Config.TimeServer}}{{if .TimeServer}} ({{.TimeServer}}){{end}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Mode changes</th><td>{{.State.Counts.Transitions}}</td></tr>
<tr><th>Alarms fired</th><td>{{.State.Counts.AlarmsFired}}</td></tr>
<tr><th>Alarm changes</th><td>{{.State.Counts.AlarmsSet}}</td></tr>
<tr><th>Time requests</th><td>{{.State.Counts.Requests}}</td></tr>
<tr><th>Time syncs</th><td>{{.State.Counts.Syncs}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Resync</th><td>{{.Config.ResyncMs}}ms</td></tr>
<tr><th>Restart after</th><td>{{.Config.StaleMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
