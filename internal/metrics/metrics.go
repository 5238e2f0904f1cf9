// Package metrics exposes machine events and state as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sweeney/alarm-clock/internal/logic"
)

var modes = []logic.Mode{logic.ModeNormal, logic.ModeSleep, logic.ModeAlarm, logic.ModeEdit}

// Recorder updates the device metrics.
type Recorder struct {
	syncRequests prometheus.Counter
	syncs        prometheus.Counter
	transitions  *prometheus.CounterVec
	alarmsFired  prometheus.Counter
	alarmsSet    prometheus.Counter
	publishErrs  prometheus.Counter

	mode      *prometheus.GaugeVec
	synced    prometheus.Gauge
	staleness prometheus.Gauge
	vibrate   prometheus.Gauge
}

// New registers the device metrics with reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		syncRequests: f.NewCounter(prometheus.CounterOpts{Name: SyncRequestsN, Help: SyncRequestsH}),
		syncs:        f.NewCounter(prometheus.CounterOpts{Name: SyncsN, Help: SyncsH}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: TransitionsN,
			Help: TransitionsH,
		}, []string{"to"}),
		alarmsFired: f.NewCounter(prometheus.CounterOpts{Name: AlarmsFiredN, Help: AlarmsFiredH}),
		alarmsSet:   f.NewCounter(prometheus.CounterOpts{Name: AlarmsSetN, Help: AlarmsSetH}),
		publishErrs: f.NewCounter(prometheus.CounterOpts{Name: PublishErrsN, Help: PublishErrsH}),
		mode: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: ModeN,
			Help: ModeH,
		}, []string{"mode"}),
		synced:    f.NewGauge(prometheus.GaugeOpts{Name: SyncedN, Help: SyncedH}),
		staleness: f.NewGauge(prometheus.GaugeOpts{Name: StalenessN, Help: StalenessH}),
		vibrate:   f.NewGauge(prometheus.GaugeOpts{Name: VibrateN, Help: VibrateH}),
	}
}

// ObserveEvents counts machine events.
func (r *Recorder) ObserveEvents(events []logic.Event) {
	for _, e := range events {
		switch e.Type {
		case logic.EventSyncRequested:
			r.syncRequests.Inc()
		case logic.EventTimeSynced:
			r.syncs.Inc()
		case logic.EventModeChanged:
			r.transitions.WithLabelValues(string(e.To)).Inc()
		case logic.EventAlarmFired:
			r.alarmsFired.Inc()
		case logic.EventAlarmSet:
			r.alarmsSet.Inc()
		}
	}
}

// ObserveState sets the gauges from a machine snapshot.
func (r *Recorder) ObserveState(s logic.State) {
	for _, m := range modes {
		r.mode.WithLabelValues(string(m)).Set(boolFloat(s.Mode == m))
	}
	r.synced.Set(boolFloat(s.Synced))
	r.staleness.Set(float64(s.Staleness))
	r.vibrate.Set(boolFloat(s.Vibrate))
}

// PublishFailed counts one failed MQTT publish.
func (r *Recorder) PublishFailed() {
	r.publishErrs.Inc()
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
