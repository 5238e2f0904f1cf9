package main

import (
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/alarm-clock/internal/analog"
	"github.com/sweeney/alarm-clock/internal/gpio"
	"github.com/sweeney/alarm-clock/internal/logic"
	"github.com/sweeney/alarm-clock/internal/metrics"
	"github.com/sweeney/alarm-clock/internal/mqtt"
	"github.com/sweeney/alarm-clock/internal/status"
)

// screen is the part of display.Display the loop drives.
type screen interface {
	SetPower(on bool) error
	Show(s logic.Screen) error
}

type loopDeps struct {
	log        *zap.Logger
	machine    *logic.Machine
	inputs     gpio.Reader
	motor      gpio.Motor
	dial       analog.Reader
	display    screen
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus // may be nil
	tracker    *status.Tracker       // may be nil
	metrics    *metrics.Recorder     // may be nil
	heartbeat  time.Duration
	millis     func() uint32
	now        func() time.Time
}

// runLoop drives the machine until a signal arrives or the machine reports
// a fatal condition, which is returned.
func runLoop(d loopDeps, tick <-chan time.Time, sig <-chan os.Signal) error {
	var lastAnalog uint16
	lastVibrate := false

	defer func() {
		if err := d.motor.Set(false); err != nil {
			d.log.Warn("motor off failed", zap.Error(err))
		}
	}()

	for {
		select {
		case s := <-sig:
			reason := signalName(s)
			d.log.Info("shutting down", zap.String("signal", reason))
			d.publishSystem(mqtt.EventShutdown, reason, true)
			return nil

		case <-tick:
			ms := d.millis()
			if !d.machine.Due(ms) {
				continue
			}

			in, err := d.inputs.Read()
			if err != nil {
				d.log.Warn("gpio read error", zap.Error(err))
				continue
			}
			if v, err := d.dial.Read(); err != nil {
				d.log.Debug("dial read error", zap.Error(err))
			} else {
				lastAnalog = v
			}

			out := d.machine.Step(logic.Input{
				Now:    ms,
				Button: in.Button,
				Sleep:  in.Sleep,
				Analog: lastAnalog,
			})

			if out.Vibrate != lastVibrate {
				if err := d.motor.Set(out.Vibrate); err != nil {
					d.log.Warn("motor error", zap.Error(err))
				}
				lastVibrate = out.Vibrate
			}
			if err := d.display.SetPower(out.DisplayOn); err != nil {
				d.log.Warn("display power error", zap.Error(err))
			}
			if out.Screen != nil && out.DisplayOn {
				if err := d.display.Show(*out.Screen); err != nil {
					d.log.Warn("display error", zap.Error(err))
				}
			}

			for _, e := range out.Events {
				d.logEvent(e)
				if err := d.publisher.Publish(e); err != nil {
					d.log.Warn("publish error", zap.String("event", string(e.Type)), zap.Error(err))
					if d.metrics != nil {
						d.metrics.PublishFailed()
					}
				}
			}
			if out.Err != nil {
				d.log.Warn("time request failed", zap.Error(out.Err))
			}

			state := d.machine.State(ms)
			if d.metrics != nil {
				d.metrics.ObserveEvents(out.Events)
				d.metrics.ObserveState(state)
			}
			d.updateTracker(state)

			if out.Fatal != nil {
				d.log.Error("restart required", zap.Error(out.Fatal))
				d.publishSystem(mqtt.EventRestart, out.Fatal.Error(), true)
				return out.Fatal
			}

			if hb := d.machine.CheckHeartbeat(d.now(), d.heartbeat); hb != nil {
				d.log.Info("heartbeat",
					zap.Duration("uptime", hb.Uptime),
					zap.Int("syncs", hb.Counts.Syncs),
					zap.Int("alarms_fired", hb.Counts.AlarmsFired),
					zap.String("mode", string(state.Mode)))
				if d.tracker != nil {
					if info := readNetworkInfo(); info != nil {
						d.tracker.SetNetwork(info)
					}
				}
				d.publishSystem(mqtt.EventHeartbeat, "", false)
			}
		}
	}
}

func (d loopDeps) logEvent(e logic.Event) {
	fields := []zap.Field{zap.String("event", string(e.Type)), zap.Uint32("tick", e.Tick)}
	if e.From != "" || e.To != "" {
		fields = append(fields, zap.String("from", string(e.From)), zap.String("to", string(e.To)))
	}
	if e.Alarm != "" {
		fields = append(fields, zap.String("alarm", e.Alarm))
	}
	if e.Type == logic.EventSyncRequested {
		d.log.Debug("event", fields...)
		return
	}
	d.log.Info("event", fields...)
}

func (d loopDeps) updateTracker(state logic.State) {
	if d.tracker == nil {
		return
	}
	d.tracker.Update(state)
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
}

// publishSystem sends a lifecycle event, with a full status snapshot when a
// tracker is available.
func (d loopDeps) publishSystem(event, reason string, retained bool) {
	e := mqtt.SystemEvent{
		Timestamp: d.now(),
		Event:     event,
		Reason:    reason,
		Retained:  retained,
	}
	if d.tracker != nil {
		if d.mqttStatus != nil {
			d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
		}
		e.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), event, reason)
	}
	if err := d.publisher.PublishSystem(e); err != nil {
		d.log.Warn("failed to publish system event", zap.String("event", event), zap.Error(err))
		if d.metrics != nil {
			d.metrics.PublishFailed()
		}
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
