// Command alarm-clock runs the bedside alarm clock: it keeps time from a
// network time server, shows it on an OLED panel and buzzes the vibration
// motor at the alarm time.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/sweeney/alarm-clock/internal/config"
	"github.com/sweeney/alarm-clock/internal/display"
	"github.com/sweeney/alarm-clock/internal/logging"
	"github.com/sweeney/alarm-clock/internal/logic"
	"github.com/sweeney/alarm-clock/internal/metrics"
	"github.com/sweeney/alarm-clock/internal/mqtt"
	"github.com/sweeney/alarm-clock/internal/ntp"
	"github.com/sweeney/alarm-clock/internal/startup"
	"github.com/sweeney/alarm-clock/internal/status"
	"github.com/sweeney/alarm-clock/internal/web"
)

func main() {
	cfg, err := config.Parse(os.Args[0], os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	log, err := logging.New(logging.Options{Verbose: cfg.Verbose, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer log.Sync()

	if cfg.PrintTime {
		if err := printTime(os.Stdout, cfg); err != nil {
			log.Fatal("time query failed", zap.Error(err))
		}
		return
	}

	err = run(log, cfg)
	if errors.Is(err, logic.ErrRestart) {
		restart(log, cfg.Restart, err)
	}
	if err != nil {
		log.Fatal("fatal", zap.Error(err))
	}
}

func run(log *zap.Logger, cfg config.Config) error {
	hw, err := openHardware(log, cfg)
	if err != nil {
		return err
	}
	defer hw.Close()

	if cfg.PrintState {
		return printState(os.Stdout, hw.io, hw.dial)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	disp := display.New(hw.panel, display.NewRenderer(cfg.DisplayWidth, cfg.DisplayHeight))
	err = startup.WaitForNetwork(ctx, log, startup.Wait{
		Probe:    startup.InterfaceProbe(cfg.NetworkInterface),
		Attempts: cfg.NetworkAttempts,
		Interval: cfg.NetworkInterval(),
		Frame: func(i int) {
			if err := disp.Connecting(i); err != nil {
				log.Debug("display error", zap.Error(err))
			}
		},
	})
	if err != nil {
		return err
	}
	if err := disp.Message("Connected :)"); err != nil {
		log.Warn("display error", zap.Error(err))
	}

	client := ntp.NewClient(log)
	defer client.Close()
	if err := startup.ResolveServer(ctx, log, client, cfg.TimeServer); err != nil {
		return err
	}

	var publisher mqtt.Publisher = discardPublisher{}
	var mqttStatus mqtt.ConnectionStatus
	if cfg.Broker != "" {
		p, err := mqtt.NewRealPublisher(log, mqtt.DefaultOptions(cfg.Broker))
		if err != nil {
			log.Warn("mqtt disabled", zap.Error(err))
		} else {
			publisher, mqttStatus = p, p
			defer p.Close()
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.New(reg)

	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:      int64(cfg.TickMs),
		ResyncMs:    int64(cfg.ResyncMs),
		StaleMs:     int64(cfg.StaleMs),
		HeartbeatMs: cfg.HeartbeatMs,
		TimeServer:  cfg.TimeServer,
		Zone:        cfg.Zone,
		Broker:      cfg.Broker,
		HTTPAddr:    cfg.HTTPAddr,
	})
	tracker.SetTimeServer(client.Server())
	if info := readNetworkInfo(); info != nil {
		tracker.SetNetwork(info)
	}

	snap := tracker.Snapshot()
	if err := publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      mqtt.EventStartup,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, mqtt.EventStartup, ""),
	}); err != nil {
		log.Warn("failed to publish startup event", zap.Error(err))
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("http server error", zap.Error(err))
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info("http status server listening", zap.String("addr", cfg.HTTPAddr))
	}

	alarm := logic.NewAlarmSetting(uint8(cfg.IncrementsPerHour), uint16(cfg.AnalogMax), 24)
	if v, err := hw.dial.Read(); err != nil {
		log.Warn("initial dial read failed", zap.Error(err))
	} else {
		alarm.ReadFromAnalog(v)
	}
	log.Info("alarm set", zap.String("alarm", alarm.String()))

	start := time.Now()
	machine := logic.NewMachine(cfg.Machine(), client, alarm, start)

	log.Info("started",
		zap.Uint32("tick_ms", cfg.TickMs),
		zap.Uint32("resync_ms", cfg.ResyncMs),
		zap.String("zone", cfg.Zone),
		zap.String("time_server", client.Server()),
		zap.Duration("heartbeat", cfg.Heartbeat()))

	ticker := time.NewTicker(pollInterval(cfg.TickMs))
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return runLoop(loopDeps{
		log:        log,
		machine:    machine,
		inputs:     hw.io,
		motor:      hw.io,
		dial:       hw.dial,
		display:    disp,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		metrics:    recorder,
		heartbeat:  cfg.Heartbeat(),
		millis:     millisSince(start),
		now:        time.Now,
	}, ticker.C, sigCh)
}

// millisSince returns a wrapping 32-bit millisecond counter starting at zero.
func millisSince(start time.Time) func() uint32 {
	return func() uint32 {
		return uint32(time.Since(start).Milliseconds())
	}
}

// pollInterval samples well inside one tick period so Due is seen promptly.
func pollInterval(tickMs uint32) time.Duration {
	d := time.Duration(tickMs) * time.Millisecond / 10
	if d < 5*time.Millisecond {
		d = 5 * time.Millisecond
	}
	if d > 50*time.Millisecond {
		d = 50 * time.Millisecond
	}
	return d
}

// discardPublisher is used when no broker is configured.
type discardPublisher struct{}

func (discardPublisher) Publish(logic.Event) error            { return nil }
func (discardPublisher) PublishSystem(mqtt.SystemEvent) error { return nil }
func (discardPublisher) Close() error                         { return nil }
