// Package config holds the device settings. Defaults can be overridden by a
// TOML file and then by explicitly set command-line flags.
package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/sweeney/alarm-clock/internal/gpio"
	"github.com/sweeney/alarm-clock/internal/logic"
)

// Restart modes.
const (
	RestartExit   = "exit"
	RestartReboot = "reboot"
)

// Config is the full device configuration.
type Config struct {
	TimeServer string `toml:"time_server,omitempty"`
	Zone       string `toml:"zone,omitempty"`

	TickMs          uint32 `toml:"tick_ms,omitempty"`
	ResyncMs        uint32 `toml:"resync_ms,omitempty"`
	UnsyncedRetryMs uint32 `toml:"unsynced_retry_ms,omitempty"`
	StaleMs         uint32 `toml:"stale_ms,omitempty"`

	IncrementsPerHour int `toml:"increments_per_hour,omitempty"`
	AnalogMax         int `toml:"analog_max,omitempty"`

	GPIOChip   string `toml:"gpio_chip,omitempty"`
	ButtonPin  int    `toml:"button_pin,omitempty"`
	SleepPin   int    `toml:"sleep_pin,omitempty"`
	MotorPin   int    `toml:"motor_pin,omitempty"`
	I2CBus     string `toml:"i2c_bus,omitempty"`
	ADCChannel int    `toml:"adc_channel,omitempty"`

	DisplayWidth   int  `toml:"display_width,omitempty"`
	DisplayHeight  int  `toml:"display_height,omitempty"`
	DisplayRotated bool `toml:"display_rotated,omitempty"`

	NetworkInterface  string `toml:"network_interface,omitempty"`
	NetworkAttempts   int    `toml:"network_attempts,omitempty"`
	NetworkIntervalMs int    `toml:"network_interval_ms,omitempty"`

	Broker      string `toml:"broker,omitempty"`
	HTTPAddr    string `toml:"http_addr,omitempty"`
	HeartbeatMs int64  `toml:"heartbeat_ms,omitempty"`

	Restart string `toml:"restart,omitempty"`
	LogFile string `toml:"log_file,omitempty"`
	Verbose bool   `toml:"verbose,omitempty"`

	// Command-line only.
	ConfigFile string `toml:"-"`
	PrintTime  bool   `toml:"-"`
	PrintState bool   `toml:"-"`
}

// Default returns the reference configuration.
func Default() Config {
	mc := logic.DefaultConfig()
	return Config{
		TimeServer:        "pool.ntp.org",
		Zone:              "us-eastern",
		TickMs:            mc.TickPeriod,
		ResyncMs:          mc.ResyncInterval,
		UnsyncedRetryMs:   mc.UnsyncedRetry,
		StaleMs:           mc.StaleLimit,
		IncrementsPerHour: 2,
		AnalogMax:         1000,
		GPIOChip:          gpio.DefaultChip,
		ButtonPin:         gpio.DefaultPinButton,
		SleepPin:          gpio.DefaultPinSleep,
		MotorPin:          gpio.DefaultPinMotor,
		I2CBus:            "",
		ADCChannel:        0,
		DisplayWidth:      128,
		DisplayHeight:     64,
		NetworkAttempts:   60,
		NetworkIntervalMs: 500,
		Broker:            "tcp://localhost:1883",
		HTTPAddr:          ":80",
		HeartbeatMs:       15 * 60 * 1000,
		Restart:           RestartExit,
	}
}

// Zones are the supported DST/STD rule pairs by name.
var Zones = map[string]logic.Zone{
	"us-eastern":  logic.USEastern,
	"us-central":  usZone("CDT", "CST", -300, -360),
	"us-mountain": usZone("MDT", "MST", -360, -420),
	"us-pacific":  usZone("PDT", "PST", -420, -480),
	"europe-central": {
		DST: logic.Rule{Name: "CEST", Week: 0, Weekday: time.Sunday, Month: time.March, Hour: 2, Offset: 120},
		STD: logic.Rule{Name: "CET", Week: 0, Weekday: time.Sunday, Month: time.October, Hour: 3, Offset: 60},
	},
	"europe-western": {
		DST: logic.Rule{Name: "BST", Week: 0, Weekday: time.Sunday, Month: time.March, Hour: 1, Offset: 60},
		STD: logic.Rule{Name: "GMT", Week: 0, Weekday: time.Sunday, Month: time.October, Hour: 2, Offset: 0},
	},
	"utc": {},
}

func usZone(dst, std string, dstOff, stdOff int) logic.Zone {
	return logic.Zone{
		DST: logic.Rule{Name: dst, Week: 2, Weekday: time.Sunday, Month: time.March, Hour: 2, Offset: dstOff},
		STD: logic.Rule{Name: std, Week: 1, Weekday: time.Sunday, Month: time.November, Hour: 2, Offset: stdOff},
	}
}

func zoneNames() string {
	names := make([]string, 0, len(Zones))
	for n := range Zones {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// Load decodes a TOML file over base. Unknown keys are rejected.
func Load(path string, base Config) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config: %w", err)
	}
	cfg := base
	if err := toml.NewDecoder(bytes.NewReader(raw)).DisallowUnknownFields().Decode(&cfg); err != nil {
		return base, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

func bind(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "TOML configuration file")
	fs.BoolVar(&c.PrintTime, "print-time", false, "Query the time server once, print the time and exit")
	fs.BoolVar(&c.PrintState, "print-state", false, "Print button, sleep switch and dial inputs and exit")

	fs.StringVar(&c.TimeServer, "time-server", c.TimeServer, "Time server host name")
	fs.StringVar(&c.Zone, "zone", c.Zone, "DST rule pair ("+zoneNames()+")")
	uint32Var(fs, &c.TickMs, "tick", c.TickMs, "Scheduler tick period in milliseconds")
	uint32Var(fs, &c.ResyncMs, "resync", c.ResyncMs, "Time resync interval in milliseconds")
	uint32Var(fs, &c.UnsyncedRetryMs, "unsynced-retry", c.UnsyncedRetryMs, "Request spacing before the first sync, in milliseconds")
	uint32Var(fs, &c.StaleMs, "stale", c.StaleMs, "Restart after this many milliseconds without a sync")
	fs.IntVar(&c.IncrementsPerHour, "increments", c.IncrementsPerHour, "Alarm increments per hour")
	fs.IntVar(&c.AnalogMax, "analog-max", c.AnalogMax, "Full-scale analog reading")

	fs.StringVar(&c.GPIOChip, "gpio-chip", c.GPIOChip, "GPIO chip name")
	fs.IntVar(&c.ButtonPin, "button-pin", c.ButtonPin, "GPIO line of the button")
	fs.IntVar(&c.SleepPin, "sleep-pin", c.SleepPin, "GPIO line of the sleep switch")
	fs.IntVar(&c.MotorPin, "motor-pin", c.MotorPin, "GPIO line of the vibration motor")
	fs.StringVar(&c.I2CBus, "i2c-bus", c.I2CBus, "I2C bus name (empty for the first bus)")
	fs.IntVar(&c.ADCChannel, "adc-channel", c.ADCChannel, "ADS1115 channel of the alarm dial")
	fs.BoolVar(&c.DisplayRotated, "display-rotated", c.DisplayRotated, "Rotate the display 180 degrees")

	fs.StringVar(&c.NetworkInterface, "iface", c.NetworkInterface, "Network interface to wait for (empty for any)")
	fs.IntVar(&c.NetworkAttempts, "network-attempts", c.NetworkAttempts, "Network wait attempts before restarting")

	fs.StringVar(&c.Broker, "broker", c.Broker, "MQTT broker address (empty to disable)")
	fs.StringVar(&c.HTTPAddr, "http", c.HTTPAddr, "HTTP status server address (empty to disable)")
	fs.Int64Var(&c.HeartbeatMs, "heartbeat", c.HeartbeatMs, "Heartbeat interval in milliseconds (0 to disable)")

	fs.StringVar(&c.Restart, "restart", c.Restart, "How to restart on fatal errors: exit or reboot")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Also log to this file, rotated")
	fs.BoolVar(&c.Verbose, "verbose", c.Verbose, "Enable debug logging")
}

// Parse builds the configuration from defaults, the file named by -config
// and the flags in args. Flags set on the command line win over the file.
func Parse(name string, args []string) (Config, error) {
	cfg := Default()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	bind(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.ConfigFile == "" {
		return cfg, cfg.Validate()
	}

	fileCfg, err := Load(cfg.ConfigFile, Default())
	if err != nil {
		return cfg, err
	}
	fs = flag.NewFlagSet(name, flag.ContinueOnError)
	bind(fs, &fileCfg)
	if err := fs.Parse(args); err != nil {
		return fileCfg, err
	}
	return fileCfg, fileCfg.Validate()
}

// Validate checks the configuration for values the device cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.TickMs == 0 {
		errs = append(errs, errors.New("tick_ms must be positive"))
	}
	if c.ResyncMs < c.TickMs {
		errs = append(errs, errors.New("resync_ms must be at least tick_ms"))
	}
	if c.StaleMs <= c.ResyncMs {
		errs = append(errs, errors.New("stale_ms must exceed resync_ms"))
	}
	if c.IncrementsPerHour < 1 || c.IncrementsPerHour > 60 || 60%c.IncrementsPerHour != 0 {
		errs = append(errs, fmt.Errorf("increments_per_hour %d must divide 60", c.IncrementsPerHour))
	}
	if c.AnalogMax < 1 || c.AnalogMax > 0xFFFF {
		errs = append(errs, fmt.Errorf("analog_max %d out of range", c.AnalogMax))
	}
	if c.ButtonPin < 0 || c.SleepPin < 0 || c.MotorPin < 0 {
		errs = append(errs, errors.New("pins must be non-negative"))
	}
	if c.ADCChannel < 0 || c.ADCChannel > 3 {
		errs = append(errs, fmt.Errorf("adc_channel %d must be 0-3", c.ADCChannel))
	}
	if c.TimeServer == "" {
		errs = append(errs, errors.New("time_server is required"))
	}
	if _, ok := Zones[c.Zone]; !ok {
		errs = append(errs, fmt.Errorf("unknown zone %q (want one of %s)", c.Zone, zoneNames()))
	}
	if c.Restart != RestartExit && c.Restart != RestartReboot {
		errs = append(errs, fmt.Errorf("restart %q must be %s or %s", c.Restart, RestartExit, RestartReboot))
	}
	if c.HeartbeatMs < 0 {
		errs = append(errs, errors.New("heartbeat_ms must not be negative"))
	}
	return errors.Join(errs...)
}

// Machine returns the state machine timing for this configuration.
func (c Config) Machine() logic.Config {
	return logic.Config{
		TickPeriod:     c.TickMs,
		ResyncInterval: c.ResyncMs,
		UnsyncedRetry:  c.UnsyncedRetryMs,
		StaleLimit:     c.StaleMs,
		Zone:           Zones[c.Zone],
	}
}

// NetworkInterval returns the wait between network probes.
func (c Config) NetworkInterval() time.Duration {
	return time.Duration(c.NetworkIntervalMs) * time.Millisecond
}

// Heartbeat returns the heartbeat interval; zero disables it.
func (c Config) Heartbeat() time.Duration {
	return time.Duration(c.HeartbeatMs) * time.Millisecond
}
