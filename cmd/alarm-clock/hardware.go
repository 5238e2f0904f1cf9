package main

import (
	"fmt"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/sweeney/alarm-clock/internal/analog"
	"github.com/sweeney/alarm-clock/internal/config"
	"github.com/sweeney/alarm-clock/internal/display"
	"github.com/sweeney/alarm-clock/internal/gpio"
)

// dialFullScale is the wiper voltage at the end stop of the alarm dial.
const dialFullScale = 3300 * physic.MilliVolt

type hardware struct {
	io    *gpio.RealIO
	bus   i2c.BusCloser
	dial  *analog.ADS1115
	panel *display.SSD1306
}

func openHardware(log *zap.Logger, cfg config.Config) (*hardware, error) {
	io, err := gpio.NewRealIO(cfg.GPIOChip, cfg.ButtonPin, cfg.SleepPin, cfg.MotorPin)
	if err != nil {
		return nil, fmt.Errorf("init gpio: %w", err)
	}
	hw := &hardware{io: io}

	if _, err := host.Init(); err != nil {
		hw.Close()
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	hw.bus, err = i2creg.Open(cfg.I2CBus)
	if err != nil {
		hw.Close()
		return nil, fmt.Errorf("open i2c bus %q: %w", cfg.I2CBus, err)
	}
	hw.dial, err = analog.NewADS1115(hw.bus, cfg.ADCChannel, dialFullScale, uint16(cfg.AnalogMax))
	if err != nil {
		hw.Close()
		return nil, err
	}
	hw.panel, err = display.NewSSD1306(hw.bus, cfg.DisplayWidth, cfg.DisplayHeight, cfg.DisplayRotated)
	if err != nil {
		hw.Close()
		return nil, err
	}

	log.Info("hardware ready",
		zap.String("gpio_chip", cfg.GPIOChip),
		zap.Int("button_pin", cfg.ButtonPin),
		zap.Int("sleep_pin", cfg.SleepPin),
		zap.Int("motor_pin", cfg.MotorPin),
		zap.String("i2c_bus", hw.bus.String()))
	return hw, nil
}

func (hw *hardware) Close() error {
	if hw.panel != nil {
		hw.panel.Close()
	}
	if hw.dial != nil {
		hw.dial.Close()
	}
	if hw.bus != nil {
		hw.bus.Close()
	}
	if hw.io != nil {
		hw.io.Close()
	}
	return nil
}
