//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealIO reads inputs and drives the motor on actual hardware using the
// Linux GPIO character device.
type RealIO struct {
	chip   *gpiocdev.Chip
	button *gpiocdev.Line
	sleep  *gpiocdev.Line
	motor  *gpiocdev.Line
}

// NewRealIO requests the button and sleep switch as inputs and the motor as an
// output driven low.
func NewRealIO(chipName string, pinButton, pinSleep, pinMotor int) (*RealIO, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	r := &RealIO{chip: chip}

	// The button pulls the line high when pressed.
	r.button, err = chip.RequestLine(pinButton, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("request button pin %d: %w", pinButton, err)
	}

	// The enable switch grounds the line to request sleep.
	r.sleep, err = chip.RequestLine(pinSleep, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("request sleep pin %d: %w", pinSleep, err)
	}

	r.motor, err = chip.RequestLine(pinMotor, gpiocdev.AsOutput(0))
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("request motor pin %d: %w", pinMotor, err)
	}

	return r, nil
}

// Read returns the logical input states.
func (r *RealIO) Read() (Inputs, error) {
	buttonRaw, err := r.button.Value()
	if err != nil {
		return Inputs{}, fmt.Errorf("read button pin: %w", err)
	}

	sleepRaw, err := r.sleep.Value()
	if err != nil {
		return Inputs{}, fmt.Errorf("read sleep pin: %w", err)
	}

	return Inputs{
		Button: buttonRaw == 1,
		Sleep:  sleepRaw == 0,
	}, nil
}

// Set drives the motor output.
func (r *RealIO) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := r.motor.SetValue(v); err != nil {
		return fmt.Errorf("set motor pin: %w", err)
	}
	return nil
}

// Close stops the motor and releases GPIO resources.
// Inputs are reconfigured with pull-down to match Raspberry Pi boot defaults.
func (r *RealIO) Close() error {
	var errs []error

	if r.motor != nil {
		if err := r.motor.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("stop motor: %w", err))
		}
		if err := r.motor.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure motor pin: %w", err))
		}
		if err := r.motor.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close motor pin: %w", err))
		}
	}
	for name, line := range map[string]*gpiocdev.Line{"button": r.button, "sleep": r.sleep} {
		if line == nil {
			continue
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", name, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", name, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
