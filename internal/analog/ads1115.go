package analog

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
)

var channels = []ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// ADS1115 reads one single-ended channel of an ADS1115 and scales the
// voltage to 0..max.
type ADS1115 struct {
	pin       ads1x15.PinADC
	fullScale physic.ElectricPotential
	max       uint16
}

// NewADS1115 opens the converter at its default address on bus. fullScale
// is the wiper voltage at the end stop, usually the supply voltage.
func NewADS1115(bus i2c.Bus, channel int, fullScale physic.ElectricPotential, max uint16) (*ADS1115, error) {
	if channel < 0 || channel >= len(channels) {
		return nil, fmt.Errorf("ads1115: invalid channel %d", channel)
	}
	dev, err := ads1x15.NewADS1115(bus, &ads1x15.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("ads1115: open: %w", err)
	}
	pin, err := dev.PinForChannel(channels[channel], fullScale, 8*physic.Hertz, ads1x15.SaveEnergy)
	if err != nil {
		return nil, fmt.Errorf("ads1115: channel %d: %w", channel, err)
	}
	return &ADS1115{pin: pin, fullScale: fullScale, max: max}, nil
}

// Read performs one conversion.
func (a *ADS1115) Read() (uint16, error) {
	s, err := a.pin.Read()
	if err != nil {
		return 0, fmt.Errorf("ads1115: read: %w", err)
	}
	return Scale(int64(s.V), int64(a.fullScale), a.max), nil
}

// Close stops the converter.
func (a *ADS1115) Close() error {
	return a.pin.Halt()
}
