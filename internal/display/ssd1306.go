package display

import (
	"fmt"
	"image"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
)

// DefaultAddr is the usual I2C address of a 128x64 SSD1306 module.
const DefaultAddr = 0x3C

var cmdDisplayOn = []byte{0x00, 0xAF}

// SSD1306 drives an I2C OLED panel.
type SSD1306 struct {
	dev *ssd1306.Dev
	raw *i2c.Dev
	on  bool
}

// NewSSD1306 initializes the panel at full contrast.
func NewSSD1306(bus i2c.Bus, w, h int, rotated bool) (*SSD1306, error) {
	opts := ssd1306.DefaultOpts
	opts.W = w
	opts.H = h
	opts.Rotated = rotated

	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		return nil, fmt.Errorf("ssd1306 init: %w", err)
	}
	if err := dev.SetContrast(0xFF); err != nil {
		return nil, fmt.Errorf("ssd1306 contrast: %w", err)
	}
	return &SSD1306{
		dev: dev,
		raw: &i2c.Dev{Bus: bus, Addr: DefaultAddr},
		on:  true,
	}, nil
}

// Bounds returns the panel size.
func (p *SSD1306) Bounds() image.Rectangle {
	return p.dev.Bounds()
}

// Draw pushes a full frame.
func (p *SSD1306) Draw(img image.Image) error {
	if err := p.dev.Draw(p.dev.Bounds(), img, image.Point{}); err != nil {
		return fmt.Errorf("ssd1306 draw: %w", err)
	}
	return nil
}

// SetPower turns the panel on or off. Repeated calls with the same value
// do not touch the bus.
func (p *SSD1306) SetPower(on bool) error {
	if on == p.on {
		return nil
	}
	var err error
	if on {
		// The driver has no explicit wake; Draw alone does not re-enable
		// the charge pump after Halt.
		err = p.raw.Tx(cmdDisplayOn, nil)
	} else {
		err = p.dev.Halt()
	}
	if err != nil {
		return fmt.Errorf("ssd1306 power %t: %w", on, err)
	}
	p.on = on
	return nil
}

// Close turns the panel off.
func (p *SSD1306) Close() error {
	return p.SetPower(false)
}
