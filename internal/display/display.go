// Package display renders device screens and drives the OLED panel.
package display

import (
	"image"

	"github.com/sweeney/alarm-clock/internal/logic"
)

// Panel is a 1-bit display that can be powered down.
type Panel interface {
	Draw(img image.Image) error
	SetPower(on bool) error
	Close() error
}

// Display pairs a Renderer with a Panel.
type Display struct {
	panel    Panel
	renderer *Renderer
}

// New creates a Display drawing on panel.
func New(panel Panel, renderer *Renderer) *Display {
	return &Display{panel: panel, renderer: renderer}
}

// SetPower switches the panel on or off.
func (d *Display) SetPower(on bool) error {
	return d.panel.SetPower(on)
}

// Show renders and draws a machine screen.
func (d *Display) Show(s logic.Screen) error {
	return d.panel.Draw(d.renderer.Render(s))
}

// Connecting draws one frame of the network wait animation.
func (d *Display) Connecting(frame int) error {
	return d.panel.Draw(d.renderer.Connecting(frame))
}

// Message draws a single centered line of text.
func (d *Display) Message(text string) error {
	return d.panel.Draw(d.renderer.Message(text))
}

// Close releases the panel.
func (d *Display) Close() error {
	return d.panel.Close()
}
