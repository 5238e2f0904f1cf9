// Package gpio provides the button, sleep switch and vibration motor with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Inputs is one logical sample of the digital inputs.
type Inputs struct {
	Button bool // function button pressed (raw high)
	Sleep  bool // sleep requested (raw low on the enable switch)
}

// Reader reads the digital inputs.
type Reader interface {
	// Read returns the logical input states.
	Read() (Inputs, error)

	// Close releases GPIO resources.
	Close() error
}

// Motor drives the vibration motor output.
type Motor interface {
	Set(on bool) error
}

// Default pin definitions (BCM numbering)
const (
	DefaultPinButton = 17
	DefaultPinSleep  = 27
	DefaultPinMotor  = 22

	DefaultChip = "gpiochip0"
)
