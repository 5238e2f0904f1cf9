package logic

import "fmt"

// AlarmSetting turns a noisy potentiometer reading into a quantized alarm time.
type AlarmSetting struct {
	incrementsPerHour uint8
	stepSize          uint16
	quantizedValue    uint16
	hour              uint8
	minute            uint8
}

// NewAlarmSetting builds a setting for an analog input spanning 0..rawRange
// that maps onto hoursSpan hours. incrementsPerHour must divide 60.
func NewAlarmSetting(incrementsPerHour uint8, rawRange, hoursSpan uint16) *AlarmSetting {
	if incrementsPerHour == 0 {
		incrementsPerHour = 1
	}
	d := uint32(hoursSpan) * uint32(incrementsPerHour)
	step := uint16(1)
	if d > 0 {
		// round half up
		step = uint16((2*uint32(rawRange) + d) / (2 * d))
	}
	if step == 0 {
		step = 1
	}
	return &AlarmSetting{incrementsPerHour: incrementsPerHour, stepSize: step}
}

// RoundToNearestMultiple rounds n to the nearest multiple of i, ties up.
func RoundToNearestMultiple(n, i uint32) uint32 {
	lower := n / i * i
	upper := lower + i
	if n-lower >= upper-n {
		return upper
	}
	return lower
}

// ReadFromAnalog updates the setting from a raw analog sample.
func (a *AlarmSetting) ReadFromAnalog(raw uint16) {
	inc := uint16(a.incrementsPerHour)
	n := int(raw) - int(a.stepSize)
	if n < 0 {
		a.set(0, 0, 0)
		return
	}

	q := uint16(RoundToNearestMultiple(uint32(n), uint32(a.stepSize)) / uint32(a.stepSize))
	hour := q / inc
	minute := (q % inc) * (60 / inc)
	if hour > 23 {
		a.set(24*inc-1, 23, uint8(60-60/inc))
		return
	}
	a.set(q, uint8(hour), uint8(minute))
}

func (a *AlarmSetting) set(q uint16, hour, minute uint8) {
	a.quantizedValue = q
	a.hour = hour
	a.minute = minute
}

// StepSize is the analog delta per quantization step.
func (a *AlarmSetting) StepSize() uint16 { return a.stepSize }

// Quantized is the number of steps since midnight.
func (a *AlarmSetting) Quantized() uint16 { return a.quantizedValue }

func (a *AlarmSetting) Hour() uint8   { return a.hour }
func (a *AlarmSetting) Minute() uint8 { return a.minute }

// SecondOfDay is the alarm time as seconds after local midnight.
func (a *AlarmSetting) SecondOfDay() uint32 {
	return uint32(a.hour)*3600 + uint32(a.minute)*60
}

func (a *AlarmSetting) String() string {
	return fmt.Sprintf("%02d:%02d", a.hour, a.minute)
}
