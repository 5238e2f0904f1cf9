// Package analog samples the alarm potentiometer.
package analog

// DefaultMax is the top of the reference reading scale.
const DefaultMax = 1000

// Reader returns one reading in the range 0..max of the implementation.
type Reader interface {
	Read() (uint16, error)
}

// Scale maps v from 0..fullScale onto 0..max, clamping out-of-range values.
func Scale(v, fullScale int64, max uint16) uint16 {
	if fullScale <= 0 || v <= 0 {
		return 0
	}
	if v >= fullScale {
		return max
	}
	return uint16(v * int64(max) / fullScale)
}
