package analog

// FakeReader returns scripted readings, repeating the last one.
type FakeReader struct {
	Values    []uint16
	ReadError error
	index     int
}

// Read returns the next scripted value.
func (f *FakeReader) Read() (uint16, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Values) == 0 {
		return 0, nil
	}
	v := f.Values[f.index]
	if f.index < len(f.Values)-1 {
		f.index++
	}
	return v, nil
}
