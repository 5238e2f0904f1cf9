package gpio

import (
	"errors"
	"testing"
)

func TestFakeReaderRead(t *testing.T) {
	samples := []Inputs{
		{Button: true, Sleep: false},
		{Button: false, Sleep: true},
		{Button: true, Sleep: true},
	}

	f := NewFakeReader(samples)

	for i, want := range samples {
		got, err := f.Read()
		if err != nil {
			t.Fatalf("sample %d: unexpected error: %v", i, err)
		}
		if got != want {
			t.Errorf("sample %d: expected %+v, got %+v", i, want, got)
		}
	}

	// Fourth read should repeat last sample
	got, err := f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != samples[2] {
		t.Errorf("repeat: expected %+v, got %+v", samples[2], got)
	}
}

func TestFakeReaderNoSamples(t *testing.T) {
	f := NewFakeReader(nil)

	_, err := f.Read()
	if err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader([]Inputs{{Button: true}})
	f.ReadError = errors.New("simulated error")

	_, err := f.Read()
	if err == nil {
		t.Error("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeReaderClose(t *testing.T) {
	f := NewFakeReader([]Inputs{{}})

	if f.Closed {
		t.Error("should not be closed initially")
	}

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakeReaderReset(t *testing.T) {
	f := NewFakeReader([]Inputs{{Button: true}, {Sleep: true}})

	// Consume first sample
	f.Read()

	f.Reset()

	got, _ := f.Read()
	if !got.Button || got.Sleep {
		t.Errorf("after reset: expected first sample, got %+v", got)
	}
}

func TestFakeMotor(t *testing.T) {
	m := &FakeMotor{}
	if m.On() {
		t.Error("motor should start off")
	}

	m.Set(true)
	m.Set(false)
	m.Set(true)

	if !m.On() {
		t.Error("expected motor on after last write")
	}
	if len(m.Values) != 3 {
		t.Errorf("expected 3 writes, got %d", len(m.Values))
	}

	m.SetError = errors.New("stuck")
	if err := m.Set(false); err == nil {
		t.Error("expected error")
	}
	if !m.On() {
		t.Error("failed write must not be recorded")
	}
}
