package display

import (
	"image"
	"image/draw"
)

// FakePanel records frames and power changes for tests.
type FakePanel struct {
	Frames    []*image.Gray
	Power     []bool
	On        bool
	DrawError error
	Closed    bool
}

// NewFakePanel returns a fake panel that starts powered on.
func NewFakePanel() *FakePanel {
	return &FakePanel{On: true}
}

// Draw copies img so later frames cannot alias it.
func (f *FakePanel) Draw(img image.Image) error {
	if f.DrawError != nil {
		return f.DrawError
	}
	cp := image.NewGray(img.Bounds())
	draw.Draw(cp, cp.Bounds(), img, img.Bounds().Min, draw.Src)
	f.Frames = append(f.Frames, cp)
	return nil
}

// SetPower records the requested state.
func (f *FakePanel) SetPower(on bool) error {
	f.Power = append(f.Power, on)
	f.On = on
	return nil
}

// Close marks the panel closed.
func (f *FakePanel) Close() error {
	f.Closed = true
	f.On = false
	return nil
}

// Last returns the most recent frame, or nil.
func (f *FakePanel) Last() *image.Gray {
	if len(f.Frames) == 0 {
		return nil
	}
	return f.Frames[len(f.Frames)-1]
}
