package display

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/sweeney/alarm-clock/internal/logic"
)

// Renderer rasterizes screens for a 1-bit panel of a fixed size.
type Renderer struct {
	bounds image.Rectangle
	face   *basicfont.Face
}

// NewRenderer returns a renderer for a w x h panel.
func NewRenderer(w, h int) *Renderer {
	return &Renderer{
		bounds: image.Rect(0, 0, w, h),
		face:   basicfont.Face7x13,
	}
}

// Bounds returns the panel rectangle.
func (r *Renderer) Bounds() image.Rectangle { return r.bounds }

func (r *Renderer) canvas() *image1bit.VerticalLSB {
	return image1bit.NewVerticalLSB(r.bounds)
}

// Render dispatches on the screen kind.
func (r *Renderer) Render(s logic.Screen) *image1bit.VerticalLSB {
	switch s.Kind {
	case logic.ScreenAlarmSet:
		return r.AlarmSet(s.AlarmHour, s.AlarmMinute)
	case logic.ScreenWake:
		return r.Wake()
	default:
		return r.Clock(s.LocalTime, s.AlarmHour, s.AlarmMinute)
	}
}

// Clock draws the date, the time and the alarm preview line.
// local is already in local civil seconds.
func (r *Renderer) Clock(local uint32, alarmHour, alarmMinute uint8) *image1bit.VerticalLSB {
	img := r.canvas()
	t := time.Unix(int64(local), 0).UTC()
	r.centered(img, t.Format("Mon 02 Jan"), 1, 0)
	r.centered(img, t.Format("15:04:05"), 2, 16)
	r.centered(img, fmt.Sprintf("Alarm %02d:%02d", alarmHour, alarmMinute), 1, r.bounds.Dy()-r.face.Height)
	return img
}

// AlarmSet draws the alarm time in the large font.
func (r *Renderer) AlarmSet(hour, minute uint8) *image1bit.VerticalLSB {
	img := r.canvas()
	r.centered(img, "Set alarm", 1, 0)
	r.centered(img, fmt.Sprintf("%02d:%02d", hour, minute), 3, 20)
	return img
}

// Wake fills the screen with the wake message.
func (r *Renderer) Wake() *image1bit.VerticalLSB {
	img := r.canvas()
	scale := 2
	top := (r.bounds.Dy() - r.face.Height*scale) / 2
	r.centered(img, logic.WakeMessage, scale, top)
	return img
}

// Connecting draws the network wait message with three indicators; the
// active one advances with frame.
func (r *Renderer) Connecting(frame int) *image1bit.VerticalLSB {
	img := r.canvas()
	r.centered(img, "Connecting to WiFi", 1, 0)
	for i, x := range []int{46, 60, 74} {
		icon := inactiveSymbol
		if frame%3 == i {
			icon = activeSymbol
		}
		drawXBM(img, x, 30, icon)
	}
	return img
}

// Message draws one line of small text near the top.
func (r *Renderer) Message(text string) *image1bit.VerticalLSB {
	img := r.canvas()
	r.centered(img, text, 1, 0)
	return img
}

// centered draws s horizontally centered with its top edge at top,
// enlarged by an integer scale factor.
func (r *Renderer) centered(dst draw.Image, s string, scale, top int) {
	w := font.MeasureString(r.face, s).Ceil()
	h := r.face.Height
	if w == 0 {
		return
	}

	text := image.NewGray(image.Rect(0, 0, w, h))
	d := font.Drawer{
		Dst:  text,
		Src:  image.NewUniform(color.White),
		Face: r.face,
		Dot:  fixed.P(0, r.face.Ascent),
	}
	d.DrawString(s)

	x := r.bounds.Min.X + (r.bounds.Dx()-w*scale)/2
	y := r.bounds.Min.Y + top
	target := image.Rect(x, y, x+w*scale, y+h*scale)
	draw.NearestNeighbor.Scale(dst, target, text, text.Bounds(), draw.Src, nil)
}
