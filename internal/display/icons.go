package display

import "periph.io/x/devices/v3/ssd1306/image1bit"

// 8x8 XBM bitmaps, one byte per row, least significant bit leftmost.
var (
	activeSymbol = [8]byte{
		0x00, 0x18, 0x3C, 0x7E, 0x7E, 0x3C, 0x18, 0x00,
	}
	inactiveSymbol = [8]byte{
		0x00, 0x18, 0x24, 0x42, 0x42, 0x24, 0x18, 0x00,
	}
)

func drawXBM(img *image1bit.VerticalLSB, x, y int, bits [8]byte) {
	for row, b := range bits {
		for col := 0; col < 8; col++ {
			if b&(1<<col) != 0 {
				img.SetBit(x+col, y+row, image1bit.On)
			}
		}
	}
}
