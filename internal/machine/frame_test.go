package machine

import (
	"testing"

	"github.com/pcx86/emu/internal/vga"
)

func TestRenderFrameResolvesPaletteIndex(t *testing.T) {
	v := vga.New()
	v.Width, v.Height = 8, 1
	v.PaletteRGBA[3] = 0xFF102030 // A=FF, R=10, G=20, B=30

	// One addressed byte covers all 8 pixels of this row. Set plane 0 and
	// plane 1 bit 7 (leftmost pixel) to produce color index 3 (0b0011).
	v.VRAM[0*4+0] = 0x80
	v.VRAM[0*4+1] = 0x80

	buf := renderFrame(v, nil)
	if len(buf) != 8*1*4 {
		t.Fatalf("buf length = %d, want %d", len(buf), 32)
	}
	if buf[0] != 0x10 || buf[1] != 0x20 || buf[2] != 0x30 || buf[3] != 0xFF {
		t.Errorf("pixel 0 = %#v, want [10 20 30 ff]", buf[0:4])
	}
	// Pixel 1 (bit 6, unset in both planes) should resolve to palette index 0.
	if buf[4] != uint8(v.PaletteRGBA[0]>>16) {
		t.Errorf("pixel 1 red = %#02x, want palette[0] red", buf[4])
	}
}
