package machine

import "github.com/pcx86/emu/internal/vga"

// renderFrame converts v's current plane-interleaved VRAM into packed RGBA
// bytes for internal/video.Backend.PresentFrame, one nibble-indexed pixel
// (one bit per plane, four planes, 8 pixels per addressed byte) resolved
// through the palette, matching the standard VGA planar graphics-mode
// addressing the register blocks in internal/vga implement.
func renderFrame(v *vga.VGA, buf []byte) []byte {
	width, height := int(v.Width), int(v.Height)
	need := width * height * 4
	if cap(buf) < need {
		buf = make([]byte, need)
	}
	buf = buf[:need]

	rowBytes := (width + 7) / 8
	for y := 0; y < height; y++ {
		for xByte := 0; xByte < rowBytes; xByte++ {
			address := uint32(y*rowBytes + xByte)
			var planes [4]uint8
			for p := 0; p < 4; p++ {
				idx := int(address)*4 + p
				if idx < len(v.VRAM) {
					planes[p] = v.VRAM[idx]
				}
			}
			for bit := 0; bit < 8; bit++ {
				x := xByte*8 + bit
				if x >= width {
					break
				}
				shift := uint(7 - bit)
				colorIndex := (planes[0]>>shift&1)<<0 | (planes[1]>>shift&1)<<1 | (planes[2]>>shift&1)<<2 | (planes[3]>>shift&1)<<3
				// PaletteRGBA packs 0xAARRGGBB; PresentFrame wants R,G,B,A byte order.
				rgba := v.PaletteRGBA[colorIndex]
				off := (y*width + x) * 4
				buf[off+0] = uint8(rgba >> 16)
				buf[off+1] = uint8(rgba >> 8)
				buf[off+2] = uint8(rgba)
				buf[off+3] = uint8(rgba >> 24)
			}
		}
	}
	return buf
}
