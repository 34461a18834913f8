package machine

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"golang.org/x/image/bmp"
)

// Screenshot renders the current VGA frame and writes it to path as a BMP
// file, the format the emulated machine's own display hardware would have
// produced a dump in. Safe to call from outside the worker loop; it only
// reads VGA's exported fields.
func (m *Machine) Screenshot(path string) error {
	v := m.bus.VGA()
	width, height := int(v.Width), int(v.Height)
	rgba := renderFrame(v, nil)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			off := (y*width + x) * 4
			img.SetRGBA(x, y, color.RGBA{R: rgba[off], G: rgba[off+1], B: rgba[off+2], A: rgba[off+3]})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("machine: create screenshot %s: %w", path, err)
	}
	defer f.Close()
	if err := bmp.Encode(f, img); err != nil {
		return fmt.Errorf("machine: encode screenshot: %w", err)
	}
	return nil
}
