package vga

import "testing"

func programGDC(v *VGA, index, value uint8) {
	v.OutByte(0x3CE, index)
	v.OutByte(0x3CF, value)
}

func programSeq(v *VGA, index, value uint8) {
	v.OutByte(0x3C4, index)
	v.OutByte(0x3C5, value)
}

// Scenario 5 (spec.md §8): write mode 2 with all planes enabled writes the
// same low nibble into every plane of the addressed offset.
func TestWriteMode2FansOutAcrossPlanes(t *testing.T) {
	v := New()
	programSeq(v, 0x02, 0xFF)             // map mask: all planes writable
	programGDC(v, 0x08, 0xFF)             // bit mask: all bits pass through
	programGDC(v, 0x05, 2)                // read/write mode 2, read mode 0
	programGDC(v, 0x03, 0)                // rasterop 0 (replace), no rotate

	v.WriteMemory(0x1234, 0b00000101) // planes 0 and 2 set

	for plane := uint32(0); plane < 4; plane++ {
		got := v.VRAM[0x1234*4+plane]
		want := uint8(0)
		if plane == 0 || plane == 2 {
			want = 0xFF
		}
		if got != want {
			t.Errorf("plane %d = %#02x want %#02x", plane, got, want)
		}
	}
	if !v.VRAMDirty {
		t.Error("expected VRAMDirty to be set after a write")
	}
}

func TestReadMode0SelectsPlaneByReadMapSelect(t *testing.T) {
	v := New()
	programSeq(v, 0x02, 0xFF)
	programGDC(v, 0x08, 0xFF)
	programGDC(v, 0x05, 2)
	programGDC(v, 0x03, 0)
	v.WriteMemory(0x10, 0b1010)

	programGDC(v, 0x04, 1) // read map select -> plane 1
	programGDC(v, 0x05, 0) // read/write mode 0 (read mode 0)
	if got := v.ReadMemory(0x10); got != 0xFF {
		t.Errorf("plane 1 readback=%#02x want 0xFF", got)
	}
	programGDC(v, 0x04, 0)
	if got := v.ReadMemory(0x10); got != 0x00 {
		t.Errorf("plane 0 readback=%#02x want 0x00", got)
	}
}

func TestAttributeControllerPaletteWriteExpandsRGBA(t *testing.T) {
	v := New()
	v.OutByte(0x3C0, 0x00)       // select palette index 0 (index phase)
	v.OutByte(0x3C0, 0b00110000) // data phase: red+green low bits (5, 4) set

	if !v.PaletteDirty {
		t.Fatal("expected PaletteDirty after a palette register write")
	}
	got := v.PaletteRGBA[0]
	if got&0xFF != 0x55 { // red channel
		t.Errorf("red channel = %#02x want 0x55", got&0xFF)
	}
	if got>>8&0xFF != 0x55 { // green channel
		t.Errorf("green channel = %#02x want 0x55", got>>8&0xFF)
	}
	if got>>24 != 0xFF {
		t.Errorf("alpha channel = %#02x want 0xFF", got>>24)
	}
}

func TestGDCRegister6RetargetsVRAMWindow(t *testing.T) {
	v := New()
	if base, size := v.VRAMWindow(); base != 0xA0000 || size != 0x20000 {
		t.Fatalf("default window = %#x/%#x, want 0xA0000/0x20000", base, size)
	}
	programGDC(v, 0x06, 0x0C) // miscellaneous>>2 == 3 -> text-mode-style window
	if base, size := v.VRAMWindow(); base != 0xB8000 || size != 0x8000 {
		t.Errorf("window after retarget = %#x/%#x, want 0xB8000/0x8000", base, size)
	}
}

func TestStatusRegisterReadResetsAttributeFlipFlop(t *testing.T) {
	v := New()
	v.OutByte(0x3C0, 0x01) // enters "index written, expect data next" phase
	v.InByte(0x3DA)
	// Having read status, the next 0x3C0 write must be treated as an index
	// again, not data, or the next value would clobber palette[1].
	v.OutByte(0x3C0, 0x02)
	if v.atcIndex != 0x02 {
		t.Fatalf("atcIndex=%#02x want 0x02 after flip-flop reset", v.atcIndex)
	}
}
