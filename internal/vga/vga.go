// Package vga implements the planar VGA memory controller and the register
// blocks (Sequencer, Graphics Controller, Attribute Controller, CRT
// Controller) that the BIOS and mode-13h/mode-Xh graphics code drive
// through ports 0x3C0-0x3DF, matching spec.md §4.5's raster-op description.
package vga

import "encoding/binary"

// VGA holds the four-plane VRAM store and every register block a 16-color
// planar mode exercises. Fields are grouped by the register block they
// belong to, following the layout of the hardware being modeled rather than
// an idealized Go struct shape.
type VGA struct {
	Width, Height uint16

	VideoModeDirty bool
	VRAMDirty      bool
	PaletteDirty   bool

	// VRAM is stored four bytes per addressed offset - one byte per plane -
	// so a guest write to one linear offset touches vram[offset*4:offset*4+4]
	// and the host renderer can select a plane by indexing byte 0-3 instead
	// of walking a separate array per plane.
	VRAM         []byte
	vramBase     uint32
	vramSize     uint32
	PaletteRGBA  [16]uint32
	latch        uint32
	isNextATCData bool
	atcIndex     uint8
	palette      [16]uint8

	modeControl          uint8
	overscanColor        uint8
	colorPlaneEnable     uint8
	horizontalPelPanning uint8
	colorSelect          uint8

	sequencerIndex      uint8
	sequencerReset      uint8
	clockingMode        uint8
	mapMask             uint8
	characterMapSelect  uint8
	memoryMode          uint8

	gdcIndex              uint8
	setReset              uint8
	enableSetReset        uint8
	colorCompare          uint8
	dataRotateAndOperation uint8
	readMapSelect         uint8
	readWriteMode         uint8
	miscellaneous         uint8
	colorDontCare         uint8
	bitMask               uint8

	crtIndex                 uint8
	horizontalTotal          uint8
	horizontalDisplayEnd     uint8
	horizontalBlankingStart  uint8
	horizontalBlankingEnd    uint8
	horizontalRetraceStart   uint8
	horizontalRetraceEnd     uint8
	verticalTotal            uint8
	overflow                 uint8
	maximumScanLine          uint8
	verticalRetraceStart     uint8
	verticalRetraceEnd       uint8
	verticalDisplayEnd       uint8
	verticalBlankingStart    uint8
	verticalBlankingEnd      uint8

	fullDataRotate         uint32
	fullDataOperation      uint32
	fullMapMask            uint32
	fullNotMapMask         uint32
	fullBitMask            uint32
	fullSetReset           uint32
	fullEnableSetReset     uint32
	fullNotEnableSetReset  uint32
	fullEnableAndSetReset  uint32
}

// New returns a VGA controller with VRAM mapped at 0xA0000/128KiB (the
// 16-color planar window) and the map mask set to all-planes-writable, the
// BIOS's boot-time default.
func New() *VGA {
	v := &VGA{
		Width:    640,
		Height:   480,
		VRAM:     make([]byte, 0x40000),
		vramBase: 0xA0000,
		vramSize: 0x20000,
		mapMask:  0xFF,
	}
	v.fullMapMask = spread4(v.mapMask)
	return v
}

// VRAMWindow returns the linear address range the guest currently sees VRAM
// mapped at, as set by Graphics Controller register 6.
func (v *VGA) VRAMWindow() (base, size uint32) { return v.vramBase, v.vramSize }

func replicate8(value uint8) uint32 {
	r := uint32(value)
	return r<<24 | r<<16 | r<<8 | r
}

func spread4(value uint8) uint32 {
	r := uint32(value)
	return 0x000000FF*(r>>0&1) | 0x0000FF00*(r>>1&1) | 0x00FF0000*(r>>2&1) | 0xFF000000*(r>>3&1)
}

func rotateRight8(value uint8, n uint32) uint8 {
	n &= 7
	return value>>n | value<<(8-n)
}

func (v *VGA) rasteringOperation(input, mask uint32) uint32 {
	switch v.fullDataOperation {
	case 0:
		return (input & mask) | (v.latch &^ mask)
	case 1:
		return (input | ^mask) & v.latch
	case 2:
		return (input & mask) | v.latch
	default:
		return (input & mask) ^ v.latch
	}
}

// ReadMemory implements one plane-interleaved VRAM byte read under the
// current Graphics Controller read mode: mode 0 selects a single plane out
// of the freshly latched dword, mode 1 compares all four planes against
// color_compare/color_dont_care.
func (v *VGA) ReadMemory(address uint32) uint8 {
	v.latch = binary.LittleEndian.Uint32(v.VRAM[address*4:])
	if v.readWriteMode>>3&1 == 1 {
		result := v.latch & spread4(v.colorDontCare)
		result ^= spread4(v.colorCompare & v.colorDontCare)
		return ^(uint8(result>>24) | uint8(result>>16) | uint8(result>>8) | uint8(result))
	}
	return uint8(v.latch >> (8 * uint32(v.readMapSelect)))
}

// WriteMemory implements the four Graphics Controller write modes and
// commits the result through the map mask into all four planes at once.
func (v *VGA) WriteMemory(address uint32, value uint8) {
	var result uint32
	switch v.readWriteMode & 0x03 {
	case 0:
		r := rotateRight8(value, v.fullDataRotate)
		result = replicate8(r)
		result = (result & v.fullNotEnableSetReset) | v.fullEnableAndSetReset
		result = v.rasteringOperation(result, v.fullBitMask)
	case 1:
		result = v.latch
	case 2:
		result = v.rasteringOperation(spread4(value), v.fullBitMask)
	default:
		r := rotateRight8(value, v.fullDataRotate)
		result = replicate8(r)
		result &= v.fullBitMask
		result = v.rasteringOperation(v.fullSetReset, result)
	}
	original := binary.LittleEndian.Uint32(v.VRAM[address*4:])
	result = (original & v.fullNotMapMask) | (result & v.fullMapMask)
	binary.LittleEndian.PutUint32(v.VRAM[address*4:], result)
	v.VRAMDirty = true
}

// InByte implements the index/data register port pairs for the Attribute
// Controller (0x3C0/0x3C1, flip-flopped by is_next_atc_data), Sequencer
// (0x3C4/0x3C5), Graphics Controller (0x3CE/0x3CF) and CRT Controller
// (0x3D4/0x3D5).
func (v *VGA) InByte(port uint16) uint8 {
	switch port {
	case 0x3C1:
		var value uint8
		if v.isNextATCData {
			switch {
			case v.atcIndex <= 0x0F:
				value = v.palette[v.atcIndex]
			case v.atcIndex == 0x10:
				value = v.modeControl
			case v.atcIndex == 0x11:
				value = v.overscanColor
			case v.atcIndex == 0x12:
				value = v.colorPlaneEnable
			case v.atcIndex == 0x13:
				value = v.horizontalPelPanning
			case v.atcIndex == 0x14:
				value = v.colorSelect
			}
		} else {
			value = v.atcIndex
		}
		v.isNextATCData = !v.isNextATCData
		return value
	case 0x3C4:
		return v.sequencerIndex
	case 0x3C5:
		switch v.sequencerIndex {
		case 0x00:
			return v.sequencerReset
		case 0x01:
			return v.clockingMode
		case 0x02:
			return v.mapMask
		case 0x03:
			return v.characterMapSelect
		case 0x04:
			return v.memoryMode
		}
		return 0
	case 0x3CE:
		return v.gdcIndex
	case 0x3CF:
		switch v.gdcIndex {
		case 0x00:
			return v.setReset
		case 0x01:
			return v.enableSetReset
		case 0x02:
			return v.colorCompare
		case 0x03:
			return v.dataRotateAndOperation
		case 0x04:
			return v.readMapSelect
		case 0x05:
			return v.readWriteMode
		case 0x06:
			return v.miscellaneous
		case 0x07:
			return v.colorDontCare
		case 0x08:
			return v.bitMask
		}
		return 0
	case 0x3D4:
		return v.crtIndex
	case 0x3D5:
		switch v.crtIndex {
		case 0x00:
			return v.horizontalTotal
		case 0x01:
			return v.horizontalDisplayEnd
		case 0x02:
			return v.horizontalBlankingStart
		case 0x03:
			return v.horizontalBlankingEnd
		case 0x04:
			return v.horizontalRetraceStart
		case 0x05:
			return v.horizontalRetraceEnd
		case 0x06:
			return v.verticalTotal
		case 0x07:
			return v.overflow
		case 0x09:
			return v.maximumScanLine
		case 0x10:
			return v.verticalRetraceStart
		case 0x11:
			return v.verticalRetraceEnd
		case 0x12:
			return v.verticalDisplayEnd
		case 0x15:
			return v.verticalBlankingStart
		case 0x16:
			return v.verticalBlankingEnd
		}
		return 0
	case 0x3DA:
		// Input Status Register 1. Reading it always resets the ATC
		// flip-flop; we don't model retrace timing so the status bits
		// themselves (vertical retrace, display disable) always read 0.
		v.isNextATCData = false
		return 0
	default:
		return 0
	}
}

// OutByte implements the same register blocks as InByte, plus the side
// effects a write can have: palette RGBA expansion, plane-mask/bit-mask
// replication into the "full" 32-bit forms ReadMemory/WriteMemory use, and
// GDC register 6 retargeting the VRAM window.
func (v *VGA) OutByte(port uint16, value uint8) {
	switch port {
	case 0x3C0:
		if v.isNextATCData {
			switch {
			case v.atcIndex <= 0x0F:
				v.palette[v.atcIndex] = value
				r := (value>>5&1)*0x55 + (value>>2&1)*0xAA
				g := (value>>4&1)*0x55 + (value>>1&1)*0xAA
				b := (value>>3&1)*0x55 + (value>>0&1)*0xAA
				v.PaletteRGBA[v.atcIndex] = 0xFF000000 | uint32(b)<<16 | uint32(g)<<8 | uint32(r)
				v.PaletteDirty = true
			case v.atcIndex == 0x10:
				v.modeControl = value
			case v.atcIndex == 0x11:
				v.overscanColor = value
			case v.atcIndex == 0x12:
				v.colorPlaneEnable = value
			case v.atcIndex == 0x13:
				v.horizontalPelPanning = value
			case v.atcIndex == 0x14:
				v.colorSelect = value
			}
		} else {
			v.atcIndex = value
		}
		v.isNextATCData = !v.isNextATCData
	case 0x3C4:
		v.sequencerIndex = value
	case 0x3C5:
		switch v.sequencerIndex {
		case 0x00:
			v.sequencerReset = value
		case 0x01:
			v.clockingMode = value
		case 0x02:
			v.mapMask = value
			v.fullMapMask = spread4(v.mapMask)
			v.fullNotMapMask = ^v.fullMapMask
		case 0x03:
			v.characterMapSelect = value
		case 0x04:
			v.memoryMode = value
		}
	case 0x3CE:
		v.gdcIndex = value
	case 0x3CF:
		switch v.gdcIndex {
		case 0x00:
			v.setReset = value & 0x0F
			v.fullSetReset = spread4(v.setReset)
			v.fullEnableAndSetReset = v.fullSetReset & v.fullEnableSetReset
		case 0x01:
			v.enableSetReset = value & 0x0F
			v.fullEnableSetReset = spread4(v.enableSetReset)
			v.fullNotEnableSetReset = ^v.fullEnableSetReset
			v.fullEnableAndSetReset = v.fullSetReset & v.fullEnableSetReset
		case 0x02:
			v.colorCompare = value & 0x0F
		case 0x03:
			v.dataRotateAndOperation = value
			v.fullDataRotate = uint32(value) & 7
			v.fullDataOperation = uint32(value>>3) & 3
		case 0x04:
			v.readMapSelect = value & 0x03
		case 0x05:
			v.readWriteMode = value & 0x0B
		case 0x06:
			v.miscellaneous = value & 0x0F
			switch v.miscellaneous >> 2 {
			case 0:
				v.vramBase, v.vramSize = 0xA0000, 0x20000
			case 1:
				v.vramBase, v.vramSize = 0xA0000, 0x10000
			case 2:
				v.vramBase, v.vramSize = 0xB0000, 0x8000
			default:
				v.vramBase, v.vramSize = 0xB8000, 0x8000
			}
		case 0x07:
			v.colorDontCare = value & 0x0F
		case 0x08:
			v.bitMask = value
			v.fullBitMask = replicate8(v.bitMask)
		}
	case 0x3D4:
		v.crtIndex = value
	case 0x3D5:
		switch v.crtIndex {
		case 0x00:
			v.horizontalTotal = value
		case 0x01:
			v.horizontalDisplayEnd = value
		case 0x02:
			v.horizontalBlankingStart = value
		case 0x03:
			v.horizontalBlankingEnd = value
		case 0x04:
			v.horizontalRetraceStart = value
		case 0x05:
			v.horizontalRetraceEnd = value
		case 0x06:
			v.verticalTotal = value
		case 0x07:
			v.overflow = value
		case 0x09:
			v.maximumScanLine = value
		case 0x10:
			v.verticalRetraceStart = value
		case 0x11:
			v.verticalRetraceEnd = value
		case 0x12:
			v.verticalDisplayEnd = value
		case 0x15:
			v.verticalBlankingStart = value
		case 0x16:
			v.verticalBlankingEnd = value
		}
	}
}
