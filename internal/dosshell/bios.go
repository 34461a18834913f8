// Package dosshell is the thin DOS/BIOS personality the bus intercepts
// software interrupts 0x10/0x11/0x16/0x21/0x33 through (INT 0x20 is
// handled by the bus itself). spec.md §1
// explicitly keeps the full DOS INT 21h personality and the BIOS data area
// out of the core emulation engine's scope, treating this package as an
// external collaborator with only its interception surface specified.
package dosshell

import "encoding/binary"

// biosDataAreaBase is the linear address of the BIOS data area, matching
// original_source bios.rs's BIOS::from_ram(&mut ram[0x400]).
const biosDataAreaBase = 0x400

const (
	bdaVideoMode          = biosDataAreaBase + 0x49
	bdaScreenColumns      = biosDataAreaBase + 0x4A
	bdaVideoMemoryAddress = biosDataAreaBase + 0x4E
)

// keyboardBuffer is a small ring buffer of translated ASCII/scan-code pairs
// feeding INT 16h. It is deliberately independent of the PS/2 controller's
// raw scan-code queue (internal/ps2): spec.md §1 lists both the BIOS
// keyboard translation and the PS/2 queue as separate external
// collaborators, each specified only by its interface to the core, so this
// shell does not re-derive BIOS keystrokes from PS/2 IRQ1 traffic. Callers
// (internal/video's input loop) push already-translated keystrokes here
// directly.
type keyboardBuffer struct {
	buf  [16]uint16
	head int
	tail int
}

func (k *keyboardBuffer) push(keyCode uint16) bool {
	if keyCode == 0 {
		return false
	}
	next := (k.tail + 1) % len(k.buf)
	if next == k.head {
		return false
	}
	k.buf[k.tail] = keyCode
	k.tail = next
	return true
}

func (k *keyboardBuffer) pop() (uint16, bool) {
	if k.head == k.tail {
		return 0, false
	}
	v := k.buf[k.head]
	k.head = (k.head + 1) % len(k.buf)
	return v, true
}

func (k *keyboardBuffer) empty() bool { return k.head == k.tail }

// setupBIOSDataArea writes a handful of BDA fields for the guest to read:
// the video mode (text mode 3), columns and VRAM segment. The shell itself
// does not read them back; INT 10h AH=0x0F answers with a fixed value.
func setupBIOSDataArea(ram []byte) {
	ram[bdaVideoMode] = 0x03
	binary.LittleEndian.PutUint16(ram[bdaScreenColumns:], 80)
	binary.LittleEndian.PutUint16(ram[bdaVideoMemoryAddress:], 0xB800)
}
