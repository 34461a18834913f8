package video

// scanEntry pairs the XT scan code (as original_source bios.rs's KeyCode
// enum numbers it) with the unshifted ASCII value the BIOS keyboard
// buffer carries in its low byte, per bios.rs's KEYCODE_TO_ASCII table's
// unshifted column. Shift/ctrl/alt modifiers are not modeled here: the
// full shift-state matrix is part of the BIOS keyboard-translation layer
// spec.md §1 keeps out of core scope, so this table serves the common
// unshifted case a guest program's input loop actually reads.
type scanEntry struct {
	scan  uint8
	ascii uint8
}

// namedScanCodes maps a guest-scancode name (the right-hand side of a
// [keymap] entry, or the identity default when a host key has no entry) to
// its XT scan code and BIOS ASCII value.
var namedScanCodes = map[string]scanEntry{
	"Escape": {0x01, 0x1B}, "1": {0x02, '1'}, "2": {0x03, '2'}, "3": {0x04, '3'},
	"4": {0x05, '4'}, "5": {0x06, '5'}, "6": {0x07, '6'}, "7": {0x08, '7'},
	"8": {0x09, '8'}, "9": {0x0A, '9'}, "0": {0x0B, '0'}, "Minus": {0x0C, '-'},
	"Equals": {0x0D, '='}, "Backspace": {0x0E, 0x08}, "Tab": {0x0F, 0x09},
	"Q": {0x10, 'q'}, "W": {0x11, 'w'}, "E": {0x12, 'e'}, "R": {0x13, 'r'},
	"T": {0x14, 't'}, "Y": {0x15, 'y'}, "U": {0x16, 'u'}, "I": {0x17, 'i'},
	"O": {0x18, 'o'}, "P": {0x19, 'p'}, "LeftBracket": {0x1A, '['}, "RightBracket": {0x1B, ']'},
	"Enter": {0x1C, 0x0D}, "ControlLeft": {0x1D, 0}, "A": {0x1E, 'a'}, "S": {0x1F, 's'},
	"D": {0x20, 'd'}, "F": {0x21, 'f'}, "G": {0x22, 'g'}, "H": {0x23, 'h'},
	"J": {0x24, 'j'}, "K": {0x25, 'k'}, "L": {0x26, 'l'}, "Semicolon": {0x27, ';'},
	"Apostrophe": {0x28, '\''}, "Grave": {0x29, '`'}, "ShiftLeft": {0x2A, 0}, "Backslash": {0x2B, '\\'},
	"Z": {0x2C, 'z'}, "X": {0x2D, 'x'}, "C": {0x2E, 'c'}, "V": {0x2F, 'v'},
	"B": {0x30, 'b'}, "N": {0x31, 'n'}, "M": {0x32, 'm'}, "Comma": {0x33, ','},
	"Period": {0x34, '.'}, "Slash": {0x35, '/'}, "ShiftRight": {0x36, 0}, "AltLeft": {0x38, 0},
	"Space": {0x39, ' '}, "Up": {0x48, 0}, "Left": {0x4B, 0}, "Right": {0x4D, 0}, "Down": {0x50, 0},
}

// translate resolves a host key name (already remapped through config's
// [keymap] section, or left identical when absent) into an XT scan code
// and a BIOS keystroke word (scan<<8 | ascii), the two forms spec.md §6's
// port map and INT 16h respectively expect.
func translate(name string) (scan uint8, biosKey uint16, ok bool) {
	e, ok := namedScanCodes[name]
	if !ok {
		return 0, 0, false
	}
	return e.scan, uint16(e.scan)<<8 | uint16(e.ascii), true
}
