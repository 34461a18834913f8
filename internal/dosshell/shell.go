package dosshell

import (
	"encoding/binary"
	"os"

	"github.com/pcx86/emu/internal/cpu"
	"github.com/pcx86/emu/internal/vga"
)

// Shell is the DOS/BIOS personality the bus falls back on for software
// interrupts 0x10/0x11/0x16/0x21/0x33, grounded on original_source
// dos.rs's DiskOperatingSystem and bios.rs's BIOS. File-system-backed INT
// 21h services (opens/reads/writes/seeks/finds/deletes) are accepted but
// always answer a DOS error ("file not found" or "invalid handle"); closing
// a handle succeeds. spec.md §1 puts file-system backing of DOS handles outside
// the core engine's scope, so there is no host mount point to serve them
// from, but guest programs that merely probe for a missing data file
// should see a clean DOS error rather than a hang or panic.
type Shell struct {
	pspSegment  uint16
	dtaAddress  uint32
	keys        keyboardBuffer
	exitCode    int
	openHandles map[uint16]bool // true if in use; no backing file, every I/O call fails
}

// New returns a shell with no program loaded yet; call Setup once an MZ
// image has been placed in RAM by internal/mz.
func New() *Shell {
	return &Shell{openHandles: make(map[uint16]bool)}
}

// Setup installs the PSP, environment block, BIOS data area, and the two
// default interrupt vectors (8 = timer tick, 9 = keyboard) a DOS program
// expects to already exist when it gets control, following
// original_source dos.rs's load_executable environment setup.
func (s *Shell) Setup(c *cpu.CPU, ram []byte, loaded Loaded) {
	s.pspSegment = loaded.PSPSegment
	s.dtaAddress = uint32(s.pspSegment)<<16 | 0x80

	c.Regs.CX = 0x00FF
	c.Regs.DX = s.pspSegment
	c.Regs.SP = loaded.SP
	c.Regs.BP = 0x091C
	c.Regs.DI = 0x0080
	c.Regs.ES = s.pspSegment
	c.Regs.CS = loaded.CS
	c.Regs.SS = loaded.SS
	c.Regs.DS = s.pspSegment
	c.Regs.IP = loaded.IP

	writePSP(ram, s.pspSegment, loaded.LoadSegment, loaded.EnvironmentSegment, 0x0118, 0x0005, loaded.GuestPath)
	setupBIOSDataArea(ram)

	// Minimal INT8/INT9 handlers: IRET stubs placed below the PSP so a
	// guest that chains to "the previous handler" does not jump into
	// unmapped memory. IRQ0 (internal/pit) and IRQ1 (internal/ps2) are
	// delivered through these same vectors, so until the guest installs
	// its own handlers they land on the stub, which only returns;
	// keyboard translation for INT 16h is fed directly via PushKey.
	const stubAddress = 0x600
	ram[stubAddress] = 0xCF // IRET
	binary.LittleEndian.PutUint32(ram[8*4:], uint32(stubAddress))
	binary.LittleEndian.PutUint32(ram[9*4:], uint32(stubAddress))
}

// Loaded is the subset of an internal/mz.LoadResult the shell needs plus
// the segments it chooses for the PSP, environment block and guest-visible
// path string.
type Loaded struct {
	CS, IP, SS, SP                          uint16
	LoadSegment, PSPSegment, EnvironmentSegment uint16
	GuestPath                                string
}

// PushKey enqueues one already-translated BIOS keystroke (ASCII in the low
// byte, scan code in the high byte) for INT 16h to hand out.
func (s *Shell) PushKey(keyCode uint16) { s.keys.push(keyCode) }

// BIOSAdapter and DOSAdapter return the narrow single-method views
// internal/bus's BIOSHandler/DOSHandler interfaces expect. Both interfaces
// name their method HandleInterrupt with a different signature, so the
// same concrete type cannot implement both directly; these adapters are
// the seam.
func (s *Shell) BIOSAdapter() biosAdapter { return biosAdapter{s} }
func (s *Shell) DOSAdapter() dosAdapter   { return dosAdapter{s} }

type biosAdapter struct{ s *Shell }

func (a biosAdapter) HandleInterrupt(c *cpu.CPU, v *vga.VGA, n uint8) bool {
	return a.s.handleBIOS(c, v, n)
}

type dosAdapter struct{ s *Shell }

func (a dosAdapter) HandleInterrupt(c *cpu.CPU, ram []byte) bool {
	return a.s.handleDOS(c, ram)
}

// setFlag sets or clears one flag bit directly on the register file; the
// interpreter's own flag helpers are unexported to internal/cpu, so the
// bus-level interrupt handlers manipulate Regs.Flags through the exported
// Flag bit constants instead.
func setFlag(c *cpu.CPU, bit uint16, v bool) {
	if v {
		c.Regs.Flags |= bit
	} else {
		c.Regs.Flags &^= bit
	}
}

// handleBIOS services INT 10h (video), 11h (equipment list), 16h
// (keyboard) and 33h (mouse), matching original_source bios.rs's
// handle_interrupt plus the video mode-set bus.rs routes alongside it.
func (s *Shell) handleBIOS(c *cpu.CPU, v *vga.VGA, n uint8) bool {
	switch n {
	case 0x10:
		switch c.Regs.AX >> 8 {
		case 0x00: // set video mode
			mode := uint8(c.Regs.AX)
			if mode == 0x13 {
				v.Width, v.Height = 320, 200
			} else {
				v.Width, v.Height = 640, 480
			}
			v.VideoModeDirty = true
		case 0x0E: // teletype output, AL = char; no text-mode console here
		case 0x0F: // get video mode
			c.Regs.AX = 0x5000 | 0x13
		}
		return true
	case 0x11:
		c.Regs.AX = 0xD426
		return true
	case 0x16:
		switch c.Regs.AX >> 8 {
		case 0x00, 0x10: // wait for and remove a keystroke
			if key, ok := s.keys.pop(); ok {
				c.Regs.AX = key
			} else {
				c.Regs.AX = 0
			}
		case 0x01, 0x11: // peek, leave queued
			if s.keys.empty() {
				setFlag(c, cpu.FlagZF, true)
			} else {
				c.Regs.AX = s.keys.buf[s.keys.head]
				setFlag(c, cpu.FlagZF, false)
			}
		case 0x02: // shift flags: none of this shell's modifiers tracked
			c.Regs.AX &= 0xFF00
		}
		return true
	case 0x33:
		c.Regs.AX = 0 // mouse driver not installed
		return true
	default:
		return false
	}
}

// handleDOS services INT 21h, matching original_source dos.rs's
// handle_interrupt for the subset spec.md keeps in scope.
func (s *Shell) handleDOS(c *cpu.CPU, ram []byte) bool {
	ah := uint8(c.Regs.AX >> 8)
	al := uint8(c.Regs.AX)
	switch ah {
	case 0x00, 0x4C: // terminate (INT21 AH=0 or AH=4C)
		code := 0
		if ah == 0x4C {
			code = int(al)
		}
		os.Exit(code)
		return true
	case 0x01: // read character with echo
		v, _ := s.keys.pop()
		c.Regs.AX = (c.Regs.AX & 0xFF00) | (v & 0xFF)
		return true
	case 0x02: // write character, DL
		return true
	case 0x06: // direct console I/O
		return true
	case 0x07, 0x08: // direct/raw console input, no echo
		v, _ := s.keys.pop()
		c.Regs.AX = (c.Regs.AX & 0xFF00) | (v & 0xFF)
		return true
	case 0x09: // write $-terminated string at DS:DX
		addr := uint32(c.Regs.DS)<<4 + uint32(c.Regs.DX)
		for addr < uint32(len(ram)) && ram[addr] != '$' {
			addr++
		}
		return true
	case 0x0A: // buffered input
		return true
	case 0x1A: // set DTA
		s.dtaAddress = uint32(c.Regs.DS)<<16 | uint32(c.Regs.DX)
		return true
	case 0x25: // set interrupt vector
		binary.LittleEndian.PutUint16(ram[uint32(al)*4:], c.Regs.DX)
		binary.LittleEndian.PutUint16(ram[uint32(al)*4+2:], c.Regs.DS)
		return true
	case 0x2F: // get DTA
		c.Regs.BX = uint16(s.dtaAddress)
		c.Regs.ES = uint16(s.dtaAddress >> 16)
		return true
	case 0x30: // get DOS version
		c.Regs.AX = 0x0005
		c.Regs.CX = 0x0000
		c.Regs.BX = 0xFF00
		return true
	case 0x35: // get interrupt vector
		addr := binary.LittleEndian.Uint32(ram[uint32(al)*4:])
		c.Regs.BX = uint16(addr)
		c.Regs.ES = uint16(addr >> 16)
		return true
	case 0x3C, 0x3D: // create/open file: no host mount point, report failure
		setFlag(c, cpu.FlagCF, true)
		c.Regs.AX = 2 // file not found
		return true
	case 0x3E: // close file
		delete(s.openHandles, c.Regs.BX)
		setFlag(c, cpu.FlagCF, false)
		return true
	case 0x3F, 0x40: // read/write file: no open handle ever succeeds
		setFlag(c, cpu.FlagCF, true)
		c.Regs.AX = 6 // invalid handle
		return true
	case 0x41: // delete file
		setFlag(c, cpu.FlagCF, true)
		c.Regs.AX = 2
		return true
	case 0x42: // seek
		setFlag(c, cpu.FlagCF, true)
		c.Regs.AX = 6
		return true
	case 0x44: // get device information
		setFlag(c, cpu.FlagCF, false)
		c.Regs.DX = 0x80D3
		c.Regs.AX = c.Regs.DX
		return true
	case 0x48: // allocate memory: report out of memory, no sub-allocator here
		setFlag(c, cpu.FlagCF, true)
		c.Regs.AX = 8
		c.Regs.BX = 0
		return true
	case 0x49: // free memory
		setFlag(c, cpu.FlagCF, false)
		return true
	case 0x4A: // resize memory block
		setFlag(c, cpu.FlagCF, true)
		c.Regs.AX = 9
		return true
	case 0x4E, 0x4F: // find first/next matching file
		setFlag(c, cpu.FlagCF, true)
		c.Regs.AX = 2
		return true
	default:
		return false
	}
}
