// Package pic implements a 16-input priority interrupt controller presented
// as a single unit over two cascaded 8-input 8259-style PICs.
package pic

import "github.com/pcx86/emu/internal/devbus"

// PIC holds the pending/enable masks and in-service bookkeeping for all 16
// interrupt lines (0-7 on the master, 8-15 on the slave, presented flat).
type PIC struct {
	enable  uint16 // bit set = line unmasked (enabled)
	pending uint16

	inService uint8 // 16 = none in service
	highest   uint8 // 16 = none pending
}

// New returns a PIC with every line enabled and nothing pending, matching
// the original hardware's power-on mask of all-ones.
func New() *PIC {
	return &PIC{
		enable:    0xFFFF,
		inService: 16,
		highest:   16,
	}
}

// RequestInterrupt raises line n if it is unmasked and not already pending,
// recomputes the current highest-priority pending line, and wakes cpu if it
// was halted.
func (p *PIC) RequestInterrupt(cpu devbus.CPU, n uint8) {
	if p.enable>>n&1 == 1 && p.pending>>n&1 == 0 {
		p.pending |= 1 << n
		p.highest = trailingZeros16(p.pending)
	}
	cpu.Resume()
}

// GetInterruptToHandle latches and returns the vector for the current
// highest-priority pending line, ok=false when nothing is pending.
func (p *PIC) GetInterruptToHandle() (vector uint8, ok bool) {
	if p.highest == 16 {
		return 0, false
	}
	p.inService = p.highest
	if p.inService < 8 {
		return 0x08 + p.inService, true
	}
	return 0x70 + (p.inService - 8), true
}

func (p *PIC) endInterrupt(n uint8) {
	p.pending &^= 1 << n
	p.highest = trailingZeros16(p.pending)
}

// InByte reads the enable-mask halves at 0x21 (master) / 0xA1 (slave); any
// other address the bus might route here reads zero.
func (p *PIC) InByte(port uint16) uint8 {
	switch port {
	case 0x21:
		return uint8(p.enable)
	case 0xA1:
		return uint8(p.enable >> 8)
	default:
		return 0
	}
}

// OutByte implements the enable-mask writes at 0x21/0xA1 and the command
// writes at 0x20/0xA0: 0x20 is a non-specific EOI (ends whatever is
// currently in service), 0x60-0x67 is a specific EOI for the named line.
func (p *PIC) OutByte(port uint16, v uint8) {
	switch port {
	case 0x21:
		p.enable = (p.enable & 0xFF00) | uint16(v)
	case 0xA1:
		p.enable = (p.enable & 0x00FF) | uint16(v)<<8
	case 0x20, 0xA0:
		switch {
		case v == 0x20:
			p.endInterrupt(p.inService)
		case v >= 0x60 && v <= 0x67:
			p.endInterrupt(v & 7)
		}
	}
}

func trailingZeros16(v uint16) uint8 {
	if v == 0 {
		return 16
	}
	n := uint8(0)
	for v&1 == 0 {
		v >>= 1
		n++
	}
	return n
}
