// Package devbus holds the small interface types shared between the bus
// and its peripheral devices (PIT, PIC, PS/2, FM synth) so that, for
// example, the PIT's view of "the PIC" and the PS/2 controller's view of
// "the PIC" are the same Go type and a single *pic.PIC can satisfy both.
//
// This is the "CpuHandle" indirection spec.md §9 asks for: devices see only
// the sliver of *cpu.CPU they need (waking a halted core), never a full
// pointer back into the CPU.
package devbus

// CPU is the capability every device needs from the CPU core: the ability
// to wake it from HLT when an interrupt line is asserted.
type CPU interface {
	Resume()
}

// PIC is the capability every device needs from the interrupt controller:
// requesting one of its 16 lines.
type PIC interface {
	RequestInterrupt(cpu CPU, n uint8)
}
