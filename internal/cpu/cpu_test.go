package cpu

import "testing"

// fakeBus is a flat 1MB memory plus a port space, standing in for the bus
// package's real MMIO/IVT routing. Hardware interrupts and bus-intercepted
// software interrupts are never exercised here; HandleInterrupt always
// defers to the CPU's own IVT vectoring.
type fakeBus struct {
	mem   [0x100000]byte
	ports map[uint16]uint8
}

func newFakeBus() *fakeBus { return &fakeBus{ports: map[uint16]uint8{}} }

func (b *fakeBus) ReadByte(linear uint32) uint8     { return b.mem[linear&0xFFFFF] }
func (b *fakeBus) WriteByte(linear uint32, v uint8) { b.mem[linear&0xFFFFF] = v }
func (b *fakeBus) InByte(port uint16) uint8         { return b.ports[port] }
func (b *fakeBus) OutByte(port uint16, v uint8)     { b.ports[port] = v }
func (b *fakeBus) Tick(cycle uint64)                {}
func (b *fakeBus) HandleInterrupt(c *CPU, n uint8) bool { return false }
func (b *fakeBus) PendingHardwareVector() (uint8, bool) { return 0, false }

func (b *fakeBus) loadCode(cs, ip uint16, code ...byte) {
	base := linear(cs, ip)
	for i, by := range code {
		b.mem[(base+uint32(i))&0xFFFFF] = by
	}
}

func (b *fakeBus) setWord(addr uint32, v uint16) {
	b.mem[addr&0xFFFFF] = uint8(v)
	b.mem[(addr+1)&0xFFFFF] = uint8(v >> 8)
}

// Scenario 1 (spec.md §8): ADD AL, imm8 across a nibble boundary sets the
// auxiliary-carry flag and leaves carry, zero, sign, parity and overflow
// clear.
func TestAddFlagsHalfCarry(t *testing.T) {
	bus := newFakeBus()
	bus.loadCode(0, 0, 0x04, 0x01) // ADD AL, 0x01
	c := New(bus)
	c.Regs.CS, c.Regs.IP = 0, 0
	c.Regs.AX = 0x000F

	c.Step()

	if al := c.Regs.Byte(OpAL); al != 0x10 {
		t.Fatalf("AL=%#02x want 0x10", al)
	}
	if c.flag(FlagCF) {
		t.Error("CF should be clear")
	}
	if !c.flag(FlagAF) {
		t.Error("AF should be set")
	}
	if c.flag(FlagZF) {
		t.Error("ZF should be clear")
	}
	if c.flag(FlagSF) {
		t.Error("SF should be clear")
	}
	if c.flag(FlagOF) {
		t.Error("OF should be clear")
	}
	if c.flag(FlagPF) {
		t.Error("PF should be clear (0x10 has odd parity)")
	}
}

// Scenario 2 (spec.md §8): DIV r/m8 with a quotient that overflows AL must
// vector through interrupt 0 instead of writing a truncated result.
func TestDivByteOverflowRaisesInterruptZero(t *testing.T) {
	bus := newFakeBus()
	// DIV CL: F6 /6, ModRM 11 110 001 = 0xF1.
	bus.loadCode(0x1000, 0, 0xF6, 0xF1)
	bus.setWord(linear(0, 0), 0x1234) // IVT[0] offset
	bus.setWord(linear(0, 2), 0x0050) // IVT[0] segment

	c := New(bus)
	c.Regs.CS, c.Regs.IP = 0x1000, 0
	c.Regs.SS, c.Regs.SP = 0x2000, 0x0100
	c.Regs.AX = 0x1000 // dividend 4096
	c.Regs.CX = 0x0001 // divisor 1 -> quotient 4096, doesn't fit in AL

	c.Step()

	if c.Regs.CS != 0x0050 || c.Regs.IP != 0x1234 {
		t.Fatalf("CS:IP = %#04x:%#04x, want 0x0050:0x1234 (did not vector through INT 0)", c.Regs.CS, c.Regs.IP)
	}
	if c.Regs.SP != 0x0100-6 {
		t.Fatalf("SP=%#04x want %#04x (flags/CS/IP not pushed)", c.Regs.SP, 0x0100-6)
	}
	if c.flag(FlagIF) || c.flag(FlagTF) {
		t.Error("IF and TF should be cleared on interrupt entry")
	}
}

// Scenario 3 (spec.md §8): REP MOVSB copies CX bytes in a single step and
// leaves SI/DI advanced past the copied region.
func TestRepMovsbCopiesWholeBlockInOneStep(t *testing.T) {
	bus := newFakeBus()
	bus.loadCode(0, 0, 0xF3, 0xA4) // REP MOVSB
	src := linear(0x2000, 0x0000)
	dst := linear(0x3000, 0x0000)
	copy(bus.mem[src:], []byte("ABCDE"))

	c := New(bus)
	c.Regs.CS, c.Regs.IP = 0, 0
	c.Regs.DS, c.Regs.SI = 0x2000, 0x0000
	c.Regs.ES, c.Regs.DI = 0x3000, 0x0000
	c.Regs.CX = 5

	c.Step()

	if c.Regs.CX != 0 {
		t.Fatalf("CX=%d want 0", c.Regs.CX)
	}
	if c.Regs.SI != 5 || c.Regs.DI != 5 {
		t.Fatalf("SI=%d DI=%d want 5,5", c.Regs.SI, c.Regs.DI)
	}
	got := bus.mem[dst : dst+5]
	if string(got) != "ABCDE" {
		t.Fatalf("copied %q want %q", got, "ABCDE")
	}
}

// Regression for the GRP2 reg-field table: SHR must shift right and SAL (the
// group's index-6 alias of SHL) must shift left, not the other way around.
func TestGroup2ShrAndSalDirections(t *testing.T) {
	bus := newFakeBus()
	// SHR AX, CL: D3 /5, ModRM 11 101 000 = 0xE8.
	// SAL AX, CL: D3 /6, ModRM 11 110 000 = 0xF0.
	bus.loadCode(0, 0, 0xD3, 0xE8, 0xD3, 0xF0)

	c := New(bus)
	c.Regs.CS, c.Regs.IP = 0, 0
	c.Regs.CX = 1
	c.Regs.AX = 0x8000
	c.Step()
	if c.Regs.AX != 0x4000 {
		t.Fatalf("SHR AX,CL -> AX=%#04x want 0x4000 (got a left shift instead of right)", c.Regs.AX)
	}

	c.Regs.AX = 0x0001
	c.Step()
	if c.Regs.AX != 0x0002 {
		t.Fatalf("SAL AX,CL -> AX=%#04x want 0x0002", c.Regs.AX)
	}
}

// Regression: AAM/AAD must use the fetched immediate base, not the
// ImmediateAbsent sentinel.
func TestAamUsesFetchedBase(t *testing.T) {
	bus := newFakeBus()
	bus.loadCode(0, 0, 0xD4, 0x0A) // AAM 0x0A
	c := New(bus)
	c.Regs.CS, c.Regs.IP = 0, 0
	c.Regs.AX = 0x000F // AL = 15

	c.Step()

	if ah, al := c.Regs.Byte(OpAH), c.Regs.Byte(OpAL); ah != 1 || al != 5 {
		t.Fatalf("AH:AL = %d:%d want 1:5", ah, al)
	}
}

func TestAadUsesFetchedBase(t *testing.T) {
	bus := newFakeBus()
	bus.loadCode(0, 0, 0xD5, 0x0A) // AAD 0x0A
	c := New(bus)
	c.Regs.CS, c.Regs.IP = 0, 0
	c.Regs.AX = 0x0105 // AH=1, AL=5

	c.Step()

	if al := c.Regs.Byte(OpAL); al != 15 {
		t.Fatalf("AL=%d want 15", al)
	}
	if ah := c.Regs.Byte(OpAH); ah != 0 {
		t.Fatalf("AH=%d want 0", ah)
	}
}

// A base of zero is a malformed AAM encoding; it must not panic dividing by
// zero, and per the decode-unknown policy it leaves the registers untouched.
func TestAamZeroBaseDoesNotPanic(t *testing.T) {
	bus := newFakeBus()
	bus.loadCode(0, 0, 0xD4, 0x00)
	c := New(bus)
	c.Regs.CS, c.Regs.IP = 0, 0
	c.Regs.AX = 0x0042

	c.Step()

	if c.Regs.AX != 0x0042 {
		t.Fatalf("AX=%#04x want unchanged 0x0042", c.Regs.AX)
	}
}

// 0x82 is an undocumented alias of 0x80 (GRP1 r/m8, imm8); compilers
// occasionally emit it and it must decode identically.
func Test0x82IsAliasOfGrp1Byte(t *testing.T) {
	bus := newFakeBus()
	// ADD AL, 0x05 via the 0x82 alias. ModRM 11 000 000 = 0xC0 selects AL.
	bus.loadCode(0, 0, 0x82, 0xC0, 0x05)
	c := New(bus)
	c.Regs.CS, c.Regs.IP = 0, 0
	c.Regs.AX = 0x0003

	c.Step()

	if al := c.Regs.Byte(OpAL); al != 8 {
		t.Fatalf("AL=%d want 8 (0x82 did not decode as GRP1 ADD)", al)
	}
}
