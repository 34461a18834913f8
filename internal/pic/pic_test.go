package pic

import "testing"

type fakeCPU struct{ resumed int }

func (f *fakeCPU) Resume() { f.resumed++ }

func TestVectorEncoding(t *testing.T) {
	p := New()
	cpu := &fakeCPU{}

	for n := uint8(0); n < 16; n++ {
		p.pending = 1 << n
		p.highest = n
		vector, ok := p.GetInterruptToHandle()
		if !ok {
			t.Fatalf("n=%d: expected ok", n)
		}
		var want uint8
		if n < 8 {
			want = 0x08 + n
		} else {
			want = 0x70 + (n - 8)
		}
		if vector != want {
			t.Errorf("n=%d: vector=%#02x want=%#02x", n, vector, want)
		}
	}
	_ = cpu
}

func TestNothingPending(t *testing.T) {
	p := New()
	if _, ok := p.GetInterruptToHandle(); ok {
		t.Fatal("expected no interrupt to handle on a fresh PIC")
	}
}

func TestRequestInterruptRespectsMask(t *testing.T) {
	p := New()
	cpu := &fakeCPU{}
	p.OutByte(0x21, 0x00) // disable all of IRQ0-7 (a set bit enables a line)
	p.OutByte(0xA1, 0x00)

	p.RequestInterrupt(cpu, 0)
	if _, ok := p.GetInterruptToHandle(); ok {
		t.Fatal("masked line should not become pending")
	}

	p.OutByte(0x21, 0x01) // enable IRQ0 only
	p.RequestInterrupt(cpu, 0)
	vector, ok := p.GetInterruptToHandle()
	if !ok || vector != 0x08 {
		t.Fatalf("got vector=%#02x ok=%v, want 0x08/true", vector, ok)
	}
}

func TestPriorityIsLowestPendingBit(t *testing.T) {
	p := New()
	cpu := &fakeCPU{}
	p.RequestInterrupt(cpu, 5)
	p.RequestInterrupt(cpu, 2)
	p.RequestInterrupt(cpu, 9)

	vector, ok := p.GetInterruptToHandle()
	if !ok || vector != 0x0A { // 0x08+2
		t.Fatalf("got vector=%#02x ok=%v, want 0x0A/true", vector, ok)
	}
}

func TestEndOfInterruptClearsHighest(t *testing.T) {
	p := New()
	cpu := &fakeCPU{}
	p.RequestInterrupt(cpu, 0)
	p.RequestInterrupt(cpu, 1)

	v0, _ := p.GetInterruptToHandle()
	if v0 != 0x08 {
		t.Fatalf("got %#02x want 0x08", v0)
	}
	p.OutByte(0x20, 0x20) // non-specific EOI

	v1, ok := p.GetInterruptToHandle()
	if !ok || v1 != 0x09 {
		t.Fatalf("got vector=%#02x ok=%v after EOI, want 0x09/true", v1, ok)
	}
}

func TestSpecificEOI(t *testing.T) {
	p := New()
	cpu := &fakeCPU{}
	p.RequestInterrupt(cpu, 3)
	p.RequestInterrupt(cpu, 0)
	p.OutByte(0x20, 0x60|0) // specific EOI for line 0

	vector, ok := p.GetInterruptToHandle()
	if !ok || vector != 0x0B { // 0x08+3
		t.Fatalf("got vector=%#02x ok=%v, want 0x0B/true", vector, ok)
	}
}

func TestEnableMaskReadback(t *testing.T) {
	p := New()
	p.OutByte(0x21, 0xAB)
	p.OutByte(0xA1, 0xCD)
	if got := p.InByte(0x21); got != 0xAB {
		t.Errorf("InByte(0x21)=%#02x want 0xAB", got)
	}
	if got := p.InByte(0xA1); got != 0xCD {
		t.Errorf("InByte(0xA1)=%#02x want 0xCD", got)
	}
}
