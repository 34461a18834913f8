// Package bus wires RAM, the fixed port map, and every peripheral device
// (PIT, PIC, PS/2, VGA, FM synth) into the single cpu.Bus the CPU core
// drives, grounded on the original monolithic BUS struct's routing tables
// and its handler schedule, per spec.md §4.
package bus

import (
	"os"
	"time"

	"github.com/pcx86/emu/internal/cpu"
	"github.com/pcx86/emu/internal/devbus"
	"github.com/pcx86/emu/internal/logx"
	"github.com/pcx86/emu/internal/opl"
	"github.com/pcx86/emu/internal/pic"
	"github.com/pcx86/emu/internal/pit"
	"github.com/pcx86/emu/internal/ps2"
	"github.com/pcx86/emu/internal/vga"
)

var log = logx.For("bus")

const ramSize = 0xA0000

// BIOSHandler services the BIOS video/equipment/keyboard/mouse interrupts
// (0x10, 0x11, 0x16, 0x33). internal/dosshell implements this; the bus only
// knows the sliver of it needed to intercept those vectors.
type BIOSHandler interface {
	HandleInterrupt(c *cpu.CPU, v *vga.VGA, n uint8) bool
}

// DOSHandler services INT 0x21. internal/dosshell implements this.
type DOSHandler interface {
	HandleInterrupt(c *cpu.CPU, ram []byte) bool
}

// BeeperEvent is a PC-speaker frequency change, timestamped to the cycle
// it was generated at so the audio thread can align it to a sample.
type BeeperEvent struct {
	Cycle       uint64
	FrequencyHz float32
}

// Bus owns every device and implements cpu.Bus.
type Bus struct {
	ram []byte

	pit *pit.PIT
	pic *pic.PIC
	ps2 *ps2.Controller
	vga *vga.VGA
	fm  *opl.Chip

	sched *schedule
	cpu   devbus.CPU
	cycle uint64

	bios BIOSHandler
	dos  DOSHandler

	beeperEvents chan BeeperEvent
	fmEvents     chan opl.Event
}

// New returns a bus with every device reset to its power-on state. Timing
// and audio options come straight from the [timing]/[audio] config sections
// spec.md §6 documents.
func New(clockFreqHz float64, beeperEnabled, soundBlasterEnabled bool) *Bus {
	b := &Bus{
		ram:          make([]byte, ramSize),
		pit:          pit.New(clockFreqHz, beeperEnabled),
		pic:          pic.New(),
		ps2:          ps2.New(),
		vga:          vga.New(),
		fm:           opl.New(soundBlasterEnabled),
		sched:        newSchedule(),
		beeperEvents: make(chan BeeperEvent, 256),
		fmEvents:     make(chan opl.Event, 1024),
	}
	return b
}

// AttachCPU gives the bus the narrow capability (waking from HLT) its
// devices need back from the CPU core. Constructed after New because the
// CPU itself needs a Bus to be constructed first.
func (b *Bus) AttachCPU(cpu devbus.CPU) { b.cpu = cpu }

// AttachBIOS and AttachDOS wire the DOS/BIOS personality in once
// internal/dosshell constructs it; until then, software interrupts 0x10,
// 0x11, 0x16, 0x21 and 0x33 fall through to the guest's own IVT. INT 0x20
// is handled by the bus itself and always exits.
func (b *Bus) AttachBIOS(h BIOSHandler) { b.bios = h }
func (b *Bus) AttachDOS(h DOSHandler)   { b.dos = h }

func (b *Bus) VGA() *vga.VGA { return b.vga }
func (b *Bus) PIC() *pic.PIC { return b.pic }

// RAM exposes the raw backing slice so internal/mz can load an executable
// image and internal/dosshell can read guest ASCIIZ strings/buffers
// directly, the same way dos.rs operates on the emulator's flat array.
func (b *Bus) RAM() []byte { return b.ram }

// BeeperEvents is the channel the audio thread drains for PC-speaker
// frequency changes.
func (b *Bus) BeeperEvents() <-chan BeeperEvent { return b.beeperEvents }

// FMEvents is the channel the audio thread drains for FM-synth register
// updates.
func (b *Bus) FMEvents() <-chan opl.Event { return b.fmEvents }

// PushPS2Data enqueues one scan code from the host input source (keyboard
// or mouse), e.g. from internal/video's input callback.
func (b *Bus) PushPS2Data(v uint8) (dropped bool) {
	return b.ps2.PushData(b.cpu, b.pic, b, b.cycle, v)
}

// --- pit.Scheduler / pit.BeeperSink ---

func (b *Bus) ScheduleTimer(kind pit.Kind, triggerAt uint64) {
	b.sched.arm(pitScheduleKind(kind), triggerAt)
}
func (b *Bus) CancelTimer(kind pit.Kind) { b.sched.cancel(pitScheduleKind(kind)) }

func pitScheduleKind(kind pit.Kind) scheduleKind {
	switch kind {
	case pit.Channel1:
		return kindPitChannel1
	case pit.Channel2:
		return kindPitChannel2
	default:
		return kindPitChannel0
	}
}

func (b *Bus) PushBeeperEvent(cycle uint64, frequencyHz float32) {
	select {
	case b.beeperEvents <- BeeperEvent{Cycle: cycle, FrequencyHz: frequencyHz}:
	default:
		// Audio thread is behind; drop rather than stall the worker loop
		// on a full channel.
	}
}

// --- ps2.Scheduler ---

func (b *Bus) SchedulePS2(triggerAt uint64) { b.sched.arm(kindPS2Controller, triggerAt) }

// --- opl.Scheduler / opl.EventSink ---

func (b *Bus) ScheduleFMTimer(idx int, triggerAt uint64) {
	if idx == 1 {
		b.sched.arm(kindFMTimer1, triggerAt)
	} else {
		b.sched.arm(kindFMTimer0, triggerAt)
	}
}

func (b *Bus) CancelFMTimer(idx int) {
	if idx == 1 {
		b.sched.cancel(kindFMTimer1)
	} else {
		b.sched.cancel(kindFMTimer0)
	}
}

func (b *Bus) PushOPLEvent(e opl.Event) {
	select {
	case b.fmEvents <- e:
	default:
	}
}

// --- cpu.Bus ---

func (b *Bus) ReadByte(linear uint32) uint8 {
	if linear < uint32(len(b.ram)) {
		return b.ram[linear]
	}
	base, size := b.vga.VRAMWindow()
	if linear >= base && linear-base < size {
		return b.vga.ReadMemory(linear - base)
	}
	return 0
}

func (b *Bus) WriteByte(linear uint32, v uint8) {
	if linear < uint32(len(b.ram)) {
		b.ram[linear] = v
		return
	}
	base, size := b.vga.VRAMWindow()
	if linear >= base && linear-base < size {
		b.vga.WriteMemory(linear-base, v)
	}
}

func (b *Bus) InByte(port uint16) uint8 {
	switch {
	case port >= 0x40 && port <= 0x47 || port == 0x61:
		return b.pit.InByte(b.cycle, port)
	case port >= 0x20 && port <= 0x21 || port >= 0xA0 && port <= 0xA1:
		return b.pic.InByte(port)
	case port == 0x60 || port == 0x64:
		return b.ps2.InByte(port)
	case port >= 0x3B0 && port <= 0x3DF:
		return b.vga.InByte(port)
	case port >= 0x220 && port <= 0x223 || port == 0x388 || port == 0x389:
		return b.fm.InByte(port)
	default:
		log.Debug("unsupported port read", "cycle", b.cycle, "port", port)
		return 0
	}
}

func (b *Bus) OutByte(port uint16, v uint8) {
	switch {
	case port >= 0x40 && port <= 0x47 || port == 0x61:
		b.pit.OutByte(b.cycle, b, b, port, v)
	case port >= 0x20 && port <= 0x21 || port >= 0xA0 && port <= 0xA1:
		b.pic.OutByte(port, v)
	case port == 0x60 || port == 0x64:
		b.ps2.OutByte(port, v)
	case port >= 0x3B0 && port <= 0x3DF:
		b.vga.OutByte(port, v)
	case port >= 0x220 && port <= 0x223 || port == 0x388 || port == 0x389:
		b.fm.OutByte(b.cycle, b, b, port, v)
	default:
		log.Debug("unsupported port write", "cycle", b.cycle, "port", port, "value", v)
	}
}

func (b *Bus) Tick(cycle uint64) {
	b.cycle = cycle
	for {
		kind, ok := b.sched.due(cycle)
		if !ok {
			return
		}
		switch kind {
		case kindPitChannel0:
			b.pit.ScheduledHandler(b.cpu, b.pic, b, pit.Channel0)
		case kindPitChannel1:
			b.pit.ScheduledHandler(b.cpu, b.pic, b, pit.Channel1)
		case kindPitChannel2:
			b.pit.ScheduledHandler(b.cpu, b.pic, b, pit.Channel2)
		case kindPS2Controller:
			b.ps2.PopData(b.cpu, b.pic, b, cycle)
		case kindFMTimer0:
			b.fm.ScheduledHandler(b.cpu, b.pic, 0)
		case kindFMTimer1:
			b.fm.ScheduledHandler(b.cpu, b.pic, 1)
		}
	}
}

func (b *Bus) HandleInterrupt(c *cpu.CPU, n uint8) bool {
	switch n {
	case 0x10, 0x11, 0x16, 0x33:
		if b.bios != nil {
			return b.bios.HandleInterrupt(c, b.vga, n)
		}
		return false
	case 0x1A:
		if c.Regs.AX>>8 != 0x00 {
			return false
		}
		now := time.Now()
		ticksPerDay := uint64(1573040)
		secondsSinceMidnight := uint64(now.Hour()*3600 + now.Minute()*60 + now.Second())
		timerTicks := secondsSinceMidnight * ticksPerDay / 86400
		c.Regs.CX = uint16(timerTicks >> 16)
		c.Regs.BX = uint16(timerTicks)
		return true
	case 0x20:
		log.Info("dos exit", "cycle", b.cycle)
		os.Exit(0)
		return true
	case 0x21:
		if b.dos != nil {
			return b.dos.HandleInterrupt(c, b.ram)
		}
		return false
	default:
		log.Warn("unsupported interrupt", "cycle", b.cycle, "interrupt", n)
		return false
	}
}

func (b *Bus) PendingHardwareVector() (uint8, bool) { return b.pic.GetInterruptToHandle() }
