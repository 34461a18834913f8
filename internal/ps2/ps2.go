// Package ps2 implements the PS/2 controller's input queue: a small ring
// buffer of scan codes with IRQ1 delivery paced by the bus's event
// schedule, matching the host keyboard/mouse personality described in
// spec.md §4.3/§7.
package ps2

import "github.com/pcx86/emu/internal/devbus"

// Scheduler lets the controller pace delivery of queued bytes one at a
// time rather than handing them all to the guest in the same instant.
type Scheduler interface {
	SchedulePS2(triggerAt uint64)
}

const bufferSize = 16

// Controller is a small ring buffer between the host input source and the
// guest's IN AL,0x60 polling loop.
type Controller struct {
	buf      [bufferSize]uint8
	writePos int
	readPos  int
}

func New() *Controller { return &Controller{} }

// DataAvailable reports whether the guest has unread bytes waiting.
func (c *Controller) DataAvailable() bool { return c.readPos != c.writePos }

func (c *Controller) scheduleDelivery(cpu devbus.CPU, picCtl devbus.PIC, sched Scheduler, cycle uint64) {
	if !c.DataAvailable() {
		return
	}
	picCtl.RequestInterrupt(cpu, 1)
	sched.SchedulePS2(cycle + 160)
}

// PushData enqueues one scan code from the host. On overflow the new byte
// is dropped (spec.md §7: drop the newest element past capacity, oldest
// queued bytes are preserved so the guest's backlog still drains in order).
func (c *Controller) PushData(cpu devbus.CPU, picCtl devbus.PIC, sched Scheduler, cycle uint64, v uint8) (dropped bool) {
	next := (c.writePos + 1) % len(c.buf)
	if next == c.readPos {
		return true
	}
	c.buf[c.writePos] = v
	c.writePos = next
	c.scheduleDelivery(cpu, picCtl, sched, cycle)
	return false
}

// PopData is the scheduled handler invoked when the PS2 schedule slot
// fires: it advances the read cursor and reschedules if more data remains.
func (c *Controller) PopData(cpu devbus.CPU, picCtl devbus.PIC, sched Scheduler, cycle uint64) (uint8, bool) {
	if !c.DataAvailable() {
		return 0, false
	}
	v := c.buf[c.readPos]
	c.readPos = (c.readPos + 1) % len(c.buf)
	c.scheduleDelivery(cpu, picCtl, sched, cycle)
	return v, true
}

// InByte implements port 0x60 (read the byte at the front of the queue
// without dequeuing it — dequeue happens on the scheduled PopData tick,
// not on the CPU's read, matching the original hardware's buffered-byte
// register). Port 0x64 (status) always reads zero: this controller models
// only the data path, not the full 8042 command set.
func (c *Controller) InByte(port uint16) uint8 {
	if port != 0x60 || !c.DataAvailable() {
		return 0
	}
	return c.buf[c.readPos]
}

// OutByte is a no-op: guest writes to 0x60/0x64 (keyboard commands, 8042
// command byte) have no effect on this minimal controller.
func (c *Controller) OutByte(port uint16, v uint8) {}
