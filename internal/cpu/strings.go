package cpu

// executeStringOp runs one MOVS/CMPS/STOS/LODS/SCAS, looping under a REP
// prefix. SI addressing honors the segment-override prefix (default DS);
// DI addressing is always ES, matching the 8086's string-op convention.
func (c *CPU) executeStringOp(inst *Instruction, width uint8) {
	delta := uint16(width / 8)

	step := func() {
		srcSeg := c.segmentFor(OpDS, inst.SegmentOverride)
		switch inst.Opcode {
		case OpcodeMovs:
			srcAddr := linear(srcSeg, c.Regs.SI)
			dstAddr := linear(c.Regs.ES, c.Regs.DI)
			if width == 8 {
				c.bus.WriteByte(dstAddr, c.bus.ReadByte(srcAddr))
			} else {
				c.writeWord(dstAddr, c.readWord(srcAddr))
			}
			c.advanceIndex(&c.Regs.SI, delta)
			c.advanceIndex(&c.Regs.DI, delta)
		case OpcodeStos:
			dstAddr := linear(c.Regs.ES, c.Regs.DI)
			if width == 8 {
				c.bus.WriteByte(dstAddr, c.Regs.Byte(OpAL))
			} else {
				c.writeWord(dstAddr, c.Regs.AX)
			}
			c.advanceIndex(&c.Regs.DI, delta)
		case OpcodeLods:
			srcAddr := linear(srcSeg, c.Regs.SI)
			if width == 8 {
				c.Regs.SetByte(OpAL, c.bus.ReadByte(srcAddr))
			} else {
				c.Regs.AX = c.readWord(srcAddr)
			}
			c.advanceIndex(&c.Regs.SI, delta)
		case OpcodeCmps:
			srcAddr := linear(srcSeg, c.Regs.SI)
			dstAddr := linear(c.Regs.ES, c.Regs.DI)
			var a, b uint32
			if width == 8 {
				a, b = uint32(c.bus.ReadByte(srcAddr)), uint32(c.bus.ReadByte(dstAddr))
			} else {
				a, b = uint32(c.readWord(srcAddr)), uint32(c.readWord(dstAddr))
			}
			c.setSubFlags(a, b, a-b, width)
			c.advanceIndex(&c.Regs.SI, delta)
			c.advanceIndex(&c.Regs.DI, delta)
		case OpcodeScas:
			dstAddr := linear(c.Regs.ES, c.Regs.DI)
			var a, b uint32
			if width == 8 {
				a, b = uint32(c.Regs.Byte(OpAL)), uint32(c.bus.ReadByte(dstAddr))
			} else {
				a, b = uint32(c.Regs.AX), uint32(c.readWord(dstAddr))
			}
			c.setSubFlags(a, b, a-b, width)
			c.advanceIndex(&c.Regs.DI, delta)
		}
	}

	if inst.Rep == RepNone {
		step()
		return
	}
	for c.Regs.CX != 0 {
		step()
		c.Regs.CX--
		if inst.Rep == RepZ && !c.flag(FlagZF) {
			break
		}
		if inst.Rep == RepNZ && c.flag(FlagZF) {
			break
		}
	}
}

func (c *CPU) advanceIndex(reg *uint16, delta uint16) {
	if c.flag(FlagDF) {
		*reg -= delta
	} else {
		*reg += delta
	}
}
