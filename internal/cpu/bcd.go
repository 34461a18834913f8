package cpu

// BCD adjustment instructions, following the classic 8086 decision tables.

func (c *CPU) executeDaa() {
	al := c.Regs.Byte(OpAL)
	cf, af := c.flag(FlagCF), c.flag(FlagAF)
	oldAL := al
	if al&0x0F > 9 || af {
		al += 6
		af = true
	}
	if oldAL > 0x99 || cf {
		al += 0x60
		cf = true
	}
	c.Regs.SetByte(OpAL, al)
	c.setFlag(FlagCF, cf)
	c.setFlag(FlagAF, af)
	c.setResultFlags(uint32(al), 8)
}

func (c *CPU) executeDas() {
	al := c.Regs.Byte(OpAL)
	cf, af := c.flag(FlagCF), c.flag(FlagAF)
	oldAL := al
	if al&0x0F > 9 || af {
		al -= 6
		af = true
	}
	if oldAL > 0x99 || cf {
		al -= 0x60
		cf = true
	}
	c.Regs.SetByte(OpAL, al)
	c.setFlag(FlagCF, cf)
	c.setFlag(FlagAF, af)
	c.setResultFlags(uint32(al), 8)
}

func (c *CPU) executeAaa() {
	al := c.Regs.Byte(OpAL)
	ah := c.Regs.Byte(OpAH)
	if al&0x0F > 9 || c.flag(FlagAF) {
		al += 6
		ah += 1
		c.setFlag(FlagAF, true)
		c.setFlag(FlagCF, true)
	} else {
		c.setFlag(FlagAF, false)
		c.setFlag(FlagCF, false)
	}
	c.Regs.SetByte(OpAL, al&0x0F)
	c.Regs.SetByte(OpAH, ah)
}

func (c *CPU) executeAas() {
	al := c.Regs.Byte(OpAL)
	ah := c.Regs.Byte(OpAH)
	if al&0x0F > 9 || c.flag(FlagAF) {
		al -= 6
		ah -= 1
		c.setFlag(FlagAF, true)
		c.setFlag(FlagCF, true)
	} else {
		c.setFlag(FlagAF, false)
		c.setFlag(FlagCF, false)
	}
	c.Regs.SetByte(OpAL, al&0x0F)
	c.Regs.SetByte(OpAH, ah)
}

func (c *CPU) executeAam(base uint8) {
	if base == 0 {
		// Real hardware raises #DE here; the decode-unknown policy elsewhere
		// in this package is to stay permissive rather than fault, so treat
		// this as a no-op instead of panicking on the division.
		return
	}
	al := c.Regs.Byte(OpAL)
	ah := al / base
	al = al % base
	c.Regs.SetByte(OpAH, ah)
	c.Regs.SetByte(OpAL, al)
	c.setResultFlags(uint32(al), 8)
}

func (c *CPU) executeAad(base uint8) {
	al := c.Regs.Byte(OpAL)
	ah := c.Regs.Byte(OpAH)
	result := ah*base + al
	c.Regs.SetByte(OpAL, result)
	c.Regs.SetByte(OpAH, 0)
	c.setResultFlags(uint32(result), 8)
}
