package cpu

// Decode reads one instruction starting at ip, using read to fetch bytes at
// CS-relative offsets (wrapping mod 2^16, as real-mode IP does). It returns
// the decoded instruction; Instruction.Position is the offset immediately
// past the last byte consumed.
func Decode(read func(offset uint16) byte, ip uint16) Instruction {
	inst := newInstruction()
	pos := ip
	fetch8 := func() uint8 {
		b := read(pos)
		pos++
		inst.Buffer[inst.Length] = b
		inst.Length++
		return b
	}
	fetch16 := func() uint16 {
		lo := fetch8()
		hi := fetch8()
		return uint16(lo) | uint16(hi)<<8
	}

	var lastModRMByte uint8
	decodeModRM := func(width uint8) (regOperand, rmOperand Operand, isMemory bool, displacement int32) {
		b := fetch8()
		lastModRMByte = b
		mod := b >> 6
		reg := (b >> 3) & 7
		rm := b & 7
		regOperand = generalRegisterOperand(reg, width)
		if mod == 3 {
			return regOperand, generalRegisterOperand(rm, width), false, 0
		}
		addrTable := [8]Operand{OpAddrBxSi, OpAddrBxDi, OpAddrBpSi, OpAddrBpDi, OpAddrSi, OpAddrDi, OpAddrBp, OpAddrBx}
		if mod == 0 && rm == 6 {
			d := int32(fetch16())
			return regOperand, OpAddrDisp, true, d
		}
		rmOperand = addrTable[rm]
		switch mod {
		case 1:
			displacement = int32(int8(fetch8()))
		case 2:
			displacement = int32(int16(fetch16()))
		}
		return regOperand, rmOperand, true, displacement
	}

	// Prefix loop: segment override and rep prefixes may precede the
	// opcode; each re-enters this loop for the following byte.
prefixLoop:
	for {
		b := read(pos)
		switch b {
		case 0x26:
			pos++
			inst.SegmentOverride = OpES
			continue prefixLoop
		case 0x2E:
			pos++
			inst.SegmentOverride = OpCS
			continue prefixLoop
		case 0x36:
			pos++
			inst.SegmentOverride = OpSS
			continue prefixLoop
		case 0x3E:
			pos++
			inst.SegmentOverride = OpDS
			continue prefixLoop
		case 0xF2:
			pos++
			inst.Rep = RepNZ
			continue prefixLoop
		case 0xF3:
			pos++
			inst.Rep = RepZ
			continue prefixLoop
		}
		break
	}

	opcodeByte := fetch8()

	arithmeticTable := [8]Opcode{OpcodeAdd, OpcodeOr, OpcodeAdc, OpcodeSbb, OpcodeAnd, OpcodeSub, OpcodeXor, OpcodeCmp}
	excluded := func(b uint8) bool {
		switch b {
		case 0x06, 0x07, 0x0E, 0x16, 0x17, 0x1E, 0x1F, 0x27, 0x2F, 0x37, 0x3F:
			return true
		}
		return false
	}

	switch {
	case opcodeByte <= 0x3D && !excluded(opcodeByte):
		base := opcodeByte >> 3
		form := opcodeByte & 7
		op := arithmeticTable[base]
		inst.Opcode = op
		switch form {
		case 0:
			inst.DataWidth = 8
			reg, rm, _, disp := decodeModRM(8)
			inst.First, inst.Second, inst.Displacement = rm, reg, disp
		case 1:
			inst.DataWidth = 16
			reg, rm, _, disp := decodeModRM(16)
			inst.First, inst.Second, inst.Displacement = rm, reg, disp
		case 2:
			inst.DataWidth = 8
			reg, rm, _, disp := decodeModRM(8)
			inst.First, inst.Second, inst.Displacement = reg, rm, disp
		case 3:
			inst.DataWidth = 16
			reg, rm, _, disp := decodeModRM(16)
			inst.First, inst.Second, inst.Displacement = reg, rm, disp
		case 4:
			inst.DataWidth = 8
			inst.First, inst.Second = OpAL, OpImmediate
			inst.Immediate = uint32(fetch8())
		case 5:
			inst.DataWidth = 16
			inst.First, inst.Second = OpAX, OpImmediate
			inst.Immediate = uint32(fetch16())
		}

	case opcodeByte >= 0x40 && opcodeByte <= 0x47: // INC reg16
		inst.Opcode = OpcodeInc
		inst.DataWidth = 16
		inst.First = generalRegisterOperand(opcodeByte&7, 16)
	case opcodeByte >= 0x48 && opcodeByte <= 0x4F: // DEC reg16
		inst.Opcode = OpcodeDec
		inst.DataWidth = 16
		inst.First = generalRegisterOperand(opcodeByte&7, 16)
	case opcodeByte >= 0x50 && opcodeByte <= 0x57: // PUSH reg16
		inst.Opcode = OpcodePush
		inst.DataWidth = 16
		inst.First = generalRegisterOperand(opcodeByte&7, 16)
	case opcodeByte >= 0x58 && opcodeByte <= 0x5F: // POP reg16
		inst.Opcode = OpcodePop
		inst.DataWidth = 16
		inst.First = generalRegisterOperand(opcodeByte&7, 16)

	case opcodeByte == 0x06, opcodeByte == 0x0E, opcodeByte == 0x16, opcodeByte == 0x1E:
		inst.Opcode = OpcodePushSeg
		inst.First = segmentPushPopOperand(opcodeByte)
	case opcodeByte == 0x07, opcodeByte == 0x17, opcodeByte == 0x1F:
		inst.Opcode = OpcodePopSeg
		inst.First = segmentPushPopOperand(opcodeByte)

	case opcodeByte == 0x27:
		inst.Opcode = OpcodeDaa
	case opcodeByte == 0x2F:
		inst.Opcode = OpcodeDas
	case opcodeByte == 0x37:
		inst.Opcode = OpcodeAaa
	case opcodeByte == 0x3F:
		inst.Opcode = OpcodeAas

	case opcodeByte >= 0x70 && opcodeByte <= 0x7F: // Jcc rel8
		inst.Opcode = OpcodeJcc
		inst.Condition = opcodeByte & 0x0F
		rel := int8(fetch8())
		inst.Immediate = uint32(uint16(int32(pos) + int32(rel)))

	case opcodeByte == 0x80 || opcodeByte == 0x82: // GRP1 r/m8, imm8 (0x82 is an undocumented alias of 0x80)
		inst.DataWidth = 8
		reg, rm, _, disp := decodeModRM(8)
		_ = reg
		inst.Opcode = arithmeticTable[group1SelectorFromModRM(lastModRMByte)]
		inst.First, inst.Displacement = rm, disp
		inst.Second = OpImmediate
		inst.Immediate = uint32(fetch8())
	case opcodeByte == 0x81: // GRP1 r/m16, imm16
		inst.DataWidth = 16
		_, rm, _, disp := decodeModRM(16)
		inst.Opcode = arithmeticTable[group1SelectorFromModRM(lastModRMByte)]
		inst.First, inst.Displacement = rm, disp
		inst.Second = OpImmediate
		inst.Immediate = uint32(fetch16())
	case opcodeByte == 0x83: // GRP1 r/m16, imm8 (sign-extended)
		inst.DataWidth = 16
		_, rm, _, disp := decodeModRM(16)
		inst.Opcode = arithmeticTable[group1SelectorFromModRM(lastModRMByte)]
		inst.First, inst.Displacement = rm, disp
		inst.Second = OpImmediate
		inst.Immediate = uint32(uint16(int16(int8(fetch8()))))

	case opcodeByte == 0x84: // TEST r/m8, r8
		inst.Opcode = OpcodeTest
		inst.DataWidth = 8
		reg, rm, _, disp := decodeModRM(8)
		inst.First, inst.Second, inst.Displacement = rm, reg, disp
	case opcodeByte == 0x85: // TEST r/m16, r16
		inst.Opcode = OpcodeTest
		inst.DataWidth = 16
		reg, rm, _, disp := decodeModRM(16)
		inst.First, inst.Second, inst.Displacement = rm, reg, disp
	case opcodeByte == 0x86: // XCHG r/m8, r8
		inst.Opcode = OpcodeXchg
		inst.DataWidth = 8
		reg, rm, _, disp := decodeModRM(8)
		inst.First, inst.Second, inst.Displacement = rm, reg, disp
	case opcodeByte == 0x87: // XCHG r/m16, r16
		inst.Opcode = OpcodeXchg
		inst.DataWidth = 16
		reg, rm, _, disp := decodeModRM(16)
		inst.First, inst.Second, inst.Displacement = rm, reg, disp

	case opcodeByte == 0x88: // MOV r/m8, r8
		inst.Opcode, inst.DataWidth = OpcodeMov, 8
		reg, rm, _, disp := decodeModRM(8)
		inst.First, inst.Second, inst.Displacement = rm, reg, disp
	case opcodeByte == 0x89: // MOV r/m16, r16
		inst.Opcode, inst.DataWidth = OpcodeMov, 16
		reg, rm, _, disp := decodeModRM(16)
		inst.First, inst.Second, inst.Displacement = rm, reg, disp
	case opcodeByte == 0x8A: // MOV r8, r/m8
		inst.Opcode, inst.DataWidth = OpcodeMov, 8
		reg, rm, _, disp := decodeModRM(8)
		inst.First, inst.Second, inst.Displacement = reg, rm, disp
	case opcodeByte == 0x8B: // MOV r16, r/m16
		inst.Opcode, inst.DataWidth = OpcodeMov, 16
		reg, rm, _, disp := decodeModRM(16)
		inst.First, inst.Second, inst.Displacement = reg, rm, disp
	case opcodeByte == 0x8C: // MOV r/m16, segreg
		inst.Opcode, inst.DataWidth = OpcodeMov, 16
		b := fetch8()
		mod, segField, rm := b>>6, (b>>3)&3, b&7
		seg := segmentRegisterOperand(segField)
		var rmOperand Operand
		var disp int32
		if mod == 3 {
			rmOperand = generalRegisterOperand(rm, 16)
		} else {
			_, rmOperand, _, disp = decodeModRMFromByte(b, fetch8, fetch16)
		}
		inst.First, inst.Second, inst.Displacement = rmOperand, seg, disp
	case opcodeByte == 0x8E: // MOV segreg, r/m16
		inst.Opcode, inst.DataWidth = OpcodeMov, 16
		b := fetch8()
		mod, segField, rm := b>>6, (b>>3)&3, b&7
		seg := segmentRegisterOperand(segField)
		var rmOperand Operand
		var disp int32
		if mod == 3 {
			rmOperand = generalRegisterOperand(rm, 16)
		} else {
			_, rmOperand, _, disp = decodeModRMFromByte(b, fetch8, fetch16)
		}
		inst.First, inst.Second, inst.Displacement = seg, rmOperand, disp
	case opcodeByte == 0x8D: // LEA r16, m
		inst.Opcode, inst.DataWidth = OpcodeLea, 16
		reg, rm, _, disp := decodeModRM(16)
		inst.First, inst.Second, inst.Displacement = reg, rm, disp

	case opcodeByte == 0xC4: // LES r16, m32
		inst.Opcode, inst.DataWidth = OpcodeLes, 16
		reg, rm, _, disp := decodeModRM(16)
		inst.First, inst.Second, inst.Displacement = reg, rm, disp
	case opcodeByte == 0xC5: // LDS r16, m32
		inst.Opcode, inst.DataWidth = OpcodeLds, 16
		reg, rm, _, disp := decodeModRM(16)
		inst.First, inst.Second, inst.Displacement = reg, rm, disp

	case opcodeByte == 0xA0: // MOV AL, moffs8
		inst.Opcode, inst.DataWidth = OpcodeMov, 8
		inst.First, inst.Second = OpAL, OpAddrDisp
		inst.Displacement = int32(fetch16())
	case opcodeByte == 0xA1: // MOV AX, moffs16
		inst.Opcode, inst.DataWidth = OpcodeMov, 16
		inst.First, inst.Second = OpAX, OpAddrDisp
		inst.Displacement = int32(fetch16())
	case opcodeByte == 0xA2: // MOV moffs8, AL
		inst.Opcode, inst.DataWidth = OpcodeMov, 8
		inst.First, inst.Second = OpAddrDisp, OpAL
		inst.Displacement = int32(fetch16())
	case opcodeByte == 0xA3: // MOV moffs16, AX
		inst.Opcode, inst.DataWidth = OpcodeMov, 16
		inst.First, inst.Second = OpAddrDisp, OpAX
		inst.Displacement = int32(fetch16())

	case opcodeByte >= 0xB0 && opcodeByte <= 0xB7: // MOV reg8, imm8
		inst.Opcode, inst.DataWidth = OpcodeMov, 8
		inst.First = generalRegisterOperand(opcodeByte&7, 8)
		inst.Second = OpImmediate
		inst.Immediate = uint32(fetch8())
	case opcodeByte >= 0xB8 && opcodeByte <= 0xBF: // MOV reg16, imm16
		inst.Opcode, inst.DataWidth = OpcodeMov, 16
		inst.First = generalRegisterOperand(opcodeByte&7, 16)
		inst.Second = OpImmediate
		inst.Immediate = uint32(fetch16())

	case opcodeByte == 0xC6: // MOV r/m8, imm8
		inst.Opcode, inst.DataWidth = OpcodeMov, 8
		_, rm, _, disp := decodeModRM(8)
		inst.First, inst.Displacement = rm, disp
		inst.Second = OpImmediate
		inst.Immediate = uint32(fetch8())
	case opcodeByte == 0xC7: // MOV r/m16, imm16
		inst.Opcode, inst.DataWidth = OpcodeMov, 16
		_, rm, _, disp := decodeModRM(16)
		inst.First, inst.Displacement = rm, disp
		inst.Second = OpImmediate
		inst.Immediate = uint32(fetch16())

	case opcodeByte == 0xC0: // GRP2 r/m8, imm8
		inst.DataWidth = 8
		_, rm, _, disp := decodeModRM(8)
		inst.Opcode = group2Table[group1SelectorFromModRM(lastModRMByte)]
		inst.First, inst.Displacement = rm, disp
		inst.Second = OpImmediate
		inst.Immediate = uint32(fetch8())
	case opcodeByte == 0xC1: // GRP2 r/m16, imm8
		inst.DataWidth = 16
		_, rm, _, disp := decodeModRM(16)
		inst.Opcode = group2Table[group1SelectorFromModRM(lastModRMByte)]
		inst.First, inst.Displacement = rm, disp
		inst.Second = OpImmediate
		inst.Immediate = uint32(fetch8())
	case opcodeByte == 0xD0: // GRP2 r/m8, 1
		inst.DataWidth = 8
		_, rm, _, disp := decodeModRM(8)
		inst.Opcode = group2Table[group1SelectorFromModRM(lastModRMByte)]
		inst.First, inst.Displacement = rm, disp
		inst.Second = OpImmediate
		inst.Immediate = 1
	case opcodeByte == 0xD1: // GRP2 r/m16, 1
		inst.DataWidth = 16
		_, rm, _, disp := decodeModRM(16)
		inst.Opcode = group2Table[group1SelectorFromModRM(lastModRMByte)]
		inst.First, inst.Displacement = rm, disp
		inst.Second = OpImmediate
		inst.Immediate = 1
	case opcodeByte == 0xD2: // GRP2 r/m8, CL
		inst.DataWidth = 8
		_, rm, _, disp := decodeModRM(8)
		inst.Opcode = group2Table[group1SelectorFromModRM(lastModRMByte)]
		inst.First, inst.Displacement = rm, disp
		inst.Second = OpCL
	case opcodeByte == 0xD3: // GRP2 r/m16, CL
		inst.DataWidth = 16
		_, rm, _, disp := decodeModRM(16)
		inst.Opcode = group2Table[group1SelectorFromModRM(lastModRMByte)]
		inst.First, inst.Displacement = rm, disp
		inst.Second = OpCL

	case opcodeByte == 0xF6: // GRP3 r/m8 [,imm8]
		inst.DataWidth = 8
		_, rm, _, disp := decodeModRM(8)
		sel := (lastModRMByte >> 3) & 7
		inst.First, inst.Displacement = rm, disp
		inst.Opcode = group3Table[sel]
		if sel == 0 || sel == 1 {
			inst.Second = OpImmediate
			inst.Immediate = uint32(fetch8())
		}
	case opcodeByte == 0xF7: // GRP3 r/m16 [,imm16]
		inst.DataWidth = 16
		_, rm, _, disp := decodeModRM(16)
		sel := (lastModRMByte >> 3) & 7
		inst.First, inst.Displacement = rm, disp
		inst.Opcode = group3Table[sel]
		if sel == 0 || sel == 1 {
			inst.Second = OpImmediate
			inst.Immediate = uint32(fetch16())
		}

	case opcodeByte == 0xFE: // GRP4 r/m8: INC/DEC
		inst.DataWidth = 8
		_, rm, _, disp := decodeModRM(8)
		sel := (lastModRMByte >> 3) & 7
		inst.First, inst.Displacement = rm, disp
		if sel == 0 {
			inst.Opcode = OpcodeInc
		} else if sel == 1 {
			inst.Opcode = OpcodeDec
		} else {
			inst.Opcode = OpcodeBad
		}
	case opcodeByte == 0xFF: // GRP5 r/m16: INC/DEC/CALL/JMP/PUSH
		inst.DataWidth = 16
		_, rm, _, disp := decodeModRM(16)
		sel := (lastModRMByte >> 3) & 7
		inst.First, inst.Displacement = rm, disp
		switch sel {
		case 0:
			inst.Opcode = OpcodeInc
		case 1:
			inst.Opcode = OpcodeDec
		case 2:
			inst.Opcode = OpcodeCall
		case 3:
			inst.Opcode = OpcodeCallFar
		case 4:
			inst.Opcode = OpcodeJmp
		case 5:
			inst.Opcode = OpcodeJmpFar
		case 6:
			inst.Opcode = OpcodePush
		default:
			inst.Opcode = OpcodeBad
		}

	case opcodeByte == 0xE8: // CALL rel16
		inst.Opcode = OpcodeCall
		rel := int16(fetch16())
		inst.Immediate = uint32(uint16(int32(pos) + int32(rel)))
	case opcodeByte == 0xE9: // JMP rel16
		inst.Opcode = OpcodeJmp
		rel := int16(fetch16())
		inst.Immediate = uint32(uint16(int32(pos) + int32(rel)))
	case opcodeByte == 0xEB: // JMP rel8
		inst.Opcode = OpcodeJmp
		rel := int8(fetch8())
		inst.Immediate = uint32(uint16(int32(pos) + int32(rel)))
	case opcodeByte == 0xEA: // JMP far ptr16:16
		inst.Opcode = OpcodeJmpFar
		off := fetch16()
		seg := fetch16()
		inst.Immediate = uint32(off) | uint32(seg)<<16
	case opcodeByte == 0x9A: // CALL far ptr16:16
		inst.Opcode = OpcodeCallFar
		off := fetch16()
		seg := fetch16()
		inst.Immediate = uint32(off) | uint32(seg)<<16
	case opcodeByte == 0xC2: // RET imm16
		inst.Opcode = OpcodeRet
		inst.Immediate = uint32(fetch16())
	case opcodeByte == 0xC3: // RET
		inst.Opcode = OpcodeRet
	case opcodeByte == 0xCA: // RETF imm16
		inst.Opcode = OpcodeRetFar
		inst.Immediate = uint32(fetch16())
	case opcodeByte == 0xCB: // RETF
		inst.Opcode = OpcodeRetFar

	case opcodeByte == 0xE0: // LOOPNZ
		inst.Opcode = OpcodeLoopNZ
		rel := int8(fetch8())
		inst.Immediate = uint32(uint16(int32(pos) + int32(rel)))
	case opcodeByte == 0xE1: // LOOPZ
		inst.Opcode = OpcodeLoopZ
		rel := int8(fetch8())
		inst.Immediate = uint32(uint16(int32(pos) + int32(rel)))
	case opcodeByte == 0xE2: // LOOP
		inst.Opcode = OpcodeLoop
		rel := int8(fetch8())
		inst.Immediate = uint32(uint16(int32(pos) + int32(rel)))
	case opcodeByte == 0xE3: // JCXZ
		inst.Opcode = OpcodeJcxz
		rel := int8(fetch8())
		inst.Immediate = uint32(uint16(int32(pos) + int32(rel)))

	case opcodeByte == 0xCC:
		inst.Opcode = OpcodeInt
		inst.Immediate = 3
	case opcodeByte == 0xCD:
		inst.Opcode = OpcodeInt
		inst.Immediate = uint32(fetch8())
	case opcodeByte == 0xCE:
		inst.Opcode = OpcodeInto
	case opcodeByte == 0xCF:
		inst.Opcode = OpcodeIret

	case opcodeByte == 0xE4: // IN AL, imm8
		inst.Opcode, inst.DataWidth = OpcodeIn, 8
		inst.First = OpAL
		inst.Immediate = uint32(fetch8())
	case opcodeByte == 0xE5: // IN AX, imm8
		inst.Opcode, inst.DataWidth = OpcodeIn, 16
		inst.First = OpAX
		inst.Immediate = uint32(fetch8())
	case opcodeByte == 0xE6: // OUT imm8, AL
		inst.Opcode, inst.DataWidth = OpcodeOut, 8
		inst.Second = OpAL
		inst.Immediate = uint32(fetch8())
	case opcodeByte == 0xE7: // OUT imm8, AX
		inst.Opcode, inst.DataWidth = OpcodeOut, 16
		inst.Second = OpAX
		inst.Immediate = uint32(fetch8())
	case opcodeByte == 0xEC: // IN AL, DX
		inst.Opcode, inst.DataWidth = OpcodeIn, 8
		inst.First, inst.Second = OpAL, OpDX
	case opcodeByte == 0xED: // IN AX, DX
		inst.Opcode, inst.DataWidth = OpcodeIn, 16
		inst.First, inst.Second = OpAX, OpDX
	case opcodeByte == 0xEE: // OUT DX, AL
		inst.Opcode, inst.DataWidth = OpcodeOut, 8
		inst.First, inst.Second = OpDX, OpAL
	case opcodeByte == 0xEF: // OUT DX, AX
		inst.Opcode, inst.DataWidth = OpcodeOut, 16
		inst.First, inst.Second = OpDX, OpAX

	case opcodeByte == 0xA4:
		inst.Opcode, inst.DataWidth = OpcodeMovs, 8
		inst.demoteRep()
	case opcodeByte == 0xA5:
		inst.Opcode, inst.DataWidth = OpcodeMovs, 16
		inst.demoteRep()
	case opcodeByte == 0xA6:
		inst.Opcode, inst.DataWidth = OpcodeCmps, 8
	case opcodeByte == 0xA7:
		inst.Opcode, inst.DataWidth = OpcodeCmps, 16
	case opcodeByte == 0xAA:
		inst.Opcode, inst.DataWidth = OpcodeStos, 8
		inst.demoteRep()
	case opcodeByte == 0xAB:
		inst.Opcode, inst.DataWidth = OpcodeStos, 16
		inst.demoteRep()
	case opcodeByte == 0xAC:
		inst.Opcode, inst.DataWidth = OpcodeLods, 8
		inst.demoteRep()
	case opcodeByte == 0xAD:
		inst.Opcode, inst.DataWidth = OpcodeLods, 16
		inst.demoteRep()
	case opcodeByte == 0xAE:
		inst.Opcode, inst.DataWidth = OpcodeScas, 8
	case opcodeByte == 0xAF:
		inst.Opcode, inst.DataWidth = OpcodeScas, 16

	case opcodeByte == 0xA8: // TEST AL, imm8
		inst.Opcode, inst.DataWidth = OpcodeTest, 8
		inst.First, inst.Second = OpAL, OpImmediate
		inst.Immediate = uint32(fetch8())
	case opcodeByte == 0xA9: // TEST AX, imm16
		inst.Opcode, inst.DataWidth = OpcodeTest, 16
		inst.First, inst.Second = OpAX, OpImmediate
		inst.Immediate = uint32(fetch16())

	case opcodeByte == 0xD7:
		inst.Opcode = OpcodeXlat
	case opcodeByte == 0xF4:
		inst.Opcode = OpcodeHlt
	case opcodeByte == 0xF5:
		inst.Opcode = OpcodeCmc
	case opcodeByte == 0xF8:
		inst.Opcode = OpcodeClc
	case opcodeByte == 0xF9:
		inst.Opcode = OpcodeStc
	case opcodeByte == 0xFA:
		inst.Opcode = OpcodeCli
	case opcodeByte == 0xFB:
		inst.Opcode = OpcodeSti
	case opcodeByte == 0xFC:
		inst.Opcode = OpcodeCld
	case opcodeByte == 0xFD:
		inst.Opcode = OpcodeStd
	case opcodeByte == 0x90:
		inst.Opcode = OpcodeNop
	case opcodeByte == 0x98:
		inst.Opcode = OpcodeCbw
	case opcodeByte == 0x99:
		inst.Opcode = OpcodeCwd
	case opcodeByte == 0x9B:
		inst.Opcode = OpcodeWait
	case opcodeByte == 0x9C:
		inst.Opcode = OpcodePushf
	case opcodeByte == 0x9D:
		inst.Opcode = OpcodePopf
	case opcodeByte == 0x9E:
		inst.Opcode = OpcodeSahf
	case opcodeByte == 0x9F:
		inst.Opcode = OpcodeLahf
	case opcodeByte == 0xD4:
		inst.Opcode = OpcodeAam
		inst.Immediate = uint32(fetch8()) // base, normally 0x0A
	case opcodeByte == 0xD5:
		inst.Opcode = OpcodeAad
		inst.Immediate = uint32(fetch8()) // base, normally 0x0A

	default:
		inst.Opcode = OpcodeBad
	}

	inst.Position = pos
	return inst
}

func (inst *Instruction) demoteRep() {
	if inst.Rep == RepZ || inst.Rep == RepNZ {
		inst.Rep = Rep
	}
}

func segmentPushPopOperand(b uint8) Operand {
	switch b {
	case 0x06, 0x07:
		return OpES
	case 0x0E:
		return OpCS
	case 0x16, 0x17:
		return OpSS
	default:
		return OpDS
	}
}

var group2Table = [8]Opcode{OpcodeRol, OpcodeRor, OpcodeRcl, OpcodeRcr, OpcodeShl, OpcodeShr, OpcodeShl, OpcodeSar}
var group3Table = [8]Opcode{OpcodeTest, OpcodeTest, OpcodeNot, OpcodeNeg, OpcodeMul, OpcodeImul, OpcodeDiv, OpcodeIdiv}

func group1SelectorFromModRM(modrmByte uint8) uint8 {
	return (modrmByte >> 3) & 7
}

// decodeModRMFromByte decodes a ModR/M whose leading byte was already
// fetched (used by the MOV segreg forms, which need the segment field
// before committing to the general ModR/M helper).
func decodeModRMFromByte(b uint8, fetch8 func() uint8, fetch16 func() uint16) (regOperand, rmOperand Operand, isMemory bool, displacement int32) {
	mod := b >> 6
	rm := b & 7
	addrTable := [8]Operand{OpAddrBxSi, OpAddrBxDi, OpAddrBpSi, OpAddrBpDi, OpAddrSi, OpAddrDi, OpAddrBp, OpAddrBx}
	if mod == 0 && rm == 6 {
		return OpNone, OpAddrDisp, true, int32(fetch16())
	}
	rmOperand = addrTable[rm]
	switch mod {
	case 1:
		displacement = int32(int8(fetch8()))
	case 2:
		displacement = int32(int16(fetch16()))
	}
	return OpNone, rmOperand, true, displacement
}
