package h8

// Opcode map for this file (top byte -> family), part of the flat decoder
// documented in decode.go. Register-register forms use the byte-field
// convention from regs.go (0-7 high half, 8-15 low half for Byte/Word
// operations). Grounded on original_source's per-mnemonic instruction
// files (add_b.rs, add_l.rs, adds.rs, addx.rs, subs.rs, cmp_b.rs, cmp_l.rs,
// neg.rs, inc.rs, dec.rs, mulxu.rs, divxu.rs, extu.rs) for opcode shape and
// exact flag/state behavior; byte layout choices not pinned by the source
// are this implementation's own, kept internally consistent.
//
//	0x08 ADD.B Rs,Rd     0x80-8F ADD.B #imm,Rd
//	0x09 ADD.W Rs,Rd     0x7900-line: see ops_move.go for MOV's 0x79/7B/7C/7D/7E
//	0x0A ADD.L ERs,ERd   0x7A    ADD.L #imm:32,ERd (two ext words)
//	0x0B ADDS #1/2/4,ERd 0x1B    SUBS #1/2/4,ERd
//	0x0F ADDX.B Rs,Rd    0x90-9F ADDX.B #imm,Rd
//	0x1C CMP.B Rs,Rd     0xA0-AF CMP.B #imm,Rd
//	0x1F CMP.L ERs,ERd   0x21    CMP.W Rs,Rd
//	0x17 NEG (tag 8/9/B = B/W/L in byte2 high nibble)
//	0x18 SUB.B Rs,Rd     0x19    SUB.W Rs,Rd    0x22 SUB.L ERs,ERd
//	0x1E SUBX.B Rs,Rd    0xB0-BF SUBX.B #imm,Rd
//	0x1A INC (byte2 = sizeCount<<4|reg)   0x1D DEC (same shape)
//	0x2D EXTU (byte2 = size<<6|reg, size 0=W 1=L)
//	0x2E MULXU (byte2 bit6: 0=B 1=W)      0x2F DIVXU (same shape)
func init() {
	registerADD()
	registerADDS()
	registerADDX()
	registerSUB()
	registerSUBS()
	registerSUBX()
	registerCMP()
	registerNEG()
	registerINCDEC()
	registerMULXU()
	registerDIVXU()
	registerEXTU()
}

// --- ADD ---

func registerADD() {
	for r := uint16(0); r < 256; r++ {
		opcodeTable[0x0800|r] = opADDBreg
		opcodeTable[0x0900|r] = opADDWreg
	}
	for r := uint16(0); r < 8; r++ {
		for s := uint16(0); s < 8; s++ {
			opcodeTable[0x0A00|r<<4|s] = opADDLreg
		}
	}
	for d := uint16(0); d < 16; d++ {
		for imm := uint16(0); imm < 256; imm++ {
			opcodeTable[0x8000|d<<8|imm] = opADDBimm
		}
	}
	opcodeTable[0x7A00] = opADDLimm // byte2 low nibble selects ERd
	for d := uint16(1); d < 8; d++ {
		opcodeTable[0x7A00|d] = opADDLimm
	}
}

func opADDBreg(c *CPU) int {
	rs := uint8(c.ir>>4) & 0xF
	rd := uint8(c.ir) & 0xF
	s := c.readReg(Byte, rs)
	d := c.readReg(Byte, rd)
	c.writeReg(Byte, rd, c.addWithFlags(Byte, d, s))
	return 2
}

func opADDWreg(c *CPU) int {
	rs := uint8(c.ir>>4) & 0xF
	rd := uint8(c.ir) & 0xF
	s := c.readReg(Word, rs)
	d := c.readReg(Word, rd)
	c.writeReg(Word, rd, c.addWithFlags(Word, d, s))
	return 2
}

func opADDLreg(c *CPU) int {
	rs := uint8(c.ir>>4) & 7
	rd := uint8(c.ir) & 7
	s := c.readReg(Long, rs)
	d := c.readReg(Long, rd)
	c.writeReg(Long, rd, c.addWithFlags(Long, d, s))
	return 2
}

func opADDBimm(c *CPU) int {
	rd := uint8(c.ir>>8) & 0xF
	imm := uint32(c.ir) & 0xFF
	d := c.readReg(Byte, rd)
	c.writeReg(Byte, rd, c.addWithFlags(Byte, d, imm))
	return 2
}

func opADDLimm(c *CPU) int {
	rd := uint8(c.ir) & 7
	imm, err := c.fetchPCLong()
	if err != nil {
		c.fault(err)
		return 0
	}
	d := c.readReg(Long, rd)
	c.writeReg(Long, rd, c.addWithFlags(Long, d, imm))
	return 6
}

// --- ADDS (ERd += 1, 2, or 4; no flags) ---

func registerADDS() {
	for r := uint16(0); r < 8; r++ {
		opcodeTable[0x0B00|r] = opADDS1
		opcodeTable[0x0B80|r] = opADDS2
		opcodeTable[0x0B90|r] = opADDS4
	}
}

func opADDS1(c *CPU) int { return addsN(c, 1) }
func opADDS2(c *CPU) int { return addsN(c, 2) }
func opADDS4(c *CPU) int { return addsN(c, 4) }

func addsN(c *CPU, n uint32) int {
	rd := uint8(c.ir) & 7
	c.reg.ER[rd] += n
	return 2
}

// --- SUBS (ERd -= 1, 2, or 4; no flags) ---

func registerSUBS() {
	for r := uint16(0); r < 8; r++ {
		opcodeTable[0x1B00|r] = opSUBS1
		opcodeTable[0x1B80|r] = opSUBS2
		opcodeTable[0x1B90|r] = opSUBS4
	}
}

func opSUBS1(c *CPU) int { return subsN(c, 1) }
func opSUBS2(c *CPU) int { return subsN(c, 2) }
func opSUBS4(c *CPU) int { return subsN(c, 4) }

func subsN(c *CPU, n uint32) int {
	rd := uint8(c.ir) & 7
	c.reg.ER[rd] -= n
	return 2
}

// --- ADDX (byte only; dest += src + C) ---

func registerADDX() {
	for r := uint16(0); r < 256; r++ {
		opcodeTable[0x0F00|r] = opADDXreg
	}
	for d := uint16(0); d < 16; d++ {
		for imm := uint16(0); imm < 256; imm++ {
			opcodeTable[0x9000|d<<8|imm] = opADDXimm
		}
	}
}

func opADDXreg(c *CPU) int {
	rs := uint8(c.ir>>4) & 0xF
	rd := uint8(c.ir) & 0xF
	s := c.readReg(Byte, rs)
	d := c.readReg(Byte, rd)
	c.writeReg(Byte, rd, c.addxWithFlags(Byte, d, s))
	return 2
}

func opADDXimm(c *CPU) int {
	rd := uint8(c.ir>>8) & 0xF
	imm := uint32(c.ir) & 0xFF
	d := c.readReg(Byte, rd)
	c.writeReg(Byte, rd, c.addxWithFlags(Byte, d, imm))
	return 2
}

// --- SUB ---

func registerSUB() {
	for r := uint16(0); r < 256; r++ {
		opcodeTable[0x1800|r] = opSUBBreg
		opcodeTable[0x1900|r] = opSUBWreg
	}
	for r := uint16(0); r < 8; r++ {
		for s := uint16(0); s < 8; s++ {
			opcodeTable[0x2200|r<<4|s] = opSUBLreg
		}
	}
}

func opSUBBreg(c *CPU) int {
	rs := uint8(c.ir>>4) & 0xF
	rd := uint8(c.ir) & 0xF
	s := c.readReg(Byte, rs)
	d := c.readReg(Byte, rd)
	c.writeReg(Byte, rd, c.subWithFlags(Byte, d, s))
	return 2
}

func opSUBWreg(c *CPU) int {
	rs := uint8(c.ir>>4) & 0xF
	rd := uint8(c.ir) & 0xF
	s := c.readReg(Word, rs)
	d := c.readReg(Word, rd)
	c.writeReg(Word, rd, c.subWithFlags(Word, d, s))
	return 2
}

func opSUBLreg(c *CPU) int {
	rs := uint8(c.ir>>4) & 7
	rd := uint8(c.ir) & 7
	s := c.readReg(Long, rs)
	d := c.readReg(Long, rd)
	c.writeReg(Long, rd, c.subWithFlags(Long, d, s))
	return 2
}

// --- SUBX (byte only; dest -= src + C) ---

func registerSUBX() {
	for r := uint16(0); r < 256; r++ {
		opcodeTable[0x1E00|r] = opSUBXreg
	}
	for d := uint16(0); d < 16; d++ {
		for imm := uint16(0); imm < 256; imm++ {
			opcodeTable[0xB000|d<<8|imm] = opSUBXimm
		}
	}
}

func opSUBXreg(c *CPU) int {
	rs := uint8(c.ir>>4) & 0xF
	rd := uint8(c.ir) & 0xF
	s := c.readReg(Byte, rs)
	d := c.readReg(Byte, rd)
	c.writeReg(Byte, rd, c.subxWithFlags(Byte, d, s))
	return 2
}

func opSUBXimm(c *CPU) int {
	rd := uint8(c.ir>>8) & 0xF
	imm := uint32(c.ir) & 0xFF
	d := c.readReg(Byte, rd)
	c.writeReg(Byte, rd, c.subxWithFlags(Byte, d, imm))
	return 2
}

// --- CMP (arithmetic without writeback) ---

func registerCMP() {
	for r := uint16(0); r < 256; r++ {
		opcodeTable[0x1C00|r] = opCMPBreg
	}
	for r := uint16(0); r < 256; r++ {
		opcodeTable[0x2100|r] = opCMPWreg
	}
	for r := uint16(0); r < 8; r++ {
		for s := uint16(0); s < 8; s++ {
			opcodeTable[0x1F00|r<<4|s] = opCMPLreg
		}
	}
	for d := uint16(0); d < 16; d++ {
		for imm := uint16(0); imm < 256; imm++ {
			opcodeTable[0xA000|d<<8|imm] = opCMPBimm
		}
	}
}

func opCMPBreg(c *CPU) int {
	rs := uint8(c.ir>>4) & 0xF
	rd := uint8(c.ir) & 0xF
	c.subWithFlags(Byte, c.readReg(Byte, rd), c.readReg(Byte, rs))
	return 2
}

func opCMPWreg(c *CPU) int {
	rs := uint8(c.ir>>4) & 0xF
	rd := uint8(c.ir) & 0xF
	c.subWithFlags(Word, c.readReg(Word, rd), c.readReg(Word, rs))
	return 2
}

func opCMPLreg(c *CPU) int {
	rs := uint8(c.ir>>4) & 7
	rd := uint8(c.ir) & 7
	c.subWithFlags(Long, c.readReg(Long, rd), c.readReg(Long, rs))
	return 2
}

func opCMPBimm(c *CPU) int {
	rd := uint8(c.ir>>8) & 0xF
	imm := uint32(c.ir) & 0xFF
	c.subWithFlags(Byte, c.readReg(Byte, rd), imm)
	return 2
}

// --- NEG ---

func registerNEG() {
	for r := uint16(0); r < 8; r++ {
		opcodeTable[0x1780|r] = opNEGB
		opcodeTable[0x1790|r] = opNEGW
		opcodeTable[0x17B0|r] = opNEGL
	}
}

func opNEGB(c *CPU) int { return negOp(c, Byte) }
func opNEGW(c *CPU) int { return negOp(c, Word) }
func opNEGL(c *CPU) int { return negOp(c, Long) }

func negOp(c *CPU, sz Size) int {
	rd := uint8(c.ir) & 7
	v := c.readReg(sz, rd)
	c.writeReg(sz, rd, c.negWithFlags(sz, v))
	return 2
}

// --- INC / DEC ---
//
// byte2 = sizeCount<<4 | reg, sizeCount: 0=B step1, 1=W step1, 2=W step2,
// 3=L step1, 4=L step2.

func registerINCDEC() {
	for sc := uint16(0); sc < 5; sc++ {
		for r := uint16(0); r < 8; r++ {
			opcodeTable[0x1A00|sc<<4|r] = opINC
			opcodeTable[0x1D00|sc<<4|r] = opDEC
		}
	}
}

func incDecShape(ir uint16) (sz Size, step uint32, reg uint8) {
	sc := (ir >> 4) & 0xF
	reg = uint8(ir) & 7
	switch sc {
	case 0:
		return Byte, 1, reg
	case 1:
		return Word, 1, reg
	case 2:
		return Word, 2, reg
	case 3:
		return Long, 1, reg
	default:
		return Long, 2, reg
	}
}

func opINC(c *CPU) int {
	sz, step, reg := incDecShape(c.ir)
	v := c.readReg(sz, reg)
	result := (v + step) & sz.Mask()
	c.writeReg(sz, reg, result)
	boundary := sz.MSB()
	overflowed := result == boundary || (step == 2 && result == (boundary+1)&sz.Mask())
	c.incDecFlags(sz, result, overflowed)
	return 2
}

func opDEC(c *CPU) int {
	sz, step, reg := incDecShape(c.ir)
	v := c.readReg(sz, reg)
	result := (v - step) & sz.Mask()
	c.writeReg(sz, reg, result)
	maxPos := sz.MSB() - 1
	overflowed := result == maxPos || (step == 2 && result == (maxPos-1)&sz.Mask())
	c.incDecFlags(sz, result, overflowed)
	return 2
}

// --- MULXU ---
//
// byte2 bit6 selects width: 0 = MULXU.B (ERd.low16 = ERd.low8 * Rs.8),
// 1 = MULXU.W (ERd = ERd.low16 * Rs.16). Per spec.md §4.3 neither form
// touches CCR. State cost is an internal-cycles instruction, not an
// addressing-mode one, per original_source's mulxu.rs: calc_state(I,1) +
// calc_state(N,12) for .B, calc_state(I,1) + calc_state(N,20) for .W.

func registerMULXU() {
	for r := uint16(0); r < 256; r++ {
		opcodeTable[0x2E00|r] = opMULXU
	}
}

func opMULXU(c *CPU) int {
	rs := uint8(c.ir>>4) & 0xF
	isWord := c.ir&0x40 != 0
	if isWord {
		rd := uint8(c.ir) & 7
		s := c.readReg(Word, rs)
		d := c.reg.ER[rd] & 0xFFFF
		c.reg.ER[rd] = d * uint32(s)
		return calcState(stateI, 1) + calcState(stateN, 20)
	}
	rd := uint8(c.ir) & 0xF
	s := c.readReg(Byte, rs)
	d := c.readReg(Word, rd) & 0xFF
	c.writeReg(Word, rd, d*s)
	return calcState(stateI, 1) + calcState(stateN, 12)
}

// --- DIVXU ---
//
// Division by zero writes zeros for both quotient and remainder and does
// not trap (spec.md §4.3). N reflects the sign of the divisor, Z whether
// it is zero. State cost per original_source's divxu.rs: calc_state(I,1) +
// calc_state(N,12) for .B, calc_state(I,1) + calc_state(N,20) for .W.

func registerDIVXU() {
	for r := uint16(0); r < 256; r++ {
		opcodeTable[0x2F00|r] = opDIVXU
	}
}

func opDIVXU(c *CPU) int {
	rs := uint8(c.ir>>4) & 0xF
	isWord := c.ir&0x40 != 0
	if isWord {
		rd := uint8(c.ir) & 7
		rsW := c.readReg(Word, rs)
		dividend := c.reg.ER[rd]
		c.setCCRBit(ccrN, rsW&0x8000 != 0)
		c.setCCRBit(ccrZ, rsW == 0)
		var quot, rem uint32
		if rsW != 0 {
			quot = dividend / uint32(rsW)
			rem = dividend % uint32(rsW)
		}
		c.reg.ER[rd] = (rem&0xFFFF)<<16 | (quot & 0xFFFF)
		return calcState(stateI, 1) + calcState(stateN, 20)
	}
	rd := uint8(c.ir) & 0xF
	rsB := c.readReg(Byte, rs)
	dividend := c.readReg(Word, rd)
	c.setCCRBit(ccrN, rsB&0x80 != 0)
	c.setCCRBit(ccrZ, rsB == 0)
	var quot, rem uint32
	if rsB != 0 {
		quot = dividend / rsB
		rem = dividend % rsB
	}
	c.writeReg(Word, rd, (rem&0xFF)<<8|(quot&0xFF))
	return calcState(stateI, 1) + calcState(stateN, 12)
}

// --- EXTU ---
//
// byte2 = size<<6 | reg, size: 0 = EXTU.W (clears high byte of Rd),
// 1 = EXTU.L (clears high word of ERd).

func registerEXTU() {
	for r := uint16(0); r < 8; r++ {
		opcodeTable[0x2D00|r] = opEXTUW
		opcodeTable[0x2D40|r] = opEXTUL
	}
}

func opEXTUW(c *CPU) int {
	reg := uint8(c.ir) & 7
	v := c.readReg(Word, reg) & 0x00FF
	c.writeReg(Word, reg, v)
	c.nzFlags(Word, v)
	return 2
}

func opEXTUL(c *CPU) int {
	reg := uint8(c.ir) & 7
	v := c.reg.ER[reg] & 0x0000FFFF
	c.reg.ER[reg] = v
	c.nzFlags(Long, v)
	return 2
}
