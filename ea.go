package h8

// ea represents a resolved operand: either a register field or a memory
// address. Word/long memory accesses through ea mask the low address bit
// per the H8 alignment policy (spec.md §4.2) rather than faulting.
type ea struct {
	mem     bool
	regIdx  uint8  // register field, meaningful when !mem
	addr    uint32 // 24-bit memory address, meaningful when mem
	imm     uint32
	isImm   bool
}

func eaReg(idx uint8) ea { return ea{regIdx: idx} }
func eaMem(addr uint32) ea { return ea{mem: true, addr: addr} }
func eaImm(v uint32) ea { return ea{isImm: true, imm: v} }

// read returns the value at this effective address.
func (e ea) read(c *CPU, sz Size) uint32 {
	switch {
	case e.isImm:
		return e.imm & sz.Mask()
	case e.mem:
		v, err := c.readBus(sz, e.addr)
		if err != nil {
			c.fault(err)
			return 0
		}
		return v
	default:
		return c.readReg(sz, e.regIdx)
	}
}

// write stores a value at this effective address. Writing to an immediate
// ea is a programming error in the op table and is ignored.
func (e ea) write(c *CPU, sz Size, val uint32) {
	switch {
	case e.isImm:
		return
	case e.mem:
		if err := c.writeBus(sz, e.addr, val); err != nil {
			c.fault(err)
		}
	default:
		c.writeReg(sz, e.regIdx, val)
	}
}

// address returns the memory address. Only meaningful when the ea is a
// memory operand (used by JMP/JSR targets and LEA-equivalent forms).
func (e ea) address() uint32 {
	return e.addr
}

// eaERn resolves @ERn (register indirect).
func (c *CPU) eaERn(er uint8) ea {
	return eaMem(c.reg.ER[er&7] & 0x00FFFFFF)
}

// eaDisp16 resolves @(d:16,ERn): sign-extend a 16-bit displacement to 24
// bits, add to ERn, mask to 24 bits. An overflow in the underlying 32-bit
// add is reported as ArithmeticOverflow.
func (c *CPU) eaDisp16(er uint8) ea {
	d, err := c.fetchPC()
	if err != nil {
		c.fault(err)
		return ea{}
	}
	disp := int32(int16(d))
	base := int64(c.reg.ER[er&7])
	sum := base + int64(disp)
	if sum < -(1<<31) || sum > 1<<32-1 {
		c.fault(&ArithmeticOverflowError{Context: "@(d:16,ERn) displacement add"})
		return ea{}
	}
	return eaMem(uint32(sum) & 0x00FFFFFF)
}

// eaDisp24 resolves @(d:24,ERn): a 32-bit extension word whose low 24 bits
// are the sign-extended displacement.
func (c *CPU) eaDisp24(er uint8) ea {
	ext, err := c.fetchPCLong()
	if err != nil {
		c.fault(err)
		return ea{}
	}
	disp := int32(ext<<8) >> 8 // sign-extend low 24 bits
	base := int64(c.reg.ER[er&7])
	sum := base + int64(disp)
	if sum < -(1<<31) || sum > 1<<32-1 {
		c.fault(&ArithmeticOverflowError{Context: "@(d:24,ERn) displacement add"})
		return ea{}
	}
	return eaMem(uint32(sum) & 0x00FFFFFF)
}

// eaPostInc resolves @ERn+: read address is the current ERn, then ERn is
// advanced by sizeof(sz).
func (c *CPU) eaPostInc(er uint8, sz Size) ea {
	addr := c.reg.ER[er&7] & 0x00FFFFFF
	c.reg.ER[er&7] += uint32(sz)
	return eaMem(addr)
}

// eaPreDec resolves @-ERn: ERn is decremented by sizeof(sz) first, then
// that address is used.
func (c *CPU) eaPreDec(er uint8, sz Size) ea {
	c.reg.ER[er&7] -= uint32(sz)
	return eaMem(c.reg.ER[er&7] & 0x00FFFFFF)
}

// eaAbs8 resolves @aa:8: address is 0xFFFF00 | aa.
func eaAbs8(aa uint8) ea {
	return eaMem(0xFFFF00 | uint32(aa))
}

// eaAbs16 resolves @aa:16: top bit 0 means addr=aa, else sign-extended to
// 24 bits (0xFF0000 | aa).
func (c *CPU) eaAbs16() ea {
	aa, err := c.fetchPC()
	if err != nil {
		c.fault(err)
		return ea{}
	}
	if aa&0x8000 == 0 {
		return eaMem(uint32(aa))
	}
	return eaMem(0xFF0000 | uint32(aa))
}

// eaAbs24 resolves @aa:24: a 32-bit extension word masked to 24 bits.
func (c *CPU) eaAbs24() ea {
	aa, err := c.fetchPCLong()
	if err != nil {
		c.fault(err)
		return ea{}
	}
	return eaMem(aa & 0x00FFFFFF)
}

// eaMemIndirect resolves @@aa:8: the 32-bit handler address stored at
// address aa is the result (used only where documented, e.g. JMP/JSR jump
// targets).
func (c *CPU) eaMemIndirect(aa uint8) (uint32, error) {
	addr, err := c.readBus(Long, 0xFFFF00|uint32(aa))
	if err != nil {
		return 0, err
	}
	return addr & 0x00FFFFFF, nil
}

// mode identifies one of the addressing-mode helpers above, packed into the
// low nibble of MOV's extension byte. Grounded on spec.md §4.2's mode list.
type mode uint8

const (
	modeRn mode = iota
	modeERn
	modePostInc
	modePreDec
	modeDisp16
	modeDisp24
	modeAbs8
	modeAbs16
	modeAbs24
	modeMemInd
)

// resolveMode dispatches a (mode, register, size) triple to the matching ea
// helper. Used by the MOV family, which is the one instruction class that
// exposes the full addressing-mode surface (spec.md §4.3's flat decoder
// keeps every other family to register/immediate operands only, matching
// the real instruction set's restrictions).
func (c *CPU) resolveMode(m mode, reg uint8, sz Size) ea {
	switch m {
	case modeRn:
		return eaReg(reg)
	case modeERn:
		return c.eaERn(reg)
	case modePostInc:
		return c.eaPostInc(reg, sz)
	case modePreDec:
		return c.eaPreDec(reg, sz)
	case modeDisp16:
		return c.eaDisp16(reg)
	case modeDisp24:
		return c.eaDisp24(reg)
	case modeAbs8:
		aa, err := c.fetchPC()
		if err != nil {
			c.fault(err)
			return ea{}
		}
		return eaAbs8(uint8(aa))
	case modeAbs16:
		return c.eaAbs16()
	case modeAbs24:
		return c.eaAbs24()
	case modeMemInd:
		aa, err := c.fetchPC()
		if err != nil {
			c.fault(err)
			return ea{}
		}
		target, err := c.eaMemIndirect(uint8(aa))
		if err != nil {
			c.fault(err)
			return ea{}
		}
		return eaMem(target)
	}
	c.fault(&InvalidRegisterError{Index: reg})
	return ea{}
}
