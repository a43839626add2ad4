package h8

func init() {
	registerBccFamily()
	registerJMP()
	registerJSR()
	registerBSR()
	registerRTS()
	registerRTE()
}

// --- Bcc ---
//
// 8-bit displacement form: 0100 cccc dddddddd, one word total.
// 16-bit displacement form: 0101 1000 cccc0000, followed by a disp16 word.

func registerBccFamily() {
	for cc := uint16(0); cc < 16; cc++ {
		for disp := uint16(0); disp < 256; disp++ {
			opcodeTable[0x4000|cc<<8|disp] = opBcc8
		}
		opcodeTable[0x5800|cc<<4] = opBcc16
	}
}

func opBcc8(c *CPU) int {
	cc := uint8((c.ir >> 8) & 0xF)
	if c.testCondition(cc) {
		disp := int32(int8(c.ir & 0xFF))
		c.setPC(uint32(int32(c.reg.PC) + disp))
	}
	return 4
}

func opBcc16(c *CPU) int {
	cc := uint8((c.ir >> 4) & 0xF)
	d, err := c.fetchPC()
	if err != nil {
		c.fault(err)
		return 0
	}
	if c.testCondition(cc) {
		disp := int32(int16(d))
		c.setPC(uint32(int32(c.reg.PC) + disp))
	}
	return 6
}

// --- JMP ---

func registerJMP() {
	for er := uint16(0); er < 8; er++ {
		opcodeTable[0x5900|er<<4] = opJMPern
	}
	opcodeTable[0x5A00] = opJMPabs24
	for aa := uint16(0); aa < 256; aa++ {
		opcodeTable[0x5B00|aa] = opJMPmemInd
	}
}

func opJMPern(c *CPU) int {
	er := uint8((c.ir >> 4) & 7)
	c.setPC(c.reg.ER[er])
	return 4
}

func opJMPabs24(c *CPU) int {
	addr, err := c.fetchPCLong()
	if err != nil {
		c.fault(err)
		return 0
	}
	c.setPC(addr)
	return 6
}

func opJMPmemInd(c *CPU) int {
	aa := uint8(c.ir & 0xFF)
	target, err := c.eaMemIndirect(aa)
	if err != nil {
		c.fault(err)
		return 0
	}
	c.setPC(target)
	return 8
}

// --- JSR ---

func registerJSR() {
	for er := uint16(0); er < 8; er++ {
		opcodeTable[0x5D00|er<<4] = opJSRern
	}
	opcodeTable[0x5E00] = opJSRabs24
	for aa := uint16(0); aa < 256; aa++ {
		opcodeTable[0x5F00|aa] = opJSRmemInd
	}
}

func opJSRern(c *CPU) int {
	er := uint8((c.ir >> 4) & 7)
	target := c.reg.ER[er]
	ret := c.reg.PC
	c.pushLong(ret)
	if c.halted {
		return 0
	}
	c.setPC(target)
	return 8
}

func opJSRabs24(c *CPU) int {
	addr, err := c.fetchPCLong()
	if err != nil {
		c.fault(err)
		return 0
	}
	ret := c.reg.PC
	c.pushLong(ret)
	if c.halted {
		return 0
	}
	c.setPC(addr)
	return 10
}

func opJSRmemInd(c *CPU) int {
	aa := uint8(c.ir & 0xFF)
	target, err := c.eaMemIndirect(aa)
	if err != nil {
		c.fault(err)
		return 0
	}
	ret := c.reg.PC
	c.pushLong(ret)
	if c.halted {
		return 0
	}
	c.setPC(target)
	return 12
}

// --- BSR ---
//
// BSR.B: 0101 0101 dddddddd, one word total.
// BSR.W: 0101 1100 00000000, followed by a disp16 word.

func registerBSR() {
	for disp := uint16(0); disp < 256; disp++ {
		opcodeTable[0x5500|disp] = opBSRb
	}
	opcodeTable[0x5C00] = opBSRw
}

func opBSRb(c *CPU) int {
	disp := int32(int8(c.ir & 0xFF))
	ret := c.reg.PC
	c.pushLong(ret)
	if c.halted {
		return 0
	}
	c.setPC(uint32(int32(ret) + disp))
	return 8
}

func opBSRw(c *CPU) int {
	d, err := c.fetchPC()
	if err != nil {
		c.fault(err)
		return 0
	}
	disp := int32(int16(d))
	ret := c.reg.PC
	c.pushLong(ret)
	if c.halted {
		return 0
	}
	c.setPC(uint32(int32(ret) + disp))
	// original_source's bsr.rs two-word form (test_bsr_disp24, the real
	// disp16 BSR.W case): calc_state(I,2) + calc_state_with_addr(K,2,addr)
	// + calc_state(N,2) = 10.
	return 10
}

// --- RTS ---

func registerRTS() {
	opcodeTable[0x5470] = opRTS
}

func opRTS(c *CPU) int {
	addr := c.popLong()
	if c.halted {
		return 0
	}
	c.setPC(addr)
	return 10
}

// --- RTE ---
//
// Pops one longword holding (CCR<<24)|PC and restores both; the exit path
// from interrupt and TRAPA service routines.

func registerRTE() {
	opcodeTable[0x5670] = opRTE
}

func opRTE(c *CPU) int {
	frame := c.popLong()
	if c.halted {
		return 0
	}
	c.reg.CCR = uint8(frame >> 24)
	c.setPC(frame & 0x00FFFFFF)
	return 10
}
