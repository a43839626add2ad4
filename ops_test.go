package h8

import "testing"

func TestANDBRegister(t *testing.T) {
	cpu, bus := newTestCPU(0x1000)
	writeWord(bus, 0x1000, 0x2412) // AND.B R1,R2
	cpu.writeReg(Byte, 1, 0x0F)
	cpu.writeReg(Byte, 2, 0xFF)
	cpu.Step()
	if got := cpu.readReg(Byte, 2); got != 0x0F {
		t.Errorf("R2H = %#x, want 0x0f", got)
	}
}

func TestORBImmediate(t *testing.T) {
	cpu, bus := newTestCPU(0x1000)
	writeWord(bus, 0x1000, 0xC080) // OR.B #0x80,R0L
	cpu.writeReg(Byte, 8, 0x01)
	cpu.Step()
	if got := cpu.readReg(Byte, 8); got != 0x81 {
		t.Errorf("R0L = %#x, want 0x81", got)
	}
}

func TestXORWRegister(t *testing.T) {
	cpu, bus := newTestCPU(0x1000)
	writeWord(bus, 0x1000, 0x2B01) // XOR.W R0,R1
	cpu.writeReg(Word, 0, 0xFF00)
	cpu.writeReg(Word, 1, 0x0FF0)
	cpu.Step()
	if got := cpu.readReg(Word, 1); got != 0xF0F0 {
		t.Errorf("R1 = %#x, want 0xf0f0", got)
	}
}

func TestNOTByte(t *testing.T) {
	cpu, bus := newTestCPU(0x1000)
	writeWord(bus, 0x1000, 0x2300) // NOT.B R0
	cpu.writeReg(Byte, 8+0, 0x0F)
	cpu.Step()
	if got := cpu.readReg(Byte, 8+0); got != 0xF0 {
		t.Errorf("R0L = %#x, want 0xf0", got)
	}
}

func TestADDSIncrementsERByTwo(t *testing.T) {
	cpu, bus := newTestCPU(0x1000)
	writeWord(bus, 0x1000, 0x0B83) // ADDS #2,ER3
	cpu.reg.ER[3] = 10
	cpu.Step()
	if cpu.reg.ER[3] != 12 {
		t.Errorf("ER3 = %d, want 12", cpu.reg.ER[3])
	}
}

func TestSUBSDecrementsERByFour(t *testing.T) {
	cpu, bus := newTestCPU(0x1000)
	writeWord(bus, 0x1000, 0x1B92) // SUBS #4,ER2
	cpu.reg.ER[2] = 10
	cpu.Step()
	if cpu.reg.ER[2] != 6 {
		t.Errorf("ER2 = %d, want 6", cpu.reg.ER[2])
	}
}

func TestINCByteWraps(t *testing.T) {
	cpu, bus := newTestCPU(0x1000)
	writeWord(bus, 0x1000, 0x1A00) // INC.B R0 (sizeCount=0)
	cpu.writeReg(Byte, 8+0, 0xFF)
	cpu.Step()
	if got := cpu.readReg(Byte, 8+0); got != 0x00 {
		t.Errorf("R0L = %#x, want 0", got)
	}
	if !cpu.testCCRBit(ccrV) {
		t.Errorf("V flag not set wrapping INC.B through the signed boundary")
	}
}

func TestMULXUByte(t *testing.T) {
	cpu, bus := newTestCPU(0x1000)
	writeWord(bus, 0x1000, 0x2E10) // MULXU.B Rs=1,Rd=0
	cpu.writeReg(Byte, 1, 5)
	cpu.writeReg(Word, 0, 6)
	cpu.Step()
	if got := cpu.readReg(Word, 0); got != 30 {
		t.Errorf("R0 = %d, want 30", got)
	}
}

func TestEXTUWord(t *testing.T) {
	cpu, bus := newTestCPU(0x1000)
	writeWord(bus, 0x1000, 0x2D00) // EXTU.W R0
	cpu.writeReg(Word, 0, 0xFFFF)
	cpu.Step()
	if got := cpu.readReg(Word, 0); got != 0x00FF {
		t.Errorf("R0 = %#x, want 0x00ff", got)
	}
}

func TestNEGByte(t *testing.T) {
	cpu, bus := newTestCPU(0x1000)
	writeWord(bus, 0x1000, 0x1780) // NEG.B R0
	cpu.writeReg(Byte, 8+0, 0x01)
	cpu.Step()
	if got := cpu.readReg(Byte, 8+0); got != 0xFF {
		t.Errorf("R0L = %#x, want 0xff", got)
	}
}

func TestBLDAndBSTRoundTrip(t *testing.T) {
	cpu, bus := newTestCPU(0x1000)
	writeWord(bus, 0x1000, 0x6502) // BLD dynamic: bit-number reg=0, field=2
	writeWord(bus, 0x1002, 0x6202) // BST dynamic: same shape, target field=2
	cpu.writeReg(Byte, 8+0, 5)     // bit number 5
	cpu.writeReg(Byte, 8+2, 1<<5)
	cpu.Step() // BLD: C = bit 5 of R2L
	if !cpu.testCCRBit(ccrC) {
		t.Fatalf("BLD did not set C")
	}
	cpu.writeReg(Byte, 8+2, 0)
	cpu.Step() // BST: write C back into bit 5 of R2L
	if got := cpu.readReg(Byte, 8+2); got != 1<<5 {
		t.Errorf("R2L = %#x, want %#x", got, uint8(1<<5))
	}
}

func TestLDCAndSTCCCR(t *testing.T) {
	cpu, bus := newTestCPU(0x1000)
	writeWord(bus, 0x1000, 0x0342) // LDC #0x42,CCR
	cpu.Step()
	if cpu.reg.CCR != 0x42 {
		t.Errorf("CCR = %#x, want 0x42", cpu.reg.CCR)
	}
}
