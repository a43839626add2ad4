package h8

import "testing"

func TestSerializeRoundTrip(t *testing.T) {
	cpu, _ := newTestCPU(0x2000)
	cpu.reg.ER[2] = 0xCAFEBABE
	cpu.reg.CCR = ccrN | ccrZ
	cpu.cycles = 12345
	cpu.pendingVecs = append(cpu.pendingVecs, 36, 37)
	cpu.gotSave[5] = 0x403000

	buf := make([]byte, cpu.SerializeSize())
	if err := cpu.Serialize(buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	restored, _ := newTestCPU(0)
	if err := restored.Deserialize(buf); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	if restored.reg.ER[2] != 0xCAFEBABE {
		t.Errorf("ER2 = %#x, want 0xcafebabe", restored.reg.ER[2])
	}
	if restored.reg.PC != 0x2000 {
		t.Errorf("PC = %#x, want 0x2000", restored.reg.PC)
	}
	if restored.reg.CCR != cpu.reg.CCR {
		t.Errorf("CCR = %#x, want %#x", restored.reg.CCR, cpu.reg.CCR)
	}
	if restored.cycles != 12345 {
		t.Errorf("cycles = %d, want 12345", restored.cycles)
	}
	if len(restored.pendingVecs) != 2 || restored.pendingVecs[0] != 36 || restored.pendingVecs[1] != 37 {
		t.Errorf("pendingVecs = %v, want [36 37]", restored.pendingVecs)
	}
	if restored.gotSave[5] != 0x403000 {
		t.Errorf("gotSave[5] = %#x, want 0x403000", restored.gotSave[5])
	}
	if restored.Halted() {
		t.Errorf("restored CPU reports halted")
	}
}

func TestDeserializeRejectsShortBuffer(t *testing.T) {
	cpu, _ := newTestCPU(0)
	if err := cpu.Deserialize(make([]byte, 4)); err == nil {
		t.Fatalf("expected error for short buffer")
	}
}

func TestDeserializeRejectsBadVersion(t *testing.T) {
	cpu, _ := newTestCPU(0)
	buf := make([]byte, cpu.SerializeSize())
	buf[0] = cpuSerializeVersion + 1
	if err := cpu.Deserialize(buf); err == nil {
		t.Fatalf("expected error for version mismatch")
	}
}
