package elfimage

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// fakeLoader records every LoadImage call for assertions.
type fakeLoader struct {
	calls []struct {
		addr uint32
		data []byte
	}
}

func (f *fakeLoader) LoadImage(addr uint32, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	f.calls = append(f.calls, struct {
		addr uint32
		data []byte
	}{addr, cp})
	return nil
}

// buildMinimalELF32BE hand-assembles a minimal ELF32 big-endian image with
// one SHT_NULL section, one loadable .text section holding text, and a
// .shstrtab section, since the standard library has no ELF encoder.
func buildMinimalELF32BE(t *testing.T, entry uint32, textAddr uint32, text []byte) []byte {
	t.Helper()

	const ehdrSize = 52
	const shdrSize = 40

	shstrtab := []byte{0} // index 0 is always the empty string
	nameOff := func(name string) uint32 {
		off := uint32(len(shstrtab))
		shstrtab = append(shstrtab, append([]byte(name), 0)...)
		return off
	}
	textNameOff := nameOff(".text")
	shstrtabNameOff := nameOff(".shstrtab")

	textOff := uint32(ehdrSize)
	shstrtabOff := textOff + uint32(len(text))
	shoff := shstrtabOff + uint32(len(shstrtab))

	var buf bytes.Buffer

	// e_ident
	buf.Write([]byte{0x7f, 'E', 'L', 'F', 1 /* ELFCLASS32 */, 2 /* ELFDATA2MSB */, 1, 0})
	buf.Write(make([]byte, 8)) // padding

	be := binary.BigEndian
	write16 := func(v uint16) { var b [2]byte; be.PutUint16(b[:], v); buf.Write(b[:]) }
	write32 := func(v uint32) { var b [4]byte; be.PutUint32(b[:], v); buf.Write(b[:]) }

	write16(2)         // e_type = ET_EXEC
	write16(47)         // e_machine (EM_H8_300H)
	write32(1)          // e_version
	write32(entry)      // e_entry
	write32(0)          // e_phoff
	write32(shoff)      // e_shoff
	write32(0)          // e_flags
	write16(ehdrSize)   // e_ehsize
	write16(0)          // e_phentsize
	write16(0)          // e_phnum
	write16(shdrSize)   // e_shentsize
	write16(3)          // e_shnum: null, .text, .shstrtab
	write16(2)          // e_shstrndx

	buf.Write(text)
	buf.Write(shstrtab)

	// section header 0: SHT_NULL, all zero
	buf.Write(make([]byte, shdrSize))

	// section header 1: .text
	write32(textNameOff)
	write32(1) // SHT_PROGBITS
	write32(6) // SHF_ALLOC | SHF_EXECINSTR
	write32(textAddr)
	write32(textOff)
	write32(uint32(len(text)))
	write32(0)
	write32(0)
	write32(2)
	write32(0)

	// section header 2: .shstrtab
	write32(shstrtabNameOff)
	write32(3) // SHT_STRTAB
	write32(0)
	write32(0)
	write32(shstrtabOff)
	write32(uint32(len(shstrtab)))
	write32(0)
	write32(0)
	write32(1)
	write32(0)

	return buf.Bytes()
}

func TestLoadMinimalImage(t *testing.T) {
	text := []byte{0x0C, 0x0F, 0x00, 0x00} // two NOP-sized words, arbitrary
	raw := buildMinimalELF32BE(t, 0xFFBF20, 0xFFBF20, text)

	loader := &fakeLoader{}
	img, err := Load(raw, loader)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if img.Entry != 0xFFBF20 {
		t.Errorf("entry = %#x, want 0xFFBF20", img.Entry)
	}
	if len(loader.calls) != 1 {
		t.Fatalf("expected 1 LoadImage call, got %d", len(loader.calls))
	}
	call := loader.calls[0]
	if call.addr != 0xFFBF20 {
		t.Errorf("load addr = %#x, want 0xFFBF20", call.addr)
	}
	if !bytes.Equal(call.data, text) {
		t.Errorf("loaded data = %x, want %x", call.data, text)
	}
}

func TestLoadRejectsWrongClass(t *testing.T) {
	raw := []byte{0x7f, 'E', 'L', 'F', 2 /* ELFCLASS64 */, 2, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	raw = append(raw, make([]byte, 48)...)
	if _, err := Load(raw, &fakeLoader{}); err == nil {
		t.Fatal("expected an error for a 64-bit ELF class")
	}
}
