package h8

// HostWriter receives raw text emitted by a running program through the
// TRAPA #0 host-emulation path (service 104, __write). It is optional: a
// core running without a host channel attached simply discards the text.
type HostWriter interface {
	WriteText(s string)
}

// SetHostWriter attaches (or detaches, with nil) the sink for TRAPA #0
// service 104 output.
func (c *CPU) SetHostWriter(w HostWriter) {
	c.hostWriter = w
}

func init() {
	registerTRAPA()
}

func registerTRAPA() {
	for i := uint16(0); i < 16; i++ {
		opcodeTable[0x5700|i<<4] = opTRAPA
	}
}

// opTRAPA dispatches TRAPA #0 (host emulation services) or TRAPA #1..15
// (software interrupt through the vector table at 0x20+4*i).
func opTRAPA(c *CPU) int {
	i := (c.ir >> 4) & 0xF
	if i == 0 {
		return trapa0(c)
	}

	frame := uint32(c.reg.CCR)<<24 | (c.reg.PC & 0x00FFFFFF)
	c.pushLong(frame)
	if c.halted {
		return 0
	}

	addr, err := c.readBus(Long, 0x20+4*uint32(i))
	if err != nil {
		c.fault(err)
		return 0
	}
	c.reg.PC = addr & 0x00FFFFFF
	c.setCCRBit(ccrI, true)
	return 8
}

// TRAPA #0 host-emulation service identifiers (spec.md §4.3).
const (
	svcSetHandler = 113
	svcWrite      = 104
)

// trapa0 handles TRAPA #0: ER0 is a service identifier, ER1 points to an
// argument block. Unknown service IDs are a fatal InvalidOpcode, not a
// silent no-op (spec.md §4.3, §9).
func trapa0(c *CPU) int {
	svc := c.reg.ER[0]
	argPtr := c.reg.ER[1]

	switch svc {
	case svcSetHandler:
		trapaSetHandler(c, argPtr)
	case svcWrite:
		trapaWrite(c, argPtr)
	default:
		c.fault(&InvalidOpcodeError{Word: c.ir})
	}
	return 8
}

// trapaSetHandler implements service 113: arg[0] is a vector number
// (1..63), arg[1] is a callback address. The callback address is written
// directly into the vector table slot (this core's TRAPA/interrupt
// dispatch already treats that slot as a plain handler address, so no
// literal trampoline bytes are needed for the emulated effect to be
// observable), and the caller's ER5 (global pointer) is remembered in a
// per-vector shadow slot so it can be restored by the caller's runtime
// before the real callback is invoked.
func trapaSetHandler(c *CPU, argPtr uint32) {
	vec, err := c.readBus(Long, argPtr)
	if err != nil {
		c.fault(err)
		return
	}
	callback, err := c.readBus(Long, argPtr+4)
	if err != nil {
		c.fault(err)
		return
	}
	if vec < 1 || vec > 63 {
		c.fault(&InvalidRegisterError{Index: uint8(vec)})
		return
	}

	if err := c.writeBus(Long, vec*4, callback); err != nil {
		c.fault(err)
		return
	}
	c.gotSave[vec] = c.reg.ER[5]
}

// maxWriteLen bounds a single __write call so a corrupted byte count
// cannot force an unbounded host-side allocation.
const maxWriteLen = 1 << 16

// trapaWrite implements service 104 (__write): arg[0]=fd (unused by this
// core, forwarded conceptually), arg[1]=buffer address, arg[2]=byte count.
// This is the one TRAPA #0 path whose failures are NOT core errors — an
// out-of-range argument surfaces only as no output, per spec.md §7.
func trapaWrite(c *CPU, argPtr uint32) {
	_, err := c.readBus(Long, argPtr) // fd, read for bounds-validation symmetry
	if err != nil {
		c.fault(err)
		return
	}
	bufAddr, err := c.readBus(Long, argPtr+4)
	if err != nil {
		c.fault(err)
		return
	}
	count, err := c.readBus(Long, argPtr+8)
	if err != nil {
		c.fault(err)
		return
	}
	if count > maxWriteLen {
		return
	}

	buf := make([]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := c.readBus(Byte, bufAddr+i)
		if err != nil {
			return
		}
		buf = append(buf, byte(v))
	}

	if c.hostWriter != nil {
		c.hostWriter.WriteText(string(buf))
	}
}
