// Package h8 implements the execution core of an H8/300H-class 16-bit
// microcontroller: an eight-register, 24-bit-address-space CISC CPU with
// byte/word/longword operand sizes, a memory bus with heterogeneous
// backing regions, and an interrupt-driven peripheral model.
package h8

import "log"

// Bus provides byte-addressed memory access for the CPU across the full
// 24-bit address space, and drives the peripheral model forward in
// lock-step with the cycle cost billed by each executed instruction.
type Bus interface {
	Read(sz Size, addr uint32) (uint32, error)
	Write(sz Size, addr uint32, val uint32) error
	Reset()
	// TickPeripherals advances every on-chip peripheral by exactly states
	// CPU states, per the instruction just executed.
	TickPeripherals(states int)
}

// InputDrainer is optionally implemented by a Bus that receives external
// input events from a host channel. DrainInputs is called once before each
// instruction fetch and must not block.
type InputDrainer interface {
	DrainInputs()
}

// CPU is the H8/300H-class processor core.
type CPU struct {
	reg    Registers
	bus    Bus
	drain  InputDrainer // non-nil when bus implements InputDrainer
	cycles uint64

	ir     uint16
	prevPC uint32

	halted  bool
	lastErr error

	pendingVecs []uint8
	hostWriter  HostWriter

	// gotSave shadows the caller's ER5 (global pointer) per vector slot,
	// populated by TRAPA #0 service 113 (set_handler) so the synthesized
	// trampoline can restore it before invoking the real callback.
	gotSave [64]uint32
}

// New creates a CPU wired to the given bus and performs a hardware reset.
func New(bus Bus) *CPU {
	c := &CPU{bus: bus}
	c.drain, _ = bus.(InputDrainer)
	c.Reset()
	return c
}

// Reset zeroes the register file and CCR, clears pending interrupts, and
// resets the bus. The program counter is left at zero; callers normally
// follow Reset with SetEntry once an image has been loaded.
func (c *CPU) Reset() {
	c.drain, _ = c.bus.(InputDrainer)
	c.reg = Registers{}
	c.halted = false
	c.lastErr = nil
	c.cycles = 0
	c.pendingVecs = c.pendingVecs[:0]
	c.gotSave = [64]uint32{}
	c.bus.Reset()
}

// SetEntry sets the program counter to the image's declared entry point.
func (c *CPU) SetEntry(pc uint32) {
	c.reg.PC = pc & 0x00FFFFFE
}

// Halted reports whether the core has stopped after a fatal error.
func (c *CPU) Halted() bool {
	return c.halted
}

// Err returns the error that halted the core, or nil if it is still
// running.
func (c *CPU) Err() error {
	return c.lastErr
}

// Registers returns a snapshot of the programmer-visible register state.
func (c *CPU) Registers() Registers {
	return c.reg
}

// SetState installs register state directly, bypassing a hardware reset.
// Intended for tests, where exact CPU state must be established before
// executing an instruction.
func (c *CPU) SetState(er [8]uint32, pc uint32, ccr uint8) {
	c.drain, _ = c.bus.(InputDrainer)
	c.reg.ER = er
	c.reg.PC = pc
	c.reg.CCR = ccr
	c.halted = false
	c.lastErr = nil
	c.cycles = 0
	c.pendingVecs = c.pendingVecs[:0]
}

// Cycles returns the total CPU states consumed since the last reset.
func (c *CPU) Cycles() uint64 {
	return c.cycles
}

// fault records a fatal core error and halts execution. Per spec.md §7 the
// engine treats every core error as fatal for the run: there is no local
// recovery.
func (c *CPU) fault(err error) {
	if c.halted {
		return
	}
	log.Printf("[h8] fatal: %v (PC=%06x prevPC=%06x IR=%04x)", err, c.reg.PC, c.prevPC, c.ir)
	c.halted = true
	c.lastErr = err
}

// Step executes a single instruction and returns the number of CPU states
// consumed. Returns 0 if the core is halted.
func (c *CPU) Step() int {
	if c.halted {
		return 0
	}

	if c.drain != nil {
		c.drain.DrainInputs()
	}

	c.checkInterrupt()
	if c.halted {
		return 0
	}

	if c.reg.PC&1 != 0 {
		c.fault(&MisalignedPCError{Addr: c.reg.PC})
		return 0
	}

	c.prevPC = c.reg.PC
	w, err := c.fetchPC()
	if err != nil {
		c.fault(err)
		return 0
	}
	c.ir = w

	handler := opcodeTable[c.ir]
	var states int
	if handler == nil {
		c.fault(&InvalidOpcodeError{Word: c.ir})
	} else {
		states = handler(c)
	}

	if c.halted {
		return 0
	}

	if c.reg.PC&1 != 0 {
		c.fault(&MisalignedPCError{Addr: c.reg.PC})
		return 0
	}

	c.cycles += uint64(states)
	c.bus.TickPeripherals(states)
	return states
}

// readBus reads from the bus with 24-bit address masking. Word and long
// accesses to an odd address are NOT an error on this architecture: the
// low bit is masked off before the access (spec.md §4.2). A bus-level
// InvalidAddressError is still fatal.
func (c *CPU) readBus(sz Size, addr uint32) (uint32, error) {
	if c.halted {
		return 0, nil
	}
	addr &= 0x00FFFFFF
	if sz != Byte {
		addr &^= 1
	}
	v, err := c.bus.Read(sz, addr)
	if err != nil {
		return 0, err
	}
	return v & sz.Mask(), nil
}

// writeBus writes to the bus with the same 24-bit masking and odd-address
// policy as readBus.
func (c *CPU) writeBus(sz Size, addr uint32, val uint32) error {
	if c.halted {
		return nil
	}
	addr &= 0x00FFFFFF
	if sz != Byte {
		addr &^= 1
	}
	return c.bus.Write(sz, addr, val&sz.Mask())
}

// fetchPC reads a 16-bit word at PC and advances PC by 2. PC is always
// even by invariant; fetch does not itself mask.
func (c *CPU) fetchPC() (uint16, error) {
	v, err := c.readBus(Word, c.reg.PC)
	if err != nil {
		return 0, err
	}
	c.reg.PC += 2
	return uint16(v), nil
}

// setPC installs a new program counter after a branch, jump, or return.
// An odd result is a hard MisalignedPC fault (spec.md §7): every
// instruction is 16-bit aligned, so this can only happen from a
// corrupted or malicious program image.
func (c *CPU) setPC(addr uint32) {
	addr &= 0x00FFFFFF
	if addr&1 != 0 {
		c.fault(&MisalignedPCError{Addr: addr})
		return
	}
	c.reg.PC = addr
}

// fetchPCLong reads a 32-bit value at PC and advances PC by 4.
func (c *CPU) fetchPCLong() (uint32, error) {
	hi, err := c.fetchPC()
	if err != nil {
		return 0, err
	}
	lo, err := c.fetchPC()
	if err != nil {
		return 0, err
	}
	return uint32(hi)<<16 | uint32(lo), nil
}

// pushLong pushes a 32-bit value onto the stack (ER7), pre-decrementing
// ER7 by 4 first.
func (c *CPU) pushLong(val uint32) {
	c.reg.ER[7] -= 4
	if err := c.writeBus(Long, c.reg.ER[7], val); err != nil {
		c.fault(err)
	}
}

// popLong pops a 32-bit value from the stack (ER7), post-incrementing ER7
// by 4.
func (c *CPU) popLong() uint32 {
	v, err := c.readBus(Long, c.reg.ER[7])
	if err != nil {
		c.fault(err)
		return 0
	}
	c.reg.ER[7] += 4
	return v
}
