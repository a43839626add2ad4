package bus

// Peripherals is the concrete h8.Bus peripheral manager: it owns the four
// Timer8 instances by value and routes register writes to whichever one
// claims the address, per original_source's ModuleManager.write_registers
// (generalized from ModuleManager's single Timer8_0 to four units, per
// SPEC_FULL.md §5.2).
type Peripherals struct {
	timers [4]*Timer8
}

// NewPeripherals constructs the four timer units, wiring each to raiser so
// compare-match and overflow conditions can enqueue an interrupt vector on
// the engine. raiser is typically the *h8.CPU itself.
func NewPeripherals(raiser InterruptRaiser) *Peripherals {
	return &Peripherals{
		timers: [4]*Timer8{
			newTimer8(tcr0, tcsr0, tcorA0, tcorB0, tcnt0, vecCompareA, vecCompareB, vecOverflow, raiser),
			newTimer8(tcr1, tcsr1, tcorA1, tcorB1, tcnt1, vecCompareA, vecCompareB, vecOverflow, raiser),
			newTimer8(tcr2, tcsr2, tcorA2, tcorB2, tcnt2, vecCompareA, vecCompareB, vecOverflow, raiser),
			newTimer8(tcr3, tcsr3, tcorA3, tcorB3, tcnt3, vecCompareA, vecCompareB, vecOverflow, raiser),
		},
	}
}

// WriteRegister implements bus.PeripheralManager, routing a side-effecting
// I/O-bank write to whichever timer owns addr. Addresses that belong to no
// peripheral are silently ignored, mirroring original_source's
// write_registers match with a wildcard `_ => ()` arm.
func (p *Peripherals) WriteRegister(addr uint32, value uint8) {
	for _, t := range p.timers {
		if t.writeRegister(addr, value) {
			return
		}
	}
}

// ReadRegister lets a caller (chiefly tests) inspect a timer register's
// live value, which mirrors but is independent from the plain byte the bus
// itself stores at the same address.
func (p *Peripherals) ReadRegister(addr uint32) (uint8, bool) {
	for _, t := range p.timers {
		if v, ok := t.readRegister(addr); ok {
			return v, ok
		}
	}
	return 0, false
}

// Reset stops and clears every timer, per spec.md §3's peripheral reset
// lifecycle.
func (p *Peripherals) Reset() {
	for _, t := range p.timers {
		t.Reset()
	}
}

// Tick advances every timer by the given CPU state count, per spec.md
// §4.6 (each timer keeps its own residual accumulator, so divergent
// prescaler settings between units never interfere with each other).
func (p *Peripherals) Tick(states int) {
	for _, t := range p.timers {
		t.tick(states)
	}
}
