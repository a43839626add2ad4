package bus

// Register offsets for the four 8-bit timer units, per
// original_source/src/modules/timer8.rs (TCR0_8..TCR3_8 etc., all within
// the DR/peripheral I/O bank). SPEC_FULL.md §5.2 generalizes the single
// Timer8_0 the original wires up into four independent units sharing this
// layout.
const (
	tcr0, tcsr0, tcorA0, tcorB0, tcnt0 = 0xFFFF80, 0xFFFF82, 0xFFFF84, 0xFFFF86, 0xFFFF88
	tcr1, tcsr1, tcorA1, tcorB1, tcnt1 = 0xFFFF81, 0xFFFF83, 0xFFFF85, 0xFFFF87, 0xFFFF89
	tcr2, tcsr2, tcorA2, tcorB2, tcnt2 = 0xFFFF90, 0xFFFF92, 0xFFFF94, 0xFFFF96, 0xFFFF98
	tcr3, tcsr3, tcorA3, tcorB3, tcnt3 = 0xFFFF91, 0xFFFF93, 0xFFFF95, 0xFFFF97, 0xFFFF99
)

// TCSR flag bits.
const (
	tcsrOVF = 0x20 // overflow
	tcsrCMFA = 0x40 // compare-match A
	tcsrCMFB = 0x80 // compare-match B
)

// Interrupt vectors raised by a timer, per spec.md §4.5.
const (
	vecCompareA = 36
	vecCompareB = 37
	vecOverflow = 39
)

// clearPolicy is the counter-clear source selected by TCR bits 3-4, per
// spec.md §3's "clear policy" timer state field.
type clearPolicy uint8

const (
	clearNever clearPolicy = iota
	clearOnCompareA
	clearOnCompareB
	clearOnExternalInput
)

// InterruptRaiser is the capability a Timer8 uses to enqueue a pending
// vector; satisfied by *h8.CPU, injected at construction so the bus/
// peripheral layer never reaches back into the engine by concrete type.
// Grounded on SPEC_FULL.md §9's back-reference design note.
type InterruptRaiser interface {
	RequestInterrupt(vector uint8)
}

// Timer8 is one free-running 8-bit counter with two compare registers, an
// overflow flag, and a residual-accumulator prescaler, per spec.md §3/§4.6.
// Grounded on original_source's Timer8_0, generalized to be one of four
// identically-shaped instances (SPEC_FULL.md §5.2).
type Timer8 struct {
	regTCR, regTCSR, regTCORA, regTCORB, regTCNT uint32
	vecA, vecB, vecOv                            uint8

	tcnt  uint8
	tcora uint8
	tcorb uint8
	tcsr  uint8

	allowCMIA, allowCMIB, allowOVI bool
	clearBy                        clearPolicy
	prescaler                      uint32 // 0, 8, 64, or 8192; 0 = stopped
	residual                       uint32

	raiser InterruptRaiser
}

// newTimer8 constructs one timer bound to its register offsets and
// interrupt vectors.
func newTimer8(tcr, tcsr, tcora, tcorb, tcnt uint32, vecA, vecB, vecOv uint8, raiser InterruptRaiser) *Timer8 {
	return &Timer8{
		regTCR: tcr, regTCSR: tcsr, regTCORA: tcora, regTCORB: tcorb, regTCNT: tcnt,
		vecA: vecA, vecB: vecB, vecOv: vecOv,
		raiser: raiser,
	}
}

// Reset stops the timer and clears all counters/flags, per spec.md §3:
// "Peripherals are reset to prescaler-disabled / no-interrupt-enabled."
func (t *Timer8) Reset() {
	t.tcnt, t.tcora, t.tcorb, t.tcsr = 0, 0, 0, 0
	t.allowCMIA, t.allowCMIB, t.allowOVI = false, false, false
	t.clearBy = clearNever
	t.prescaler = 0
	t.residual = 0
}

// writeRegister handles a write that lands on one of this timer's own
// registers. Returns false if addr does not belong to this unit.
func (t *Timer8) writeRegister(addr uint32, v uint8) bool {
	switch addr {
	case t.regTCR:
		t.updateTCR(v)
	case t.regTCSR:
		t.tcsr = v
	case t.regTCORA:
		t.tcora = v
	case t.regTCORB:
		t.tcorb = v
	case t.regTCNT:
		t.tcnt = v
	default:
		return false
	}
	return true
}

// readRegister answers a read that lands on one of this timer's own
// registers with the live value, since Tick mutates TCNT/TCSR outside of
// any bus write and the bus's own byte store would otherwise go stale
// (see bus.go's peripheralReader). Returns false if addr does not belong
// to this unit.
func (t *Timer8) readRegister(addr uint32) (uint8, bool) {
	switch addr {
	case t.regTCR:
		return t.tcrByte(), true
	case t.regTCSR:
		return t.tcsr, true
	case t.regTCORA:
		return t.tcora, true
	case t.regTCORB:
		return t.tcorb, true
	case t.regTCNT:
		return t.tcnt, true
	default:
		return 0, false
	}
}

func (t *Timer8) tcrByte() uint8 {
	var v uint8
	if t.allowCMIB {
		v |= 0x80
	}
	if t.allowCMIA {
		v |= 0x40
	}
	if t.allowOVI {
		v |= 0x20
	}
	v |= uint8(t.clearBy) << 3
	switch t.prescaler {
	case 8:
		v |= 1
	case 64:
		v |= 2
	case 8192:
		v |= 3
	}
	return v
}

// updateTCR re-derives the prescaler divisor and the interrupt-enable /
// clear-policy flags from a newly written TCR byte, per spec.md §4.6 and
// original_source's update_tcr.
func (t *Timer8) updateTCR(tcr uint8) {
	t.allowCMIB = tcr&0x80 != 0
	t.allowCMIA = tcr&0x40 != 0
	t.allowOVI = tcr&0x20 != 0

	switch tcr & 0x18 {
	case 0x00:
		t.clearBy = clearNever
	case 0x08:
		t.clearBy = clearOnCompareA
	case 0x10:
		t.clearBy = clearOnCompareB
	case 0x18:
		t.clearBy = clearOnExternalInput
	}

	switch tcr & 0x07 {
	case 0x00:
		t.prescaler = 0
	case 0x01:
		t.prescaler = 8
	case 0x02:
		t.prescaler = 64
	case 0x03:
		t.prescaler = 8192
	default:
		// 16-bit cascade mode and external-clock sources are not modelled
		// (spec.md §1 non-goals: no bus arbitration/analog timing beyond
		// the documented state-count table); leave the prescaler as-is.
	}
}

// tick advances the timer by s CPU states, per spec.md §4.6's residual-
// accumulator invariant: with prescaler P != 0, the count increments
// floor((residual+s)/P) times and the residual becomes (residual+s) mod P.
// A prescaler of 0 is a full stop: no advance, no residual accumulation
// (SPEC_FULL.md §12, Open Question c).
func (t *Timer8) tick(s int) {
	if t.prescaler == 0 {
		return
	}
	t.residual += uint32(s)
	count := t.residual / t.prescaler
	t.residual -= count * t.prescaler

	for ; count > 0; count-- {
		t.step()
	}
}

// step advances TCNT by exactly one, applying compare-match and overflow
// effects per spec.md §4.6 items 1-4.
func (t *Timer8) step() {
	t.tcnt++
	wrapped := t.tcnt == 0

	if t.tcnt == t.tcora {
		t.tcsr |= tcsrCMFA
		if t.allowCMIA && t.raiser != nil {
			t.raiser.RequestInterrupt(t.vecA)
		}
		if t.clearBy == clearOnCompareA {
			t.tcnt = 0
		}
	}

	if t.tcnt == t.tcorb {
		t.tcsr |= tcsrCMFB
		if t.allowCMIB && t.raiser != nil {
			t.raiser.RequestInterrupt(t.vecB)
		}
		if t.clearBy == clearOnCompareB {
			t.tcnt = 0
		}
	}

	if wrapped {
		t.tcsr |= tcsrOVF
		if t.allowOVI && t.raiser != nil {
			t.raiser.RequestInterrupt(t.vecOv)
		}
	}
}
