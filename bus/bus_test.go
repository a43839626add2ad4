package bus

import (
	"testing"

	h8 "github.com/h8sim/h8core"
)

// testRaiser records every vector RequestInterrupt is called with, standing
// in for *h8.CPU in peripheral-only tests.
type testRaiser struct {
	vectors []uint8
}

func (r *testRaiser) RequestInterrupt(v uint8) { r.vectors = append(r.vectors, v) }

// testSink records every PortOutput call.
type testSink struct {
	calls []struct {
		port  int
		value uint8
	}
}

func (s *testSink) PortOutput(port int, value uint8) {
	s.calls = append(s.calls, struct {
		port  int
		value uint8
	}{port, value})
}

func newWiredBus() (*Bus, *testRaiser, *testSink) {
	raiser := &testRaiser{}
	sink := &testSink{}
	b := New()
	peripherals := NewPeripherals(raiser)
	b.WithPeripherals(peripherals).WithPortSink(sink)
	return b, raiser, sink
}

// Property 1: round-trip for every valid region.
func TestByteRoundTrip(t *testing.T) {
	b, _, _ := newWiredBus()
	addrs := []uint32{0x000000, 0x0000FF, 0x400000, 0x5FFFFF, 0xFFBF20, 0xFFFF1F, 0xFEE050, 0xFFFF60}
	for _, addr := range addrs {
		for _, v := range []uint32{0x00, 0x7F, 0xA5, 0xFF} {
			if err := b.Write(h8.Byte, addr, v); err != nil {
				t.Fatalf("write %#x: %v", addr, err)
			}
			got, err := b.Read(h8.Byte, addr)
			if err != nil {
				t.Fatalf("read %#x: %v", addr, err)
			}
			if got != v {
				t.Errorf("addr %#x: wrote %#x, read %#x", addr, v, got)
			}
		}
	}
}

func TestInvalidAddress(t *testing.T) {
	b, _, _ := newWiredBus()
	if _, err := b.Read(h8.Byte, 0x100000); err == nil {
		t.Fatal("expected InvalidAddressError for unmapped address")
	}
	if err := b.Write(h8.Byte, 0x100000, 1); err == nil {
		t.Fatal("expected InvalidAddressError for unmapped address")
	}
}

func TestAreaIndex(t *testing.T) {
	cases := []struct {
		addr uint32
		area uint8
	}{
		{0x000000, 0}, {0x1FFFFF, 0}, {0x200000, 1}, {0x400000, 2}, {0xFFFF20, 7},
	}
	for _, c := range cases {
		if got := AreaIndex(c.addr); got != c.area {
			t.Errorf("AreaIndex(%#x) = %d, want %d", c.addr, got, c.area)
		}
	}
}

// A6: DDR=0xF0 then DR=0xFF with IN=0 emits 0xF0 twice (once per change) and
// reading DR back returns 0xF0.
func TestPortOutputEvent(t *testing.T) {
	b, _, sink := newWiredBus()

	if err := b.Write(h8.Byte, ddrAddrForPort(1), 0xF0); err != nil {
		t.Fatal(err)
	}
	if err := b.Write(h8.Byte, drAddrForPort(1), 0xFF); err != nil {
		t.Fatal(err)
	}

	if len(sink.calls) != 2 {
		t.Fatalf("expected 2 PortOutput calls, got %d: %+v", len(sink.calls), sink.calls)
	}
	for _, c := range sink.calls {
		if c.port != 1 || c.value != 0xF0 {
			t.Errorf("unexpected PortOutput call %+v", c)
		}
	}

	dr, err := b.Read(h8.Byte, drAddrForPort(1))
	if err != nil {
		t.Fatal(err)
	}
	if dr != 0xF0 {
		t.Errorf("DR readback = %#x, want 0xF0", dr)
	}
}

// Property 13 variant: external input combines with DDR per spec.md §4.7's
// invariant DR = (driven & DDR) | (IN & ~DDR).
func TestExternalInputCombines(t *testing.T) {
	b, _, _ := newWiredBus()

	if err := b.Write(h8.Byte, ddrAddrForPort(2), 0x0F); err != nil {
		t.Fatal(err)
	}
	if err := b.Write(h8.Byte, drAddrForPort(2), 0xA0); err != nil {
		t.Fatal(err)
	}
	b.WritePort(2, 0x55)

	dr, err := b.Read(h8.Byte, drAddrForPort(2))
	if err != nil {
		t.Fatal(err)
	}
	want := uint32((0xA0 & 0x0F) | (0x55 &^ 0x0F))
	if dr != want {
		t.Errorf("DR = %#x, want %#x", dr, want)
	}
}

func TestQueueAndDrainInputs(t *testing.T) {
	b, _, _ := newWiredBus()
	if err := b.Write(h8.Byte, ddrAddrForPort(3), 0x00); err != nil {
		t.Fatal(err)
	}

	b.QueueInput(PortDRAddr(3), 0x42)
	if got := b.portDR(3); got == 0x42 {
		t.Fatal("input applied before DrainInputs was called")
	}
	b.DrainInputs()
	if got := b.portDR(3); got != 0x42 {
		t.Errorf("after drain, DR = %#x, want 0x42", got)
	}
}

// Property 12: prescaler=8, TCORA=10, clear-on-compare-A, compare-A
// interrupt enabled; advancing by exactly 8*10 states increments TCNT to
// 10, sets the flag, clears TCNT to 0, and enqueues vector 36.
func TestTimerCompareAAndClear(t *testing.T) {
	b, raiser, _ := newWiredBus()

	// TCR: interrupt-A enable (0x40) | clear-on-compare-A (0x08) | prescaler /8 (0x01)
	if err := b.Write(h8.Byte, tcr0, 0x40|0x08|0x01); err != nil {
		t.Fatal(err)
	}
	if err := b.Write(h8.Byte, tcorA0, 10); err != nil {
		t.Fatal(err)
	}

	b.TickPeripherals(8 * 10)

	tcnt, err := b.Read(h8.Byte, tcnt0)
	if err != nil {
		t.Fatal(err)
	}
	if tcnt != 0 {
		t.Errorf("TCNT = %d, want 0 (cleared on compare match)", tcnt)
	}

	tcsr, err := b.Read(h8.Byte, tcsr0)
	if err != nil {
		t.Fatal(err)
	}
	if tcsr&tcsrCMFA == 0 {
		t.Error("compare-match-A flag not set")
	}

	if len(raiser.vectors) != 1 || raiser.vectors[0] != vecCompareA {
		t.Errorf("vectors = %v, want [36]", raiser.vectors)
	}
}

func TestTimerPrescalerZeroIsFullStop(t *testing.T) {
	b, raiser, _ := newWiredBus()
	// TCR left at reset value: prescaler selector 0.
	b.TickPeripherals(1_000_000)

	tcnt, err := b.Read(h8.Byte, tcnt0)
	if err != nil {
		t.Fatal(err)
	}
	if tcnt != 0 {
		t.Errorf("TCNT = %d, want 0 with prescaler disabled", tcnt)
	}
	if len(raiser.vectors) != 0 {
		t.Errorf("unexpected interrupts with prescaler disabled: %v", raiser.vectors)
	}
}

func TestTimerOverflow(t *testing.T) {
	b, raiser, _ := newWiredBus()

	// overflow-interrupt enable (0x20) | prescaler /8 (0x01); TCORA/B left
	// at 0 so they never match a nonzero count.
	if err := b.Write(h8.Byte, tcr0, 0x20|0x01); err != nil {
		t.Fatal(err)
	}

	b.TickPeripherals(8 * 256)

	tcsr, err := b.Read(h8.Byte, tcsr0)
	if err != nil {
		t.Fatal(err)
	}
	if tcsr&tcsrOVF == 0 {
		t.Error("overflow flag not set")
	}
	found := false
	for _, v := range raiser.vectors {
		if v == vecOverflow {
			found = true
		}
	}
	if !found {
		t.Errorf("vector 39 (overflow) not raised, got %v", raiser.vectors)
	}
}

func TestFourTimersIndependent(t *testing.T) {
	b, _, _ := newWiredBus()
	if err := b.Write(h8.Byte, tcr0, 0x01); err != nil { // /8 on timer 0
		t.Fatal(err)
	}
	// timer 1 left stopped (prescaler 0).
	b.TickPeripherals(8 * 3)

	t0, _ := b.Read(h8.Byte, tcnt0)
	t1, _ := b.Read(h8.Byte, tcnt1)
	if t0 != 3 {
		t.Errorf("timer0 TCNT = %d, want 3", t0)
	}
	if t1 != 0 {
		t.Errorf("timer1 TCNT = %d, want 0 (stopped)", t1)
	}
}

func TestCheckDRAMArea(t *testing.T) {
	b := New()
	b.SetDRCR(0) // nothing mapped
	if b.CheckDRAMArea(2) {
		t.Error("area 2 should not be DRAM with DRCR=0")
	}
	b.SetDRCR(1 << 5) // reg field = 1
	if !b.CheckDRAMArea(2) {
		t.Error("area 2 should be DRAM with DRCR field = 1")
	}
	if b.CheckDRAMArea(3) {
		t.Error("area 3 should not be DRAM with DRCR field = 1")
	}
}
