// Package bus implements the 24-bit heterogeneous memory map that backs the
// h8.CPU: the exception vector table, the DRAM area, on-chip RAM, and the
// two memory-mapped I/O register banks, plus area classification for the
// instruction timing model.
package bus

import (
	"fmt"

	"github.com/h8sim/h8core"
)

// Address-range boundaries, per original_source/src/bus.rs.
const (
	vectorStart = 0x000000
	vectorEnd   = 0x0000FF

	dramStart = 0x400000
	dramEnd   = 0x5FFFFF

	onchipRAMStart = 0xFFBF20
	onchipRAMEnd   = 0xFFFF1F

	ioDDRStart = 0xFEE000
	ioDDREnd   = 0xFEE0FF
	ioDDRHook  = 0xFEE00A // last address of the DDR side-effect sub-range

	ioDRStart     = 0xFFFF20
	ioDREnd       = 0xFFFFE9
	ioDRHookStart = 0xFFFFD0 // first address of the DR side-effect sub-range
	ioDRHookEnd   = 0xFFFFDA // last address of the DR side-effect sub-range

	areaShift = 21 // 2 MiB per area, per SPEC_FULL.md §5.1
	areaCount = 8
)

// PeripheralManager routes side-effecting writes into the I/O register
// banks to the module that owns the touched address, mirroring
// original_source's ModuleManager.write_registers.
type PeripheralManager interface {
	WriteRegister(addr uint32, value uint8)
	Reset()
	Tick(states int)
}

// PortSink receives the observable "output drive" of a port whenever a DDR
// or DR write changes it, per spec.md §4.7.
type PortSink interface {
	PortOutput(port int, value uint8)
}

// inputQueueCap bounds the external-input event queue fed by a host
// channel's reader goroutine. DrainInputs is the only consumer, called from
// the CPU's single-threaded Step loop, so this is the one place external
// (goroutine) input crosses into the otherwise cooperative core (spec.md
// §5).
const inputQueueCap = 256

type inputEvent struct {
	addr  uint32
	value uint8
}

// Bus is the concrete h8.Bus and h8.AreaClassifier implementation.
type Bus struct {
	vector [vectorEnd - vectorStart + 1]byte
	dram   [dramEnd - dramStart + 1]byte
	onchip [onchipRAMEnd - onchipRAMStart + 1]byte
	ioDDR  [ioDDREnd - ioDDRStart + 1]byte
	ioDR   [ioDREnd - ioDRStart + 1]byte
	drcr   uint8 // DRAM configuration register, consulted by CheckDRAMArea
	periph PeripheralManager
	ports  *Ports
	sink   PortSink

	inbox chan inputEvent
}

// New constructs a Bus with no peripheral manager or port sink attached;
// use WithPeripherals and WithPortSink to wire them before first use.
func New() *Bus {
	return &Bus{ports: NewPorts(), inbox: make(chan inputEvent, inputQueueCap)}
}

// WithPeripherals attaches the peripheral manager that owns TCR/TCSR/TCORx
// register side effects. Returns the bus for chaining.
func (b *Bus) WithPeripherals(m PeripheralManager) *Bus {
	b.periph = m
	return b
}

// WithPortSink attaches the sink that observes port output-drive changes.
func (b *Bus) WithPortSink(sink PortSink) *Bus {
	b.sink = sink
	return b
}

// SetDRCR sets the DRAM configuration register consulted by CheckDRAMArea.
func (b *Bus) SetDRCR(v uint8) { b.drcr = v }

// LoadImage copies a section's bytes into the bus backing store at addr,
// used by the ELF loader. It fails if the range is not entirely within one
// contiguous backing region.
func (b *Bus) LoadImage(addr uint32, data []byte) error {
	for i, v := range data {
		if err := b.writeByte(addr+uint32(i), v); err != nil {
			return fmt.Errorf("bus: load image at %#x: %w", addr+uint32(i), err)
		}
	}
	return nil
}

func (b *Bus) readByte(addr uint32) (uint8, error) {
	switch {
	case addr >= vectorStart && addr <= vectorEnd:
		return b.vector[addr-vectorStart], nil
	case addr >= ioDDRStart && addr <= ioDDREnd:
		return b.ioDDR[addr-ioDDRStart], nil
	case addr >= dramStart && addr <= dramEnd:
		return b.dram[addr-dramStart], nil
	case addr >= onchipRAMStart && addr <= onchipRAMEnd:
		return b.onchip[addr-onchipRAMStart], nil
	case addr >= ioDRStart && addr <= ioDREnd:
		if pr, ok := b.periph.(peripheralReader); ok {
			if v, ok2 := pr.ReadRegister(addr); ok2 {
				return v, nil
			}
		}
		return b.ioDR[addr-ioDRStart], nil
	default:
		return 0, &h8.InvalidAddressError{Addr: addr}
	}
}

// peripheralReader is an optional capability of a PeripheralManager: a
// module (e.g. a timer) that mutates its own registers outside of a bus
// write (ticking TCNT forward) must be consulted on read so the bus
// doesn't hand back a stale plain byte. Queried via type assertion so a
// peripheral manager with no independently-mutating state need not
// implement it.
type peripheralReader interface {
	ReadRegister(addr uint32) (uint8, bool)
}

func (b *Bus) writeByte(addr uint32, v uint8) error {
	switch {
	case addr >= vectorStart && addr <= vectorEnd:
		b.vector[addr-vectorStart] = v
	case addr >= ioDDRStart && addr <= ioDDREnd:
		if addr <= ioDDRHook {
			prev := b.ioDDR[addr-ioDDRStart]
			b.ioDDR[addr-ioDDRStart] = v
			if v != prev {
				b.onWriteDDR(addr, v)
			}
		} else {
			b.ioDDR[addr-ioDDRStart] = v
			if b.periph != nil {
				b.periph.WriteRegister(addr, v)
			}
		}
	case addr >= dramStart && addr <= dramEnd:
		b.dram[addr-dramStart] = v
	case addr >= onchipRAMStart && addr <= onchipRAMEnd:
		b.onchip[addr-onchipRAMStart] = v
	case addr >= ioDRStart && addr <= ioDREnd:
		if addr >= ioDRHookStart && addr <= ioDRHookEnd {
			prev := b.ioDR[addr-ioDRStart]
			b.ioDR[addr-ioDRStart] = v
			if v != prev {
				b.onWriteDR(addr, v)
			}
		} else {
			b.ioDR[addr-ioDRStart] = v
			if b.periph != nil {
				b.periph.WriteRegister(addr, v)
			}
		}
	default:
		return &h8.InvalidAddressError{Addr: addr}
	}
	return nil
}

// Read implements h8.Bus, composing a Size-wide big-endian value from the
// underlying byte store.
func (b *Bus) Read(sz h8.Size, addr uint32) (uint32, error) {
	var v uint32
	for i := 0; i < int(sz); i++ {
		byteVal, err := b.readByte(addr + uint32(i))
		if err != nil {
			return 0, err
		}
		v = v<<8 | uint32(byteVal)
	}
	return v, nil
}

// Write implements h8.Bus.
func (b *Bus) Write(sz h8.Size, addr uint32, val uint32) error {
	n := int(sz)
	for i := 0; i < n; i++ {
		shift := uint(n-1-i) * 8
		if err := b.writeByte(addr+uint32(i), uint8(val>>shift)); err != nil {
			return err
		}
	}
	return nil
}

// QueueInput accepts an external-input event (a host channel's incoming
// `u8:<addr>:<value>` frame) from any goroutine. It blocks only if the
// queue is saturated, applying natural backpressure to the host side
// without ever touching port state outside the CPU's single-threaded Step
// loop (spec.md §5's ordering guarantee: inputs observed before fetch of
// instruction N are visible to instruction N, never mid-instruction).
func (b *Bus) QueueInput(addr uint32, value uint8) {
	b.inbox <- inputEvent{addr: addr, value: value}
}

// DrainInputs implements h8.InputDrainer: it applies every queued external-
// input event without blocking, called once per Step before the next
// opcode fetch.
func (b *Bus) DrainInputs() {
	for {
		select {
		case ev := <-b.inbox:
			b.WritePortAddr(ev.addr, ev.value)
		default:
			return
		}
	}
}

// Reset zeroes all backing stores and resets attached peripherals, per
// spec.md §3's reset lifecycle.
func (b *Bus) Reset() {
	b.vector = [len(b.vector)]byte{}
	b.dram = [len(b.dram)]byte{}
	b.onchip = [len(b.onchip)]byte{}
	b.ioDDR = [len(b.ioDDR)]byte{}
	b.ioDR = [len(b.ioDR)]byte{}
	b.drcr = 0
	b.ports.Reset()
	if b.periph != nil {
		b.periph.Reset()
	}
}

// TickPeripherals implements h8.Bus, advancing every attached peripheral by
// the given state count.
func (b *Bus) TickPeripherals(states int) {
	if b.periph != nil {
		b.periph.Tick(states)
	}
}

// AreaIndex classifies a 24-bit address into one of 8 areas of 2 MiB each,
// per original_source's get_area_index (resolved to 2 MiB chunks, not the
// spec text's literal 256 KiB, per SPEC_FULL.md §5.1).
func AreaIndex(addr uint32) uint8 {
	return uint8((addr >> areaShift) & (areaCount - 1))
}

// CheckDRAMArea reports whether the given area index is currently backed by
// DRAM according to the DRAM configuration register, per original_source's
// check_dram_area.
func (b *Bus) CheckDRAMArea(areaIndex uint8) bool {
	reg := b.drcr >> 5
	switch areaIndex {
	case 2:
		return reg >= 1
	case 3:
		return reg >= 2
	case 4:
		return reg >= 4
	case 5:
		return reg >= 5
	default:
		return false
	}
}

// ExtraStates implements h8.AreaClassifier: on-chip RAM and the vector
// table are zero-wait-state; DRAM and the I/O banks cost one extra state,
// matching the on-chip-data/IO-data split in spec.md §4.4.
func (b *Bus) ExtraStates(addr uint32) int {
	switch {
	case addr >= onchipRAMStart && addr <= onchipRAMEnd:
		return 0
	case addr >= vectorStart && addr <= vectorEnd:
		return 0
	case addr >= dramStart && addr <= dramEnd:
		return 1
	case addr >= ioDDRStart && addr <= ioDREnd:
		return 1
	default:
		return 0
	}
}
