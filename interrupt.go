package h8

// interruptQueueCap bounds the FIFO of pending vector numbers. Vectors are
// 0..63 (spec.md §3); a pool this size comfortably exceeds anything the
// timer/port peripherals can enqueue between two instruction boundaries.
const interruptQueueCap = 64

// RequestInterrupt enqueues a pending interrupt vector (0..63). Unlike the
// single-pending-level model of a simpler interrupt controller, this core
// keeps a true FIFO: peripherals can raise several interrupts before the
// engine next has a chance to drain them, and delivery happens in raise
// order. Grounded on original_source's VecDeque<u8>-based
// InterruptController.
func (c *CPU) RequestInterrupt(vector uint8) {
	if len(c.pendingVecs) >= interruptQueueCap {
		return // queue saturated; drop rather than grow unbounded
	}
	c.pendingVecs = append(c.pendingVecs, vector)
}

// checkInterrupt delivers at most one pending interrupt if the queue is
// non-empty and the CCR interrupt mask (I) is clear. Called at the start of
// each Step, before the next opcode is fetched.
func (c *CPU) checkInterrupt() {
	if len(c.pendingVecs) == 0 {
		return
	}
	if c.testCCRBit(ccrI) {
		return
	}
	c.processInterrupt()
}

// processInterrupt delivers the oldest pending vector: push (CCR<<24)|PC,
// read the handler address from vector*4, jump to it, and set the
// interrupt mask (spec.md §4.5).
func (c *CPU) processInterrupt() {
	vector := c.pendingVecs[0]
	c.pendingVecs = c.pendingVecs[1:]

	frame := uint32(c.reg.CCR)<<24 | (c.reg.PC & 0x00FFFFFF)
	c.pushLong(frame)

	addr, err := c.readBus(Long, uint32(vector)*4)
	if err != nil {
		c.fault(err)
		return
	}
	c.reg.PC = addr & 0x00FFFFFF
	c.setCCRBit(ccrI, true)
}
