package h8

// opFunc is the handler signature for a single H8 instruction. The first
// word is already in c.ir when called. It returns the state count (cycle
// cost) billed for the instruction, per spec.md §4.4.
type opFunc func(*CPU) int

// opcodeTable is a 64K-entry lookup table indexed by the first instruction
// word. nil entries are treated as illegal instructions.
var opcodeTable [65536]opFunc
