// Package avr describes the AVR target: the 8-bit register file, the
// opcodes the frame-lowering passes work with, and the calling
// conventions the target distinguishes.
package avr

import "fmt"

// Reg is an AVR physical register unit. Single registers R0-R31 are one
// byte wide; the named pairs (R1R0, R25R24, R27R26, R29R28, R31R30) are
// separate two-byte units, as are SP and SREG.
type Reg uint8

const (
	NoReg Reg = iota

	R0
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
	R16
	R17
	R18
	R19
	R20
	R21
	R22
	R23
	R24
	R25
	R26
	R27
	R28
	R29
	R30
	R31

	// Two-byte register pairs (low register named last).
	R1R0
	R25R24
	R27R26 // X
	R29R28 // Y, the frame pointer when one is elected
	R31R30 // Z

	// Special registers.
	SP   // hardware stack pointer (SPH:SPL in I/O space)
	SREG // status register
)

// FramePtr is the register pair elected as the software frame pointer.
const FramePtr = R29R28

// ZeroRegPair is the R1:R0 pair saved first by handler prologues.
const ZeroRegPair = R1R0

// ScratchPair is the pair used for explicit SP adjustment sequences.
const ScratchPair = R31R30

// I/O space addresses used by the frame lowering sequences.
const (
	SREGAddr = 0x3f // status register
	IFlagBit = 0x07 // global interrupt enable bit in SREG
)

var regNames = map[Reg]string{
	NoReg:  "noreg",
	R1R0:   "r1r0",
	R25R24: "r25r24",
	R27R26: "r27r26",
	R29R28: "r29r28",
	R31R30: "r31r30",
	SP:     "sp",
	SREG:   "sreg",
}

func (r Reg) String() string {
	if r >= R0 && r <= R31 {
		return fmt.Sprintf("r%d", int(r-R0))
	}
	if name, ok := regNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reg(%d)", int(r))
}

// IsPair returns true for two-byte register pair units.
func (r Reg) IsPair() bool {
	return r >= R1R0 && r <= R31R30
}

// Size returns the register width in bytes.
func (r Reg) Size() int {
	if r.IsPair() || r == SP {
		return 2
	}
	return 1
}

// Lo returns the low byte sub-register of a pair.
func (r Reg) Lo() Reg {
	switch r {
	case R1R0:
		return R0
	case R25R24:
		return R24
	case R27R26:
		return R26
	case R29R28:
		return R28
	case R31R30:
		return R30
	}
	panic(fmt.Sprintf("avr: Lo on non-pair register %v", r))
}

// Hi returns the high byte sub-register of a pair.
func (r Reg) Hi() Reg {
	switch r {
	case R1R0:
		return R1
	case R25R24:
		return R25
	case R27R26:
		return R27
	case R29R28:
		return R29
	case R31R30:
		return R31
	}
	panic(fmt.Sprintf("avr: Hi on non-pair register %v", r))
}

// CallConv is the calling-convention kind of a function.
type CallConv int

const (
	CallNormal CallConv = iota
	CallInterrupt
	CallSignal
)

// IsHandler reports whether the convention requires the interrupt/signal
// handler register preservation sequences.
func (c CallConv) IsHandler() bool {
	return c == CallInterrupt || c == CallSignal
}

func (c CallConv) String() string {
	switch c {
	case CallNormal:
		return "normal"
	case CallInterrupt:
		return "interrupt"
	case CallSignal:
		return "signal"
	}
	return fmt.Sprintf("callconv(%d)", int(c))
}

// IsUInt6 reports whether v fits in 6 unsigned bits, the immediate range
// of ADIW/SBIW and of the displacement in LDD/STD indexed addressing.
func IsUInt6(v int64) bool {
	return v >= 0 && v <= 63
}
