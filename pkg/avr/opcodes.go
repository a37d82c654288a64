package avr

import "fmt"

// Opcode identifies an AVR machine instruction or a lowering pseudo.
// Only the opcodes the post-regalloc passes touch are modeled here;
// instruction selection covers the rest of the ISA.
type Opcode int

const (
	NOP Opcode = iota

	// Stack traffic.
	PUSH  // push Rr (one byte)
	POP   // pop Rd (one byte)
	PUSHW // push pair, expands to two PUSHes
	POPW  // pop pair, expands to two POPs

	// I/O space and status register.
	IN   // Rd = io[A]
	OUT  // io[A] = Rr
	BSET // set SREG bit s

	// Stack pointer access pseudos.
	SPREAD  // Rd:Rd+1 = SP
	SPWRITE // SP = Rr:Rr+1

	// Word-immediate arithmetic on an upper register pair.
	ADIW  // Rd += K, K in 0..63
	SBIW  // Rd -= K, K in 0..63
	SUBIW // Rd -= K, any 16-bit K (subi/sbci expansion)

	// Indexed loads/stores through a pointer pair with displacement q.
	LDDPtrQ  // Rd = mem[Ptr+q]
	LDDWPtrQ // Rd pair = mem[Ptr+q]
	STDPtrQ  // mem[Ptr+q] = Rr
	STDWPtrQ // mem[Ptr+q] = Rr pair

	// SP-relative store pseudos for outgoing call arguments.
	STDSPQ  // mem[SP+q] = Rr
	STDWSPQ // mem[SP+q] = Rr pair

	// Call frame bracketing pseudos.
	ADJCALLSTACKDOWN // call frame setup, operand = byte amount
	ADJCALLSTACKUP   // call frame teardown, operand = byte amount

	// Generic.
	COPY // register copy pseudo
	LDI  // Rd = K
	MOVW // pair move

	// Control flow.
	CALL
	RCALL
	ICALL
	RET
	RETI
	RJMP

	DBGVALUE // debug location marker, ignored by lowering
)

const (
	propPush = 1 << iota
	propPop
	propCall
	propReturn
	propTerminator
	propPseudo
	propDebug
)

type opcodeInfo struct {
	name  string
	props int
}

var opcodeTable = map[Opcode]opcodeInfo{
	NOP:              {"nop", 0},
	PUSH:             {"push", propPush},
	POP:              {"pop", propPop},
	PUSHW:            {"pushw", propPush | propPseudo},
	POPW:             {"popw", propPop | propPseudo},
	IN:               {"in", 0},
	OUT:              {"out", 0},
	BSET:             {"bset", 0},
	SPREAD:           {"spread", propPseudo},
	SPWRITE:          {"spwrite", propPseudo},
	ADIW:             {"adiw", 0},
	SBIW:             {"sbiw", 0},
	SUBIW:            {"subiw", propPseudo},
	LDDPtrQ:          {"ldd", 0},
	LDDWPtrQ:         {"lddw", propPseudo},
	STDPtrQ:          {"std", 0},
	STDWPtrQ:         {"stdw", propPseudo},
	STDSPQ:           {"stdspq", propPseudo},
	STDWSPQ:          {"stdwspq", propPseudo},
	ADJCALLSTACKDOWN: {"adjcallstackdown", propPseudo},
	ADJCALLSTACKUP:   {"adjcallstackup", propPseudo},
	COPY:             {"copy", propPseudo},
	LDI:              {"ldi", 0},
	MOVW:             {"movw", 0},
	CALL:             {"call", propCall},
	RCALL:            {"rcall", propCall},
	ICALL:            {"icall", propCall},
	RET:              {"ret", propReturn | propTerminator},
	RETI:             {"reti", propReturn | propTerminator},
	RJMP:             {"rjmp", propTerminator},
	DBGVALUE:         {"dbg_value", propDebug | propPseudo},
}

func (o Opcode) String() string {
	if info, ok := opcodeTable[o]; ok {
		return info.name
	}
	return fmt.Sprintf("opcode(%d)", int(o))
}

func (o Opcode) hasProp(p int) bool {
	return opcodeTable[o].props&p != 0
}

// IsPush reports whether the opcode pushes onto the hardware stack.
func (o Opcode) IsPush() bool { return o.hasProp(propPush) }

// IsPop reports whether the opcode pops from the hardware stack.
func (o Opcode) IsPop() bool { return o.hasProp(propPop) }

// IsCall reports whether the opcode transfers control to a callee.
func (o Opcode) IsCall() bool { return o.hasProp(propCall) }

// IsReturn reports whether the opcode returns from the function.
func (o Opcode) IsReturn() bool { return o.hasProp(propReturn) }

// IsTerminator reports whether the opcode ends a basic block.
func (o Opcode) IsTerminator() bool { return o.hasProp(propTerminator) }

// IsPseudo reports whether the opcode is a lowering pseudo that a later
// expansion pass must remove before encoding.
func (o Opcode) IsPseudo() bool { return o.hasProp(propPseudo) }

// IsDebug reports whether the opcode is a debug marker with no machine
// semantics.
func (o Opcode) IsDebug() bool { return o.hasProp(propDebug) }
