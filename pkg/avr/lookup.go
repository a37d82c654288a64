package avr

var regsByName map[string]Reg

var opcodesByName map[string]Opcode

func init() {
	regsByName = make(map[string]Reg)
	for r := NoReg; r <= SREG; r++ {
		regsByName[r.String()] = r
	}

	opcodesByName = make(map[string]Opcode)
	for op := range opcodeTable {
		opcodesByName[op.String()] = op
	}
}

// RegByName resolves a register from its printed name.
func RegByName(name string) (Reg, bool) {
	r, ok := regsByName[name]
	return r, ok
}

// OpcodeByName resolves an opcode from its printed name.
func OpcodeByName(name string) (Opcode, bool) {
	op, ok := opcodesByName[name]
	return op, ok
}

// CallConvByName resolves a calling convention from its printed name.
// The empty string means the normal convention.
func CallConvByName(name string) (CallConv, bool) {
	switch name {
	case "", "normal":
		return CallNormal, true
	case "interrupt":
		return CallInterrupt, true
	case "signal":
		return CallSignal, true
	}
	return CallNormal, false
}
