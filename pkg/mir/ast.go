// Package mir defines the post-register-allocation machine IR for the
// AVR backend. Instructions reference physical registers only; operands
// carry the def/kill/dead annotations later passes depend on, and a
// frame-setup flag distinguishes synthesized prologue/epilogue code from
// user code.
package mir

import (
	"fmt"

	"github.com/raymyers/ralph-avr/pkg/avr"
)

// OperandKind discriminates Operand variants.
type OperandKind int

const (
	OpReg OperandKind = iota
	OpImm
	OpFrameIndex
	OpSymbol
)

// Operand is a single instruction operand.
type Operand struct {
	Kind  OperandKind
	Reg   avr.Reg
	Imm   int64
	Index int    // stack object index for OpFrameIndex
	Sym   string // callee name for OpSymbol

	IsDef      bool // register operand is written
	IsKill     bool // last use of the register
	IsDead     bool // defined value is never read
	IsImplicit bool // operand not encoded in the instruction
}

// UseReg builds a plain register use operand.
func UseReg(r avr.Reg) Operand {
	return Operand{Kind: OpReg, Reg: r}
}

// KillReg builds a register use operand, optionally flagged as last use.
func KillReg(r avr.Reg, kill bool) Operand {
	return Operand{Kind: OpReg, Reg: r, IsKill: kill}
}

// DefReg builds a register definition operand.
func DefReg(r avr.Reg) Operand {
	return Operand{Kind: OpReg, Reg: r, IsDef: true}
}

// ImplicitDef builds an implicit register definition operand.
func ImplicitDef(r avr.Reg) Operand {
	return Operand{Kind: OpReg, Reg: r, IsDef: true, IsImplicit: true}
}

// Imm builds an immediate operand.
func Imm(v int64) Operand {
	return Operand{Kind: OpImm, Imm: v}
}

// FrameIndex builds a stack object reference operand.
func FrameIndex(i int) Operand {
	return Operand{Kind: OpFrameIndex, Index: i}
}

// Symbol builds a callee symbol operand.
func Symbol(name string) Operand {
	return Operand{Kind: OpSymbol, Sym: name}
}

// Instr is one machine instruction.
type Instr struct {
	Op  avr.Opcode
	Ops []Operand

	// FrameSetup marks instructions synthesized by frame lowering so
	// later passes and diagnostics can tell them from user code.
	FrameSetup bool
}

// NewInstr builds an instruction from an opcode and operands.
func NewInstr(op avr.Opcode, ops ...Operand) Instr {
	return Instr{Op: op, Ops: ops}
}

// Setup returns a copy of the instruction with the frame-setup flag set.
func (in Instr) Setup() Instr {
	in.FrameSetup = true
	return in
}

// Reg returns the register of operand i.
func (in *Instr) Reg(i int) avr.Reg {
	return in.Ops[i].Reg
}

// Imm returns the immediate value of operand i.
func (in *Instr) Imm(i int) int64 {
	return in.Ops[i].Imm
}

// FindDef returns the operand defining r, or nil.
func (in *Instr) FindDef(r avr.Reg) *Operand {
	for i := range in.Ops {
		op := &in.Ops[i]
		if op.Kind == OpReg && op.IsDef && op.Reg == r {
			return op
		}
	}
	return nil
}

func (in Instr) String() string {
	s := in.Op.String()
	for i, op := range in.Ops {
		if i == 0 {
			s += " "
		} else {
			s += ", "
		}
		s += op.String()
	}
	return s
}

func (o Operand) String() string {
	switch o.Kind {
	case OpReg:
		s := o.Reg.String()
		if o.IsDef && o.IsDead {
			s += "<dead>"
		} else if o.IsDef && o.IsImplicit {
			s += "<imp-def>"
		} else if o.IsDef {
			s += "<def>"
		} else if o.IsKill {
			s += "<kill>"
		}
		return s
	case OpImm:
		return fmt.Sprintf("%d", o.Imm)
	case OpFrameIndex:
		return fmt.Sprintf("fi#%d", o.Index)
	case OpSymbol:
		return "@" + o.Sym
	}
	return "?"
}

// Block is one basic block: an owned, resizable instruction sequence
// plus the registers live on entry.
type Block struct {
	Instrs  []Instr
	liveIns []avr.Reg
}

// Append adds an instruction at the end of the block.
func (b *Block) Append(in Instr) {
	b.Instrs = append(b.Instrs, in)
}

// Insert places in before index i. Indices held by the caller for
// instructions at or after i shift by one.
func (b *Block) Insert(i int, in Instr) {
	b.Instrs = append(b.Instrs, Instr{})
	copy(b.Instrs[i+1:], b.Instrs[i:])
	b.Instrs[i] = in
}

// Remove deletes the instruction at index i.
func (b *Block) Remove(i int) {
	copy(b.Instrs[i:], b.Instrs[i+1:])
	b.Instrs = b.Instrs[:len(b.Instrs)-1]
}

// AddLiveIn records r as live on entry to the block, once.
func (b *Block) AddLiveIn(r avr.Reg) {
	if !b.IsLiveIn(r) {
		b.liveIns = append(b.liveIns, r)
	}
}

// IsLiveIn reports whether r is live on entry to the block.
func (b *Block) IsLiveIn(r avr.Reg) bool {
	for _, l := range b.liveIns {
		if l == r {
			return true
		}
	}
	return false
}

// LiveIns returns the registers live on entry, in insertion order.
func (b *Block) LiveIns() []avr.Reg {
	return b.liveIns
}

// LastNonDebug returns the index of the last instruction that is not a
// debug marker, or -1 if the block has none.
func (b *Block) LastNonDebug() int {
	for i := len(b.Instrs) - 1; i >= 0; i-- {
		if !b.Instrs[i].Op.IsDebug() {
			return i
		}
	}
	return -1
}

// EndsInReturn reports whether the block's last non-debug instruction
// returns from the function.
func (b *Block) EndsInReturn() bool {
	i := b.LastNonDebug()
	return i >= 0 && b.Instrs[i].Op.IsReturn()
}

// Function is one machine function after register allocation.
type Function struct {
	Name     string
	CallConv avr.CallConv
	Blocks   []*Block

	Frame *FrameInfo
	Info  *FuncInfo

	// CalleeSaved lists the callee-saved registers the allocator decided
	// to save, with their assigned home slots.
	CalleeSaved []CalleeSavedSlot

	usedPhysRegs map[avr.Reg]bool
}

// NewFunction creates an empty function with one entry block.
func NewFunction(name string, cc avr.CallConv) *Function {
	return &Function{
		Name:         name,
		CallConv:     cc,
		Blocks:       []*Block{{}},
		Frame:        &FrameInfo{},
		Info:         &FuncInfo{},
		usedPhysRegs: make(map[avr.Reg]bool),
	}
}

// Entry returns the entry block.
func (f *Function) Entry() *Block {
	return f.Blocks[0]
}

// AddBlock appends a new empty block and returns it.
func (f *Function) AddBlock() *Block {
	b := &Block{}
	f.Blocks = append(f.Blocks, b)
	return b
}

// MarkPhysRegUsed records r in the function's register-usage accounting.
func (f *Function) MarkPhysRegUsed(r avr.Reg) {
	if f.usedPhysRegs == nil {
		f.usedPhysRegs = make(map[avr.Reg]bool)
	}
	f.usedPhysRegs[r] = true
}

// PhysRegUsed reports whether r has been marked used.
func (f *Function) PhysRegUsed(r avr.Reg) bool {
	return f.usedPhysRegs[r]
}

// scratchPairs lists pair candidates for late scratch allocation, in
// preference order.
var scratchPairs = []avr.Reg{avr.R25R24, avr.R27R26, avr.R31R30}

// AllocScratchPair returns an unused register pair for late insertions
// and marks it used. Panics when every candidate pair is taken; the
// allocator guarantees a free pair for functions that need one.
func (f *Function) AllocScratchPair() avr.Reg {
	for _, r := range scratchPairs {
		if !f.PhysRegUsed(r) {
			f.MarkPhysRegUsed(r)
			return r
		}
	}
	panic(fmt.Sprintf("mir: no scratch register pair available in %s", f.Name))
}
