package stacking

import (
	"fmt"

	"github.com/raymyers/ralph-avr/pkg/avr"
	"github.com/raymyers/ralph-avr/pkg/mir"
)

// fixStackStores rewrites the SP-relative store pseudos that pass
// arguments through the stack, scanning forward from index i until the
// first call instruction so one call's arguments are not conflated
// with the next. With insertPushes the pseudos become push sequences;
// otherwise they become std instructions through Y, which is guaranteed
// to hold a copy of SP.
func fixStackStores(b *mir.Block, i int, insertPushes bool) {
	cur := mir.CursorAt(b, i)

	for cur.Valid() && !cur.Instr().Op.IsCall() {
		in := cur.Instr()

		if in.Op != avr.STDSPQ && in.Op != avr.STDWSPQ {
			cur.Next()
			continue
		}

		if in.Reg(0) != avr.SP {
			panic("stacking: stack store pseudo base must be SP")
		}

		if insertPushes {
			src := in.Ops[2].Reg
			kill := in.Ops[2].IsKill

			// A pair push pseudo expands with the wrong ordering for
			// argument layout, so split the pair here, high byte first.
			if in.Op == avr.STDWSPQ {
				cur.InsertBefore(mir.NewInstr(avr.PUSH, mir.KillReg(src.Hi(), kill)))
				cur.InsertBefore(mir.NewInstr(avr.PUSH, mir.KillReg(src.Lo(), kill)))
			} else {
				cur.InsertBefore(mir.NewInstr(avr.PUSH, mir.KillReg(src, kill)))
			}

			cur.Remove()
			continue
		}

		// Rewrite in place into a regular indexed store through Y.
		if !avr.IsUInt6(in.Imm(1)) {
			panic(fmt.Sprintf("stacking: stack store offset %d out of range", in.Imm(1)))
		}

		if in.Op == avr.STDWSPQ {
			in.Op = avr.STDWPtrQ
		} else {
			in.Op = avr.STDPtrQ
		}
		in.Ops[0].Reg = avr.FramePtr

		cur.Next()
	}
}

// EliminateCallFramePseudo removes the call-frame setup or teardown
// marker at index i of block b, emitting whatever instructions its
// elimination requires. With a reserved call frame the stack space
// already exists, so the stores are rewritten through Y and the marker
// dropped. Otherwise a setup marker turns its argument stores into
// pushes, and a teardown marker becomes an explicit SP adjustment
// through the scratch pair.
func (fl *FrameLowering) EliminateCallFramePseudo(fn *mir.Function, b *mir.Block, i int) {
	in := &b.Instrs[i]
	if in.Op != avr.ADJCALLSTACKDOWN && in.Op != avr.ADJCALLSTACKUP {
		panic(fmt.Sprintf("stacking: %v is not a call frame pseudo", in.Op))
	}

	// Call frame memory allocated at function entry: nothing to insert.
	if fl.HasReservedCallFrame(fn) {
		fixStackStores(b, i+1, false)
		b.Remove(i)
		return
	}

	op := in.Op
	amount := in.Imm(0)

	// Setup does not allocate stack space for the call; the pushes do.
	// Teardown becomes an adiw on a copy of SP, handling the read and
	// write of SP in I/O space.
	if amount != 0 {
		fl.assertByteAligned()

		if op == avr.ADJCALLSTACKDOWN {
			// The rewrites only touch instructions after the marker, so
			// index i stays valid for the deletion below.
			fixStackStores(b, i+1, true)
		} else {
			scratch := avr.ScratchPair

			b.Insert(i, mir.NewInstr(avr.SPREAD, mir.DefReg(scratch), mir.UseReg(avr.SP)))
			i++

			addOp := avr.ADIW
			if !avr.IsUInt6(amount) {
				addOp = avr.SUBIW
				amount = -amount
			}

			adj := mir.NewInstr(addOp,
				mir.DefReg(scratch),
				mir.KillReg(scratch, true),
				mir.Imm(amount),
				mir.ImplicitDef(avr.SREG))
			// The SREG implicit def is dead.
			adj.Ops[3].IsDead = true
			b.Insert(i, adj)
			i++

			b.Insert(i, mir.NewInstr(avr.SPWRITE, mir.DefReg(avr.SP), mir.KillReg(scratch, true)))
			i++
		}
	}

	b.Remove(i)
}
