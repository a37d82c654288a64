package stacking

import (
	"github.com/raymyers/ralph-avr/pkg/avr"
	"github.com/raymyers/ralph-avr/pkg/mir"
)

// EmitPrologue inserts the frame setup sequence at the top of the entry
// block:
//
//	bset 7              ; interrupt handlers re-enable interrupts
//	pushw r1r0          ; handlers preserve r1:r0 and sreg first
//	in r0, 0x3f
//	push r0
//	<callee-saved pushes, already emitted>
//	spread r29r28, sp   ; materialize the frame pointer
//	sbiw/subiw r29r28, framesize
//	spwrite sp, r29r28
//
// Everything after the handler saves is skipped when no frame pointer
// is needed, and the frame adjustment when the frame size is zero.
func (fl *FrameLowering) EmitPrologue(fn *mir.Function) {
	fl.assertByteAligned()

	b := fn.Entry()
	i := 0

	// Interrupt handlers re-enable interrupts in function entry.
	if fn.CallConv == avr.CallInterrupt {
		b.Insert(i, mir.NewInstr(avr.BSET, mir.Imm(avr.IFlagBit)).Setup())
		i++
	}

	// Save r1:r0 and sreg in interrupt/signal handlers before any other
	// register is saved.
	if fn.CallConv.IsHandler() {
		b.Insert(i, mir.NewInstr(avr.PUSHW, mir.KillReg(avr.ZeroRegPair, true)).Setup())
		i++
		b.Insert(i, mir.NewInstr(avr.IN, mir.DefReg(avr.R0), mir.Imm(avr.SREGAddr)).Setup())
		i++
		b.Insert(i, mir.NewInstr(avr.PUSH, mir.KillReg(avr.R0, true)).Setup())
		i++
	}

	if !fl.HasFP(fn) {
		return
	}

	frameSize := fn.Frame.StackSize - int64(fn.Info.CalleeSavedFrameSize)

	// Skip the callee-saved push instructions; they stay ahead of the
	// frame pointer setup.
	for i < len(b.Instrs) && b.Instrs[i].Op.IsPush() {
		i++
	}

	// Update Y with the new base value.
	b.Insert(i, mir.NewInstr(avr.SPREAD, mir.DefReg(avr.FramePtr), mir.UseReg(avr.SP)).Setup())
	i++

	// The frame pointer is live across the whole body once established.
	for _, blk := range fn.Blocks[1:] {
		blk.AddLiveIn(avr.FramePtr)
	}

	if frameSize == 0 {
		return
	}

	// Reserve the frame memory by doing FP -= frameSize.
	op := avr.SUBIW
	if avr.IsUInt6(frameSize) {
		op = avr.SBIW
	}

	adj := mir.NewInstr(op,
		mir.DefReg(avr.FramePtr),
		mir.KillReg(avr.FramePtr, true),
		mir.Imm(frameSize),
		mir.ImplicitDef(avr.SREG)).Setup()
	// The SREG implicit def is dead.
	adj.Ops[3].IsDead = true
	b.Insert(i, adj)
	i++

	// Write Y back to SP.
	b.Insert(i, mir.NewInstr(avr.SPWRITE, mir.DefReg(avr.SP), mir.UseReg(avr.FramePtr)).Setup())
}

// EmitEpilogue inserts the frame teardown sequence into a returning
// block: the handler restore of sreg and r1:r0 immediately before the
// return, then the mirrored frame-size adjustment placed above any
// callee-saved pops. Panics when the block does not end in a return.
func (fl *FrameLowering) EmitEpilogue(fn *mir.Function, b *mir.Block) {
	fl.assertByteAligned()

	isHandler := fn.CallConv.IsHandler()

	if !fl.HasFP(fn) && !isHandler {
		return
	}

	ret := b.LastNonDebug()
	if ret < 0 || !b.Instrs[ret].Op.IsReturn() {
		panic("stacking: epilogue requires a returning block")
	}

	frameSize := fn.Frame.StackSize - int64(fn.Info.CalleeSavedFrameSize)

	// Restore r1:r0 and sreg in handlers at the very end of the
	// function, just before reti.
	if isHandler {
		b.Insert(ret, mir.NewInstr(avr.POP, mir.DefReg(avr.R0)))
		ret++
		out := mir.NewInstr(avr.OUT, mir.Imm(avr.SREGAddr), mir.KillReg(avr.R0, true))
		b.Insert(ret, out)
		ret++
		b.Insert(ret, mir.NewInstr(avr.POPW, mir.DefReg(avr.ZeroRegPair)))
		ret++
	}

	if frameSize == 0 {
		return
	}

	// Scan backward from the return, past callee-saved pops and
	// terminators, to the point where the frame adjustment belongs.
	i := ret
	for i > 0 {
		op := b.Instrs[i-1].Op
		if !op.IsPop() && !op.IsTerminator() {
			break
		}
		i--
	}

	// Restore the frame pointer by doing FP += frameSize, preferring
	// the short adiw form when the size fits its immediate.
	op := avr.ADIW
	if !avr.IsUInt6(frameSize) {
		op = avr.SUBIW
		frameSize = -frameSize
	}

	adj := mir.NewInstr(op,
		mir.DefReg(avr.FramePtr),
		mir.KillReg(avr.FramePtr, true),
		mir.Imm(frameSize),
		mir.ImplicitDef(avr.SREG))
	// The SREG implicit def is dead.
	adj.Ops[3].IsDead = true
	b.Insert(i, adj)
	i++

	b.Insert(i, mir.NewInstr(avr.SPWRITE, mir.DefReg(avr.SP), mir.KillReg(avr.FramePtr, true)))
}
