package stacking

import (
	"github.com/raymyers/ralph-avr/pkg/avr"
	"github.com/raymyers/ralph-avr/pkg/mir"
)

// Finalize runs the whole frame lowering over one function, in the
// order the pieces depend on each other: analyze frame usage, reserve
// the frame pointer, spill callee-saved registers, emit the prologue,
// then per returning block restore callee-saved registers and emit the
// epilogue, eliminate every remaining call-frame pseudo, and finally
// guard SP around variable-sized allocations.
func (fl *FrameLowering) Finalize(fn *mir.Function) {
	AnalyzeFrameUsage(fn)
	fl.MarkFramePointerUsed(fn)

	// Saves go at the top of the entry block; the prologue inserts the
	// handler preamble ahead of them and skips past them for the frame
	// pointer setup.
	fl.SpillCalleeSaved(fn, fn.Entry(), 0, fn.CalleeSaved)
	fl.EmitPrologue(fn)

	for _, b := range fn.Blocks {
		if !b.EndsInReturn() {
			continue
		}
		fl.RestoreCalleeSaved(fn, b, b.LastNonDebug(), fn.CalleeSaved)
		fl.EmitEpilogue(fn, b)
	}

	for _, b := range fn.Blocks {
		for i := 0; i < len(b.Instrs); {
			switch b.Instrs[i].Op {
			case avr.ADJCALLSTACKDOWN, avr.ADJCALLSTACKUP:
				// Elimination deletes the marker; whatever lands at
				// index i next is never a marker inserted by it, so
				// re-examining i cannot loop.
				fl.EliminateCallFramePseudo(fn, b, i)
			default:
				i++
			}
		}
	}

	SaveRestoreSP(fn)
}
