package stacking

import (
	"github.com/raymyers/ralph-avr/pkg/avr"
	"github.com/raymyers/ralph-avr/pkg/mir"
)

// SaveRestoreSP bounds the lifetime of variable-sized stack allocations
// to the function body: it copies SP into a fresh scratch pair at
// function entry and restores SP from it at every return point. This
// avoids reserving a register pair for a frame pointer, so it runs
// whether or not the function elects one. Returns false when the
// function has no variable-sized objects and nothing was changed.
func SaveRestoreSP(fn *mir.Function) bool {
	if !fn.Frame.HasVarSizedObjects {
		return false
	}

	spCopy := fn.AllocScratchPair()

	// Copy SP in function entry before any dynallocas run.
	fn.Entry().Insert(0, mir.NewInstr(avr.COPY, mir.DefReg(spCopy), mir.UseReg(avr.SP)))

	// Restore SP in all exit blocks.
	for _, b := range fn.Blocks {
		if len(b.Instrs) == 0 || !b.EndsInReturn() {
			continue
		}
		ret := b.LastNonDebug()
		b.Insert(ret, mir.NewInstr(avr.COPY, mir.DefReg(avr.SP), mir.KillReg(spCopy, true)))
	}

	return true
}
