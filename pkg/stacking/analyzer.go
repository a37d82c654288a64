package stacking

import (
	"github.com/raymyers/ralph-avr/pkg/avr"
	"github.com/raymyers/ralph-avr/pkg/mir"
)

// AnalyzeFrameUsage scans a function for allocas and for arguments
// passed through the stack, recording HasAllocas and HasStackArgs in
// the function's frame metadata. Runs once per function, before frame
// finalization.
func AnalyzeFrameUsage(fn *mir.Function) {
	frame := fn.Frame
	info := fn.Info

	// Non-fixed objects present means the function has allocas. Only
	// fixed-size allocas count: variable-sized objects have nominal
	// size zero and are handled by the dyn-alloca guard instead.
	if frame.NumObjects()-frame.NumFixedObjects() > 0 {
		for i := 0; i < frame.NumObjects(); i++ {
			if frame.IsFixedIndex(i) {
				continue
			}
			if frame.ObjectSize(i) != 0 {
				info.HasAllocas = true
				break
			}
		}
	}

	// Without fixed objects there is nothing an indexed access could
	// name, so skip the instruction scan.
	if frame.NumFixedObjects() == 0 {
		return
	}

	// Fixed objects exist; scan the function to see whether any are
	// actually referenced through the indexed addressing modes used for
	// stack-argument access.
	for _, b := range fn.Blocks {
		for i := range b.Instrs {
			in := &b.Instrs[i]

			switch in.Op {
			case avr.LDDPtrQ, avr.LDDWPtrQ, avr.STDPtrQ, avr.STDWPtrQ:
			default:
				continue
			}

			for _, op := range in.Ops {
				if op.Kind != mir.OpFrameIndex {
					continue
				}
				if frame.IsFixedIndex(op.Index) {
					info.HasStackArgs = true
					return
				}
			}
		}
	}
}
