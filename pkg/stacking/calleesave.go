package stacking

import (
	"fmt"

	"github.com/raymyers/ralph-avr/pkg/avr"
	"github.com/raymyers/ralph-avr/pkg/mir"
)

// SpillCalleeSaved emits one-byte pushes for the callee-saved registers
// at index i of block b, in reverse list order so the restore sequence
// can pop them in forward order. It records the pushed byte count in
// the function's CalleeSavedFrameSize. Returns false when the list is
// empty and nothing was emitted.
func (fl *FrameLowering) SpillCalleeSaved(fn *mir.Function, b *mir.Block, i int, csi []mir.CalleeSavedSlot) bool {
	if len(csi) == 0 {
		return false
	}

	size := 0
	for n := len(csi); n != 0; n-- {
		reg := csi[n-1].Reg
		notLiveIn := !b.IsLiveIn(reg)

		if reg.Size() != 1 {
			panic(fmt.Sprintf("stacking: callee-saved register %v is not one byte wide", reg))
		}

		// Add the register as a block live-in unless it already is one,
		// which happens with arguments passed through callee-saved
		// registers.
		if notLiveIn {
			b.AddLiveIn(reg)
		}

		// Do not kill the register when it is an input argument: it is
		// still needed after the save point.
		b.Insert(i, mir.NewInstr(avr.PUSH, mir.KillReg(reg, notLiveIn)).Setup())
		i++
		size++
	}

	fn.Info.CalleeSavedFrameSize = size
	return true
}

// RestoreCalleeSaved emits one-byte pops for the callee-saved registers
// at index i of block b, in forward list order, mirroring the save
// sequence. Returns false when the list is empty.
func (fl *FrameLowering) RestoreCalleeSaved(fn *mir.Function, b *mir.Block, i int, csi []mir.CalleeSavedSlot) bool {
	if len(csi) == 0 {
		return false
	}

	for _, slot := range csi {
		if slot.Reg.Size() != 1 {
			panic(fmt.Sprintf("stacking: callee-saved register %v is not one byte wide", slot.Reg))
		}

		b.Insert(i, mir.NewInstr(avr.POP, mir.DefReg(slot.Reg)))
		i++
	}

	return true
}
