// Package stacking implements frame lowering for the AVR backend: it
// decides per function whether a software frame pointer is needed,
// synthesizes prologue/epilogue sequences, saves and restores
// callee-saved registers, and rewrites call-frame and stack-store
// pseudos into real instructions. It runs after register allocation,
// over the mir form of a function.
package stacking

import (
	"github.com/raymyers/ralph-avr/pkg/avr"
	"github.com/raymyers/ralph-avr/pkg/mir"
)

// FrameLowering holds the target frame facts the lowering entry points
// consult. The AVR stack grows down, is byte-aligned, and locals start
// at offset -2 from the frame pointer.
type FrameLowering struct {
	stackAlign      int64
	localAreaOffset int64
}

// New creates the AVR frame lowering.
func New() *FrameLowering {
	return &FrameLowering{stackAlign: 1, localAreaOffset: -2}
}

// StackAlignment returns the target stack alignment in bytes.
func (fl *FrameLowering) StackAlignment() int64 {
	return fl.stackAlign
}

// LocalAreaOffset returns the offset of the local area from the frame
// pointer.
func (fl *FrameLowering) LocalAreaOffset() int64 {
	return fl.localAreaOffset
}

func (fl *FrameLowering) assertByteAligned() {
	if fl.stackAlign != 1 {
		panic("stacking: unsupported stack alignment")
	}
}

// HasFP reports whether the function needs a dedicated frame pointer
// register pair. This is true when a register has been spilled, the
// function has allocas, or input arguments are passed on the stack.
// Strictly the elected pair is not a frame pointer: it holds SP after
// frame allocation, not the SP value at function entry.
func (fl *FrameLowering) HasFP(fn *mir.Function) bool {
	return fn.Info.HasSpills || fn.Info.HasAllocas || fn.Info.HasStackArgs
}

// HasReservedCallFrame reports whether call frame memory is reserved in
// the prologue instead of being adjusted around each call. That needs
// the Y pair reserved as frame pointer, no variable-sized objects, and
// a maximum call frame that fits the 6-bit displacement of std.
func (fl *FrameLowering) HasReservedCallFrame(fn *mir.Function) bool {
	return fl.HasFP(fn) &&
		!fn.Frame.HasVarSizedObjects &&
		avr.IsUInt6(fn.Frame.MaxCallFrameSize)
}

// CanSimplifyCallFramePseudos always holds: the call frame pseudos are
// collapsible even when HasReservedCallFrame is false.
func (fl *FrameLowering) CanSimplifyCallFramePseudos(fn *mir.Function) bool {
	return true
}

// MarkFramePointerUsed records the Y pair in the function's register
// usage accounting when it will be reserved as the frame pointer. Must
// run before the final callee-saved scan.
func (fl *FrameLowering) MarkFramePointerUsed(fn *mir.Function) {
	if fl.HasFP(fn) {
		fn.MarkPhysRegUsed(avr.FramePtr)
	}
}
