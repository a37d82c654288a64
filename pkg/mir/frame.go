package mir

import "github.com/raymyers/ralph-avr/pkg/avr"

// StackObject is one slot in a function's stack object table. Fixed
// objects are incoming-argument or spill slots created before frame
// layout; a Size of zero marks a variable-sized allocation whose real
// size is only known at run time.
type StackObject struct {
	Size  int64
	Fixed bool
}

// FrameInfo is the per-function stack frame description, owned by the
// function and populated by earlier passes.
type FrameInfo struct {
	Objects []StackObject

	// StackSize is the total frame size in bytes as computed by frame
	// layout, callee-saved area included.
	StackSize int64

	// MaxCallFrameSize is the largest outgoing call-argument area of any
	// call site in the function.
	MaxCallFrameSize int64

	// HasVarSizedObjects is set when the table contains a
	// variable-sized allocation.
	HasVarSizedObjects bool
}

// CreateFixedObject adds an incoming-argument/spill slot of the given
// size and returns its index.
func (fi *FrameInfo) CreateFixedObject(size int64) int {
	fi.Objects = append(fi.Objects, StackObject{Size: size, Fixed: true})
	return len(fi.Objects) - 1
}

// CreateStackObject adds a fixed-size local allocation and returns its
// index.
func (fi *FrameInfo) CreateStackObject(size int64) int {
	fi.Objects = append(fi.Objects, StackObject{Size: size})
	return len(fi.Objects) - 1
}

// CreateVariableSizedObject adds a variable-sized allocation (nominal
// size zero) and returns its index.
func (fi *FrameInfo) CreateVariableSizedObject() int {
	fi.HasVarSizedObjects = true
	fi.Objects = append(fi.Objects, StackObject{})
	return len(fi.Objects) - 1
}

// NumObjects returns the total number of stack objects.
func (fi *FrameInfo) NumObjects() int {
	return len(fi.Objects)
}

// NumFixedObjects returns the number of fixed (incoming-argument/spill)
// objects.
func (fi *FrameInfo) NumFixedObjects() int {
	n := 0
	for _, o := range fi.Objects {
		if o.Fixed {
			n++
		}
	}
	return n
}

// ObjectSize returns the nominal size of object i; zero for
// variable-sized objects.
func (fi *FrameInfo) ObjectSize(i int) int64 {
	return fi.Objects[i].Size
}

// IsFixedIndex reports whether object i is a fixed object.
func (fi *FrameInfo) IsFixedIndex(i int) bool {
	return fi.Objects[i].Fixed
}

// FuncInfo is the per-function frame metadata record driving the
// lowering policy. HasSpills is set by the register allocator, the
// analyzer fills HasAllocas and HasStackArgs, and the callee-saved
// spiller records CalleeSavedFrameSize. Read-only once frame
// finalization completes.
type FuncInfo struct {
	HasSpills    bool
	HasAllocas   bool
	HasStackArgs bool

	// CalleeSavedFrameSize is the exact number of bytes pushed for
	// callee-saved registers, one byte per save.
	CalleeSavedFrameSize int
}

// CalleeSavedSlot pairs a callee-saved register with the home slot the
// allocator assigned it.
type CalleeSavedSlot struct {
	Reg      avr.Reg
	FrameIdx int
}
