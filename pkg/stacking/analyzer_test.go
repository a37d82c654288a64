package stacking

import (
	"testing"

	"github.com/raymyers/ralph-avr/pkg/avr"
	"github.com/raymyers/ralph-avr/pkg/mir"
)

func TestAnalyzeEmptyFunction(t *testing.T) {
	fn := mir.NewFunction("f", avr.CallNormal)
	fn.Entry().Append(mir.NewInstr(avr.RET))

	AnalyzeFrameUsage(fn)

	if fn.Info.HasAllocas || fn.Info.HasStackArgs {
		t.Errorf("empty function: allocas=%v stackargs=%v, want both false",
			fn.Info.HasAllocas, fn.Info.HasStackArgs)
	}
}

func TestAnalyzeFixedSizeAlloca(t *testing.T) {
	fn := mir.NewFunction("f", avr.CallNormal)
	fn.Frame.CreateStackObject(10)

	AnalyzeFrameUsage(fn)

	if !fn.Info.HasAllocas {
		t.Error("fixed-size local allocation should set HasAllocas")
	}
	if fn.Info.HasStackArgs {
		t.Error("no fixed objects are referenced, HasStackArgs should stay false")
	}
}

func TestAnalyzeVariableSizedAllocaOnly(t *testing.T) {
	fn := mir.NewFunction("f", avr.CallNormal)
	fn.Frame.CreateVariableSizedObject()

	AnalyzeFrameUsage(fn)

	// Variable-sized objects are the dyn-alloca guard's business, not
	// an alloca for frame pointer purposes.
	if fn.Info.HasAllocas {
		t.Error("variable-sized object alone should not set HasAllocas")
	}
}

func TestAnalyzeFixedObjectsAreNotAllocas(t *testing.T) {
	fn := mir.NewFunction("f", avr.CallNormal)
	fn.Frame.CreateFixedObject(2)

	AnalyzeFrameUsage(fn)

	if fn.Info.HasAllocas {
		t.Error("incoming-argument slots should not set HasAllocas")
	}
}

func TestAnalyzeStackArgReference(t *testing.T) {
	fn := mir.NewFunction("f", avr.CallNormal)
	arg := fn.Frame.CreateFixedObject(2)
	fn.Entry().Append(mir.NewInstr(avr.LDDWPtrQ,
		mir.DefReg(avr.R25R24),
		mir.FrameIndex(arg),
		mir.Imm(0)))
	fn.Entry().Append(mir.NewInstr(avr.RET))

	AnalyzeFrameUsage(fn)

	if !fn.Info.HasStackArgs {
		t.Error("indexed load of a fixed object should set HasStackArgs")
	}
}

func TestAnalyzeUnreferencedFixedObject(t *testing.T) {
	fn := mir.NewFunction("f", avr.CallNormal)
	fn.Frame.CreateFixedObject(2)
	// Reference through an opcode the analyzer does not treat as
	// stack-argument access.
	fn.Entry().Append(mir.NewInstr(avr.LDI, mir.DefReg(avr.R24), mir.Imm(1)))
	fn.Entry().Append(mir.NewInstr(avr.RET))

	AnalyzeFrameUsage(fn)

	if fn.Info.HasStackArgs {
		t.Error("unreferenced fixed objects should not set HasStackArgs")
	}
}

func TestAnalyzeNonFixedReferenceIgnored(t *testing.T) {
	fn := mir.NewFunction("f", avr.CallNormal)
	local := fn.Frame.CreateStackObject(4)
	fn.Frame.CreateFixedObject(2)
	fn.Entry().Append(mir.NewInstr(avr.STDPtrQ,
		mir.FrameIndex(local),
		mir.Imm(0),
		mir.KillReg(avr.R24, true)))

	AnalyzeFrameUsage(fn)

	if fn.Info.HasStackArgs {
		t.Error("indexed access to a non-fixed object should not set HasStackArgs")
	}
	if !fn.Info.HasAllocas {
		t.Error("the local object should still set HasAllocas")
	}
}
