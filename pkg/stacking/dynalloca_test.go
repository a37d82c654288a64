package stacking

import (
	"testing"

	"github.com/raymyers/ralph-avr/pkg/avr"
	"github.com/raymyers/ralph-avr/pkg/mir"
)

func TestSaveRestoreSPNoVarSizedObjects(t *testing.T) {
	fn := mir.NewFunction("f", avr.CallNormal)
	fn.Entry().Append(mir.NewInstr(avr.RET))

	if SaveRestoreSP(fn) {
		t.Error("expected a no-op without variable-sized objects")
	}
	if !sameOpcodes(opcodes(fn.Entry()), []avr.Opcode{avr.RET}) {
		t.Errorf("code changed: %v", opcodes(fn.Entry()))
	}
}

func TestSaveRestoreSPGuardsEveryReturn(t *testing.T) {
	fn := mir.NewFunction("f", avr.CallNormal)
	fn.Frame.CreateVariableSizedObject()
	fn.Entry().Append(mir.NewInstr(avr.RET))

	second := fn.AddBlock()
	second.Append(mir.NewInstr(avr.RET))

	noReturn := fn.AddBlock()
	noReturn.Append(mir.NewInstr(avr.RJMP))

	if !SaveRestoreSP(fn) {
		t.Fatal("expected the guard to fire")
	}

	entry := fn.Entry()
	save := entry.Instrs[0]
	if save.Op != avr.COPY || save.Ops[1].Reg != avr.SP {
		t.Fatalf("entry should start with a copy of SP, got %v", save)
	}
	spCopy := save.Reg(0)
	if !spCopy.IsPair() {
		t.Errorf("SP must be saved into a register pair, got %v", spCopy)
	}

	for i, b := range []*mir.Block{entry, second} {
		n := len(b.Instrs)
		restore := b.Instrs[n-2]
		if restore.Op != avr.COPY || restore.Reg(0) != avr.SP || restore.Reg(1) != spCopy {
			t.Errorf("block %d: expected SP restore before return, got %v", i, restore)
		}
		if !restore.Ops[1].IsKill {
			t.Errorf("block %d: restore should kill the SP copy", i)
		}
		if !b.Instrs[n-1].Op.IsReturn() {
			t.Errorf("block %d: restore must sit before the return", i)
		}
	}

	if !sameOpcodes(opcodes(noReturn), []avr.Opcode{avr.RJMP}) {
		t.Errorf("non-returning block should be untouched: %v", opcodes(noReturn))
	}
}

func TestSaveRestoreSPIndependentOfFramePointer(t *testing.T) {
	fl := New()
	fn := mir.NewFunction("f", avr.CallNormal)
	fn.Frame.CreateVariableSizedObject()
	fn.Entry().Append(mir.NewInstr(avr.RET))

	if fl.HasFP(fn) {
		t.Fatal("variable-sized objects alone must not elect a frame pointer")
	}
	if !SaveRestoreSP(fn) {
		t.Error("the guard must run with or without a frame pointer")
	}
}
