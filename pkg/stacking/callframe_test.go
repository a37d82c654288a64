package stacking

import (
	"testing"

	"github.com/raymyers/ralph-avr/pkg/avr"
	"github.com/raymyers/ralph-avr/pkg/mir"
)

// callSite appends a bracketed call site to the entry block: setup
// marker, the given argument stores, the call, teardown marker.
func callSite(fn *mir.Function, amount int64, stores ...mir.Instr) {
	b := fn.Entry()
	b.Append(mir.NewInstr(avr.ADJCALLSTACKDOWN, mir.Imm(amount)))
	for _, s := range stores {
		b.Append(s)
	}
	b.Append(mir.NewInstr(avr.CALL, mir.Symbol("callee")))
	b.Append(mir.NewInstr(avr.ADJCALLSTACKUP, mir.Imm(amount)))
}

func stdSP(offset int64, src avr.Reg, kill bool) mir.Instr {
	op := avr.STDSPQ
	if src.IsPair() {
		op = avr.STDWSPQ
	}
	return mir.NewInstr(op, mir.UseReg(avr.SP), mir.Imm(offset), mir.KillReg(src, kill))
}

func eliminateAll(fl *FrameLowering, fn *mir.Function) {
	for _, b := range fn.Blocks {
		for i := 0; i < len(b.Instrs); {
			switch b.Instrs[i].Op {
			case avr.ADJCALLSTACKDOWN, avr.ADJCALLSTACKUP:
				fl.EliminateCallFramePseudo(fn, b, i)
			default:
				i++
			}
		}
	}
}

func TestPushPathSplitsPairsHighFirst(t *testing.T) {
	fl := New()
	fn := mir.NewFunction("f", avr.CallNormal)
	callSite(fn, 3, stdSP(1, avr.R25R24, true), stdSP(0, avr.R22, true))
	fn.Entry().Append(mir.NewInstr(avr.RET))

	eliminateAll(fl, fn)

	b := fn.Entry()
	want := []avr.Opcode{avr.PUSH, avr.PUSH, avr.PUSH, avr.CALL,
		avr.SPREAD, avr.ADIW, avr.SPWRITE, avr.RET}
	if got := opcodes(b); !sameOpcodes(got, want) {
		t.Fatalf("lowered call site %v, want %v", got, want)
	}

	// The pair store splits high byte first.
	if b.Instrs[0].Reg(0) != avr.R25 || b.Instrs[1].Reg(0) != avr.R24 {
		t.Errorf("pair push order: %v, %v; want r25 then r24", b.Instrs[0], b.Instrs[1])
	}
	if b.Instrs[2].Reg(0) != avr.R22 {
		t.Errorf("byte push: %v, want r22", b.Instrs[2])
	}
}

func TestTeardownAdjustment(t *testing.T) {
	fl := New()
	fn := mir.NewFunction("f", avr.CallNormal)
	callSite(fn, 3)
	fn.Entry().Append(mir.NewInstr(avr.RET))

	eliminateAll(fl, fn)

	b := fn.Entry()
	want := []avr.Opcode{avr.CALL, avr.SPREAD, avr.ADIW, avr.SPWRITE, avr.RET}
	if got := opcodes(b); !sameOpcodes(got, want) {
		t.Fatalf("lowered call site %v, want %v", got, want)
	}

	if b.Instrs[1].Reg(0) != avr.ScratchPair {
		t.Errorf("SP read into %v, want the scratch pair", b.Instrs[1].Reg(0))
	}
	adj := b.Instrs[2]
	if adj.Imm(2) != 3 {
		t.Errorf("adjustment amount = %d, want 3", adj.Imm(2))
	}
	if sreg := adj.FindDef(avr.SREG); sreg == nil || !sreg.IsDead {
		t.Error("the SREG def of the SP adjustment must be dead")
	}
	if wr := b.Instrs[3]; wr.Reg(0) != avr.SP || !wr.Ops[1].IsKill {
		t.Errorf("expected spwrite sp, scratch<kill>, got %v", wr)
	}
}

func TestTeardownLargeAmountNegates(t *testing.T) {
	fl := New()
	fn := mir.NewFunction("f", avr.CallNormal)
	callSite(fn, 100)

	eliminateAll(fl, fn)

	b := fn.Entry()
	want := []avr.Opcode{avr.CALL, avr.SPREAD, avr.SUBIW, avr.SPWRITE}
	if got := opcodes(b); !sameOpcodes(got, want) {
		t.Fatalf("lowered call site %v, want %v", got, want)
	}
	if amt := b.Instrs[2].Imm(2); amt != -100 {
		t.Errorf("subiw amount = %d, want -100", amt)
	}
}

func TestZeroAmountMarkersDeleted(t *testing.T) {
	fl := New()
	fn := mir.NewFunction("f", avr.CallNormal)
	callSite(fn, 0)

	eliminateAll(fl, fn)

	want := []avr.Opcode{avr.CALL}
	if got := opcodes(fn.Entry()); !sameOpcodes(got, want) {
		t.Errorf("zero-amount markers should vanish, got %v", got)
	}
}

func TestReservedCallFrameRewritesStores(t *testing.T) {
	fl := New()
	fn := mir.NewFunction("f", avr.CallNormal)
	fn.Info.HasSpills = true
	fn.Frame.MaxCallFrameSize = 2
	callSite(fn, 2, stdSP(1, avr.R24, true), stdSP(0, avr.R22, false))

	eliminateAll(fl, fn)

	b := fn.Entry()
	want := []avr.Opcode{avr.STDPtrQ, avr.STDPtrQ, avr.CALL}
	if got := opcodes(b); !sameOpcodes(got, want) {
		t.Fatalf("reserved call frame lowering %v, want %v", got, want)
	}

	// Stores now go through Y, offsets and kill flags intact.
	st := b.Instrs[0]
	if st.Reg(0) != avr.FramePtr || st.Imm(1) != 1 || st.Reg(2) != avr.R24 || !st.Ops[2].IsKill {
		t.Errorf("rewritten store: %v", st)
	}
	if st := b.Instrs[1]; st.Ops[2].IsKill {
		t.Errorf("kill flag invented on %v", st)
	}
}

func TestReservedCallFramePairStore(t *testing.T) {
	fl := New()
	fn := mir.NewFunction("f", avr.CallNormal)
	fn.Info.HasSpills = true
	fn.Frame.MaxCallFrameSize = 2
	callSite(fn, 2, stdSP(0, avr.R25R24, true))

	eliminateAll(fl, fn)

	st := fn.Entry().Instrs[0]
	if st.Op != avr.STDWPtrQ || st.Reg(0) != avr.FramePtr {
		t.Errorf("pair store should become stdw through Y, got %v", st)
	}
}

func TestStoreScanStopsAtCall(t *testing.T) {
	fl := New()
	fn := mir.NewFunction("f", avr.CallNormal)
	b := fn.Entry()

	// First call site with one argument, second call site's store after
	// it; eliminating the first setup marker must not touch the second
	// site's store.
	b.Append(mir.NewInstr(avr.ADJCALLSTACKDOWN, mir.Imm(1)))
	b.Append(stdSP(0, avr.R24, true))
	b.Append(mir.NewInstr(avr.CALL, mir.Symbol("first")))
	b.Append(stdSP(0, avr.R22, true))

	fl.EliminateCallFramePseudo(fn, b, 0)

	want := []avr.Opcode{avr.PUSH, avr.CALL, avr.STDSPQ}
	if got := opcodes(b); !sameOpcodes(got, want) {
		t.Errorf("scan crossed a call: %v, want %v", got, want)
	}
}

func TestStoreOffsetOutOfRangePanics(t *testing.T) {
	fl := New()
	fn := mir.NewFunction("f", avr.CallNormal)
	fn.Info.HasSpills = true
	fn.Frame.MaxCallFrameSize = 2
	callSite(fn, 2, stdSP(64, avr.R24, true))

	defer func() {
		if recover() == nil {
			t.Error("expected panic for an out-of-range store offset")
		}
	}()
	eliminateAll(fl, fn)
}

func TestEliminateRejectsNonMarkers(t *testing.T) {
	fl := New()
	fn := mir.NewFunction("f", avr.CallNormal)
	fn.Entry().Append(mir.NewInstr(avr.RET))

	defer func() {
		if recover() == nil {
			t.Error("expected panic when index is not a call frame pseudo")
		}
	}()
	fl.EliminateCallFramePseudo(fn, fn.Entry(), 0)
}
