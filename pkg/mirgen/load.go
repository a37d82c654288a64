// Package mirgen builds mir functions from YAML machine-function
// descriptions. The format is what the CLI consumes and what the
// scenario tests under testdata/ are written in; it describes the state
// an instruction selector and register allocator would leave behind.
package mirgen

import (
	"fmt"

	"github.com/raymyers/ralph-avr/pkg/avr"
	"github.com/raymyers/ralph-avr/pkg/mir"
	"gopkg.in/yaml.v3"
)

// FileSpec is the top-level structure of a machine-function YAML file.
type FileSpec struct {
	Functions []FunctionSpec `yaml:"functions"`
}

// FunctionSpec describes one machine function.
type FunctionSpec struct {
	Name     string   `yaml:"name"`
	CallConv string   `yaml:"callconv,omitempty"`
	Spills   bool     `yaml:"spills,omitempty"`
	Objects  []Object `yaml:"objects,omitempty"`

	// StackSize overrides the computed total frame size when set;
	// otherwise it is the sum of local object sizes plus one byte per
	// callee-saved register.
	StackSize *int64 `yaml:"stacksize,omitempty"`

	MaxCallFrameSize int64 `yaml:"maxcallframesize,omitempty"`

	CalleeSaved []string    `yaml:"calleesaved,omitempty"`
	Blocks      []BlockSpec `yaml:"blocks,omitempty"`
}

// Object describes one stack object. Size zero with Variable set marks
// a variable-sized allocation; Fixed marks an incoming-argument slot.
type Object struct {
	Size     int64 `yaml:"size,omitempty"`
	Fixed    bool  `yaml:"fixed,omitempty"`
	Variable bool  `yaml:"variable,omitempty"`
}

// BlockSpec describes one basic block.
type BlockSpec struct {
	LiveIns []string    `yaml:"livein,omitempty"`
	Instrs  []InstrSpec `yaml:"instrs,omitempty"`
}

// InstrSpec describes one instruction.
type InstrSpec struct {
	Op  string        `yaml:"op"`
	Ops []OperandSpec `yaml:"ops,omitempty"`
}

// OperandSpec describes one operand; exactly one of Reg, Imm, FI or Sym
// should be set.
type OperandSpec struct {
	Reg  string `yaml:"reg,omitempty"`
	Imm  *int64 `yaml:"imm,omitempty"`
	FI   *int   `yaml:"fi,omitempty"`
	Sym  string `yaml:"sym,omitempty"`
	Def  bool   `yaml:"def,omitempty"`
	Kill bool   `yaml:"kill,omitempty"`
}

// Load parses a YAML machine-function file into mir functions.
func Load(data []byte) ([]*mir.Function, error) {
	var file FileSpec
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("mirgen: %w", err)
	}

	fns := make([]*mir.Function, 0, len(file.Functions))
	for i := range file.Functions {
		fn, err := Build(&file.Functions[i])
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}
	return fns, nil
}

// Build converts one function description into a mir function.
func Build(spec *FunctionSpec) (*mir.Function, error) {
	cc, ok := avr.CallConvByName(spec.CallConv)
	if !ok {
		return nil, fmt.Errorf("mirgen: %s: unknown calling convention %q", spec.Name, spec.CallConv)
	}

	fn := mir.NewFunction(spec.Name, cc)
	fn.Info.HasSpills = spec.Spills
	fn.Frame.MaxCallFrameSize = spec.MaxCallFrameSize

	localSize := int64(0)
	for _, obj := range spec.Objects {
		switch {
		case obj.Variable:
			fn.Frame.CreateVariableSizedObject()
		case obj.Fixed:
			fn.Frame.CreateFixedObject(obj.Size)
		default:
			fn.Frame.CreateStackObject(obj.Size)
			localSize += obj.Size
		}
	}

	for _, name := range spec.CalleeSaved {
		reg, ok := avr.RegByName(name)
		if !ok {
			return nil, fmt.Errorf("mirgen: %s: unknown register %q", spec.Name, name)
		}
		idx := fn.Frame.CreateFixedObject(int64(reg.Size()))
		fn.CalleeSaved = append(fn.CalleeSaved, mir.CalleeSavedSlot{Reg: reg, FrameIdx: idx})
	}

	if spec.StackSize != nil {
		fn.Frame.StackSize = *spec.StackSize
	} else {
		fn.Frame.StackSize = localSize + int64(len(spec.CalleeSaved))
	}

	for bi, bs := range spec.Blocks {
		var b *mir.Block
		if bi == 0 {
			b = fn.Entry()
		} else {
			b = fn.AddBlock()
		}
		for _, name := range bs.LiveIns {
			reg, ok := avr.RegByName(name)
			if !ok {
				return nil, fmt.Errorf("mirgen: %s: unknown register %q", spec.Name, name)
			}
			b.AddLiveIn(reg)
		}
		for _, is := range bs.Instrs {
			in, err := buildInstr(spec.Name, is)
			if err != nil {
				return nil, err
			}
			b.Append(in)
		}
	}

	return fn, nil
}

func buildInstr(fnName string, spec InstrSpec) (mir.Instr, error) {
	op, ok := avr.OpcodeByName(spec.Op)
	if !ok {
		return mir.Instr{}, fmt.Errorf("mirgen: %s: unknown opcode %q", fnName, spec.Op)
	}

	in := mir.Instr{Op: op}
	for _, os := range spec.Ops {
		switch {
		case os.Reg != "":
			reg, ok := avr.RegByName(os.Reg)
			if !ok {
				return mir.Instr{}, fmt.Errorf("mirgen: %s: unknown register %q", fnName, os.Reg)
			}
			in.Ops = append(in.Ops, mir.Operand{
				Kind:   mir.OpReg,
				Reg:    reg,
				IsDef:  os.Def,
				IsKill: os.Kill,
			})
		case os.Imm != nil:
			in.Ops = append(in.Ops, mir.Imm(*os.Imm))
		case os.FI != nil:
			in.Ops = append(in.Ops, mir.FrameIndex(*os.FI))
		case os.Sym != "":
			in.Ops = append(in.Ops, mir.Symbol(os.Sym))
		default:
			return mir.Instr{}, fmt.Errorf("mirgen: %s: empty operand in %q", fnName, spec.Op)
		}
	}
	return in, nil
}
