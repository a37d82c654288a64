package mir

import (
	"fmt"
	"io"
)

// Printer outputs MIR in a readable format, one block per paragraph.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new MIR printer.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintFunction prints one machine function.
func (p *Printer) PrintFunction(fn *Function) {
	fmt.Fprintf(p.w, "%s() [%s] {\n", fn.Name, fn.CallConv)

	if fn.Frame.StackSize > 0 {
		fmt.Fprintf(p.w, "  ; stacksize = %d\n", fn.Frame.StackSize)
	}
	if fn.Info.CalleeSavedFrameSize > 0 {
		fmt.Fprintf(p.w, "  ; calleesaved = %d\n", fn.Info.CalleeSavedFrameSize)
	}

	for i, b := range fn.Blocks {
		fmt.Fprintf(p.w, "bb%d:", i)
		if lives := b.LiveIns(); len(lives) > 0 {
			fmt.Fprintf(p.w, " ; live-in:")
			for _, r := range lives {
				fmt.Fprintf(p.w, " %s", r)
			}
		}
		fmt.Fprintln(p.w)
		for _, in := range b.Instrs {
			if in.FrameSetup {
				fmt.Fprintf(p.w, "  %s ; frame-setup\n", in)
			} else {
				fmt.Fprintf(p.w, "  %s\n", in)
			}
		}
	}

	fmt.Fprintln(p.w, "}")
}
