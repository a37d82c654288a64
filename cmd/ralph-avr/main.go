package main

import (
	"fmt"
	"io"
	"os"

	"github.com/raymyers/ralph-avr/pkg/mir"
	"github.com/raymyers/ralph-avr/pkg/mirgen"
	"github.com/raymyers/ralph-avr/pkg/stacking"
	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"
)

var version = "0.1.0"

// Debug flags for dumping intermediate state
var (
	dMIR   bool // dump the input MIR before frame lowering
	dFrame bool // dump the frame policy facts per function
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func resetDebugFlags() {
	dMIR = false
	dFrame = false
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ralph-avr [file]",
		Short: "ralph-avr lowers AVR machine functions' stack frames",
		Long: `ralph-avr runs the AVR frame lowering passes over machine
functions described in YAML: frame usage analysis, callee-saved
save/restore, prologue/epilogue emission, call-frame pseudo
elimination, and the dyn-alloca stack pointer guard.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Help()
				return nil
			}
			return lower(args[0], out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	// Debug flags; RALPH_AVR_DMIR / RALPH_AVR_DFRAME set their defaults.
	rootCmd.Flags().BoolVar(&dMIR, "dmir", env.Bool("RALPH_AVR_DMIR"), "Dump MIR before frame lowering")
	rootCmd.Flags().BoolVar(&dFrame, "dframe", env.Bool("RALPH_AVR_DFRAME"), "Dump frame policy facts")

	return rootCmd
}

func lower(filename string, out, errOut io.Writer) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(errOut, "ralph-avr: %v\n", err)
		return err
	}

	fns, err := mirgen.Load(data)
	if err != nil {
		fmt.Fprintf(errOut, "ralph-avr: %v\n", err)
		return err
	}

	printer := mir.NewPrinter(out)
	fl := stacking.New()

	for _, fn := range fns {
		if dMIR {
			printer.PrintFunction(fn)
		}

		fl.Finalize(fn)

		if dFrame {
			fmt.Fprintf(out, "; %s: hasFP=%v reservedCallFrame=%v allocas=%v stackargs=%v spills=%v\n",
				fn.Name, fl.HasFP(fn), fl.HasReservedCallFrame(fn),
				fn.Info.HasAllocas, fn.Info.HasStackArgs, fn.Info.HasSpills)
		}

		printer.PrintFunction(fn)
	}

	return nil
}
