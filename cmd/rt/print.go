package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikey-austin/simplert/internal/adapters/sink"
	"github.com/mikey-austin/simplert/internal/core"
	"github.com/mikey-austin/simplert/pkg/printstream"
	"github.com/mikey-austin/simplert/pkg/rtproto"
)

const valueTypes = "boolean|char|byte|short|int|long|float|double|string|object|null"

func printCommand(newline bool) *cobra.Command {
	var bits bool
	use, short := "print", "Print a value without a line terminator"
	if newline {
		use, short = "println", "Print a value followed by a line terminator"
	}

	cmd := &cobra.Command{
		Use:   use + " <" + valueTypes + "> [value]",
		Short: short,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := mustApp(cmd)
			if err != nil {
				return err
			}
			wire, err := wireValue(args, bits)
			if err != nil {
				return err
			}
			value, err := wire.Decode()
			if err != nil {
				return core.WrapError(core.ExitUsage, "invalid value", err)
			}
			return a.printLocal(func(p *printstream.PrintStream) error {
				if newline {
					return p.PrintlnValue(value)
				}
				return p.Print(value)
			})
		},
	}
	cmd.Flags().BoolVar(&bits, "bits", false, "treat the value as an IEEE-754 bit pattern (float, double) or code point (char)")
	return cmd
}

func newlineCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "newline",
		Short: "Print only the line terminator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := mustApp(cmd)
			if err != nil {
				return err
			}
			return a.printLocal((*printstream.PrintStream).Println)
		},
	}
}

// printLocal runs op against a PrintStream over the command's output.
func (a *app) printLocal(op func(p *printstream.PrintStream) error) error {
	out, err := sink.WithEncoding(sink.NewWriter(a.out), a.encoding)
	if err != nil {
		return core.WrapError(core.ExitUsage, "console encoding", err)
	}
	if err := op(printstream.New(out)); err != nil {
		return core.WrapError(core.ExitRuntime, "write console", err)
	}
	if enc, ok := out.(*sink.Encoding); ok {
		if err := enc.Flush(); err != nil {
			return core.WrapError(core.ExitRuntime, "write console", err)
		}
	}
	return nil
}

// wireValue builds a WireValue from "<type> [value]" arguments.
func wireValue(args []string, bits bool) (rtproto.WireValue, error) {
	wire := rtproto.WireValue{Type: strings.ToLower(args[0])}
	if len(args) < 2 {
		switch wire.Type {
		case "null", "string", "object":
			return wire, nil
		default:
			return wire, &core.CLIError{Code: core.ExitUsage, Msg: fmt.Sprintf("%s needs a value", wire.Type)}
		}
	}
	if bits {
		switch wire.Type {
		case "float", "double", "char":
			wire.Bits = args[1]
		default:
			return wire, &core.CLIError{Code: core.ExitUsage, Msg: "--bits applies to float, double and char"}
		}
		return wire, nil
	}
	wire.Value = args[1]
	return wire, nil
}
