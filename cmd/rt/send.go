package main

import (
	"github.com/spf13/cobra"

	"github.com/mikey-austin/simplert/internal/core"
)

func sendCommand() *cobra.Command {
	var (
		bits    bool
		newline bool
	)

	cmd := &cobra.Command{
		Use:   "send <node> <" + valueTypes + "|newline> [value]",
		Short: "Print a value on a remote console node",
		Long: "Print a value on a remote console node. The type newline sends only\n" +
			"the line terminator. An empty node selects the configured default.",
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := mustApp(cmd)
			if err != nil {
				return err
			}
			service, closeFn, err := a.connect(a)
			if err != nil {
				return err
			}
			defer closeFn()

			ctx, cancel := withTimeout(cmd.Context(), a.timeout)
			defer cancel()

			var result core.SendResult
			if args[1] == "newline" && len(args) == 2 {
				result, err = service.Newline(ctx, args[0])
			} else {
				wire, werr := wireValue(args[1:], bits)
				if werr != nil {
					return werr
				}
				result, err = service.Send(ctx, args[0], wire, newline)
			}
			if err != nil {
				return err
			}
			return a.printer.Print(result)
		},
	}
	cmd.Flags().BoolVarP(&newline, "newline", "n", false, "append the line terminator")
	cmd.Flags().BoolVar(&bits, "bits", false, "treat the value as an IEEE-754 bit pattern (float, double) or code point (char)")
	return cmd
}
