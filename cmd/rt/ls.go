package main

import (
	"github.com/spf13/cobra"

	"github.com/mikey-austin/simplert/pkg/rtproto"
)

func lsCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List console nodes",
		Args:  cobra.NoArgs,
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

			kind := rtproto.KindConsole
			if all {
				kind = ""
			}
			result, err := service.ListNodes(ctx, kind)
			if err != nil {
				return err
			}
			return a.printer.Print(result)
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include nodes of every kind")
	return cmd
}
