package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/mikey-austin/simplert/internal/core"
	"github.com/mikey-austin/simplert/internal/fixture"
)

func checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <fixture.yaml>...",
		Short: "Replay fixture files and compare output byte for byte",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := mustApp(cmd)
			if err != nil {
				return err
			}

			var report fixture.Report
			for _, path := range args {
				suite, err := fixture.Load(path)
				if err != nil {
					code := core.ExitUsage
					if errors.Is(err, fs.ErrNotExist) {
						code = core.ExitNotFound
					}
					return core.WrapError(code, "load fixture", err)
				}
				report.Merge(fixture.Run(suite))
			}

			if err := a.printer.Print(report); err != nil {
				return err
			}
			if failed := report.Failed(); failed > 0 {
				return &core.CLIError{Code: core.ExitMismatch, Msg: fmt.Sprintf("%d of %d cases failed", failed, len(report.Results))}
			}
			return nil
		},
	}
}
