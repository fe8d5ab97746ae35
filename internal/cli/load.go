package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/floatchat/backend/internal/ingestion"
)

func NewLoadCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <batch.json>",
		Short: "Write a JSON batch of floats, profiles and measurements to the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "cannot open batch", err)
			}
			defer f.Close()

			batch, err := ingestion.ReadBatch(f)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid batch", err)
			}

			ctx := cmd.Context()
			app, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.Close()

			stats, err := ingestion.Load(ctx, app.Store, batch)
			if err != nil {
				return WrapExitError(ExitFailure, "load failed", err)
			}

			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d floats, %d profiles, %d measurements, %d trajectory points\n",
				stats.Floats, stats.Profiles, stats.Measurements, stats.Trajectories)
			return err
		},
	}
}
