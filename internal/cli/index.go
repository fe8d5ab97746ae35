package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewIndexCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Load profile and float descriptions into the vector store",
		Long: `Describe every stored profile and float in plain text, embed the
descriptions and insert them into the vector collections used for answer
context. Requires vector.enabled and an embedding key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.Close()

			indexer, err := app.Indexer()
			if err != nil {
				return WrapExitError(ExitCommandError, "cannot index", err)
			}

			stats, err := indexer.Run(ctx)
			if err != nil {
				return WrapExitError(ExitFailure, "indexing failed", err)
			}

			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d profiles and %d floats (%d skipped)\n",
				stats.Profiles, stats.Floats, stats.Skipped)
			return err
		},
	}
}
