package cli

import (
	"github.com/spf13/cobra"
)

func NewSummaryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show what data is loaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.Close()

			summary, err := app.Engine.DataSummary(ctx)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to read summary", err)
			}

			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			writeSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

type HistoryOptions struct {
	*RootOptions
	Limit int
}

func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Limit <= 0 || opts.Limit > 500 {
				return NewExitError(ExitCommandError, "--limit must be between 1 and 500")
			}

			ctx := cmd.Context()
			app, err := openApp(ctx, opts.RootOptions)
			if err != nil {
				return err
			}
			defer app.Close()

			entries, err := app.Engine.History(ctx, opts.Limit)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to read history", err)
			}

			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			writeHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "number of entries")
	return cmd
}
