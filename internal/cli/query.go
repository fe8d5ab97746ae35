package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func NewQueryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <question>",
		Short: "Answer one question",
		Long: `Answer one natural-language question and print the result.

Examples:
  floatchat query "How many floats are in the Bay of Bengal"
  floatchat query --format json "salinity profiles in the Arabian Sea in 2023"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return NewExitError(ExitCommandError, "question must not be empty")
			}

			ctx := cmd.Context()
			app, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.Close()

			env := app.Engine.ProcessQuery(ctx, question)

			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				if err := writeJSON(out, env); err != nil {
					return err
				}
			} else {
				writeEnvelope(out, env)
			}

			if !env.Success {
				return NewExitError(ExitFailure, "question could not be answered")
			}
			return nil
		},
	}
}
