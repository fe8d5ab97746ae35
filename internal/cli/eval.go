package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/floatchat/backend/internal/evaluation"
)

type EvalOptions struct {
	*RootOptions
	Dataset     string
	MinAccuracy float64
}

func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score question classification against a labelled dataset",
		Long: `Run every question in a YAML dataset through the classifier (and the
LLM oracle when configured) and report intent, region and parameter accuracy.

Examples:
  floatchat eval --dataset testdata/questions.yaml
  floatchat eval --dataset questions.yaml --min-accuracy 90`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset, err := evaluation.LoadDataset(opts.Dataset)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid dataset", err)
			}

			ctx := cmd.Context()
			app, err := openApp(ctx, opts.RootOptions)
			if err != nil {
				return err
			}
			defer app.Close()

			report, err := evaluation.NewEvaluator(app.Processor).Run(ctx, dataset)
			if err != nil {
				return WrapExitError(ExitFailure, "evaluation failed", err)
			}

			if opts.Format == "json" {
				err = writeJSON(cmd.OutOrStdout(), report)
			} else {
				_, err = fmt.Fprint(cmd.OutOrStdout(), evaluation.GenerateReport(report))
			}
			if err != nil {
				return err
			}

			if report.IntentAccuracy < opts.MinAccuracy {
				return NewExitError(ExitFailure,
					fmt.Sprintf("intent accuracy %.1f%% is below %.1f%%", report.IntentAccuracy, opts.MinAccuracy))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Dataset, "dataset", "", "path to YAML dataset (required)")
	_ = cmd.MarkFlagRequired("dataset")
	cmd.Flags().Float64Var(&opts.MinAccuracy, "min-accuracy", 0, "fail when intent accuracy (percent) is lower")

	return cmd
}
