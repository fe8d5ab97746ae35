// Package cli is the floatchat command line: one-off questions, data
// summaries, query history, classifier evaluation, vector indexing and the
// MCP stdio server.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/floatchat/backend/internal/bootstrap"
	"github.com/floatchat/backend/pkg/config"
	"github.com/floatchat/backend/pkg/logger"
)

type RootOptions struct {
	ConfigPath string
	Format     string // "text" | "json"
	LogLevel   string
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "floatchat",
		Short:         "Ask questions about ARGO float data",
		Long:          "Answer natural-language questions about ARGO oceanographic floats, profiles and measurements.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config file (default: ./config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override logging.level")

	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewSummaryCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewIndexCommand(opts))
	cmd.AddCommand(NewMCPCommand(opts, version))

	return cmd
}

// openApp loads configuration and builds the engine. Logs always go to
// stderr so stdout carries only command output.
func openApp(ctx context.Context, opts *RootOptions) (*bootstrap.App, error) {
	cfg, err := config.LoadFile(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	level := cfg.Logging.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	if err := logger.Init(level, "console", "stderr"); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to initialize logger", err)
	}

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to start", err)
	}
	return app, nil
}
