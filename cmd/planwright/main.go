// Package main provides the planwright CLI entrypoint. The CLI is a thin
// shell over the engine; every invariant lives in internal/engine.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/planwright/planwright/internal/config"
	"github.com/planwright/planwright/internal/engine"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

type app struct {
	root    string
	jsonOut bool
	mgr     *engine.Manager
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "planwright",
		Short:         "planwright - file-backed project planning engine",
		Long:          "planwright tracks plans, stagings, and tasks in a single JSON state document under .claude/ and enforces their lifecycle rules.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.root == "" {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("resolve working directory: %w", err)
				}
				a.root = wd
			}

			settings, err := config.Load(a.root)
			if err != nil {
				return err
			}

			a.mgr = engine.New(a.root,
				engine.WithLogger(newLogger(settings.LogLevel)),
				engine.WithHistoryLimit(settings.HistoryLimit),
			)
			return a.mgr.Load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.root, "root", "", "project root (default: working directory)")
	rootCmd.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print results as JSON")

	rootCmd.AddCommand(
		newInitCmd(a),
		newPlanCmd(a),
		newStagingCmd(a),
		newTaskCmd(a),
		newMemoryCmd(a),
		newDecisionCmd(a),
		newSearchCmd(a),
		newHistoryCmd(a),
	)

	return rootCmd
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
