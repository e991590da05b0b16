// Package main provides the entry point for the wasdoing CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gorewood/wasdoing/internal/export"
	"github.com/gorewood/wasdoing/internal/output"
	"github.com/gorewood/wasdoing/internal/watch"
)

// watchFlags holds all flag values for the watch command.
type watchFlags struct {
	out       string
	template  string
	debounce  time.Duration
	heartbeat time.Duration
}

// newWatchCmd creates the watch command.
func newWatchCmd() *cobra.Command {
	var flags watchFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the document on every journal change",
		Long: `Watch a context's entry store and regenerate its Markdown document
whenever entries change.

Rapid bursts of writes collapse into a single regeneration. The loop
runs until interrupted (Ctrl-C); a failing regeneration is logged and
watching continues. Set WASDOING_DEBUG=1 for verbose logging.

Examples:
  wasdoing watch                         # Watch the active context
  wasdoing watch -c sideproject
  wasdoing watch --out /tmp/work.md --debounce 2s`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.out, "out", "", "Output path (default: the context's output path)")
	cmd.Flags().StringVar(&flags.template, "template", "", "Template name (default: from config)")
	cmd.Flags().DurationVar(&flags.debounce, "debounce", 0, "Change coalescing window (default: from config)")
	cmd.Flags().DurationVar(&flags.heartbeat, "heartbeat", 0, "Liveness check interval (default: from config)")

	return cmd
}

// runWatch executes the watch command.
func runWatch(cmd *cobra.Command, flags watchFlags) error {
	printer := newPrinter(cmd)

	reg, err := openRegistry()
	if err != nil {
		printer.Error(err)
		return err
	}

	resolved, err := reg.Resolve(contextFlag(cmd))
	if err != nil {
		err = mapRegistryError(err)
		printer.Error(err)
		return err
	}

	outPath := flags.out
	if outPath == "" {
		outPath = resolved.OutputPath
	}

	debounce := flags.debounce
	if debounce <= 0 {
		debounce = reg.Config().DebounceWindow()
	}
	heartbeat := flags.heartbeat
	if heartbeat <= 0 {
		heartbeat = reg.Config().HeartbeatInterval()
	}

	logger := newWatchLogger(cmd)

	// Each regeneration opens the store fresh so the watch process never
	// holds the database open between renders.
	renderFn := func(ctx context.Context) error {
		text, renderErr := renderDocument(ctx, reg, resolved, flags.template)
		if renderErr != nil {
			return renderErr
		}
		return export.WriteMarkdown(outPath, text)
	}

	watcher, err := watch.New(watch.Options{
		StorePath: resolved.StorePath,
		Debounce:  debounce,
		Heartbeat: heartbeat,
		Render:    renderFn,
		Logger:    logger,
	})
	if err != nil {
		err = output.NewSystemErrorWithCause("cannot start watch", err)
		printer.Error(err)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer.Stderr("Watching context %s. Press Ctrl-C to stop.\n", resolved.Name)
	logger.WithFields(logrus.Fields{
		"context": resolved.Name,
		"output":  outPath,
	}).Info("watch starting")

	if err := watcher.Run(ctx); err != nil {
		err = output.NewSystemErrorWithCause("watch failed", err)
		printer.Error(err)
		return err
	}
	return nil
}

// newWatchLogger builds the logrus logger for the watch loop. Logs go to
// stderr so stdout stays clean for the rendered document pipeline.
func newWatchLogger(cmd *cobra.Command) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	if os.Getenv("WASDOING_DEBUG") != "" {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
