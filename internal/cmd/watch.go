package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/atikulmunna/logformat/internal/aggregator"
	"github.com/atikulmunna/logformat/internal/hub"
	"github.com/atikulmunna/logformat/internal/server"
	"github.com/atikulmunna/logformat/internal/tailer"
	"github.com/atikulmunna/logformat/internal/watcher"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var fromStart bool

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Watch log files and format new lines as they arrive",
	Long: `Watch one or more log files (or glob patterns) and format new lines
in real time. Offsets are checkpointed so a restart resumes where it stopped.

Examples:
  logformat watch /var/log/app.log
  logformat watch "/var/log/**/*.log" --mode pretty
  logformat watch app.log --serve 8080 --db entries.db`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	flags := watchCmd.Flags()
	flags.String("serve", "", "serve the HTTP API and live stream on this port")
	flags.String("checkpoint", ".logformat-state.json", "offsets file (empty keeps offsets in memory)")
	flags.BoolVar(&fromStart, "from-start", false, "read files from the beginning when no checkpoint exists")
	cobra.CheckErr(viper.BindPFlag("serve", flags.Lookup("serve")))
	cobra.CheckErr(viper.BindPFlag("checkpoint", flags.Lookup("checkpoint")))
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()

	// --- Initialize watcher ---
	w, err := watcher.New(args, logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	watchedPaths := w.Paths()
	if len(watchedPaths) == 0 {
		return fmt.Errorf("no files matched the given patterns: %v", args)
	}
	logger.Info("watching files", "count", len(watchedPaths), "paths", watchedPaths)

	// --- Initialize checkpoint and tailer ---
	ckpt, err := tailer.NewCheckpoint(cfg.Checkpoint)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	t := tailer.New(w, ckpt, tailer.Options{FromStart: fromStart, Logger: logger})

	// --- Fan formatted entries out to consumers ---
	h := hub.New(t.Lines(), newFormatter())
	entries := h.Subscribe()
	agg := aggregator.New(h.Subscribe(), h.Dropped, func() int { return len(w.Paths()) })

	renderer, closeRenderer, err := newRenderer(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeRenderer()

	// --- Start pipeline ---
	go w.Start(ctx)
	go t.Start(ctx)
	go h.Start(ctx)
	go agg.Start(ctx)

	if cfg.Serve != "" {
		srv := server.New(h, agg, server.FormatDefaults{Mode: cfg.Mode, Indent: cfg.Indent}, cfg.Serve)
		go func() {
			logger.Info("serving API", "port", cfg.Serve)
			if err := srv.Start(); err != nil {
				logger.Error("server stopped", "error", err)
			}
		}()
	}

	// --- Render output ---
	for entry := range entries {
		if err := renderer.Render(entry); err != nil {
			logger.Error("render failed", "source", entry.Source, "error", err)
		}
	}

	stats := agg.Snapshot()
	logger.Info("shutting down",
		"lines", stats.TotalLines,
		"entities", stats.TotalEntities,
		"rejected_spans", stats.RejectedSpans,
		"dropped", stats.DroppedLogs,
	)
	return nil
}
