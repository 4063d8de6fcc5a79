package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docextract/internal/async"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/ingest"
	"github.com/joseph-ayodele/docextract/internal/pipeline"
)

// poolFlags are shared by batch and watch.
type poolFlags struct {
	dir      string
	template string
	schema   string
	out      string
}

func (f *poolFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dir, "dir", "", "directory holding the bundles (required)")
	cmd.Flags().StringVar(&f.template, "template", pipeline.AutoTemplate, "template id, or auto to detect it")
	cmd.Flags().StringVar(&f.schema, "schema", "", "custom template schema; overrides --template")
	cmd.Flags().StringVar(&f.out, "out", "", "directory for the result files (default: beside each bundle)")
	_ = cmd.MarkFlagRequired("dir")
}

func (f *poolFlags) processor(a *app) (*pipeline.Processor, error) {
	proc := pipeline.NewProcessor(a.logger, a.loader, a.Analyzer())
	proc.Template = f.template
	proc.OutDir = f.out
	if f.schema != "" {
		schema, err := loadSchema(a, f.schema)
		if err != nil {
			return nil, err
		}
		proc.Schema = schema
	}
	return proc, nil
}

type batchCounts struct {
	ok     atomic.Int64
	failed atomic.Int64
}

func (c *batchCounts) record(_ async.Job, _ string, err error) {
	if err != nil {
		c.failed.Add(1)
		return
	}
	c.ok.Add(1)
}

func newQueue(a *app, proc *pipeline.Processor, counts *batchCounts) *async.ProcessorQueue {
	return async.NewProcessorQueue(proc, a.logger,
		async.WithWorkers(a.cfg.Batch.Workers),
		async.WithQueueSize(a.cfg.Batch.QueueSize),
		async.WithProcessTimeout(a.cfg.Batch.Timeout),
		async.WithResultHandler(counts.record),
	)
}

func newBatchCmd(a *app) *cobra.Command {
	var f poolFlags
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze every bundle in a directory tree",
		Long: `Analyze every *.json bundle under --dir (hidden files and earlier
*.result.json files are skipped) on a worker pool sized by BATCH_WORKERS.
One result file is written per bundle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			proc, err := f.processor(a)
			if err != nil {
				return err
			}
			paths, stats, err := ingest.ScanDirectory(ctx, f.dir, a.logger)
			if err != nil {
				return common.NewAppError(common.CodeInvalidInput, "scan "+f.dir, err)
			}

			start := time.Now()
			var counts batchCounts
			q := newQueue(a, proc, &counts)
			for _, p := range paths {
				if err := q.Enqueue(ctx, async.NewJob(p)); err != nil {
					a.logger.Error("batch.enqueue.failed", "path", p, "err", err)
					counts.failed.Add(1)
				}
			}
			q.Shutdown(ctx)

			a.logger.Info("batch.complete",
				"scanned", stats.Scanned,
				"matched", stats.Matched,
				"processed", counts.ok.Load(),
				"failures", counts.failed.Load(),
				"elapsed_ms", time.Since(start).Milliseconds())
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "processed %d, failed %d\n", counts.ok.Load(), counts.failed.Load())
			if n := counts.failed.Load(); n > 0 {
				return fmt.Errorf("%d of %d bundles failed", n, len(paths))
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var f poolFlags
	var initial bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Analyze bundles as they appear in a directory",
		Long: `Watch --dir and analyze each bundle created or rewritten in it. Bursts
of events for one file are coalesced over WATCH_DEBOUNCE. Stops on
SIGINT or SIGTERM after the queued bundles are done.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			proc, err := f.processor(a)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
				Roots:       []string{f.dir},
				InitialScan: initial,
				Debounce:    a.cfg.Batch.Debounce,
			}, a.logger)
			if err != nil {
				return common.NewAppError(common.CodeInvalidInput, "watch "+f.dir, err)
			}

			var counts batchCounts
			q := newQueue(a, proc, &counts)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Batch.Timeout)
				defer cancel()
				q.Shutdown(shutdownCtx)
				a.logger.Info("watch.stopped", "processed", counts.ok.Load(), "failures", counts.failed.Load())
			}()

			for {
				select {
				case path, ok := <-events:
					if !ok {
						return nil
					}
					if err := q.Enqueue(ctx, async.NewJob(path)); err != nil {
						a.logger.Warn("watch.enqueue.failed", "path", path, "err", err)
					}
				case err, ok := <-errs:
					if !ok {
						errs = nil
						continue
					}
					a.logger.Warn("watch.error", "err", err)
				}
			}
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&initial, "initial", false, "also analyze bundles already in the directory")
	return cmd
}
