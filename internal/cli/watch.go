package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/roach88/entangle/internal/entangle"
	"github.com/roach88/entangle/internal/session"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Output   string
	Debounce time.Duration
}

// buildSummary is reported after every rebuild.
type buildSummary struct {
	Constructs int
	Errors     int
	Warnings   int
	LoadFailed bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <specs-dir>",
		Short: "Re-expand declarations whenever they change",
		Long: `Expand the declarations in a directory, then watch it and expand again
after every change to a .cue file. Each rebuild starts from a fresh namespace
counter, so unchanged declarations produce identical output.

Runs until interrupted (Ctrl-C or SIGTERM). Errors in a rebuild are reported
and the watch continues.

Examples:
  entangle watch ./specs
  entangle watch ./specs -o actors.rs --debounce 500ms`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file for the rendered source")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 200*time.Millisecond, "quiet period before a rebuild")

	return cmd
}

func runWatch(opts *WatchOptions, specsDir string, cmd *cobra.Command) error {
	info, err := os.Stat(specsDir)
	if err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("specs directory not found: %s", specsDir))
	}

	logger := opts.logger()
	w, err := newSpecWatcher(opts, specsDir, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start watcher", err)
	}
	defer w.close()

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s. Press Ctrl-C to stop.\n", specsDir)
	w.run(ctx)
	logger.Info("watch stopped")
	return nil
}

// specWatcher rebuilds a declaration directory on change. Rebuilds run on
// the loop goroutine, one at a time.
type specWatcher struct {
	dir      string
	output   string
	debounce time.Duration
	opts     *RootOptions
	out      io.Writer
	errOut   io.Writer
	logger   *slog.Logger
	fs       *fsnotify.Watcher

	// onBuild, if set, observes every rebuild.
	onBuild func(buildSummary)
}

func newSpecWatcher(opts *WatchOptions, dir string, out, errOut io.Writer, logger *slog.Logger) (*specWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file system watcher: %w", err)
	}
	w := &specWatcher{
		dir:      dir,
		output:   opts.Output,
		debounce: opts.Debounce,
		opts:     opts.RootOptions,
		out:      out,
		errOut:   errOut,
		logger:   logger,
		fs:       fsw,
	}
	if w.debounce <= 0 {
		w.debounce = 200 * time.Millisecond
	}
	if err := w.addTree(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addTree watches dir and every directory below it.
func (w *specWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *specWatcher) close() error {
	return w.fs.Close()
}

// run builds once, then rebuilds after each quiet period following a change
// until ctx is done.
func (w *specWatcher) run(ctx context.Context) {
	w.rebuild()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("watch directory failed", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if filepath.Ext(event.Name) != ".cue" {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.logger.Debug("declaration changed", "path", event.Name, "op", event.Op.String())
				timer.Reset(w.debounce)
			}

		case <-timer.C:
			w.rebuild()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// rebuild expands the whole directory with a fresh counter.
func (w *specWatcher) rebuild() {
	summary := w.build()
	w.logger.Info("rebuild finished",
		"constructs", summary.Constructs,
		"errors", summary.Errors,
		"warnings", summary.Warnings,
		"load_failed", summary.LoadFailed,
	)
	if w.onBuild != nil {
		w.onBuild(summary)
	}
}

func (w *specWatcher) build() buildSummary {
	loaded, issues := loadConstructs(w.dir)
	if len(issues) > 0 {
		fmt.Fprintf(w.errOut, "✗ Loading declarations failed (%s)\n", time.Now().Format(time.TimeOnly))
		printIssues(w.errOut, issues)
		return buildSummary{Errors: len(issues), LoadFailed: true}
	}

	counter := entangle.NewCounter()
	t, _, err := newTransformer(w.opts, counter)
	if err != nil {
		fmt.Fprintf(w.errOut, "✗ invalid configuration: %v\n", err)
		return buildSummary{Errors: 1, LoadFailed: true}
	}
	outcomes := session.Expand(t, loaded.Constructs)
	rs := reports(outcomes)
	summary := buildSummary{Constructs: len(rs)}
	summary.Errors, summary.Warnings = tally(rs)
	source := session.Combined(outcomes)

	if w.opts.Format == "json" {
		enc := json.NewEncoder(w.out)
		_ = enc.Encode(ExpandResult{
			Constructs: rs,
			Source:     source,
			NextImpl:   counter.Current(),
			Errors:     summary.Errors,
			Warnings:   summary.Warnings,
		})
		return summary
	}

	printIssues(w.errOut, constructIssues(rs))
	if w.output == "" {
		fmt.Fprint(w.out, source)
		return summary
	}
	if summary.Errors > 0 {
		fmt.Fprintf(w.errOut, "✗ %d construct(s) failed, %s not written\n", summary.Errors, w.output)
		return summary
	}
	if err := os.WriteFile(w.output, []byte(source), 0644); err != nil {
		fmt.Fprintf(w.errOut, "✗ failed to write %s: %v\n", w.output, err)
		summary.Errors++
		return summary
	}
	fmt.Fprintf(w.errOut, "✓ Expanded %d construct(s) to %s (%s)\n", summary.Constructs, w.output, time.Now().Format(time.TimeOnly))
	return summary
}
