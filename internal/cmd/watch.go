package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atikulmunna/flowscope/internal/watcher"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// settle is how long to wait for a burst of writes to finish before reloading.
const settle = 150 * time.Millisecond

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [patterns...]",
		Short: "Re-render the report whenever a flow log changes",
		Long: `Watch one or more flow log files (or glob patterns) and print a fresh
report each time one of them is rewritten.

Examples:
  flowscope watch
  flowscope watch flowlog.json
  flowscope watch "exports/**/*.json" --skip-malformed`,
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	patterns := args
	if len(patterns) == 0 {
		patterns = []string{viper.GetString("input")}
	}

	w, err := watcher.New(patterns)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	paths := w.Paths()
	if len(paths) == 0 {
		return fmt.Errorf("no files matched the given patterns: %v", patterns)
	}

	fmt.Fprintf(os.Stderr, "flowscope watching %d file(s):\n", len(paths))
	for _, p := range paths {
		fmt.Fprintf(os.Stderr, "   • %s\n", p)
	}
	fmt.Fprintln(os.Stderr)

	s := loadSettings()
	out := cmd.OutOrStdout()
	for _, p := range paths {
		rerender(out, p, s)
	}

	go w.Start(ctx)

	for {
		batch, ok := collect(ctx, w.Events)
		for _, p := range batch {
			rerender(out, p, s)
		}
		if !ok {
			return nil
		}
	}
}

// rerender prints one report, logging instead of failing so the watch
// keeps running across bad intermediate writes.
func rerender(w io.Writer, path string, s settings) {
	fmt.Fprintf(os.Stderr, "--- %s (%s) ---\n", path, time.Now().Format("15:04:05"))
	if err := renderFile(w, path, s); err != nil {
		log.Printf("render %s: %v", path, err)
	}
}

// collect waits for an event and gathers any that follow within settle,
// returning each changed path once in arrival order. ok is false once the
// event channel is closed or ctx is done.
func collect(ctx context.Context, events <-chan watcher.Event) ([]string, bool) {
	var batch []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			batch = append(batch, p)
		}
	}

	select {
	case <-ctx.Done():
		return nil, false
	case ev, ok := <-events:
		if !ok {
			return nil, false
		}
		add(ev.Path)
	}

	timer := time.NewTimer(settle)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return batch, false
		case ev, ok := <-events:
			if !ok {
				return batch, false
			}
			add(ev.Path)
		case <-timer.C:
			return batch, true
		}
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nflowscope shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
