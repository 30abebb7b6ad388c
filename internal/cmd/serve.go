package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/atikulmunna/flowscope/internal/aggregator"
	"github.com/atikulmunna/flowscope/internal/hub"
	"github.com/atikulmunna/flowscope/internal/metrics"
	"github.com/atikulmunna/flowscope/internal/report"
	"github.com/atikulmunna/flowscope/internal/server"
	"github.com/atikulmunna/flowscope/internal/watcher"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	serve := &cobra.Command{
		Use:   "serve [file]",
		Short: "Serve the latest report over HTTP and WebSocket",
		Long: `Build the report for a flow log, rebuild it whenever the file changes
and serve it over HTTP:

  GET /                 report in the terminal table layout
  GET /api/report       latest report as JSON
  GET /api/report/text  same as /
  GET /api/stats        rebuild statistics
  GET /healthz          status, uptime and rebuild counts
  GET /ws               live rebuild stream (WebSocket)
  GET /metrics          Prometheus metrics

Examples:
  flowscope serve
  flowscope serve exports/nsg.json --port 9000`,
		Args: cobra.MaximumNArgs(1),
		RunE: runServe,
	}

	serve.Flags().StringP("port", "p", "8080", "HTTP listen port")
	cobra.CheckErr(viper.BindPFlag("port", serve.Flags().Lookup("port")))
	return serve
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s := loadSettings()
	path := inputPath(args)

	w, err := watcher.New([]string{path})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if len(w.Paths()) == 0 {
		return fmt.Errorf("no flow log at %s", path)
	}
	watched := w.Paths()[0]

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	changes := make(chan string)
	h := hub.New(changes, func(p string) (*report.Report, error) {
		rep, err := report.FromFile(p, s.reportOptions())
		if err == nil {
			warn(rep)
		}
		return rep, err
	})
	agg := aggregator.New(h.Subscribe(), h.Dropped, func() int { return len(w.Paths()) }, m)
	srv := server.New(h, agg, reg, s.textOptions(), viper.GetString("port"))

	// First build happens before the hub loop starts so a quick file change
	// cannot be overwritten by this older report.
	h.Rebuild(watched)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { w.Start(gctx); return nil })
	g.Go(func() error { h.Start(gctx); return nil })
	g.Go(func() error { agg.Start(gctx); return nil })
	g.Go(func() error { return forward(gctx, w.Events, changes) })
	g.Go(func() error { return srv.Start(gctx) })

	fmt.Fprintf(os.Stderr, "flowscope serving %s on :%s\n", watched, viper.GetString("port"))

	return g.Wait()
}

// forward turns batches of watcher events into rebuild requests.
func forward(ctx context.Context, events <-chan watcher.Event, out chan<- string) error {
	defer close(out)
	for {
		batch, ok := collect(ctx, events)
		for _, p := range batch {
			select {
			case out <- p:
			case <-ctx.Done():
				return nil
			}
		}
		if !ok {
			return nil
		}
	}
}
