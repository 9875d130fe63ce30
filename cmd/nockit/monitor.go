package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docxology/nockchain/pkg/errs"
	"github.com/docxology/nockchain/pkg/metrics"
	"github.com/docxology/nockchain/pkg/monitor"
	"github.com/docxology/nockchain/pkg/types"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Drive HealthAggregator on an interval, rendering each tick",
	RunE:  runMonitor,
}

func init() {
	monitorCmd.Flags().Duration("interval", 5*time.Second, "tick interval")
	monitorCmd.Flags().String("format", "table", "renderer: table|json|compact|tui")
	monitorCmd.Flags().Bool("once", false, "sample and render exactly once, then exit")
	monitorCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics and /health, /ready, /live on this address (e.g. :9100)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	a, err := newApp(flagConfigDir)
	if err != nil {
		return err
	}
	defer a.close()

	interval, _ := cmd.Flags().GetDuration("interval")
	format, _ := cmd.Flags().GetString("format")
	once, _ := cmd.Flags().GetBool("once")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	renderer, err := newRenderer(cmd, format)
	if err != nil {
		return err
	}
	defer renderer.Close()

	sampler := monitor.NewLiveSampler(a.sys, a.sup, a.net, a.logs, nodeStream)
	loop := &monitor.Loop{
		Sampler:    sampler,
		Aggregator: a.healthAggregator(),
		Logs:       a.logs,
		NodeStream: nodeStream,
		Interval:   interval,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if metricsAddr != "" {
		collector := metrics.NewCollector(a.logs, []string{nodeStream, monitor.Stream}, a.sup, nodeStream)
		metrics.RegisterComponent("logstore", true, "ready")
		metrics.RegisterComponent("supervisor", true, "ready")
		metrics.RegisterComponent("sysprobe", true, "ready")
		collector.Start()
		defer collector.Stop()

		srv := startMetricsServer(metricsAddr)
		defer srv.Close()
	}

	observed := observingRenderer{Renderer: renderer, metricsEnabled: metricsAddr != ""}
	if once {
		return loop.Collect(ctx, observed)
	}
	return loop.Run(ctx, observed)
}

// observingRenderer feeds every HealthReport into metrics.ObserveHealthReport
// before handing it to the operator-selected Renderer, so --metrics-addr
// reflects the exact tick the operator is looking at.
type observingRenderer struct {
	monitor.Renderer
	metricsEnabled bool
}

func (o observingRenderer) Render(report types.HealthReport) error {
	if !o.metricsEnabled {
		return o.Renderer.Render(report)
	}

	timer := metrics.NewTimer()
	metrics.ObserveHealthReport(report)
	err := o.Renderer.Render(report)
	timer.ObserveDuration(metrics.HealthSampleDuration)
	return err
}

func startMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", metrics.HealthHandler())
	mux.Handle("/ready", metrics.ReadyHandler())
	mux.Handle("/live", metrics.LivenessHandler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

func newRenderer(cmd *cobra.Command, format string) (monitor.Renderer, error) {
	switch format {
	case "json":
		return &monitor.JSONRenderer{W: cmd.OutOrStdout()}, nil
	case "compact":
		return &monitor.CompactRenderer{W: cmd.OutOrStdout()}, nil
	case "table":
		return &monitor.TableRenderer{W: cmd.OutOrStdout()}, nil
	case "tui":
		return monitor.NewTUIRenderer(), nil
	default:
		return nil, errs.New(errs.User, "unknown --format "+format+" (want table, json, compact or tui)")
	}
}
