package commands

import (
	"fmt"
	"log/slog"
	"os"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/vendorroll/internal/config"
	"git.home.luguber.info/inful/vendorroll/internal/logfields"
	"git.home.luguber.info/inful/vendorroll/internal/metrics"
	"git.home.luguber.info/inful/vendorroll/internal/pipeline"
)

// RollCmd implements the 'roll' command.
type RollCmd struct {
	Targets     []string `arg:"" optional:"" help:"Targets to vendor (default: all)"`
	MetricsFile string   `name:"metrics-file" help:"Write Prometheus metrics to this file (textfile collector format)"`
	InPlace     bool     `name:"in-place" help:"Wipe and write destination trees directly instead of staging them"`
	Progress    bool     `help:"Show clone progress"`
}

func (r *RollCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	reg := prom.NewRegistry()
	opts := []pipeline.Option{
		pipeline.WithRecorder(metrics.NewPrometheusRecorder(reg)),
		pipeline.WithStaging(!r.InPlace),
	}
	if r.Progress {
		opts = append(opts, pipeline.WithProgress(os.Stderr))
	}

	results, runErr := pipeline.NewDriver(cfg, opts...).RunAll(g.context(), r.Targets)
	for _, res := range results {
		if res.Succeeded() {
			_, _ = fmt.Fprintf(g.out(), "Updated %s to revision %s (%d files, %d shims)\n", res.Target, res.Revision, res.Files, res.Shims)
		}
	}

	if r.MetricsFile != "" {
		if err := metrics.WriteTextfile(r.MetricsFile, reg); err != nil {
			if runErr == nil {
				return err
			}
			slog.Warn("Failed to write metrics", logfields.Path(r.MetricsFile), logfields.Error(err))
		}
	}
	return runErr
}
