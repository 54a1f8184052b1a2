package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/releasebot/internal/config"
	"git.home.luguber.info/inful/releasebot/internal/logfields"
	"git.home.luguber.info/inful/releasebot/internal/metrics"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	DryRun bool `name:"dry-run" help:"Log the Telegram calls instead of making them and leave state untouched"`
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	if !r.DryRun {
		if err := cfg.ValidateForRun(); err != nil {
			return err
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return RunOnce(ctx, g, cfg, runnerOptions{dryRun: r.DryRun})
}

// RunOnce performs a single check and pushes metrics when a Pushgateway is configured.
func RunOnce(ctx context.Context, g *Global, cfg *config.Config, opts runnerOptions) error {
	recorder := metrics.NewPrometheusRecorder(prom.NewRegistry())
	opts.recorder = recorder

	r, err := newRunner(ctx, cfg, opts)
	if err != nil {
		return err
	}
	report, runErr := r.Run(ctx)
	closeErr := r.Close()

	if report != nil {
		prefix := ""
		if opts.dryRun {
			prefix = "[dry-run] "
		}
		_, _ = fmt.Fprintf(g.out(), "%s%s\n", prefix, report)
	}

	if gw := cfg.Metrics.PushgatewayURL; gw != "" && !opts.dryRun {
		if err := metrics.Push(ctx, gw, cfg.Metrics.Job, recorder.Registry()); err != nil {
			slog.Warn("Failed to push metrics", logfields.URL(gw), logfields.Error(err))
		}
	}

	if closeErr != nil {
		slog.Warn("Failed to close state store", logfields.Error(closeErr))
	}
	return runErr
}
