package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/releasebot/internal/config"
	"git.home.luguber.info/inful/releasebot/internal/daemon"
	"git.home.luguber.info/inful/releasebot/internal/logfields"
	"git.home.luguber.info/inful/releasebot/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Interval      time.Duration `help:"Override schedule.interval"`
	Cron          string        `help:"Override schedule.cron"`
	MetricsListen string        `name:"metrics-listen" help:"Override metrics.listen_addr"`
	NoReload      bool          `name:"no-reload" help:"Do not reload when the config file changes"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateForRun(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return w.watch(ctx, cfg, root.Config)
}

func (w *WatchCmd) schedule(cfg *config.Config) daemon.Schedule {
	s := daemon.Schedule{Interval: cfg.Schedule.Interval, Cron: cfg.Schedule.Cron}
	if w.Interval > 0 {
		s.Interval = w.Interval
		s.Cron = ""
	}
	if w.Cron != "" {
		s.Cron = w.Cron
	}
	return s
}

func (w *WatchCmd) watch(ctx context.Context, cfg *config.Config, configPath string) error {
	reg := prom.NewRegistry()
	metrics.RegisterRuntimeCollectors(reg)
	recorder := metrics.NewPrometheusRecorder(reg)

	r, err := newRunner(ctx, cfg, runnerOptions{recorder: recorder})
	if err != nil {
		return err
	}
	schedule := w.schedule(cfg)
	d, err := daemon.New(schedule, r)
	if err != nil {
		_ = r.Close()
		return err
	}

	addr := cfg.Metrics.ListenAddr
	if w.MetricsListen != "" {
		addr = w.MetricsListen
	}
	if addr != "" {
		srv := daemon.NewHTTPServer(addr, d, metrics.HTTPHandler(reg))
		if err := srv.Start(ctx); err != nil {
			_ = r.Close()
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				slog.Warn("Failed to stop HTTP server", logfields.Error(err))
			}
		}()
	}

	if configPath != "" && !w.NoReload {
		cw, err := daemon.NewConfigWatcher(configPath, w.reloader(d, recorder, schedule))
		if err == nil {
			err = cw.Start(ctx)
		}
		if err != nil {
			_ = r.Close()
			return err
		}
		defer func() { _ = cw.Stop() }()
	}

	slog.Info("Watching for releases", logfields.URL(cfg.Manifest.URL), logfields.Schedule(schedule.String()))
	return d.Run(ctx)
}

// reloader rebuilds the runner from the changed file. Schedule changes need a restart.
func (w *WatchCmd) reloader(d *daemon.Daemon, recorder metrics.Recorder, current daemon.Schedule) daemon.ReloadFunc {
	return func(ctx context.Context, path string) error {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		if err := cfg.ValidateForRun(); err != nil {
			return err
		}
		r, err := newRunner(ctx, cfg, runnerOptions{recorder: recorder})
		if err != nil {
			return err
		}
		d.Replace(r)
		if next := w.schedule(cfg); next != current {
			slog.Warn("Schedule changed; restart to apply it",
				logfields.Schedule(next.String()), slog.String("active", current.String()))
		}
		return nil
	}
}
