// Package commands implements the releasebot CLI.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/releasebot/internal/config"
)

// Global context passed to subcommands.
type Global struct {
	// Stdout receives command output. Defaults to os.Stdout.
	Stdout io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (optional, defaults plus environment when empty)" env:"RELEASEBOT_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run   RunCmd   `cmd:"" default:"1" help:"Check for a new release once and announce it (default)"`
	Watch WatchCmd `cmd:"" help:"Keep checking on a schedule"`
	Check CheckCmd `cmd:"" help:"Verify configuration, credentials and the manifest without changing anything"`
	State StateCmd `cmd:"" help:"Inspect or reset persisted state"`
	Init  InitCmd  `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// load reads the configuration and switches logging to its settings.
func (c *CLI) load() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(cfg.Logging.NewLogger(os.Stderr, c.Verbose))
	return cfg, nil
}
