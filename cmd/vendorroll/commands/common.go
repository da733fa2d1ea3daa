package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/vendorroll/internal/config"
	"git.home.luguber.info/inful/vendorroll/internal/foundation/errors"
)

// Global is shared by every subcommand.
type Global struct {
	Ctx context.Context
	Out io.Writer
}

func (g *Global) context() context.Context {
	if g == nil || g.Ctx == nil {
		return context.Background()
	}
	return g.Ctx
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"vendor.yaml" env:"VENDORROLL_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Roll   RollCmd   `cmd:"" help:"Re-vendor targets at their pinned revisions"`
	Bump   BumpCmd   `cmd:"" help:"Move a target's pinned revision to the latest upstream commit"`
	Latest LatestCmd `cmd:"" help:"Print the latest upstream commit of a target without changing anything"`
	List   ListCmd   `cmd:"" help:"List configured targets and their pinned revisions"`
	Init   InitCmd   `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel honours --verbose first, then VENDORROLL_LOG_LEVEL.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("VENDORROLL_LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func loadTarget(configPath, name string) (*config.Config, *config.Target, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	t, ok := cfg.Target(name)
	if !ok {
		return nil, nil, errors.ValidationError("unknown target").
			WithContext("target", name).
			Build()
	}
	return cfg, t, nil
}
