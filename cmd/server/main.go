package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/wolfeidau/sensordash/cmd/server/internal/commands"
	"github.com/wolfeidau/sensordash/internal/config"
)

var (
	version = "dev"
	cli     struct {
		Config   kong.ConfigFlag `help:"Load flag values from a YAML file."`
		LogLevel string          `help:"log level (trace, debug, info, warn, error), defaults to debug in development and info otherwise" env:"SENSORDASH_LOG_LEVEL"`
		LogDir   string          `help:"directory for the daily rotating log file, empty disables file logging" default:"logs" env:"SENSORDASH_LOG_DIR"`
		Version  kong.VersionFlag
		Serve    commands.ServeCmd   `cmd:"" default:"withargs" help:"Start the dashboard server"`
		Migrate  commands.MigrateCmd `cmd:"" help:"Apply database migrations and exit"`
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Name("sensordash"),
		kong.Description("Sensor readings and user records dashboard."),
		kong.Configuration(config.YAML, "/etc/sensordash/config.yaml", "~/.config/sensordash/config.yaml"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{
		Version:  version,
		LogLevel: cli.LogLevel,
		LogDir:   cli.LogDir,
	})
	cmd.FatalIfErrorf(err)
}
