package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"prfeed/internal/commands"
	"prfeed/internal/config"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func main() {
	if err := setupLogger("info", ""); err != nil {
		panic(err)
	}

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "prfeed",
		Usage:     "Push pull request changes to the browsers watching them",
		UsageText: "prfeed [global options] command [command options]",
		Description: `prfeed keeps one event stream per open browser tab and fans out pull
request, comment and reply changes to every tab watching the same pull
request, except the one that made the change.

Run 'prfeed serve' to start the server and 'prfeed emit' to publish an event.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("PRFEED_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (optional)",
				Sources:     cli.EnvVars("PRFEED_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("PRFEED_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			cfg, err := config.Load(flags.ConfigPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// Flags win over the config file
			level, file := cfg.Log.Level, cfg.Log.File
			if c.IsSet("log-level") {
				level = flags.LogLevel
			}
			if c.IsSet("log-file") {
				file = flags.LogFile
			}
			if err := setupLogger(level, file); err != nil {
				return ctx, err
			}

			return ctx, nil
		},
	}

	app = commands.NewServeCmd(flags).Register(app)
	app = commands.NewEmitCmd(flags).Register(app)
	app = commands.NewConfigCmd(flags).Register(app)

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Error().Err(err).Msg("prfeed failed")
		os.Exit(1)
	}
}

func setupLogger(level string, logFile string) error {
	parsedLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	var output io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}

	if logFile != "" {
		// Create log directory if it doesn't exist
		logDir := filepath.Dir(logFile)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}

		output = io.MultiWriter(zerolog.ConsoleWriter{Out: os.Stderr}, file)
	}

	log.Logger = log.Output(output).Level(parsedLevel)

	return nil
}
