package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"prfeed/internal/config"
	"prfeed/internal/handlers"
	"prfeed/pkg/realtime"
)

const shutdownTimeout = 10 * time.Second

type ServeCmd struct {
	flags *Flags
}

// NewServeCmd creates a new serve command
func NewServeCmd(flags *Flags) *ServeCmd {
	return &ServeCmd{flags: flags}
}

// Register adds the serve command to the application
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Run the notification server",
		UsageText: "prfeed serve [--addr :8080]",
		Description: `Starts the HTTP server that hands out per pull request event streams and
accepts domain events from producers on POST /api/events.

Flags override the matching values from the config file.`,
		Action: cmd.run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "listen address",
				Sources: cli.EnvVars("PRFEED_ADDR"),
			},
			&cli.DurationFlag{
				Name:  "sweep-interval",
				Usage: "how often dead clients are pruned",
			},
			&cli.DurationFlag{
				Name:  "idle-timeout",
				Usage: "inactivity after which a client is pruned",
			},
			&cli.DurationFlag{
				Name:  "heartbeat",
				Usage: "keepalive interval on event streams (0 disables)",
			},
		},
	})

	return app
}

func (cmd *ServeCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := *cmd.flags.Config
	if c.IsSet("addr") {
		cfg.HTTP.Addr = c.String("addr")
	}
	if c.IsSet("sweep-interval") {
		cfg.Sweep.Interval = c.Duration("sweep-interval")
	}
	if c.IsSet("idle-timeout") {
		cfg.Sweep.IdleTimeout = c.Duration("idle-timeout")
	}
	if c.IsSet("heartbeat") {
		cfg.HTTP.Heartbeat = c.Duration("heartbeat")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg)
}

// serve runs the server until ctx is cancelled. Open streams end with ctx
// because it is the base context of every request.
func serve(ctx context.Context, cfg config.Config) error {
	logger := log.With().Str("component", "prfeed").Logger()
	clock := clockwork.NewRealClock()

	registry := realtime.NewRegistry(
		realtime.WithClock(clock),
		realtime.WithIdleTimeout(cfg.Sweep.IdleTimeout),
		realtime.WithLogger(log.With().Str("component", "registry").Logger()),
	)
	sweeper := realtime.NewSweeper(registry, clock, cfg.Sweep.Interval, cfg.Sweep.IdleTimeout,
		log.With().Str("component", "sweeper").Logger())
	go sweeper.Run(ctx)

	router := handlers.NewRouter(registry, clock, handlers.StreamOptions{
		Heartbeat:  cfg.HTTP.Heartbeat,
		Retry:      cfg.HTTP.Retry,
		OutboxSize: cfg.HTTP.OutboxSize,
	}, log.Logger)

	// No read or write timeout: either would cut long-lived streams.
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTP.Addr).Msg("listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Int("channels", registry.Len()).Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
