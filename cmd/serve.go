package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/spottube/internal/server"
	"github.com/desertthunder/spottube/internal/session"
	"github.com/desertthunder/spottube/internal/shared"
	"github.com/desertthunder/spottube/internal/tasks"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the web page and websocket server until ctx is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	d := r.config.Downloads
	layout, err := shared.EnsureLayout(d.DownloadRoot, d.ConfigRoot, r.config.Users.Allowed)
	if err != nil {
		return err
	}
	if err := r.ensureServices(ctx, layout); err != nil {
		return err
	}
	if layout.CookiesPath != "" {
		r.logger.Info("using cookies file", "path", layout.CookiesPath)
	}

	host, port := r.config.Server.Host, r.config.Server.Port
	if cmd.IsSet("host") {
		host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		port = cmd.Int("port")
	}

	hub := server.NewHub(r.logger)
	registry := session.NewRegistry(ctx, session.RegistryOptions{
		Allowed: r.config.IsAllowed,
		NewQueue: func(ctx context.Context, user string) *tasks.Queue {
			return r.newQueue(ctx, user, layout, nil)
		},
		Publisher: hub,
		Interval:  r.config.BroadcastDuration(),
		Logger:    r.logger,
	})
	srv := server.New(server.Options{Host: host, Port: port, Registry: registry, Hub: hub, Logger: r.logger})

	errs := make(chan error, 1)
	go func() { errs <- srv.ListenAndServe() }()

	url := shared.ServerURL(host, port, r.config.Users.Allowed[0])
	r.logger.Info("server started", "url", url, "users", len(r.config.Users.Allowed), "threads", d.ThreadLimit)
	if cmd.Bool("open") {
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("could not open browser", "error", err)
		}
	}

	select {
	case err := <-errs:
		registry.Close()
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
