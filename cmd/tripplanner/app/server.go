// Package app provides the trip planner server application.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kart-io/logger"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/tripplanner/cmd/tripplanner/app/options"
	"github.com/kart-io/tripplanner/internal/planner"
	"github.com/kart-io/tripplanner/pkg/infra/app"
)

// commandDesc is the description of the command.
const commandDesc = `Trip Planner Service

Plans a trip from a natural-language request.

This server provides:
  - Search plan synthesis with an LLM (OpenAI, DeepSeek, Ollama)
  - Flight, hotel and attraction searches through SerpApi
  - Cheapest date range selection by total cost
  - A day-by-day narrative itinerary
  - Asynchronous planning jobs backed by memory, Redis or SQL storage`

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	opts := options.NewServerOptions()
	return app.NewApp(
		app.WithName(planner.Name),
		app.WithShortDescription("Trip planner API server"),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)
}

// run contains the main logic for initializing and running the server.
func run(opts *options.ServerOptions) app.RunFunc {
	return func() error {
		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		ctx := setupSignalContext()

		server, err := cfg.NewServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		undo := setMaxProcs(logger.Infof)
		defer undo()

		// Run blocks until a signal arrives, then shuts down gracefully.
		return server.Run(ctx)
	}
}

// setMaxProcs sizes GOMAXPROCS to the container CPU quota. A GOMAXPROCS
// environment variable wins. The returned func restores the previous value.
func setMaxProcs(logf func(string, ...interface{})) func() {
	undo, err := maxprocs.Set(maxprocs.Logger(logf))
	if err != nil {
		logf("maxprocs: failed to set GOMAXPROCS: %v", err)
	}
	return undo
}

// setupSignalContext returns a context that is cancelled on SIGINT or SIGTERM.
// A second signal exits immediately.
func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
