// Command blogqa-api runs the synchronous HTTP API: the widget-facing
// endpoints that check cached results and enqueue new jobs, plus the
// admin-only management endpoints. Job processing itself happens in
// cmd/blogqa-worker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/blogqa/internal/app"
	"github.com/ternarybob/blogqa/internal/server"
)

func main() {
	configPath := os.Getenv("BLOGQA_CONFIG")

	ctx := context.Background()
	a, err := app.NewApp(ctx, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	srv := server.NewServer(a)

	go func() {
		a.Logger.Info().Int("port", a.Config.Server.Port).Msg("Starting blogqa-api")
		if err := srv.Start(); err != nil {
			a.Logger.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	a.Logger.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	a.Close()
	a.Logger.Info().Msg("blogqa-api stopped")
}
