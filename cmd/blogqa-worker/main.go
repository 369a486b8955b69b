// Command blogqa-worker runs the background worker pool that claims queued
// jobs and drives them through the orchestrator pipeline. It exposes no
// HTTP surface of its own.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/blogqa/internal/app"
)

func main() {
	configPath := os.Getenv("BLOGQA_CONFIG")

	ctx := context.Background()
	a, err := app.NewApp(ctx, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}

	if _, err := a.Documents.Jobs().ResetOrphaned(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to reset orphaned jobs on startup")
	}

	if err := a.Queue.Start(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("Failed to start queue manager")
		os.Exit(1)
	}
	a.Logger.Info().Int("workers", a.Config.Queue.Workers).Msg("blogqa-worker running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	a.Logger.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.Queue.Stop(shutdownCtx); err != nil {
		a.Logger.Error().Err(err).Msg("Queue manager shutdown failed")
	}
	a.Close()
	a.Logger.Info().Msg("blogqa-worker stopped")
}
