package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nahidhasan98/svn-notifier/internal/handlers"
	"github.com/nahidhasan98/svn-notifier/internal/server"
)

// ServeCommand runs the relay server until interrupted
type ServeCommand struct{}

// Execute implements flags.Commander
func (c *ServeCommand) Execute(args []string) error {
	a, err := initialize(SVNNotify.LogFile)
	if err != nil {
		return err
	}
	defer a.closeLog()

	if err := a.cfg.ValidateServer(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	a.log.Info("Starting SVN notifier relay")
	if !a.notifier.WebhookConfigured() {
		a.log.Warn("Webhook URL is missing or still the placeholder; every notification will fail")
	}

	errChan := make(chan error, 1)

	httpHandler := handlers.New(a.notifier, a.cfg.Repository, a.log)
	httpServer := server.New(a.cfg, httpHandler, a.log)
	if err := httpServer.Start(errChan); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	// Wait for either the server to fail or for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var serveErr error
	select {
	case serveErr = <-errChan:
		a.log.Error("Service failed", serveErr)
	case <-sigChan:
		a.log.Info("Received shutdown signal")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.log.Error("Error during HTTP server shutdown", err)
	}

	a.log.Info("Application stopped")
	return serveErr
}
