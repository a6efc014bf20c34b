package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/localmind-core/internal/adapters/driving/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Run the HTTP server used by the browser capture extension and the UI.

The server starts listening immediately. Requests that need the engine get
503 with Retry-After until the vector index has been rebuilt.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Printf("localmind %s starting", Version)

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Error("shutdown", "error", err)
		}
	}()

	var redisPinger http.Pinger
	if a.lock != nil {
		redisPinger = a.lock
	}

	server := http.NewServer(http.Config{
		Host:            a.cfg.Host,
		Port:            a.cfg.Port,
		PortRange:       a.cfg.PortRange,
		MaxPayloadBytes: a.cfg.MaxPayloadBytes,
		Version:         Version,
		Logger:          a.logger,
	}, a.engine, a.engine, a.engine, a.engine, a.engine, a.db, redisPinger)

	// Handlers answer 503 until the background rebuild finishes.
	initDone := make(chan error, 1)
	go func() {
		err := a.engine.Initialize(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("engine initialization failed", "error", err)
		} else if err == nil {
			a.logger.Info("engine ready")
		}
		initDone <- err
	}()

	serveErr := server.Start(ctx)
	cancel()
	<-initDone
	return serveErr
}
