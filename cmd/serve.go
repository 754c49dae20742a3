package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/OfonoA/campusGuide1/internal/db"
	"github.com/OfonoA/campusGuide1/internal/reinforcement"
	"github.com/OfonoA/campusGuide1/internal/server"
	"github.com/OfonoA/campusGuide1/internal/tickets"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the campusguide API server",
	Long: `Starts the HTTP server exposing feedback submission, AR staff ticket
handling, reinforcement administration and knowledge search. The vector
index is loaded at startup; when none exists yet the server still runs
and search degrades to empty results until knowledge is ingested.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := db.Open(cfg.DatabasePath())
		if err != nil {
			return err
		}
		defer database.Close()

		index, err := createIndex(cfg)
		if err != nil {
			return err
		}
		if err := index.LoadOrCreate(cmd.Context(), nil); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load vector index: %v\n", err)
		}
		if !index.Ready() {
			fmt.Fprintln(os.Stderr, "No vector index found; search will be empty until knowledge is ingested.")
		}
		defer index.Close()

		engine := reinforcement.NewEngine(database, index)
		worker, err := reinforcement.NewWorker(engine, cfg.Ingestion.Workers, cfg.Ingestion.Retries)
		if err != nil {
			return fmt.Errorf("starting ingestion worker: %w", err)
		}
		defer worker.Close()

		lifecycle := tickets.NewLifecycle(database, worker)
		srv := server.New(cfg, database, index, lifecycle, engine)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-stop:
			log.Printf("received %s, shutting down", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
