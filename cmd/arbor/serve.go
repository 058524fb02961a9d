package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/arborworks/arbor"
	"github.com/arborworks/arbor/internal/cli"
	"github.com/arborworks/arbor/internal/logging"
	httpAdapter "github.com/arborworks/arbor/pkg/adapters/http"
	"github.com/arborworks/arbor/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the arbor engine in server mode, exposing a JSON API over HTTP.
Run records are persisted so they can be fetched after the run settles.
Definition changes on disk invalidate the compiled cache automatically.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")
		port, _ := cmd.Flags().GetString("port")
		storeDir, _ := cmd.Flags().GetString("store")
		redisURL, _ := cmd.Flags().GetString("redis")
		level, _ := cmd.Flags().GetString("log-level")

		logger := logging.New(logging.ParseLevel(level))

		if storeDir == "" && redisURL == "" {
			storeDir = cli.DefaultStoreDir(dir)
		}

		engine, server, err := buildServer(dir, storeDir, redisURL, logger)
		if err != nil {
			fmt.Printf("Error initializing arbor: %v\n", err)
			os.Exit(1)
		}

		// Invalidate compiled definitions when the YAML changes on disk.
		watchCtx, stopWatch := context.WithCancel(context.Background())
		defer stopWatch()
		if watchCh, err := engine.Watch(watchCtx); err == nil {
			go func() {
				for range watchCh {
					logger.Info("Definitions changed, invalidating cache")
					engine.Invalidate()
				}
			}()
		} else {
			logger.Warn("Hot reload unavailable", "err", err)
		}

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: server.Handler(),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Arbor Server on %s\n", srv.Addr)
			fmt.Printf("Serving definitions from: %s\n", dir)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Arbor Server stopped gracefully")
		}
	},
}

// buildServer wires the engine, the SSE event stream and the Prometheus
// collectors together. The server needs the engine and the engine needs the
// server's hooks, so the engine is attached after construction.
func buildServer(dir, storeDir, redisURL string, logger *slog.Logger) (*arbor.Engine, *httpAdapter.Server, error) {
	server := httpAdapter.NewServer(nil)
	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	storeOpts, err := cli.StoreOptions(cli.RunOptions{StoreDir: storeDir, RedisURL: redisURL})
	if err != nil {
		return nil, nil, err
	}

	opts := append(storeOpts,
		arbor.WithLogger(logger),
		arbor.WithLifecycleHooks(metrics.Hooks().Merge(server.Hooks())),
	)

	engine, err := arbor.New(dir, opts...)
	if err != nil {
		return nil, nil, err
	}
	server.Engine = engine
	return engine, server, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("store", "", "Directory for run record persistence")
	serveCmd.Flags().String("redis", "", "Redis URL for run record persistence")
	serveCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
}
