/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the HR leave & attendance engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (YAML file + HR_ENGINE_* environment overrides)
  2. Build the logger
  3. Open the SQLite store (one store backs every persistence contract)
  4. Wire the leave service, attendance gate and carry-forward batch
  5. Start the carry-forward scheduler and the HTTP server with graceful
     shutdown

COMMAND-LINE FLAGS:
  -config  Path to a YAML config file (optional; defaults + env otherwise)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the database
  4. Exit

SEE ALSO:
  - config/config.go: Configuration shape and defaults
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/hr-engine/api"
	"github.com/warp/hr-engine/attendance"
	"github.com/warp/hr-engine/config"
	"github.com/warp/hr-engine/leave"
	"github.com/warp/hr-engine/logging"
	"github.com/warp/hr-engine/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// No logger yet.
		panic(err)
	}

	log, err := logging.New(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatal("failed to open database", zap.String("path", cfg.Database.Path), zap.Error(err))
	}
	defer store.Close()

	leaveService := leave.NewService(leave.ServiceConfig{
		Store:    store,
		Holidays: store,
		Policies: store,
		Notifier: leave.LogNotifier{Log: log},
		Logger:   log,
	})
	gate := attendance.NewGate(store, store, leaveService, nil, log)
	carry := leave.NewCarryForward(store, log)

	h := api.Handler{
		Leave:      leaveService,
		Gate:       gate,
		Carry:      carry,
		Store:      store,
		Holidays:   store,
		Policies:   store,
		Attendance: store,
		Log:        log,
	}
	if cfg.Server.EnableScenarios {
		h.Resetter = store
		log.Warn("demo scenario loading enabled; POST /api/scenarios/load resets the database")
	}
	handler := api.NewHandler(h)

	scheduler := api.NewCarryForwardScheduler(carry, nil, log)
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(handler, cfg.Server.AllowedOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("db", cfg.Database.Path))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("forced shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
