package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"oraclesim/adapters/rng"
	"oraclesim/app"
	"oraclesim/internal"
	"oraclesim/internal/api"
	"oraclesim/internal/config"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewDefaultLogger()
	defer logger.Sync()

	service := app.NewMonteCarloService(rng.NewStreamAdapter(), logger, appConfig.Simulation.CodeVersion)
	service.SetWorkers(appConfig.Simulation.Workers)
	service.SetMaxRuns(appConfig.Simulation.MaxRuns)

	handler := api.NewSimulationHandler(service, logger, appConfig.Simulation.Seed)
	server := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           api.NewRouter(handler, appConfig.Server.RequestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if appConfig.Profiling.Enabled {
		go func() {
			logger.Info("[Server] pprof listening on :%s", appConfig.Profiling.Port)
			if err := http.ListenAndServe(":"+appConfig.Profiling.Port, nil); err != nil {
				logger.Warn("[Server] pprof server failed: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("[Server] Starting oraclesim on port %s (%d workers, code version %s)",
			appConfig.Server.Port, service.Workers(), service.CodeVersion())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("[Server] Listen failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("[Server] Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("[Server] Graceful shutdown failed: %v", err)
	}
}
