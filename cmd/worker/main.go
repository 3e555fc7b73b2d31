package main

import (
	"context"
	stdlog "log"
	"os/signal"
	"strconv"
	"syscall"
	"time"
	"upmon/config"
	"upmon/internals/app"
	"upmon/internals/server"
	"upmon/pkg/db"
	"upmon/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("env.yaml")
	if err != nil {
		stdlog.Fatalf("failed to load config: %v", err)
	}

	// Done channel of ctx closes when a signal arrives
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.Init(cfg)
	log.Info().Msg("logger initialized")

	dbPool, err := db.ConnectToDB(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize db pool")
	}
	log.Info().Msg("database pool initialized")
	defer dbPool.Close()

	container, err := app.NewContainer(ctx, dbPool, cfg, log)
	if err != nil {
		// Fatal skips the deferred close
		dbPool.Close()
		log.Fatal().Err(err).Msg("failed to initialize dependencies")
	}
	log.Info().Msg("dependencies initialized")

	// start the pipeline
	container.Scheduler.Run(ctx)
	app.StartConsumer(ctx, container)
	container.Aggregator.Run(ctx)
	log.Info().Msg("pipeline started")

	router := app.RegisterRoutes(container)

	srv := server.New(":"+strconv.Itoa(cfg.Port), router, log)
	srv.Start()

	// main goroutine waits for graceful shutdown
	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	// 1. stop HTTP server (stop accepting requests)
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	// 2. shut down background workers and infra
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := container.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("dependencies shutdown failed")
	}

	log.Info().Msg("graceful shutdown complete")
}
