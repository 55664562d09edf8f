package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"

	"github.com/RobCalvi/BNC-BE/internal/config"
	"github.com/RobCalvi/BNC-BE/internal/handlers"
	"github.com/RobCalvi/BNC-BE/internal/logging"
	"github.com/RobCalvi/BNC-BE/internal/service"
	"github.com/RobCalvi/BNC-BE/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)

	var store storage.Storage
	switch cfg.Storage.Backend {
	case "memory":
		logger.Info().Msg("using memory storage")
		store = storage.NewMemoryStorage()
	case "mongo":
		logger.Info().Str("uri", cfg.Mongo.URI).Str("database", cfg.Mongo.Database).Msg("using MongoDB storage")
		ms, err := storage.NewMongoStorage(cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize MongoDB storage")
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := ms.Close(ctx); err != nil {
				logger.Error().Err(err).Msg("failed to close MongoDB connection")
			}
		}()
		store = ms
	}

	changelogSvc := service.NewChangelogService(store, logger)
	reminderSvc := service.NewReminderService(store, logger)
	companySvc := service.NewCompanyService(store, changelogSvc, logger)
	actionSvc := service.NewActionService(store, reminderSvc, changelogSvc, logger)

	r := mux.NewRouter()
	handlers.New(companySvc, actionSvc, reminderSvc, changelogSvc, logger).Register(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("starting CRM backend")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("could not start HTTP server")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
}
