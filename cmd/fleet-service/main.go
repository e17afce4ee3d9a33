package main

import (
	"fmt"
	"os"

	"fleet-service/internal/auth"
	"fleet-service/internal/config"
	"fleet-service/internal/db"
	httphandler "fleet-service/internal/http"
	"fleet-service/internal/http/middleware"
	"fleet-service/internal/logger"
	"fleet-service/internal/service"
	"fleet-service/internal/storage"
	"fleet-service/internal/storage/memory"
	"fleet-service/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	var store storage.Storage
	if cfg.DB.DSN != "" {
		database, err := db.New(cfg, appLogger)
		if err != nil {
			appLogger.Fatal().Err(err).Msg("failed to connect database")
		}
		store = postgres.New(database)
		appLogger.Info().Msg("using postgres storage")
	} else {
		store = memory.New()
		appLogger.Info().Msg("using in-memory storage")
	}

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret, cfg.Auth.TokenTTL)

	vehicleService := service.NewVehicleService(store)
	telemetryService := service.NewTelemetryService(store)
	ingestService := service.NewIngestService(store, appLogger)
	authService := service.NewAuthService(store, tokenParser)

	handler := httphandler.NewHandler(
		vehicleService,
		telemetryService,
		ingestService,
		authService,
		cfg.Upload.MaxBytes,
		appLogger,
	)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, appLogger)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().Str("addr", addr).Msg("starting fleet service")

	if err := router.Run(addr); err != nil {
		appLogger.Error().Err(err).Msg("failed to start server")
		os.Exit(1)
	}
}
