// Package main is the entry point for the firm management API server.
// The application tracks financial transactions belonging to firms owned by
// users and answers, per firm and financial year, the running balance split
// by transaction category.
//
// The application follows clean architecture principles:
// - Domain layer is pure (no infrastructure dependencies)
// - Repository pattern for data access
// - Service layer for business logic
// - HTTP handlers for API endpoints
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Firm-Management/backend/internal/auth"
	"github.com/Firm-Management/backend/internal/config"
	"github.com/Firm-Management/backend/internal/database"
	"github.com/Firm-Management/backend/internal/maintenance"
	"github.com/Firm-Management/backend/internal/modules/firms"
	firmhandlers "github.com/Firm-Management/backend/internal/modules/firms/handlers"
	"github.com/Firm-Management/backend/internal/modules/ledger"
	"github.com/Firm-Management/backend/internal/modules/transactions"
	txhandlers "github.com/Firm-Management/backend/internal/modules/transactions/handlers"
	"github.com/Firm-Management/backend/internal/modules/users"
	userhandlers "github.com/Firm-Management/backend/internal/modules/users/handlers"
	"github.com/Firm-Management/backend/internal/server"
	"github.com/Firm-Management/backend/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting firm management server")

	// The ledger profile trades write throughput for durability; every
	// transaction row is part of the financial audit trail.
	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileLedger,
		Name:    "firms",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database schema")
	}
	log.Info().Str("path", db.Path()).Msg("Database ready")

	// Repositories
	usersRepo := users.NewRepository(db.Conn())
	firmsRepo := firms.NewRepository(db.Conn())
	txRepo := transactions.NewRepository(db.Conn())

	// Services
	authSvc := auth.NewService(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)
	ledgerSvc := ledger.NewService(txRepo, firmsRepo, log)

	// HTTP handlers
	userHandlers := userhandlers.NewHandler(usersRepo, authSvc, log)
	firmHandlers := firmhandlers.NewHandler(firmsRepo, txRepo, ledgerSvc, log)
	transactionHandlers := txhandlers.NewHandler(txRepo, firmsRepo, ledgerSvc, log)

	srv := server.New(server.Config{
		Log:                 log,
		Port:                cfg.Port,
		DevMode:             cfg.DevMode,
		Auth:                authSvc,
		UserHandlers:        userHandlers,
		FirmHandlers:        firmHandlers,
		TransactionHandlers: transactionHandlers,
	})

	// Start server in goroutine so shutdown signals can be handled below
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Background database housekeeping
	scheduler := maintenance.NewScheduler(log)
	checkpointJob := maintenance.NewCheckpointJob(db.Conn(), log)
	if err := scheduler.AddJob("@hourly", checkpointJob); err != nil {
		log.Error().Err(err).Msg("Failed to register checkpoint job")
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
