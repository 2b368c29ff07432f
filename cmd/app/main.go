package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymdesk/internal/activity"
	"gymdesk/internal/auth"
	"gymdesk/internal/config"
	"gymdesk/internal/db"
	"gymdesk/internal/email"
	"gymdesk/internal/logger"
	"gymdesk/internal/member"
	"gymdesk/internal/payment"
	"gymdesk/internal/server"

	"github.com/redis/go-redis/v9"
)

// @title GymDesk API
// @version 1.0
// @description Front-desk API for gym members, check-ins, payments and the activity log.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	logger.Info("Starting GymDesk application")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatalf("Failed to load timezone: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := server.Dependencies{
		Google: auth.NewGoogleVerifier(cfg.GoogleClientID),
		Now:    func() time.Time { return time.Now().In(loc) },
	}

	if cfg.DatabaseURL != "" {
		logger.Info("Connecting to database...")
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()

		if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
		logger.Info("Migrations completed")

		deps.Members = member.NewRepository(database)
		deps.Payments = payment.NewRepository(database)
		deps.Invoices = payment.NewSequence(database)
		deps.Activities = activity.NewRepository(database)
	} else {
		logger.Warn("DATABASE_URL is empty, using in-memory ledgers; data is lost on restart")
		deps.Members = member.NewMemoryRepository()
		deps.Payments = payment.NewMemoryRepository()
		deps.Invoices = payment.NewMemorySequence()
		deps.Activities = activity.NewMemoryRepository()
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis is unreachable; statistics cache and e-mails will fail until it is back", "error", err)
		}

		deps.Redis = rdb
		deps.Email = email.New(
			rdb,
			cfg.EmailFrom,
			cfg.EmailFromName,
			cfg.SMTPHost,
			cfg.SMTPPort,
			cfg.SMTPUser,
			cfg.SMTPPass,
		)
		logger.Info("Email service initialized")
	}

	srv := server.New(cfg, deps)
	srv.RunBackground(ctx)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
