package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"lecturer-booking-api/internal/config"
	"lecturer-booking-api/internal/handler"
	"lecturer-booking-api/internal/manager"
	"lecturer-booking-api/internal/middleware"
	"lecturer-booking-api/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	// database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	defer pool.Close()
	if err := pool.Ping(context.Background()); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}
	logger.Info("connected to postgres")

	// run migrations
	migration := filepath.Join(cfg.MigrationsDir, "001_init.sql")
	if sql, err := os.ReadFile(migration); err != nil {
		logger.Warn("migration file not found, skipping", zap.Error(err))
	} else if _, err := pool.Exec(context.Background(), string(sql)); err != nil {
		logger.Warn("migration warning", zap.Error(err))
	} else {
		logger.Info("migration applied")
	}

	st := store.New(pool)
	tags := manager.NewTagManager(st, logger)
	lecturers := manager.NewLecturerManager(st, tags, logger)
	users := manager.NewUserManager(st, cfg.AdminPassword, logger)

	h := handler.New(lecturers, users, cfg.JWTSecret, logger)
	rl := middleware.NewRateLimiter(5, 10)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: h.Routes(rl),
	}
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http", zap.Error(err))
		}
	}()

	// graceful shutdown: stop accepting requests, then flush the caches
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := lecturers.Shutdown(ctx); err != nil {
		logger.Warn("lecturer flush", zap.Error(err))
	}
	if err := users.Shutdown(ctx); err != nil {
		logger.Warn("user flush", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
