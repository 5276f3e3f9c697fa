package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rlindsey/tally/internal/backup"
	"github.com/rlindsey/tally/internal/database"
	"github.com/rlindsey/tally/internal/logging"
	"github.com/rlindsey/tally/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("TALLY_LOG_LEVEL"))

	port := getenv("TALLY_PORT", "8080")
	dbPath := getenv("TALLY_DB_PATH", "tally.db")

	jwtSecret := os.Getenv("TALLY_JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("TALLY_JWT_SECRET is required")
		os.Exit(1)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cfg := server.Config{
		JWTSecret: jwtSecret,
		JWTTTL:    getduration("TALLY_JWT_TTL", 7*24*time.Hour),
		WeekStart: weekday(getenv("TALLY_WEEK_START", "monday")),
	}
	srv := server.New(db, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backupMgr := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("TALLY_BACKUP_S3_ENDPOINT"),
			Bucket:    os.Getenv("TALLY_BACKUP_S3_BUCKET"),
			Region:    getenv("TALLY_BACKUP_S3_REGION", "auto"),
			AccessKey: os.Getenv("TALLY_BACKUP_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("TALLY_BACKUP_S3_SECRET_KEY"),
		},
		DBPath:        dbPath,
		Passphrase:    os.Getenv("TALLY_BACKUP_PASSPHRASE"),
		Interval:      getduration("TALLY_BACKUP_INTERVAL", 24*time.Hour),
		RetentionDays: getint("TALLY_BACKUP_RETENTION_DAYS", 30),
	}, db, logger.With("component", "backup"))
	backupMgr.Start(ctx)
	defer backupMgr.Stop()

	// Expire stale rate-limit windows so the map doesn't grow unbounded.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("tally listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func weekday(name string) time.Weekday {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday":
		return time.Sunday
	case "saturday":
		return time.Saturday
	default:
		return time.Monday
	}
}
