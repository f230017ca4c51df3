package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mora090410/homework/internal/backup"
	"github.com/mora090410/homework/internal/database"
	"github.com/mora090410/homework/internal/logging"
	"github.com/mora090410/homework/internal/server"
)

func main() {
	port := os.Getenv("HOMEWORK_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("HOMEWORK_DB_PATH")
	if dbPath == "" {
		dbPath = "homework.db"
	}

	logger := logging.Setup(os.Getenv("HOMEWORK_LOG_LEVEL"), os.Getenv("HOMEWORK_LOG_FORMAT"))

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	backupCfg := backup.Config{
		S3: backup.S3Config{
			Endpoint:  os.Getenv("HOMEWORK_BACKUP_S3_ENDPOINT"),
			Bucket:    os.Getenv("HOMEWORK_BACKUP_S3_BUCKET"),
			Region:    os.Getenv("HOMEWORK_BACKUP_S3_REGION"),
			AccessKey: os.Getenv("HOMEWORK_BACKUP_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("HOMEWORK_BACKUP_S3_SECRET_KEY"),
		},
		DBPath:     dbPath,
		Passphrase: os.Getenv("HOMEWORK_BACKUP_PASSPHRASE"),
		Interval:   backupInterval(),
		Keep:       backupKeep(),
	}

	srv := server.New(db, backupCfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv.BackupManager().Start(ctx)
	defer srv.BackupManager().Stop()

	// Expired rate-limit entries accumulate unless swept.
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
		fmt.Printf("HomeWork running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	fmt.Println("\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

func backupInterval() time.Duration {
	hours, err := strconv.Atoi(os.Getenv("HOMEWORK_BACKUP_INTERVAL_HOURS"))
	if err != nil || hours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(hours) * time.Hour
}

func backupKeep() int {
	keep, err := strconv.Atoi(os.Getenv("HOMEWORK_BACKUP_KEEP"))
	if err != nil || keep <= 0 {
		return 30
	}
	return keep
}
