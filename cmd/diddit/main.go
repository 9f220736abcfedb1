package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/diddit/internal/database"
	"github.com/dukerupert/diddit/internal/logging"
	"github.com/dukerupert/diddit/internal/push"
	"github.com/dukerupert/diddit/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("DIDDIT_LOG_LEVEL"))

	port := os.Getenv("DIDDIT_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("DIDDIT_DB_PATH")
	if dbPath == "" {
		dbPath = "diddit.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	pushCfg := push.Config{
		VAPIDPublicKey:  os.Getenv("DIDDIT_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("DIDDIT_VAPID_PRIVATE_KEY"),
	}

	srv := server.New(db, pushCfg, logger)

	schedCtx, schedCancel := context.WithCancel(context.Background())
	srv.Scheduler().Start(schedCtx)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("diddit listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	schedCancel()
	srv.Scheduler().Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
