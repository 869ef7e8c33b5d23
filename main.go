package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/billbatista/acasinha-splits/api"
	"github.com/billbatista/acasinha-splits/config"
	"github.com/billbatista/acasinha-splits/eventlogger"
	"github.com/billbatista/acasinha-splits/ledger"
	"github.com/billbatista/acasinha-splits/session"
	"github.com/billbatista/acasinha-splits/user"
	_ "github.com/lib/pq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		printErrorAndExit("loading config", err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		printErrorAndExit("database connection", err)
	}
	defer db.Close()
	err = db.Ping()
	if err != nil {
		printErrorAndExit("pinging database", err)
	}

	var evtlogger eventlogger.EventLogger = eventlogger.NewSqlEventLogger(db)
	if cfg.KafkaEnabled() {
		kafkaLogger := eventlogger.NewKafkaLogger(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaLogger.Close()
		evtlogger = eventlogger.Multi(evtlogger, kafkaLogger)
		slog.Info("publishing events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	worker := eventlogger.NewWorker(evtlogger, cfg.EventBuffer)
	worker.Start()
	defer worker.Shutdown()

	userRepo := user.NewRepository(db)
	sessionRepo := session.NewRepository(db, cfg.SessionTTL)
	ledgerService := ledger.NewService(ledger.NewRepository(db), user.NewDirectory(userRepo), worker)

	handler := api.NewHandler(ledgerService, userRepo, sessionRepo, worker)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go purgeExpiredSessions(ctx, sessionRepo)

	go func() {
		slog.Info("server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

func purgeExpiredSessions(ctx context.Context, sessions session.Repository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.DeleteExpired(ctx)
			if err != nil {
				slog.Error("failed to purge sessions", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("purged expired sessions", "count", n)
			}
		}
	}
}

func printErrorAndExit(msg string, e error) {
	slog.Error(msg, "error", e)
	os.Exit(1)
}
