package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"myvote/internal/auth"
	"myvote/internal/broadcast"
	"myvote/internal/config"
	"myvote/internal/db"
	httpx "myvote/internal/http"
)

func main() {
	cfg, _ := config.Load()

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	tokens := auth.NewTokens(cfg.TokenSecret)
	hub := broadcast.NewHub()
	r := httpx.NewRouter(cfg, gdb, tokens, hub)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server closed", "error", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
