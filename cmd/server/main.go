package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"perola.app/academy/internal/api"
	"perola.app/academy/internal/auth"
	"perola.app/academy/internal/config"
	"perola.app/academy/internal/core"
	"perola.app/academy/internal/logger"
	"perola.app/academy/internal/metrics"
	"perola.app/academy/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	if !cfg.DotEnvLoaded {
		log.Debug("no .env file found, using process environment")
	}

	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to initialize database", "path", cfg.DatabaseURL, "error", err)
	}
	defer dbStore.Close()

	m := metrics.New(nil)

	matcher, err := core.NewMatcher(core.DefaultRules(), core.DefaultReplies(),
		core.WithMaxUtteranceRunes(cfg.MaxUtteranceRunes))
	if err != nil {
		log.Fatal("invalid reply table", "error", err)
	}

	tracker := core.NewProgressTracker(dbStore, cfg.PersistTimeout, log, m)
	apiHandler := api.NewAPIHandler(api.Services{
		Users: core.NewUserService(dbStore, cfg.AdminEmails, cfg.PersistTimeout, log, m),
		Chat: core.NewChatService(dbStore, matcher, core.ChatConfig{
			DelayMin:       cfg.ReplyDelayMin,
			DelayMax:       cfg.ReplyDelayMax,
			PersistTimeout: cfg.PersistTimeout,
		}, log, m),
		Tracker: tracker,
		Catalog: core.NewCatalogService(dbStore, cfg.PersistTimeout, log, m),
		Issuer:  auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Health:  dbStore,
	}, log)
	router := api.NewRouter(apiHandler, promhttp.Handler())

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // covers the assistant typing delay
		IdleTimeout:  120 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		ticker := time.NewTicker(cfg.SessionIdle / 2)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if n := tracker.Sweep(sweepCtx, cfg.SessionIdle); n > 0 {
					log.Debug("evicted idle viewer sessions", "count", n)
				}
			}
		}
	}()

	go func() {
		log.Info("starting server", "addr", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("could not listen", "addr", serverAddr, "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	// Flush positions of viewers still open before the database closes.
	stopSweep()
	<-sweepDone
	if n := tracker.Sweep(ctx, 0); n > 0 {
		log.Info("flushed viewer sessions", "count", n)
	}

	log.Info("server exiting gracefully")
}
