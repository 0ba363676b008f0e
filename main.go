package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"food-kiosk/config"
	"food-kiosk/db"
	"food-kiosk/services"
	"food-kiosk/web"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	// Check for migrate subcommand
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		runMigrate(cfg)
		return
	}

	var store services.SnapshotStore
	var catalog services.Catalog

	switch cfg.Store {
	case "postgres":
		if err := db.Init(cfg.DB); err != nil {
			log.Fatalw("db init failed", "error", err)
		}
		defer db.Close()

		// Optional auto-migration for fresh databases. Set AUTO_MIGRATE=1
		// (or "true") to enable.
		if v := strings.TrimSpace(os.Getenv("AUTO_MIGRATE")); v == "1" || strings.EqualFold(v, "true") {
			if err := applyMigrations(context.Background(), false); err != nil {
				log.Fatalw("migrate failed", "error", err)
			}
		}

		store = services.NewPGStore(db.Pool)
		catalog = services.NewPGCatalog(db.Pool)
	case "memory":
		store = services.NewMemoryStore()
		catalog = services.DefaultCatalog()
	default:
		log.Fatalw("unknown STORE", "store", cfg.Store)
	}

	notifier := services.MultiNotifier{services.NewLogNotifier(log)}
	if cfg.Staff.MessageToken != "" && cfg.Staff.ChatID != 0 {
		staff, err := services.NewTelegramNotifier(cfg.Staff.MessageToken, cfg.Staff.ChatID, log)
		if err != nil {
			log.Fatalw("staff notifier failed", "error", err)
		}
		notifier = append(notifier, staff)
		log.Infow("staff notifications enabled", "chat_id", cfg.Staff.ChatID)
	}

	var gateway services.Gateway
	if cfg.Payment.GatewayURL != "" {
		gateway = services.NewHTTPGateway(cfg.Payment.GatewayURL)
		log.Infow("using external payment gateway", "url", cfg.Payment.GatewayURL)
	} else {
		gateway = services.NewSimulatedGateway(0)
		log.Infow("using simulated payment gateway")
	}

	deps := services.Deps{
		Store:            store,
		Notifier:         notifier,
		Log:              log,
		TaxRate:          cfg.Pricing.TaxRate,
		ServiceFee:       cfg.Pricing.ServiceFee,
		Currency:         cfg.Payment.Currency,
		TokenRevealDelay: cfg.Timers.TokenRevealDelay,
	}

	server := web.NewServer(log, catalog, gateway, deps, cfg.Timers.OTPSendDelay, cfg.Timers.OTPVerifyDelay)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      server.Routes(),
		WriteTimeout: 30 * time.Second,
		ReadTimeout:  10 * time.Second,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		log.Infow("signal caught", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		shutdown <- srv.Shutdown(ctx)
	}()

	log.Infow("kiosk started", "addr", cfg.Addr, "env", cfg.Env, "store", cfg.Store)

	err = srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatalw("server failed", "error", err)
	}
	if err := <-shutdown; err != nil {
		log.Fatalw("shutdown failed", "error", err)
	}

	log.Infow("kiosk stopped", "addr", cfg.Addr)
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func runMigrate(cfg *config.Config) {
	if err := db.Init(cfg.DB); err != nil {
		fmt.Fprintln(os.Stderr, "db:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := applyMigrations(context.Background(), true); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
