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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Simplici0/stairworks/internal/config"
	"github.com/Simplici0/stairworks/internal/db"
	"github.com/Simplici0/stairworks/internal/logger"
	"github.com/Simplici0/stairworks/internal/migrations"
	"github.com/Simplici0/stairworks/internal/pricing"
	"github.com/Simplici0/stairworks/internal/quotes"
	"github.com/Simplici0/stairworks/internal/rules"
	"github.com/Simplici0/stairworks/internal/seed"
)

type server struct {
	log    *slog.Logger
	calc   *pricing.Calculator
	rules  *rules.Store
	quotes *quotes.Repo
}

func newServer(database *sql.DB, log *slog.Logger) *server {
	ruleStore := rules.NewStore(database)
	return &server{
		log:    log,
		calc:   pricing.NewCalculator(ruleStore),
		rules:  ruleStore,
		quotes: quotes.NewRepo(database),
	}
}

func (s *server) routes(exposeMetrics bool) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	if exposeMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/stair-price", s.handleStairPrice)
		r.Get("/quotes", s.handleQuotesList)
		r.Get("/quotes/{id}", s.handleQuoteGet)
		r.Get("/quotes/{id}/text", s.handleQuoteText)
		r.Get("/rules", s.handleRulesList)
		r.Post("/rules", s.handleRuleUpsert)
		r.Get("/rules/export", s.handleRulesExport)
		r.Post("/rules/import", s.handleRulesImport)
		r.Get("/materials", s.handleMaterialsList)
	})
	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env, cfg.LogLevel)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(database); err != nil {
			log.Error("failed to run database migrations", "err", err)
			os.Exit(1)
		}
	}
	if cfg.SeedOnStart {
		stats, err := seed.Run(context.Background(), database)
		if err != nil {
			log.Error("failed to seed database", "err", err)
			os.Exit(1)
		}
		log.Info("seed applied", "inserts", stats.Inserts)
	}

	srv := newServer(database, log)
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(cfg.MetricsEnabled),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("listening", "addr", httpSrv.Addr, "env", cfg.Env)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return
	}
	log.Info("graceful shutdown complete")
}
