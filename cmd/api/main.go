package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pavithraa18/typeidmain1/internal/config"
	httpx "github.com/pavithraa18/typeidmain1/internal/http"
	"github.com/pavithraa18/typeidmain1/internal/keystroke"
	"github.com/pavithraa18/typeidmain1/internal/logger"
	"github.com/pavithraa18/typeidmain1/internal/repository/sqlite"
	"github.com/pavithraa18/typeidmain1/internal/service/auth"
	"github.com/pavithraa18/typeidmain1/internal/service/dashboard"
	"github.com/pavithraa18/typeidmain1/internal/ws"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("api", slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := sqlite.Open(cfg.DatabasePath, cfg.DBBusyRetries, cfg.DBBusyBackoff)
	if err != nil {
		log.Error("failed to open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	if err := repo.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Error("schema setup failed", "error", err)
		os.Exit(1)
	}

	allowlist, err := keystroke.LoadAllowlist(cfg.AllowlistPath)
	if err != nil {
		log.Warn("model allowlist unavailable, statistical scoring only", "path", cfg.AllowlistPath, "error", err)
		allowlist = keystroke.NewAllowlist()
	}
	var model *keystroke.Model
	if allowlist.Len() > 0 {
		model, err = keystroke.LoadModel(cfg.ModelPath)
		if err != nil {
			log.Error("failed to load model", "path", cfg.ModelPath, "error", err)
			os.Exit(1)
		}
	}
	scorer := keystroke.ZScoreScorer{Threshold: cfg.ZScoreThreshold}
	engine := keystroke.NewEngine(allowlist, model, scorer, cfg.MinProfileSamples)
	log.Info("decision engine ready",
		"model_users", allowlist.Len(),
		"zscore_threshold", cfg.ZScoreThreshold,
		"min_samples", cfg.MinProfileSamples)

	sessionHub := ws.NewHub(cfg.SessionFeedBuffer)
	authSvc := auth.New(repo, repo, repo, engine, sessionHub, log, cfg.MaxProfileSamples)
	dashboardSvc := dashboard.New(repo, engine, log)

	router := httpx.NewRouter(log, authSvc, dashboardSvc, sessionHub, repo.Ping)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
