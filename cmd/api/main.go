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

	"call-recording-service/internal/calls"
	"call-recording-service/internal/config"
	"call-recording-service/internal/download"
	"call-recording-service/internal/httpapi"
	"call-recording-service/internal/jobs"
	"call-recording-service/internal/reporting"
	"call-recording-service/internal/storage"
	"call-recording-service/pkg/logger"
	"call-recording-service/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	repo := calls.NewPostgresRepo(db)
	if err := repo.Migrate(rootCtx); err != nil {
		log.Error("schema migration failed", "err", err)
		os.Exit(1)
	}

	store, err := storage.NewDisk(cfg.Storage.Dir)
	if err != nil {
		log.Error("storage init failed", "err", err)
		os.Exit(1)
	}

	signer, err := download.NewSigner(cfg.Download.TokenSecret, cfg.Download.URLTTL)
	if err != nil {
		log.Error("download signer init failed", "err", err)
		os.Exit(1)
	}

	dispatcher := jobs.NewDispatcher(cfg.RedisAddr(), cfg.Jobs.Timeout, cfg.Jobs.ResultTTL)
	defer dispatcher.Close()

	statusReader := jobs.NewStatusReader(cfg.RedisAddr())
	defer statusReader.Close()

	h := httpapi.Handlers{
		Calls:      calls.NewService(repo),
		Store:      store,
		Dispatcher: dispatcher,
		Jobs:       statusReader,
		Signer:     signer,
		Reports:    reporting.NewExporter(repo),
		Admin:      repo,
		RDB:        rdb,
		BaseURL:    cfg.App.PublicBaseURL,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, db, rdb)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
