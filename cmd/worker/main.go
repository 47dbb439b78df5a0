package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"call-recording-service/internal/audio"
	"call-recording-service/internal/calls"
	"call-recording-service/internal/config"
	"call-recording-service/internal/jobs"
	"call-recording-service/internal/transcription"
	"call-recording-service/pkg/logger"
	"call-recording-service/pkg/utils"

	"github.com/cenkalti/backoff/v4"
	"github.com/hibiken/asynq"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
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

	// The worker often boots alongside Postgres in compose setups; wait for
	// it instead of crash-looping.
	var db *sql.DB
	openDB := func() error {
		d, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			log.Warn("postgres not ready", "err", err)
			return err
		}
		db = d
		return nil
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 8), rootCtx)
	if err := backoff.Retry(openDB, bo); err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := calls.NewPostgresRepo(db)
	if err := repo.Migrate(rootCtx); err != nil {
		log.Error("schema migration failed", "err", err)
		os.Exit(1)
	}

	h := &jobs.Handlers{
		Repo:        repo,
		Prober:      audio.NewProber(),
		Silence:     audio.NewRandomSilenceDetector(),
		Transcriber: transcription.NewStub(cfg.Jobs.TranscribeDelay),
		Log:         log,
	}

	mux := asynq.NewServeMux()
	h.Register(mux)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr()},
		asynq.Config{
			Concurrency: cfg.Jobs.WorkerConcurrency,
			Queues:      map[string]int{jobs.Queue: 1},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error("job failed", "type", task.Type(), "err", err)
			}),
			ShutdownTimeout: 30 * time.Second,
		},
	)

	go func() {
		<-rootCtx.Done()
		log.Info("shutdown initiated")
		srv.Shutdown()
	}()

	log.Info("worker starting", "queue", jobs.Queue, "concurrency", cfg.Jobs.WorkerConcurrency)
	if err := srv.Run(mux); err != nil {
		log.Error("worker failed", "err", err)
		os.Exit(1)
	}
}
