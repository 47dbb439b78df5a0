package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Dispatcher hands units of work to the out-of-process worker pool and
// returns immediately; nothing here waits for job completion.
//
// Failure semantics: an error from Enqueue* means the job was never queued
// (broker unreachable) and must be surfaced to the caller right away.
// Failures during job execution are only observable through persisted
// entity state or the StatusReader.
type Dispatcher struct {
	client *asynq.Client

	// timeout is the hard per-job execution limit enforced by the pool.
	timeout time.Duration
	// retention keeps finished task state queryable for result lookup.
	retention time.Duration
}

func NewDispatcher(redisAddr string, timeout, retention time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &Dispatcher{
		client:    asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr}),
		timeout:   timeout,
		retention: retention,
	}
}

func (d *Dispatcher) Close() error { return d.client.Close() }

// EnqueueExtractDuration queues the duration extraction job for a stored
// recording. Returns the job id for later status lookup.
func (d *Dispatcher) EnqueueExtractDuration(ctx context.Context, filePath, recordID string) (string, error) {
	task, err := NewExtractDurationTask(filePath, recordID)
	if err != nil {
		return "", err
	}
	return d.enqueue(ctx, task)
}

// EnqueueTranscribe queues the transcription job for a record.
func (d *Dispatcher) EnqueueTranscribe(ctx context.Context, recordID string) (string, error) {
	task, err := NewTranscribeTask(recordID)
	if err != nil {
		return "", err
	}
	return d.enqueue(ctx, task)
}

func (d *Dispatcher) enqueue(ctx context.Context, task *asynq.Task) (string, error) {
	info, err := d.client.EnqueueContext(ctx, task,
		asynq.Queue(Queue),
		asynq.TaskID(uuid.NewString()),
		// Jobs are not retried automatically; a failed job is observable
		// through the status reader and the unadvanced entity state.
		asynq.MaxRetry(0),
		asynq.Timeout(d.timeout),
		asynq.Retention(d.retention),
	)
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	return info.ID, nil
}
