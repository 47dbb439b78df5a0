package jobs

import (
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

var ErrJobNotFound = errors.New("job not found")

// JobStatus is the externally visible view of a dispatched job.
type JobStatus struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	State string `json:"state"`

	// Result holds the job's return value once it completed:
	// duration in seconds for extract_duration, text for transcribe.
	Result string `json:"result,omitempty"`

	// LastError is set when the job failed.
	LastError   string     `json:"last_error,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// StatusReader looks up job state and results by job id through the queue's
// own bookkeeping. Retention is controlled at enqueue time.
type StatusReader struct {
	inspector *asynq.Inspector
}

func NewStatusReader(redisAddr string) *StatusReader {
	return &StatusReader{inspector: asynq.NewInspector(asynq.RedisClientOpt{Addr: redisAddr})}
}

func (r *StatusReader) Close() error { return r.inspector.Close() }

func (r *StatusReader) JobStatus(id string) (JobStatus, error) {
	info, err := r.inspector.GetTaskInfo(Queue, id)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return JobStatus{}, fmt.Errorf("job %s: %w", id, ErrJobNotFound)
		}
		return JobStatus{}, err
	}

	out := JobStatus{
		ID:        info.ID,
		Type:      info.Type,
		State:     info.State.String(),
		Result:    string(info.Result),
		LastError: info.LastErr,
	}
	if !info.CompletedAt.IsZero() {
		t := info.CompletedAt
		out.CompletedAt = &t
	}
	return out, nil
}
