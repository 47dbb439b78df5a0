package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"call-recording-service/internal/audio"
	"call-recording-service/internal/calls"
	"call-recording-service/internal/transcription"

	"github.com/hibiken/asynq"
)

// DurationProber determines audio duration in seconds from a stored file.
type DurationProber interface {
	Duration(path string) (float64, error)
}

// Handlers executes the background jobs. Each run loads its own entities,
// mutates them inside one repository transaction and reports its result
// through the task's result writer.
type Handlers struct {
	Repo        calls.Repository
	Prober      DurationProber
	Silence     audio.SilenceDetector
	Transcriber transcription.Transcriber
	Log         *slog.Logger
}

func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeExtractDuration, h.HandleExtractDuration)
	mux.HandleFunc(TypeTranscribe, h.HandleTranscribe)
}

// HandleExtractDuration probes the stored file for its duration, synthesizes
// silence markers and persists both, advancing the owning call's status.
//
// Unrecognized formats are a soft condition: the job reports a zero duration
// and leaves the store untouched.
func (h *Handlers) HandleExtractDuration(ctx context.Context, t *asynq.Task) error {
	var p ExtractDurationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("malformed payload: %v: %w", err, asynq.SkipRetry)
	}
	log := h.logger().With("job", TypeExtractDuration, "record_id", p.RecordID)

	seconds, err := h.Prober.Duration(p.FilePath)
	if errors.Is(err, audio.ErrUnsupportedFormat) {
		log.Warn("unsupported audio format, skipping", "file", p.FilePath)
		writeResult(t, "0")
		return nil
	}
	if err != nil {
		return fmt.Errorf("probing %s: %w", p.FilePath, err)
	}

	durationSeconds := int(seconds)
	silences := h.Silence.Detect(durationSeconds)

	status, err := h.Repo.CompleteDurationExtraction(ctx, p.RecordID, durationSeconds, silences)
	if err != nil {
		return fmt.Errorf("completing duration extraction: %w", err)
	}

	log.Info("duration extracted",
		"duration_seconds", durationSeconds,
		"silences", len(silences),
		"call_status", status,
	)
	writeResult(t, strconv.Itoa(durationSeconds))
	return nil
}

// HandleTranscribe runs the transcription engine for a record and persists
// the text, advancing the owning call's status.
func (h *Handlers) HandleTranscribe(ctx context.Context, t *asynq.Task) error {
	var p TranscribePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("malformed payload: %v: %w", err, asynq.SkipRetry)
	}
	log := h.logger().With("job", TypeTranscribe, "record_id", p.RecordID)

	// Fail fast on a missing record instead of after the engine run.
	if _, err := h.Repo.GetRecord(ctx, p.RecordID); err != nil {
		return fmt.Errorf("loading record %s: %w", p.RecordID, err)
	}

	text, err := h.Transcriber.Transcribe(ctx, p.RecordID)
	if err != nil {
		return fmt.Errorf("transcribing record %s: %w", p.RecordID, err)
	}

	status, err := h.Repo.CompleteTranscription(ctx, p.RecordID, text)
	if err != nil {
		return fmt.Errorf("completing transcription: %w", err)
	}

	log.Info("transcription stored", "call_status", status)
	writeResult(t, text)
	return nil
}

func (h *Handlers) logger() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}

// writeResult records the job's return value for later lookup. Tasks built
// outside the worker (tests) have no result writer; that is fine.
func writeResult(t *asynq.Task, result string) {
	if w := t.ResultWriter(); w != nil {
		_, _ = w.Write([]byte(result))
	}
}
