package calls

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository useful for tests.
// It is not intended for production use.
type MemoryRepo struct {
	mu      sync.Mutex
	calls   map[string]Call
	records map[string]Record
	clock   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		calls:   make(map[string]Call),
		records: make(map[string]Record),
		clock:   time.Now,
	}
}

func (r *MemoryRepo) CreateCall(ctx context.Context, c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calls[c.ID]; ok {
		return fmt.Errorf("call %s already exists", c.ID)
	}
	c.Recording = nil
	r.calls[c.ID] = c
	return nil
}

func (r *MemoryRepo) GetCall(ctx context.Context, id string) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok {
		return Call{}, ErrNotFound
	}
	return r.withRecording(c), nil
}

func (r *MemoryRepo) FindCallsByPhone(ctx context.Context, number string) ([]Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.calls {
		if c.Caller == number || c.Receiver == number {
			out = append(out, r.withRecording(c))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *MemoryRepo) ListCalls(ctx context.Context, from, to time.Time) ([]Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.calls {
		if !c.CreatedAt.Before(from) && c.CreatedAt.Before(to) {
			out = append(out, r.withRecording(c))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *MemoryRepo) CreateRecord(ctx context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calls[rec.CallID]; !ok {
		return fmt.Errorf("call %s: %w", rec.CallID, ErrNotFound)
	}
	r.records[rec.ID] = rec
	return nil
}

func (r *MemoryRepo) GetRecord(ctx context.Context, id string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (r *MemoryRepo) CompleteDurationExtraction(ctx context.Context, recordID string, durationSeconds int, silences []int) (CallStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[recordID]
	if !ok {
		return "", fmt.Errorf("record %s: %w", recordID, ErrNotFound)
	}
	c, ok := r.calls[rec.CallID]
	if !ok {
		return "", fmt.Errorf("call %s: %w", rec.CallID, ErrNotFound)
	}

	now := r.clock().UTC()
	rec.DurationSeconds = durationSeconds
	rec.Silences = append([]int(nil), silences...)
	rec.DurationReady = true
	rec.UpdatedAt = now
	r.records[recordID] = rec

	c.Status = DeriveStatus(true, rec.TranscriptionReady)
	c.UpdatedAt = now
	r.calls[c.ID] = c
	return c.Status, nil
}

func (r *MemoryRepo) CompleteTranscription(ctx context.Context, recordID string, transcription string) (CallStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[recordID]
	if !ok {
		return "", fmt.Errorf("record %s: %w", recordID, ErrNotFound)
	}
	c, ok := r.calls[rec.CallID]
	if !ok {
		return "", fmt.Errorf("call %s: %w", rec.CallID, ErrNotFound)
	}

	now := r.clock().UTC()
	rec.Transcription = transcription
	rec.TranscriptionReady = true
	rec.UpdatedAt = now
	r.records[recordID] = rec

	c.Status = DeriveStatus(rec.DurationReady, true)
	c.UpdatedAt = now
	r.calls[c.ID] = c
	return c.Status, nil
}

// withRecording attaches a copy of the call's record, if one exists.
// Callers must hold r.mu.
func (r *MemoryRepo) withRecording(c Call) Call {
	for _, rec := range r.records {
		if rec.CallID == c.ID {
			cp := rec
			cp.Silences = append([]int(nil), rec.Silences...)
			c.Recording = &cp
			break
		}
	}
	return c
}

func sortNewestFirst(cs []Call) {
	sort.Slice(cs, func(i, j int) bool {
		return cs[i].CreatedAt.After(cs[j].CreatedAt)
	})
}
