package calls

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service provides call and recording operations on top of a Repository.
//
// Status invariant reminder: nothing in this service sets a call's status
// directly; only the repository's Complete* methods advance it.
type Service struct {
	repo Repository
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

type CreateCallRequest struct {
	Caller    string    `json:"caller"`
	Receiver  string    `json:"receiver"`
	StartedAt time.Time `json:"started_at"`
}

func (s *Service) CreateCall(ctx context.Context, req CreateCallRequest) (Call, error) {
	if strings.TrimSpace(req.Caller) == "" || strings.TrimSpace(req.Receiver) == "" {
		return Call{}, ErrInvalidArgument
	}
	if req.StartedAt.IsZero() {
		return Call{}, ErrInvalidArgument
	}

	now := s.clock().UTC()
	c := Call{
		ID:        uuid.NewString(),
		Caller:    strings.TrimSpace(req.Caller),
		Receiver:  strings.TrimSpace(req.Receiver),
		StartedAt: req.StartedAt,
		Status:    CallStatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateCall(ctx, c); err != nil {
		return Call{}, err
	}
	return c, nil
}

func (s *Service) GetCall(ctx context.Context, id string) (Call, error) {
	if id == "" {
		return Call{}, ErrInvalidArgument
	}
	return s.repo.GetCall(ctx, id)
}

func (s *Service) FindCallsByPhone(ctx context.Context, number string) ([]Call, error) {
	if strings.TrimSpace(number) == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.FindCallsByPhone(ctx, strings.TrimSpace(number))
}

func (s *Service) GetRecord(ctx context.Context, id string) (Record, error) {
	if id == "" {
		return Record{}, ErrInvalidArgument
	}
	return s.repo.GetRecord(ctx, id)
}

// AttachRecording creates the Record row for an uploaded file. Duration,
// transcription and silences start at their zero values; the background
// jobs fill them in later.
func (s *Service) AttachRecording(ctx context.Context, callID, originalFilename, checksum string, sizeBytes int64) (Record, error) {
	if callID == "" || originalFilename == "" {
		return Record{}, ErrInvalidArgument
	}
	// The call must exist; a record's lifetime is bounded by its call's.
	if _, err := s.repo.GetCall(ctx, callID); err != nil {
		return Record{}, err
	}

	now := s.clock().UTC()
	rec := Record{
		ID:        uuid.NewString(),
		CallID:    callID,
		Filename:  RecordingFilename(callID, originalFilename),
		Checksum:  checksum,
		SizeBytes: sizeBytes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateRecord(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}
