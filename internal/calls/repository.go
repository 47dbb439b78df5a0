package calls

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Repository is the persistence contract for calls and recordings.
//
// CompleteDurationExtraction and CompleteTranscription are the only write
// paths that may advance a call's status, and each must apply its record
// mutation and the status change in one transaction (no partial writes).
type Repository interface {
	CreateCall(ctx context.Context, c Call) error
	// GetCall returns the call with its recording attached, if any.
	GetCall(ctx context.Context, id string) (Call, error)
	// FindCallsByPhone returns calls where the caller or receiver matches.
	FindCallsByPhone(ctx context.Context, number string) ([]Call, error)
	// ListCalls returns calls created within [from, to), newest first.
	ListCalls(ctx context.Context, from, to time.Time) ([]Call, error)

	CreateRecord(ctx context.Context, r Record) error
	GetRecord(ctx context.Context, id string) (Record, error)

	// CompleteDurationExtraction stores the computed duration and silence
	// sequence, marks the duration job done and advances the owning call's
	// status. Returns the resulting status.
	CompleteDurationExtraction(ctx context.Context, recordID string, durationSeconds int, silences []int) (CallStatus, error)

	// CompleteTranscription stores the transcription text, marks the
	// transcription job done and advances the owning call's status.
	// Returns the resulting status.
	CompleteTranscription(ctx context.Context, recordID string, transcription string) (CallStatus, error)
}
