package transcription

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStub_ReturnsPlaceholderText(t *testing.T) {
	s := NewStub(0)
	got, err := s.Transcribe(context.Background(), "rec1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got != StubText {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestStub_HonorsContextCancellation(t *testing.T) {
	s := NewStub(time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.Transcribe(ctx, "rec1")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
