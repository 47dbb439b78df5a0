package transcription

import (
	"context"
	"time"
)

// Transcriber converts a stored recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, recordID string) (string, error)
}

// StubText is the placeholder output of the stub engine.
const StubText = "Detected speech fragment: Hello world!"

// Stub stands in for a real speech-to-text engine. It waits for a fixed
// simulated delay where a real engine would run, then returns StubText.
type Stub struct {
	Delay time.Duration
}

func NewStub(delay time.Duration) *Stub {
	return &Stub{Delay: delay}
}

func (s *Stub) Transcribe(ctx context.Context, recordID string) (string, error) {
	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
	}
	return StubText, nil
}
