package calls

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestCall(t *testing.T, svc *Service) Call {
	t.Helper()
	c, err := svc.CreateCall(context.Background(), CreateCallRequest{
		Caller:    "+15550001111",
		Receiver:  "+15550002222",
		StartedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create call: %v", err)
	}
	return c
}

func TestService_CreateCall(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	c := newTestCall(t, svc)
	if c.ID == "" {
		t.Fatalf("expected id assigned")
	}
	if c.Status != CallStatusNew {
		t.Fatalf("expected status new, got %q", c.Status)
	}

	got, err := svc.GetCall(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("get call: %v", err)
	}
	if got.Recording != nil {
		t.Fatalf("expected no recording yet")
	}
}

func TestService_CreateCallValidation(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	_, err := svc.CreateCall(context.Background(), CreateCallRequest{Receiver: "+1", StartedAt: time.Now()})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	_, err = svc.CreateCall(context.Background(), CreateCallRequest{Caller: "+1", Receiver: "+2"})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for zero started_at, got %v", err)
	}
}

func TestService_FindCallsByPhone(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	c := newTestCall(t, svc)

	for _, number := range []string{c.Caller, c.Receiver} {
		got, err := svc.FindCallsByPhone(context.Background(), number)
		if err != nil {
			t.Fatalf("find by phone: %v", err)
		}
		if len(got) != 1 || got[0].ID != c.ID {
			t.Fatalf("expected the call for %q, got %v", number, got)
		}
	}

	got, err := svc.FindCallsByPhone(context.Background(), "+19999999999")
	if err != nil {
		t.Fatalf("find by phone: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no calls, got %d", len(got))
	}
}

func TestService_AttachRecording(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	c := newTestCall(t, svc)
	rec, err := svc.AttachRecording(context.Background(), c.ID, "upload.wav", "deadbeef", 1024)
	if err != nil {
		t.Fatalf("attach recording: %v", err)
	}
	if rec.Filename != "rec"+c.ID+".wav" {
		t.Fatalf("unexpected filename %q", rec.Filename)
	}
	if rec.DurationSeconds != 0 || rec.Transcription != "" || len(rec.Silences) != 0 {
		t.Fatalf("expected zero-value processing fields")
	}

	got, err := svc.GetCall(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("get call: %v", err)
	}
	if got.Recording == nil || got.Recording.ID != rec.ID {
		t.Fatalf("expected recording attached to call")
	}
}

func TestService_AttachRecordingMissingCall(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	_, err := svc.AttachRecording(context.Background(), "nope", "upload.wav", "", 0)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRepo_StatusMergeRule(t *testing.T) {
	// The two jobs may finish in either order; the final status must be
	// ready either way, with processing as the intermediate state.
	type step struct {
		duration bool // true = duration job, false = transcription job
		want     CallStatus
	}
	orders := map[string][]step{
		"duration first":      {{true, CallStatusProcessing}, {false, CallStatusReady}},
		"transcription first": {{false, CallStatusProcessing}, {true, CallStatusReady}},
	}

	for name, steps := range orders {
		t.Run(name, func(t *testing.T) {
			repo := NewMemoryRepo()
			svc := NewService(repo)
			c := newTestCall(t, svc)
			rec, err := svc.AttachRecording(context.Background(), c.ID, "a.wav", "", 0)
			if err != nil {
				t.Fatalf("attach recording: %v", err)
			}

			for _, s := range steps {
				var status CallStatus
				if s.duration {
					status, err = repo.CompleteDurationExtraction(context.Background(), rec.ID, 10, []int{2, 5, 7, 9})
				} else {
					status, err = repo.CompleteTranscription(context.Background(), rec.ID, "hello")
				}
				if err != nil {
					t.Fatalf("complete: %v", err)
				}
				if status != s.want {
					t.Fatalf("expected status %q, got %q", s.want, status)
				}
			}

			got, err := svc.GetCall(context.Background(), c.ID)
			if err != nil {
				t.Fatalf("get call: %v", err)
			}
			if got.Status != CallStatusReady {
				t.Fatalf("expected final status ready, got %q", got.Status)
			}
			if got.Recording.DurationSeconds != 10 {
				t.Fatalf("expected duration persisted")
			}
			if got.Recording.Transcription != "hello" {
				t.Fatalf("expected transcription persisted")
			}
			if len(got.Recording.Silences) != 4 {
				t.Fatalf("expected silences persisted, got %v", got.Recording.Silences)
			}
		})
	}
}

func TestRepo_CompleteOnMissingRecord(t *testing.T) {
	repo := NewMemoryRepo()
	if _, err := repo.CompleteDurationExtraction(context.Background(), "nope", 10, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := repo.CompleteTranscription(context.Background(), "nope", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
