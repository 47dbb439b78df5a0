package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"call-recording-service/internal/calls"
)

func TestExporter_CallsWorkbook(t *testing.T) {
	repo := calls.NewMemoryRepo()
	svc := calls.NewService(repo)

	c, err := svc.CreateCall(context.Background(), calls.CreateCallRequest{
		Caller:    "+15550001111",
		Receiver:  "+15550002222",
		StartedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create call: %v", err)
	}
	rec, err := svc.AttachRecording(context.Background(), c.ID, "a.wav", "", 0)
	if err != nil {
		t.Fatalf("attach recording: %v", err)
	}
	if _, err := repo.CompleteDurationExtraction(context.Background(), rec.ID, 10, []int{2, 5, 7, 9}); err != nil {
		t.Fatalf("complete duration: %v", err)
	}

	exp := NewExporter(repo)
	now := time.Now().UTC()
	f, err := exp.CallsWorkbook(context.Background(), now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	if rows[0][0] != "Call ID" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][0] != c.ID {
		t.Fatalf("expected call id in first data row, got %v", rows[1])
	}
	if rows[1][5] != "10" {
		t.Fatalf("expected duration column 10, got %q", rows[1][5])
	}
	if rows[1][7] != "2;5;7;9" {
		t.Fatalf("expected silence markers, got %q", rows[1][7])
	}
}

func TestExporter_RejectsInvalidRange(t *testing.T) {
	exp := NewExporter(calls.NewMemoryRepo())
	now := time.Now()
	if _, err := exp.CallsWorkbook(context.Background(), now, now); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}
