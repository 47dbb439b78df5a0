package jobs

import (
	"encoding/json"
	"testing"
)

func TestNewExtractDurationTask(t *testing.T) {
	task, err := NewExtractDurationTask("/recordings/recabc.wav", "rec-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if task.Type() != TypeExtractDuration {
		t.Fatalf("unexpected type %q", task.Type())
	}
	var p ExtractDurationPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		t.Fatalf("payload decode: %v", err)
	}
	if p.FilePath != "/recordings/recabc.wav" || p.RecordID != "rec-1" {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestNewTranscribeTask(t *testing.T) {
	task, err := NewTranscribeTask("rec-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if task.Type() != TypeTranscribe {
		t.Fatalf("unexpected type %q", task.Type())
	}
	var p TranscribePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		t.Fatalf("payload decode: %v", err)
	}
	if p.RecordID != "rec-1" {
		t.Fatalf("unexpected payload %+v", p)
	}
}
