package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type names. These are part of the queue wire format; keep stable.
const (
	TypeExtractDuration = "record:extract_duration"
	TypeTranscribe      = "record:transcribe"
)

// Queue is the single queue all recording jobs go through.
const Queue = "recordings"

// ExtractDurationPayload is the input to the duration extraction job.
type ExtractDurationPayload struct {
	FilePath string `json:"file_path"`
	RecordID string `json:"record_id"`
}

// TranscribePayload is the input to the transcription job.
type TranscribePayload struct {
	RecordID string `json:"record_id"`
}

func NewExtractDurationTask(filePath, recordID string) (*asynq.Task, error) {
	b, err := json.Marshal(ExtractDurationPayload{FilePath: filePath, RecordID: recordID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeExtractDuration, b), nil
}

func NewTranscribeTask(recordID string) (*asynq.Task, error) {
	b, err := json.Marshal(TranscribePayload{RecordID: recordID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeTranscribe, b), nil
}
