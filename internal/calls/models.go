package calls

import (
	"strconv"
	"strings"
	"time"
)

// Call represents one phone call.
//
// Status invariant: status only advances new -> processing -> ready, is driven
// exclusively by job completions, and is never set directly by a client request.
type Call struct {
	ID       string    `json:"id" db:"id"`
	Caller   string    `json:"caller" db:"caller"`
	Receiver string    `json:"receiver" db:"receiver"`

	StartedAt time.Time  `json:"started_at" db:"started_at"`
	Status    CallStatus `json:"status" db:"status"`

	// Recording is the optional owned Record (at most one per Call).
	Recording *Record `json:"recording,omitempty"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CallStatus string

const (
	CallStatusNew        CallStatus = "new"
	CallStatusProcessing CallStatus = "processing"
	CallStatusReady      CallStatus = "ready"
)

// Record represents one uploaded audio recording.
//
// Invariant: CallID is immutable after creation. The record is mutated in
// place by the two background jobs, never replaced.
type Record struct {
	ID     string `json:"id" db:"id"`
	CallID string `json:"call_id" db:"call_id"`

	// Filename is derived from the owning call's id plus the original extension.
	Filename string `json:"filename" db:"filename"`

	// DurationSeconds stays 0 until the duration job completes.
	DurationSeconds int `json:"duration" db:"duration_seconds"`

	// Transcription stays empty until the transcription job completes.
	Transcription string `json:"transcription" db:"transcription"`

	// Silences are detected silence timestamps in seconds, ascending.
	Silences []int `json:"silences" db:"silences"`

	// Checksum is the blake3 hex digest of the stored file.
	Checksum  string `json:"checksum,omitempty" db:"checksum"`
	SizeBytes int64  `json:"size_bytes" db:"size_bytes"`

	// Completion flags for the two background jobs. Call status is derived
	// from their conjunction so that job completion order cannot leave a
	// fully processed call stuck in "processing".
	DurationReady      bool `json:"duration_ready" db:"duration_ready"`
	TranscriptionReady bool `json:"transcription_ready" db:"transcription_ready"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DeriveStatus maps the two job completion flags onto a call status.
// Both done -> ready, at least one done -> processing, neither -> new.
func DeriveStatus(durationDone, transcriptionDone bool) CallStatus {
	switch {
	case durationDone && transcriptionDone:
		return CallStatusReady
	case durationDone || transcriptionDone:
		return CallStatusProcessing
	default:
		return CallStatusNew
	}
}

// RecordingFilename builds the stored filename for a call's recording:
// "rec<call_id><ext>" where ext comes from the uploaded file.
func RecordingFilename(callID, originalName string) string {
	ext := ""
	if i := strings.LastIndex(originalName, "."); i >= 0 {
		ext = strings.ToLower(originalName[i:])
	}
	return "rec" + callID + ext
}

// EncodeSilences renders silence timestamps for storage ("3;6;9").
func EncodeSilences(silences []int) string {
	if len(silences) == 0 {
		return ""
	}
	parts := make([]string, len(silences))
	for i, s := range silences {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ";")
}

// DecodeSilences parses a stored silence sequence. Empty input yields nil.
func DecodeSilences(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ";")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
