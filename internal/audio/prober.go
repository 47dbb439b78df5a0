package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tcolgate/mp3"
)

// ErrUnsupportedFormat marks audio containers the prober cannot inspect.
// Callers treat it as a soft condition: duration 0, no further action.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Prober determines the duration of stored audio files by inspecting
// container metadata. Pure computation, no shared state.
type Prober struct{}

func NewProber() *Prober { return &Prober{} }

// Duration returns the audio duration in seconds, dispatching on the
// file extension. Unrecognized extensions return ErrUnsupportedFormat.
func (p *Prober) Duration(path string) (float64, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return wavDuration(path)
	case ".mp3":
		return mp3Duration(path)
	default:
		return 0, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

// wavDuration inspects a PCM WAV header to compute the clip length.
func wavDuration(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	header := make([]byte, 12)
	if _, err := io.ReadFull(file, header); err != nil {
		return 0, err
	}

	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return 0, errors.New("not a WAV file")
	}

	var sampleRate uint32
	var bitsPerSample uint16
	var channels uint16
	var dataSize uint32

	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(file, chunkHeader[:]); err != nil {
			return 0, err
		}

		chunkID := string(chunkHeader[0:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])

		switch chunkID {
		case "fmt ":
			buf := make([]byte, chunkSize)
			if _, err := io.ReadFull(file, buf); err != nil {
				return 0, err
			}
			if len(buf) < 16 {
				return 0, errors.New("invalid fmt chunk")
			}
			channels = binary.LittleEndian.Uint16(buf[2:4])
			sampleRate = binary.LittleEndian.Uint32(buf[4:8])
			bitsPerSample = binary.LittleEndian.Uint16(buf[14:16])
		case "data":
			dataSize = chunkSize
		default:
			skip := int64(chunkSize)
			if skip%2 == 1 {
				skip++
			}
			if _, err := file.Seek(skip, io.SeekCurrent); err != nil {
				return 0, err
			}
		}

		if chunkID == "data" {
			break
		}
	}

	if sampleRate == 0 || channels == 0 || bitsPerSample == 0 {
		return 0, errors.New("missing audio format information")
	}

	bytesPerSample := (bitsPerSample / 8) * channels
	if bytesPerSample == 0 {
		return 0, errors.New("invalid sample size")
	}
	bytesPerSecond := float64(sampleRate) * float64(bytesPerSample)
	return float64(dataSize) / bytesPerSecond, nil
}

// mp3Duration sums frame durations across the whole file.
func mp3Duration(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	dec := mp3.NewDecoder(file)
	var frame mp3.Frame
	var skipped int
	var total float64

	for {
		if err := dec.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			// Tolerate trailing garbage after at least one valid frame.
			if total > 0 {
				break
			}
			return 0, fmt.Errorf("decoding mp3 frames: %w", err)
		}
		total += frame.Duration().Seconds()
	}
	if total == 0 {
		return 0, errors.New("no mp3 frames found")
	}
	return total, nil
}
