package audio

import (
	"math/rand"
	"slices"
)

// SilenceDetector synthesizes silence markers for a recording.
//
// Contract: the returned timestamps are distinct, strictly ascending and lie
// in [1, maxSecond]. Detectors aim for 4 to 10 markers but may return fewer
// when the recording is too short to hold that many distinct seconds. A real
// signal-analysis implementation must satisfy the same contract.
type SilenceDetector interface {
	Detect(maxSecond int) []int
}

// RandomSilenceDetector is the placeholder implementation: uniformly random
// markers standing in for real silence detection.
type RandomSilenceDetector struct{}

func NewRandomSilenceDetector() *RandomSilenceDetector { return &RandomSilenceDetector{} }

func (d *RandomSilenceDetector) Detect(maxSecond int) []int {
	if maxSecond < 1 {
		return nil
	}

	count := 4 + rand.Intn(7)
	if count > maxSecond {
		count = maxSecond
	}

	seen := make(map[int]struct{}, count)
	out := make([]int, 0, count)
	for len(out) < count {
		v := 1 + rand.Intn(maxSecond)
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
