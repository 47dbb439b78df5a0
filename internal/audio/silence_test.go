package audio

import "testing"

func TestRandomSilenceDetector_Contract(t *testing.T) {
	d := NewRandomSilenceDetector()

	// Randomized output; check the contract, not specific values.
	for i := 0; i < 100; i++ {
		got := d.Detect(60)
		if len(got) < 4 || len(got) > 10 {
			t.Fatalf("expected 4..10 markers, got %d", len(got))
		}
		for j, v := range got {
			if v < 1 || v > 60 {
				t.Fatalf("marker %d out of [1,60]", v)
			}
			if j > 0 && got[j] <= got[j-1] {
				t.Fatalf("markers not strictly ascending: %v", got)
			}
		}
	}
}

func TestRandomSilenceDetector_ShortRecording(t *testing.T) {
	d := NewRandomSilenceDetector()

	got := d.Detect(2)
	if len(got) > 2 {
		t.Fatalf("expected at most 2 markers for a 2s recording, got %v", got)
	}
	for _, v := range got {
		if v < 1 || v > 2 {
			t.Fatalf("marker %d out of [1,2]", v)
		}
	}

	if got := d.Detect(0); got != nil {
		t.Fatalf("expected nil for zero duration, got %v", got)
	}
}
