package calls

import "testing"

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		durationDone, transcriptionDone bool
		want                            CallStatus
	}{
		{false, false, CallStatusNew},
		{true, false, CallStatusProcessing},
		{false, true, CallStatusProcessing},
		{true, true, CallStatusReady},
	}
	for _, tc := range cases {
		if got := DeriveStatus(tc.durationDone, tc.transcriptionDone); got != tc.want {
			t.Fatalf("DeriveStatus(%v,%v) = %q, want %q", tc.durationDone, tc.transcriptionDone, got, tc.want)
		}
	}
}

func TestRecordingFilename(t *testing.T) {
	cases := []struct {
		callID, original, want string
	}{
		{"abc", "meeting.WAV", "recabc.wav"},
		{"abc", "voicemail.mp3", "recabc.mp3"},
		{"abc", "noextension", "recabc"},
		{"abc", "many.dots.ogg", "recabc.ogg"},
	}
	for _, tc := range cases {
		if got := RecordingFilename(tc.callID, tc.original); got != tc.want {
			t.Fatalf("RecordingFilename(%q,%q) = %q, want %q", tc.callID, tc.original, got, tc.want)
		}
	}
}

func TestSilencesRoundtrip(t *testing.T) {
	enc := EncodeSilences([]int{3, 6, 9})
	if enc != "3;6;9" {
		t.Fatalf("unexpected encoding %q", enc)
	}
	dec, err := DecodeSilences(enc)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(dec) != 3 || dec[0] != 3 || dec[2] != 9 {
		t.Fatalf("unexpected decode %v", dec)
	}

	if got := EncodeSilences(nil); got != "" {
		t.Fatalf("expected empty encoding, got %q", got)
	}
	if dec, err := DecodeSilences(""); err != nil || dec != nil {
		t.Fatalf("expected nil decode for empty input, got %v err %v", dec, err)
	}
	if _, err := DecodeSilences("1;x;3"); err == nil {
		t.Fatalf("expected error for corrupt sequence")
	}
}
