package download

import (
	"strings"
	"testing"
	"time"
)

func TestSigner_Roundtrip(t *testing.T) {
	s, err := NewSigner("secret", time.Hour)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token, expiresAt, err := s.Sign(now, "rec-1", "recabc.wav", 0)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !expiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expected default ttl, got expiry %v", expiresAt)
	}

	claims, err := s.Verify(token, now.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.RecordID != "rec-1" || claims.Filename != "recabc.wav" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestSigner_RejectsExpired(t *testing.T) {
	s, _ := NewSigner("secret", time.Hour)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token, _, err := s.Sign(now, "rec-1", "recabc.wav", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := s.Verify(token, now.Add(2*time.Hour)); err == nil {
		t.Fatalf("expected expiry rejection")
	}
}

func TestSigner_RejectsTampering(t *testing.T) {
	s, _ := NewSigner("secret", time.Hour)
	now := time.Now()
	token, _, err := s.Sign(now, "rec-1", "recabc.wav", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := s.Verify(tampered, now); err == nil {
		t.Fatalf("expected signature rejection")
	}

	other, _ := NewSigner("different-secret", time.Hour)
	if _, err := other.Verify(token, now); err == nil {
		t.Fatalf("expected wrong-secret rejection")
	}
}

func TestSigner_ClampsTTL(t *testing.T) {
	s, _ := NewSigner("secret", time.Hour)
	now := time.Now()
	_, expiresAt, err := s.Sign(now, "rec-1", "recabc.wav", 100*24*time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if expiresAt.After(now.Add(24*time.Hour + time.Second)) {
		t.Fatalf("expected ttl clamp, got expiry %v", expiresAt)
	}
}

func TestURL(t *testing.T) {
	got := URL("http://localhost:8080", "tok")
	if !strings.HasPrefix(got, "http://localhost:8080/download/record?token=") {
		t.Fatalf("unexpected url %q", got)
	}
}
