package types

import (
	"errors"
	"testing"
	"time"
)

func TestValidateSeries(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ok := []Candle{{Timestamp: base}, {Timestamp: base.Add(time.Hour)}, {Timestamp: base.Add(3 * time.Hour)}}
	if err := ValidateSeries(ok); err != nil {
		t.Fatalf("gapped ascending series should be valid, got %v", err)
	}

	dup := []Candle{{Timestamp: base}, {Timestamp: base}}
	if err := ValidateSeries(dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	unsorted := []Candle{{Timestamp: base.Add(time.Hour)}, {Timestamp: base}}
	if err := ValidateSeries(unsorted); !errors.Is(err, ErrUnsorted) {
		t.Fatalf("expected ErrUnsorted, got %v", err)
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection("long"); err != nil || d != Long {
		t.Fatalf("expected LONG, got %v %v", d, err)
	}
	if d, err := ParseDirection("SELL"); err != nil || d != Short {
		t.Fatalf("expected SHORT, got %v %v", d, err)
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Fatal("expected error for unknown direction")
	}
}

func TestSignalExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := Signal{IssuedAt: now, ExpiresAt: now.Add(30 * time.Minute)}
	if s.Expired(now.Add(29 * time.Minute)) {
		t.Fatal("signal should still be valid after 29 minutes")
	}
	if !s.Expired(now.Add(30 * time.Minute)) {
		t.Fatal("signal should expire at expires_at")
	}
}
