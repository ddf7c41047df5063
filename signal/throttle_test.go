package signal

import (
	"path/filepath"
	"testing"
	"time"
)

func TestThrottleOrderAndRollover(t *testing.T) {
	now := time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC)
	s := NewThrottleState(now)
	lim := Limits{DailyCap: 1, GlobalCap: 1, Cooldown: time.Hour}

	if r := s.Allow("BTC", now, lim); r != ReasonEmitted {
		t.Fatalf("empty state should allow, got %s", r)
	}
	s.Record("BTC", now)

	// daily cap is checked before the global cap and the cooldown
	if r := s.Allow("BTC", now.Add(time.Minute), lim); r != ReasonDailyCap {
		t.Fatalf("expected daily cap, got %s", r)
	}
	if r := s.Allow("ETH", now.Add(time.Minute), lim); r != ReasonGlobalCap {
		t.Fatalf("expected global cap, got %s", r)
	}

	// 45 minutes later it is a new UTC day but the cooldown still runs
	later := now.Add(45 * time.Minute)
	if r := s.Allow("BTC", later, lim); r != ReasonCooldown {
		t.Fatalf("expected cooldown across midnight, got %s", r)
	}
	if s.Total != 0 || s.Today["BTC"] != 0 {
		t.Fatalf("counters not reset: %+v", s)
	}
	if left := s.Remaining("BTC", later, time.Hour); left != 15*time.Minute {
		t.Fatalf("expected 15m left, got %v", left)
	}
	if !ReasonCooldown.Blocked() || ReasonConditionsNotMet.Blocked() {
		t.Fatal("only throttle outcomes count as blocked")
	}
}

func TestStateSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "throttle.json")
	if s, err := LoadState(path); err != nil || s != nil {
		t.Fatalf("missing file should give a nil state, got %v %v", s, err)
	}

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s := NewThrottleState(now)
	s.Record("BTC", now)
	if err := SaveState(path, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	back, err := LoadState(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if back.Total != 1 || back.Today["BTC"] != 1 || !back.LastSignal["BTC"].Equal(now) || !back.ResetDate.Equal(s.ResetDate) {
		t.Fatalf("state not restored: %+v", back)
	}
	if r := back.Allow("BTC", now.Add(10*time.Minute), Limits{DailyCap: 3, GlobalCap: 15, Cooldown: time.Hour}); r != ReasonCooldown {
		t.Fatalf("restored state should keep the cooldown, got %s", r)
	}
}
