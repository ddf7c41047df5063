package signal

import (
	"sort"
	"time"
)

// Reason explains the outcome of a live check.
type Reason string

const (
	ReasonEmitted          Reason = "emitted"
	ReasonNoStrategy       Reason = "no_strategy"
	ReasonDisabled         Reason = "disabled"
	ReasonInsufficientData Reason = "insufficient_data"
	ReasonDailyCap         Reason = "daily_cap"
	ReasonGlobalCap        Reason = "global_cap"
	ReasonCooldown         Reason = "cooldown"
	ReasonConditionsNotMet Reason = "conditions_not_met"
)

// Blocked reports whether r is a throttle outcome.
func (r Reason) Blocked() bool {
	return r == ReasonDailyCap || r == ReasonGlobalCap || r == ReasonCooldown
}

// ThrottleState is the rate-limiting memory of a Checker: when each key
// last signalled and how many signals each key and the whole engine have
// issued since ResetDate (a UTC midnight). It is not safe for concurrent
// use on its own; the Checker guards it.
type ThrottleState struct {
	LastSignal map[string]time.Time `json:"last_signal"`
	Today      map[string]int       `json:"today"`
	Total      int                  `json:"total"`
	ResetDate  time.Time            `json:"reset_date"`
}

// NewThrottleState starts an empty state for the UTC day containing now.
func NewThrottleState(now time.Time) *ThrottleState {
	return &ThrottleState{
		LastSignal: make(map[string]time.Time),
		Today:      make(map[string]int),
		ResetDate:  utcDay(now),
	}
}

func utcDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Rollover clears the daily counters once now is on a later UTC day than
// ResetDate. Last signal times survive so a cooldown spans midnight.
func (s *ThrottleState) Rollover(now time.Time) bool {
	day := utcDay(now)
	if !day.After(s.ResetDate) {
		return false
	}
	s.Today = make(map[string]int)
	s.Total = 0
	s.ResetDate = day
	return true
}

// Limits are the throttle parameters for one check.
type Limits struct {
	DailyCap  int
	GlobalCap int
	Cooldown  time.Duration
}

// Allow checks, in order, the key's daily cap, the global daily cap and
// the cooldown since the key's last signal.
func (s *ThrottleState) Allow(key string, now time.Time, lim Limits) Reason {
	s.Rollover(now)
	if lim.DailyCap > 0 && s.Today[key] >= lim.DailyCap {
		return ReasonDailyCap
	}
	if lim.GlobalCap > 0 && s.Total >= lim.GlobalCap {
		return ReasonGlobalCap
	}
	if last, ok := s.LastSignal[key]; ok && now.Sub(last) < lim.Cooldown {
		return ReasonCooldown
	}
	return ReasonEmitted
}

// Record counts a signal for key at now.
func (s *ThrottleState) Record(key string, now time.Time) {
	s.Rollover(now)
	s.LastSignal[key] = now
	s.Today[key]++
	s.Total++
}

// Remaining is the cooldown left for key at now, zero if none.
func (s *ThrottleState) Remaining(key string, now time.Time, cooldown time.Duration) time.Duration {
	last, ok := s.LastSignal[key]
	if !ok {
		return 0
	}
	if left := cooldown - now.Sub(last); left > 0 {
		return left
	}
	return 0
}

// Clone returns a deep copy.
func (s *ThrottleState) Clone() *ThrottleState {
	c := &ThrottleState{
		LastSignal: make(map[string]time.Time, len(s.LastSignal)),
		Today:      make(map[string]int, len(s.Today)),
		Total:      s.Total,
		ResetDate:  s.ResetDate,
	}
	for k, v := range s.LastSignal {
		c.LastSignal[k] = v
	}
	for k, v := range s.Today {
		c.Today[k] = v
	}
	return c
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
