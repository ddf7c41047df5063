package risk

import (
	"math"
	"testing"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestLevelsLong(t *testing.T) {
	tp, sl := Levels(types.Long, 100, 0.3, 0.5)
	if !approx(tp, 100.3) || !approx(sl, 99.5) {
		t.Fatalf("unexpected long levels tp=%v sl=%v", tp, sl)
	}
	if !(tp > 100 && 100 > sl) {
		t.Fatalf("long levels must satisfy tp > entry > sl")
	}
}

func TestLevelsShort(t *testing.T) {
	tp, sl := Levels(types.Short, 200, 1, 2)
	if !approx(tp, 198) || !approx(sl, 204) {
		t.Fatalf("unexpected short levels tp=%v sl=%v", tp, sl)
	}
	if !(tp < 200 && 200 < sl) {
		t.Fatalf("short levels must satisfy tp < entry < sl")
	}
}

func TestPnLPercentByDirection(t *testing.T) {
	if got := PnLPercent(types.Long, 100, 101); !approx(got, 1) {
		t.Fatalf("long pnl: got %v", got)
	}
	if got := PnLPercent(types.Short, 100, 101); !approx(got, -1) {
		t.Fatalf("short pnl: got %v", got)
	}
	if got := PnLPercent(types.Long, 0, 5); got != 0 {
		t.Fatalf("zero entry must give 0, got %v", got)
	}
}

func TestHitChecks(t *testing.T) {
	if !HitTakeProfit(types.Long, 101, 99, 101) || HitTakeProfit(types.Long, 100.9, 99, 101) {
		t.Fatal("long TP check wrong")
	}
	if !HitStopLoss(types.Long, 101, 99, 99) || HitStopLoss(types.Long, 101, 99.1, 99) {
		t.Fatal("long SL check wrong")
	}
	if !HitTakeProfit(types.Short, 101, 99, 99) || !HitStopLoss(types.Short, 101, 99, 101) {
		t.Fatal("short checks wrong")
	}
}

func TestValidatePercents(t *testing.T) {
	if err := ValidatePercents(0.3, 0.5); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	if err := ValidatePercents(0, 0.5); err == nil {
		t.Fatal("expected error for zero TP")
	}
	if err := ValidatePercents(0.3, 100); err == nil {
		t.Fatal("expected error for 100% SL")
	}
}
