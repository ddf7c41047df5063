package strategy

import (
	"errors"
	"strings"
	"testing"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/indicator"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/testutils"
)

func TestRuleCompileRejectsMalformed(t *testing.T) {
	bad := []Rule{
		{Indicator: "vortex", Operator: ">", Value: 1},
		{Indicator: "rsi", Operator: "!=", Value: 30},
		{Indicator: "rsi", Operator: "<", Value: "thirty"},
		{Indicator: "rsi", Period: -3, Operator: "<", Value: 30},
		{Indicator: "macd_cross", Operator: "==", Value: "sideways"},
		{Indicator: "volume_spike", Value: "yes"},
		{Indicator: "stoch_falling", Value: 1},
	}
	for _, r := range bad {
		if _, err := r.Compile(); !errors.Is(err, ErrInvalidDefinition) {
			t.Fatalf("rule %+v: expected ErrInvalidDefinition, got %v", r, err)
		}
	}
}

func TestRuleCompileDefaults(t *testing.T) {
	c, err := Rule{Indicator: "RSI", Operator: "<", Value: 30}.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if got := c.String(); got != "RSI(14) < 30" {
		t.Fatalf("unexpected description %q", got)
	}
	c, err = Rule{Indicator: "price_vs_ema", Operator: ">", Value: 0}.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !strings.Contains(c.String(), "EMA(50)") {
		t.Fatalf("price_vs_ema should default to period 50, got %q", c.String())
	}
}

/*
RSI rule on the dip series: true exactly on the bars whose 14-bar window
contains the drop at bar 80.
*/
func TestRuleEvaluateRSI(t *testing.T) {
	f := indicator.NewFrame(testutils.RSIDip())
	c, err := Rule{Indicator: "rsi", Period: 14, Operator: "<", Value: 30}.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	for i := 0; i < f.Len(); i++ {
		ok, err := c.Evaluate(f, i)
		if err != nil {
			t.Fatalf("bar %d: %v", i, err)
		}
		want := i >= 80 && i <= 93
		if ok != want {
			t.Fatalf("bar %d: got %v want %v (rsi=%.2f)", i, ok, want, f.RSI(14)[i])
		}
	}
	if _, err := c.Evaluate(f, f.Len()); err == nil {
		t.Fatal("expected error for out-of-range bar")
	}
}

func TestPriceVsEMAUsesLivePrice(t *testing.T) {
	candles := testutils.Flat(60, 100)
	c, _ := Rule{Indicator: "price_vs_ema", Period: 21, Operator: ">", Value: 0}.Compile()

	ok, _ := c.Evaluate(indicator.NewFrame(candles), 59)
	if ok {
		t.Fatal("flat series: price equals EMA, rule must be false")
	}
	ok, _ = c.Evaluate(indicator.NewLiveFrame(candles, 101), 59)
	if !ok {
		t.Fatal("live price above EMA should satisfy the rule")
	}
}

func TestExplainReportsEveryCondition(t *testing.T) {
	f := indicator.NewFrame(testutils.Flat(60, 100))
	cond, err := CompileRules([]Rule{
		{Indicator: "rsi", Operator: "<", Value: 30},
		{Indicator: "stoch_k", Operator: "<", Value: 90},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	out := Explain(cond, f, 59)
	if len(out) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(out))
	}
	// flat series: RSI = 0 (no gains), stoch = 0 (close at range low)
	if !out[0].Met || !out[1].Met {
		t.Fatalf("expected both met, got %+v", out)
	}
	if !strings.HasPrefix(out[0].Description, "RSI(14)=") {
		t.Fatalf("expected value-bearing description, got %q", out[0].Description)
	}
}

func TestCompileRulesEmpty(t *testing.T) {
	if _, err := CompileRules(nil); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition, got %v", err)
	}
}
