package strategy

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/indicator"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/risk"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

// Category groups strategies by their primary indicator family.
type Category string

const (
	CategoryRSI        Category = "RSI"
	CategoryMACD       Category = "MACD"
	CategoryStochastic Category = "Stochastic"
	CategoryBollinger  Category = "Bollinger"
	CategoryEMA        Category = "EMA"
	CategoryVolume     Category = "Volume"
	CategoryPattern    Category = "Pattern"
	CategoryCombined   Category = "Combined"
	CategoryOscillator Category = "Oscillator"
	CategoryLive       Category = "Live"
)

// Default risk parameters, in percent.
const (
	DefaultTakeProfitPct = 0.3
	DefaultStopLossPct   = 0.5
)

// Strategy is a named entry condition with its risk parameters. It must not
// be modified after registration.
type Strategy struct {
	ID            string
	Name          string
	Category      Category
	Direction     types.Direction
	Condition     Condition
	TakeProfitPct float64
	StopLossPct   float64
	Params        map[string]float64
	Description   string
}

// Validate checks the fields that registration depends on.
func (s *Strategy) Validate() error {
	if s.ID == "" {
		return invalidf("empty id")
	}
	if !s.Direction.Valid() {
		return invalidf("%s: direction %q", s.ID, s.Direction)
	}
	if s.Condition == nil {
		return invalidf("%s: nil condition", s.ID)
	}
	if err := risk.ValidatePercents(s.TakeProfitPct, s.StopLossPct); err != nil {
		return errors.Wrapf(ErrInvalidDefinition, "%s: %v", s.ID, err)
	}
	return nil
}

// Evaluate runs the condition at bar i. Errors and panics raised by the
// condition are returned as *EvalError so one broken strategy cannot take
// down a batch.
func (s *Strategy) Evaluate(f *indicator.Frame, i int) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = &EvalError{StrategyID: s.ID, Index: i, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	ok, err = s.Condition.Evaluate(f, i)
	if err != nil {
		return false, &EvalError{StrategyID: s.ID, Index: i, Err: err}
	}
	return ok, nil
}

// WithRisk returns a copy of s using the given take-profit / stop-loss.
func (s *Strategy) WithRisk(tpPct, slPct float64) *Strategy {
	c := *s
	c.TakeProfitPct = tpPct
	c.StopLossPct = slPct
	return &c
}

func (s *Strategy) String() string {
	return fmt.Sprintf("%s [%s %s] %s", s.ID, s.Category, s.Direction, s.Name)
}
