package strategy

import (
	"fmt"
	"strings"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/indicator"
)

// Rule is the declarative form of a single condition, as found in strategy
// books: {indicator, period, operator, value}.
type Rule struct {
	Indicator  string      `yaml:"indicator" json:"indicator"`
	Period     int         `yaml:"period,omitempty" json:"period,omitempty"`
	Operator   string      `yaml:"operator,omitempty" json:"operator,omitempty"`
	Value      interface{} `yaml:"value,omitempty" json:"value,omitempty"`
	Multiplier float64     `yaml:"multiplier,omitempty" json:"multiplier,omitempty"`
}

type operator func(a, b float64) bool

var operators = map[string]operator{
	">":  func(a, b float64) bool { return a > b },
	"<":  func(a, b float64) bool { return a < b },
	">=": func(a, b float64) bool { return a >= b },
	"<=": func(a, b float64) bool { return a <= b },
	"==": func(a, b float64) bool { return a == b },
}

// numeric indicators: name -> default period and series accessor
type numericSource struct {
	defaultPeriod int
	label         string
	value         func(f *indicator.Frame, period, i int) float64
}

var numericSources = map[string]numericSource{
	"rsi": {14, "RSI", func(f *indicator.Frame, p, i int) float64 { return f.RSI(p)[i] }},
	"stoch_k": {14, "Stoch", func(f *indicator.Frame, p, i int) float64 { return f.StochK(p)[i] }},
	"stoch_d": {14, "StochD", func(f *indicator.Frame, p, i int) float64 { return f.StochD(p)[i] }},
	"price_vs_ema": {50, "Price vs EMA", func(f *indicator.Frame, p, i int) float64 {
		return f.Price(i) - f.EMA(p)[i]
	}},
	"macd_histogram": {0, "MACD hist", func(f *indicator.Frame, _, i int) float64 {
		_, _, h := f.MACD()
		return h[i]
	}},
	"volume_ratio": {20, "Volume ratio", func(f *indicator.Frame, p, i int) float64 { return f.VolumeRatio(p)[i] }},
	"bb_percent_b": {20, "BB %B", func(f *indicator.Frame, p, i int) float64 {
		u, _, l := f.Bollinger(p, 2)
		return percentB(f.Price(i), u[i], l[i])
	}},
	"atr_pct": {14, "ATR%", func(f *indicator.Frame, p, i int) float64 {
		price := f.Price(i)
		if price == 0 {
			return 0
		}
		return f.ATR(p)[i] / price * 100
	}},
	"mfi": {0, "MFI", func(f *indicator.Frame, _, i int) float64 { return f.MFI()[i] }},
}

func percentB(price, upper, lower float64) float64 {
	if upper == lower {
		return 0.5
	}
	return (price - lower) / (upper - lower)
}

// Compile validates the rule and returns an executable Condition. Every
// problem is reported as ErrInvalidDefinition.
func (r Rule) Compile() (Condition, error) {
	name := strings.ToLower(strings.TrimSpace(r.Indicator))
	if r.Period < 0 {
		return nil, invalidf("%s: negative period %d", name, r.Period)
	}
	if src, ok := numericSources[name]; ok {
		op, ok := operators[r.Operator]
		if !ok {
			return nil, invalidf("%s: unknown operator %q", name, r.Operator)
		}
		threshold, ok := toFloat(r.Value)
		if !ok {
			return nil, invalidf("%s: value %v is not numeric", name, r.Value)
		}
		period := r.Period
		if period == 0 {
			period = src.defaultPeriod
		}
		return &numericRule{src: src, period: period, opName: r.Operator, op: op, threshold: threshold}, nil
	}

	switch name {
	case "macd_cross":
		if r.Operator != "" && r.Operator != "==" {
			return nil, invalidf("macd_cross: operator must be ==, got %q", r.Operator)
		}
		dir, _ := r.Value.(string)
		dir = strings.ToLower(dir)
		if dir != "up" && dir != "down" {
			return nil, invalidf("macd_cross: value must be \"up\" or \"down\", got %v", r.Value)
		}
		return &macdCrossRule{up: dir == "up"}, nil

	case "volume_spike":
		want, err := boolValue(name, r.Value)
		if err != nil {
			return nil, err
		}
		mult := r.Multiplier
		if mult == 0 {
			mult = 1.5
		}
		if mult < 0 {
			return nil, invalidf("volume_spike: negative multiplier %g", mult)
		}
		period := r.Period
		if period == 0 {
			period = 20
		}
		return &volumeSpikeRule{period: period, mult: mult, want: want}, nil

	case "stoch_overbought":
		level := 80.0
		if r.Value != nil {
			v, ok := toFloat(r.Value)
			if !ok {
				return nil, invalidf("stoch_overbought: value %v is not numeric", r.Value)
			}
			level = v
		}
		return &stochOverboughtRule{level: level}, nil

	case "stoch_falling":
		want, err := boolValue(name, r.Value)
		if err != nil {
			return nil, err
		}
		period := r.Period
		if period == 0 {
			period = 14
		}
		return &stochFallingRule{period: period, want: want}, nil

	case "macd_bearish":
		want, err := boolValue(name, r.Value)
		if err != nil {
			return nil, err
		}
		return &macdBearishRule{want: want}, nil
	}
	return nil, invalidf("unknown indicator %q", r.Indicator)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// boolValue reads an optional boolean target; absent means true.
func boolValue(name string, v interface{}) (bool, error) {
	switch b := v.(type) {
	case nil:
		return true, nil
	case bool:
		return b, nil
	}
	return false, invalidf("%s: value %v must be a boolean", name, v)
}

type numericRule struct {
	src       numericSource
	period    int
	opName    string
	op        operator
	threshold float64
}

func (r *numericRule) Evaluate(f *indicator.Frame, i int) (bool, error) {
	if err := checkIndex(f, i); err != nil {
		return false, err
	}
	return r.op(r.src.value(f, r.period, i), r.threshold), nil
}

func (r *numericRule) label() string {
	if r.src.defaultPeriod == 0 {
		return r.src.label
	}
	return fmt.Sprintf("%s(%d)", r.src.label, r.period)
}

func (r *numericRule) String() string {
	return fmt.Sprintf("%s %s %g", r.label(), r.opName, r.threshold)
}

func (r *numericRule) Describe(f *indicator.Frame, i int) string {
	if checkIndex(f, i) != nil {
		return r.String()
	}
	return fmt.Sprintf("%s=%.2f %s %g", r.label(), r.src.value(f, r.period, i), r.opName, r.threshold)
}

// macdCrossRule fires when the histogram changes sign between i-1 and i.
type macdCrossRule struct{ up bool }

func (r *macdCrossRule) Evaluate(f *indicator.Frame, i int) (bool, error) {
	if err := checkIndex(f, i); err != nil {
		return false, err
	}
	if i < 1 {
		return false, nil
	}
	_, _, h := f.MACD()
	if r.up {
		return h[i-1] < 0 && h[i] > 0, nil
	}
	return h[i-1] > 0 && h[i] < 0, nil
}

func (r *macdCrossRule) String() string {
	if r.up {
		return "MACD cross up"
	}
	return "MACD cross down"
}

type volumeSpikeRule struct {
	period int
	mult   float64
	want   bool
}

func (r *volumeSpikeRule) Evaluate(f *indicator.Frame, i int) (bool, error) {
	if err := checkIndex(f, i); err != nil {
		return false, err
	}
	spike := i >= r.period && f.VolumeRatio(r.period)[i] > r.mult
	return spike == r.want, nil
}

func (r *volumeSpikeRule) String() string {
	return fmt.Sprintf("Volume > %gx avg(%d)", r.mult, r.period)
}

func (r *volumeSpikeRule) Describe(f *indicator.Frame, i int) string {
	if checkIndex(f, i) != nil {
		return r.String()
	}
	return fmt.Sprintf("Volume ratio=%.2f > %g", f.VolumeRatio(r.period)[i], r.mult)
}

type stochOverboughtRule struct{ level float64 }

func (r *stochOverboughtRule) Evaluate(f *indicator.Frame, i int) (bool, error) {
	if err := checkIndex(f, i); err != nil {
		return false, err
	}
	return f.StochK(14)[i] > r.level, nil
}

func (r *stochOverboughtRule) String() string { return fmt.Sprintf("Stoch K > %g", r.level) }

func (r *stochOverboughtRule) Describe(f *indicator.Frame, i int) string {
	if checkIndex(f, i) != nil {
		return r.String()
	}
	return fmt.Sprintf("Stoch K=%.1f > %g", f.StochK(14)[i], r.level)
}

type stochFallingRule struct {
	period int
	want   bool
}

func (r *stochFallingRule) Evaluate(f *indicator.Frame, i int) (bool, error) {
	if err := checkIndex(f, i); err != nil {
		return false, err
	}
	if i < r.period {
		return false, nil
	}
	k := f.StochK(r.period)
	return (k[i] < k[i-1]) == r.want, nil
}

func (r *stochFallingRule) String() string { return "Stoch falling" }

type macdBearishRule struct{ want bool }

func (r *macdBearishRule) Evaluate(f *indicator.Frame, i int) (bool, error) {
	if err := checkIndex(f, i); err != nil {
		return false, err
	}
	line, sig, _ := f.MACD()
	return (line[i] < sig[i]) == r.want, nil
}

func (r *macdBearishRule) String() string { return "MACD < signal" }

// CompileRules compiles every rule into a conjunction, stopping at the
// first invalid one.
func CompileRules(rules []Rule) (All, error) {
	if len(rules) == 0 {
		return nil, invalidf("no conditions")
	}
	out := make(All, 0, len(rules))
	for n, r := range rules {
		c, err := r.Compile()
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", n, err)
		}
		out = append(out, c)
	}
	return out, nil
}
