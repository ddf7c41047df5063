package strategy

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

// Params are the numeric knobs of a templated strategy.
type Params map[string]float64

// Int returns p[key] truncated to int.
func (p Params) Int(key string) int { return int(p[key]) }

func (p Params) clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Grid lists candidate values per parameter.
type Grid map[string][]float64

// Template builds a family of strategies that differ only in parameters.
type Template struct {
	Name      string
	Category  Category
	Direction types.Direction
	// ID and Label render the strategy id and display name for p.
	ID    func(p Params) string
	Label func(p Params) string
	Build func(p Params) (Condition, error)
}

// Variant is a template bound to concrete parameters.
type Variant struct {
	Template *Template
	Params   Params
}

// With binds explicit parameters.
func (t *Template) With(p Params) Variant {
	return Variant{Template: t, Params: p.clone()}
}

// Expand returns the cartesian product of g in a deterministic order:
// parameters sorted by name, values in the order given.
func (t *Template) Expand(g Grid) []Variant {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := []Variant{{Template: t, Params: Params{}}}
	for _, k := range keys {
		vals := g[k]
		if len(vals) == 0 {
			continue
		}
		next := make([]Variant, 0, len(out)*len(vals))
		for _, v := range out {
			for _, val := range vals {
				p := v.Params.clone()
				p[k] = val
				next = append(next, Variant{Template: t, Params: p})
			}
		}
		out = next
	}
	return out
}

func (v Variant) ID() string { return v.Template.ID(v.Params) }

// Instantiate builds a Strategy with the given take-profit / stop-loss.
func (v Variant) Instantiate(tpPct, slPct float64) (*Strategy, error) {
	cond, err := v.Template.Build(v.Params)
	if err != nil {
		return nil, err
	}
	name := v.Template.Name
	if v.Template.Label != nil {
		name = v.Template.Label(v.Params)
	}
	s := &Strategy{
		ID:            v.ID(),
		Name:          name,
		Category:      v.Template.Category,
		Direction:     v.Template.Direction,
		Condition:     cond,
		TakeProfitPct: tpPct,
		StopLossPct:   slPct,
		Params:        v.Params.clone(),
		Description:   v.Template.Name,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// idNum renders a parameter for use in an id: 1.5 -> "1_5".
func idNum(v float64) string {
	return strings.ReplaceAll(strconv.FormatFloat(v, 'f', -1, 64), ".", "_")
}

// idTenths renders with one decimal: 2 -> "2_0".
func idTenths(v float64) string {
	return strings.ReplaceAll(fmt.Sprintf("%.1f", v), ".", "_")
}

func rule(indicator string, period int, op string, value interface{}) Condition {
	c, err := Rule{Indicator: indicator, Period: period, Operator: op, Value: value}.Compile()
	if err != nil {
		panic(err)
	}
	return c
}

var (
	RSIBelow = &Template{
		Name: "RSI_BELOW", Category: CategoryRSI, Direction: types.Long,
		ID:    func(p Params) string { return fmt.Sprintf("rsi_%d_below_%d", p.Int("period"), p.Int("level")) },
		Label: func(p Params) string { return fmt.Sprintf("RSI(%d) < %d", p.Int("period"), p.Int("level")) },
		Build: func(p Params) (Condition, error) {
			return Rule{Indicator: "rsi", Period: p.Int("period"), Operator: "<", Value: p["level"]}.Compile()
		},
	}

	RSIAbove = &Template{
		Name: "RSI_ABOVE", Category: CategoryRSI, Direction: types.Short,
		ID:    func(p Params) string { return fmt.Sprintf("rsi_%d_above_%d", p.Int("period"), p.Int("level")) },
		Label: func(p Params) string { return fmt.Sprintf("RSI(%d) > %d", p.Int("period"), p.Int("level")) },
		Build: func(p Params) (Condition, error) {
			return Rule{Indicator: "rsi", Period: p.Int("period"), Operator: ">", Value: p["level"]}.Compile()
		},
	}

	RSIWithEMA = &Template{
		Name: "RSI_EMA", Category: CategoryRSI, Direction: types.Long,
		ID: func(p Params) string {
			return fmt.Sprintf("rsi_14_below_%d_price_above_ema_%d", p.Int("rsi_level"), p.Int("ema_period"))
		},
		Label: func(p Params) string {
			return fmt.Sprintf("RSI(14) < %d + Price > EMA(%d)", p.Int("rsi_level"), p.Int("ema_period"))
		},
		Build: func(p Params) (Condition, error) {
			return CompileRules([]Rule{
				{Indicator: "rsi", Period: 14, Operator: "<", Value: p["rsi_level"]},
				{Indicator: "price_vs_ema", Period: p.Int("ema_period"), Operator: ">", Value: 0},
			})
		},
	}

	// RSIOversold is the optimizer's long template: RSI dip in an uptrend.
	RSIOversold = &Template{
		Name: "RSI_OVERSOLD", Category: CategoryRSI, Direction: types.Long,
		ID: func(p Params) string {
			return fmt.Sprintf("rsi_oversold_%d_%d_ema_%d", p.Int("rsi_period"), p.Int("rsi_level"), p.Int("ema_period"))
		},
		Label: func(p Params) string {
			return fmt.Sprintf("RSI(%d) < %d + Price > EMA(%d)", p.Int("rsi_period"), p.Int("rsi_level"), p.Int("ema_period"))
		},
		Build: func(p Params) (Condition, error) {
			return CompileRules([]Rule{
				{Indicator: "rsi", Period: p.Int("rsi_period"), Operator: "<", Value: p["rsi_level"]},
				{Indicator: "price_vs_ema", Period: p.Int("ema_period"), Operator: ">", Value: 0},
			})
		},
	}

	RSIOverbought = &Template{
		Name: "RSI_OVERBOUGHT", Category: CategoryRSI, Direction: types.Short,
		ID: func(p Params) string {
			return fmt.Sprintf("rsi_overbought_%d_%d", p.Int("rsi_period"), p.Int("rsi_level"))
		},
		Label: func(p Params) string { return fmt.Sprintf("RSI(%d) > %d", p.Int("rsi_period"), p.Int("rsi_level")) },
		Build: func(p Params) (Condition, error) {
			return Rule{Indicator: "rsi", Period: p.Int("rsi_period"), Operator: ">", Value: p["rsi_level"]}.Compile()
		},
	}

	StochBelow = &Template{
		Name: "STOCH_OVERSOLD", Category: CategoryStochastic, Direction: types.Long,
		ID:    func(p Params) string { return fmt.Sprintf("stoch_%d_below_%d", p.Int("period"), p.Int("level")) },
		Label: func(p Params) string { return fmt.Sprintf("Stoch(%d) K < %d", p.Int("period"), p.Int("level")) },
		Build: func(p Params) (Condition, error) {
			return Rule{Indicator: "stoch_k", Period: p.Int("period"), Operator: "<", Value: p["level"]}.Compile()
		},
	}

	StochAbove = &Template{
		Name: "STOCH_OVERBOUGHT", Category: CategoryStochastic, Direction: types.Short,
		ID:    func(p Params) string { return fmt.Sprintf("stoch_%d_above_%d", p.Int("period"), p.Int("level")) },
		Label: func(p Params) string { return fmt.Sprintf("Stoch(%d) K > %d", p.Int("period"), p.Int("level")) },
		Build: func(p Params) (Condition, error) {
			return Rule{Indicator: "stoch_k", Period: p.Int("period"), Operator: ">", Value: p["level"]}.Compile()
		},
	}

	StochMACD = &Template{
		Name: "STOCH_MACD", Category: CategoryStochastic, Direction: types.Long,
		ID: func(p Params) string {
			return fmt.Sprintf("stoch_%d_below_%d_macd_cross_up", p.Int("stoch_period"), p.Int("stoch_level"))
		},
		Label: func(p Params) string {
			return fmt.Sprintf("Stoch(%d) < %d + MACD Cross Up", p.Int("stoch_period"), p.Int("stoch_level"))
		},
		Build: func(p Params) (Condition, error) {
			return CompileRules([]Rule{
				{Indicator: "stoch_k", Period: p.Int("stoch_period"), Operator: "<", Value: p["stoch_level"]},
				{Indicator: "macd_cross", Operator: "==", Value: "up"},
			})
		},
	}

	BBBelow = &Template{
		Name: "BB_BELOW", Category: CategoryBollinger, Direction: types.Long,
		ID: func(p Params) string {
			return fmt.Sprintf("bb_%d_%s_below_lower", p.Int("period"), idTenths(p["std"]))
		},
		Label: func(p Params) string { return fmt.Sprintf("Price < BB(%d, %g) Lower", p.Int("period"), p["std"]) },
		Build: func(p Params) (Condition, error) { return bollingerBreak(p.Int("period"), p["std"], false), nil },
	}

	BBAbove = &Template{
		Name: "BB_ABOVE", Category: CategoryBollinger, Direction: types.Short,
		ID: func(p Params) string {
			return fmt.Sprintf("bb_%d_%s_above_upper", p.Int("period"), idTenths(p["std"]))
		},
		Label: func(p Params) string { return fmt.Sprintf("Price > BB(%d, %g) Upper", p.Int("period"), p["std"]) },
		Build: func(p Params) (Condition, error) { return bollingerBreak(p.Int("period"), p["std"], true), nil },
	}

	EMACrossUp = &Template{
		Name: "EMA_CROSS_UP", Category: CategoryEMA, Direction: types.Long,
		ID:    func(p Params) string { return fmt.Sprintf("ema_%d_%d_cross_up", p.Int("fast"), p.Int("slow")) },
		Label: func(p Params) string { return fmt.Sprintf("EMA(%d) Cross Up EMA(%d)", p.Int("fast"), p.Int("slow")) },
		Build: func(p Params) (Condition, error) { return emaCross(p.Int("fast"), p.Int("slow"), true), nil },
	}

	EMACrossDown = &Template{
		Name: "EMA_CROSS_DOWN", Category: CategoryEMA, Direction: types.Short,
		ID:    func(p Params) string { return fmt.Sprintf("ema_%d_%d_cross_down", p.Int("fast"), p.Int("slow")) },
		Label: func(p Params) string { return fmt.Sprintf("EMA(%d) Cross Down EMA(%d)", p.Int("fast"), p.Int("slow")) },
		Build: func(p Params) (Condition, error) { return emaCross(p.Int("fast"), p.Int("slow"), false), nil },
	}

	PriceAboveEMA = &Template{
		Name: "PRICE_ABOVE_EMA", Category: CategoryEMA, Direction: types.Long,
		ID:    func(p Params) string { return fmt.Sprintf("price_above_ema_%d", p.Int("period")) },
		Label: func(p Params) string { return fmt.Sprintf("Price > EMA(%d)", p.Int("period")) },
		Build: func(p Params) (Condition, error) {
			return Rule{Indicator: "price_vs_ema", Period: p.Int("period"), Operator: ">", Value: 0}.Compile()
		},
	}

	PriceBelowEMA = &Template{
		Name: "PRICE_BELOW_EMA", Category: CategoryEMA, Direction: types.Short,
		ID:    func(p Params) string { return fmt.Sprintf("price_below_ema_%d", p.Int("period")) },
		Label: func(p Params) string { return fmt.Sprintf("Price < EMA(%d)", p.Int("period")) },
		Build: func(p Params) (Condition, error) {
			return Rule{Indicator: "price_vs_ema", Period: p.Int("period"), Operator: "<", Value: 0}.Compile()
		},
	}

	VolumeBreakout = &Template{
		Name: "VOLUME_BREAKOUT", Category: CategoryVolume, Direction: types.Long,
		ID:    func(p Params) string { return fmt.Sprintf("volume_breakout_%sx", idNum(p["mult"])) },
		Label: func(p Params) string { return fmt.Sprintf("Volume > %gx + New High", p["mult"]) },
		Build: func(p Params) (Condition, error) { return volumeBreakout(p["mult"]), nil },
	}

	DoubleBottom = &Template{
		Name: "DOUBLE_BOTTOM", Category: CategoryPattern, Direction: types.Long,
		ID:    func(p Params) string { return fmt.Sprintf("double_bottom_%d", p.Int("lookback")) },
		Label: func(p Params) string { return fmt.Sprintf("Double Bottom (%d)", p.Int("lookback")) },
		Build: func(p Params) (Condition, error) {
			if p.Int("lookback") < 2 {
				return nil, invalidf("double bottom lookback %d < 2", p.Int("lookback"))
			}
			return doubleBottom(p.Int("lookback")), nil
		},
	}
)

// Templates indexes the templates by name.
var Templates = map[string]*Template{}

func init() {
	for _, t := range []*Template{
		RSIBelow, RSIAbove, RSIWithEMA, RSIOversold, RSIOverbought,
		StochBelow, StochAbove, StochMACD, BBBelow, BBAbove,
		EMACrossUp, EMACrossDown, PriceAboveEMA, PriceBelowEMA,
		VolumeBreakout, DoubleBottom,
	} {
		Templates[t.Name] = t
	}
}
