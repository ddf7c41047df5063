package strategy

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

//go:embed book.yaml
var defaultBookYAML []byte

// Definition is one live per-symbol strategy from a strategy book.
type Definition struct {
	ID                       string          `yaml:"id"`
	Name                     string          `yaml:"name"`
	Symbol                   string          `yaml:"symbol"`
	Direction                types.Direction `yaml:"direction"`
	Conditions               []Rule          `yaml:"conditions"`
	TakeProfitPct            float64         `yaml:"tp_percent"`
	StopLossPct              float64         `yaml:"sl_percent"`
	AvgWinRate               float64         `yaml:"avg_win_rate"`
	ProfitFactor             float64         `yaml:"profit_factor,omitempty"`
	TradesPerDay             float64         `yaml:"trades_per_day,omitempty"`
	Enabled                  *bool           `yaml:"enabled,omitempty"`
	MaxSignalsPerDay         int             `yaml:"max_signals_per_day"`
	MinMinutesBetweenSignals int             `yaml:"min_minutes_between_signals,omitempty"`
}

// IsEnabled defaults to true when the book omits the flag.
func (d Definition) IsEnabled() bool { return d.Enabled == nil || *d.Enabled }

// Compile turns the definition into a registered-ready Strategy.
func (d Definition) Compile() (*Strategy, error) {
	if d.ID == "" {
		return nil, invalidf("definition for %q has no id", d.Symbol)
	}
	if d.Symbol == "" {
		return nil, invalidf("%s: no symbol", d.ID)
	}
	if d.MaxSignalsPerDay < 0 || d.MinMinutesBetweenSignals < 0 {
		return nil, invalidf("%s: negative throttle limits", d.ID)
	}
	cond, err := CompileRules(d.Conditions)
	if err != nil {
		return nil, errors.WithMessage(err, d.ID)
	}
	name := d.Name
	if name == "" {
		name = cond.String()
	}
	s := &Strategy{
		ID:            d.ID,
		Name:          name,
		Category:      CategoryLive,
		Direction:     d.Direction,
		Condition:     cond,
		TakeProfitPct: d.TakeProfitPct,
		StopLossPct:   d.StopLossPct,
		Params:        map[string]float64{"avg_win_rate": d.AvgWinRate},
		Description:   d.Symbol,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Book is a parsed strategy book.
type Book struct {
	Strategies []Definition `yaml:"strategies"`
}

// LoadBook parses a YAML book and compiles every definition. All invalid
// definitions are reported together.
func LoadBook(r io.Reader) (*Book, error) {
	var b Book
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil && err != io.EOF {
		return nil, errors.Wrap(ErrInvalidDefinition, err.Error())
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate compiles every definition and checks ids are unique.
func (b *Book) Validate() error {
	var errs error
	seen := make(map[string]bool, len(b.Strategies))
	for _, d := range b.Strategies {
		if seen[d.ID] {
			errs = multierr.Append(errs, errors.Wrap(ErrDuplicateID, d.ID))
			continue
		}
		seen[d.ID] = true
		if _, err := d.Compile(); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// Register compiles every definition into r.
func (b *Book) Register(r *Registry) error {
	for _, d := range b.Strategies {
		s, err := d.Compile()
		if err != nil {
			return err
		}
		if err := r.Register(s); err != nil {
			return err
		}
	}
	return nil
}

// Symbols lists the distinct symbols in the book, sorted.
func (b *Book) Symbols() []string {
	set := make(map[string]struct{})
	for _, d := range b.Strategies {
		set[d.Symbol] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// ForSymbol returns the symbol's definitions, LONG before SHORT, each group
// in book order.
func (b *Book) ForSymbol(symbol string) []Definition {
	var longs, shorts []Definition
	for _, d := range b.Strategies {
		if d.Symbol != symbol {
			continue
		}
		if d.Direction == types.Short {
			shorts = append(shorts, d)
		} else {
			longs = append(longs, d)
		}
	}
	return append(longs, shorts...)
}

// DefaultBook returns the built-in live book.
func DefaultBook() *Book {
	b, err := LoadBook(bytes.NewReader(defaultBookYAML))
	if err != nil {
		panic(err)
	}
	return b
}

// LoadBookFile reads the book at path, or returns DefaultBook when path is
// empty.
func LoadBookFile(path string) (*Book, error) {
	if path == "" {
		return DefaultBook(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open strategy book")
	}
	defer f.Close()
	b, err := LoadBook(f)
	return b, errors.Wrap(err, path)
}
