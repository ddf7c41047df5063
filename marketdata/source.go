package marketdata

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/signal"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

// DirSource serves candles from <Dir>/<SYMBOL>.csv or <SYMBOL>.json, read
// fresh on every call so an external writer can append bars between
// polling cycles.
type DirSource struct {
	Dir string
	// Limit keeps only the most recent bars; 0 keeps all.
	Limit int
}

// Path returns the first existing data file for symbol.
func (s DirSource) Path(symbol string) (string, error) {
	for _, ext := range []string{".csv", ".json"} {
		p := filepath.Join(s.Dir, strings.ToUpper(symbol)+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.Errorf("no candle file for %s in %s", symbol, s.Dir)
}

// Candles loads the full history of symbol, trimmed to Limit.
func (s DirSource) Candles(symbol string) ([]types.Candle, error) {
	p, err := s.Path(symbol)
	if err != nil {
		return nil, err
	}
	candles, err := Load(p)
	if err != nil {
		return nil, err
	}
	if s.Limit > 0 && len(candles) > s.Limit {
		candles = candles[len(candles)-s.Limit:]
	}
	return candles, nil
}

// Market implements signal.CandleSource. The live price is the last close.
func (s DirSource) Market(ctx context.Context, symbol string) (signal.MarketData, error) {
	if err := ctx.Err(); err != nil {
		return signal.MarketData{}, err
	}
	candles, err := s.Candles(symbol)
	if err != nil {
		return signal.MarketData{}, err
	}
	if len(candles) == 0 {
		return signal.MarketData{}, errors.Errorf("%s: empty candle file", symbol)
	}
	return signal.MarketData{Candles: candles, Price: candles[len(candles)-1].Close}, nil
}

// LoadDir loads every symbol in symbols, keyed by symbol.
func LoadDir(dir string, symbols []string) (map[string][]types.Candle, error) {
	src := DirSource{Dir: dir}
	out := make(map[string][]types.Candle, len(symbols))
	for _, sym := range symbols {
		c, err := src.Candles(sym)
		if err != nil {
			return nil, err
		}
		out[sym] = c
	}
	return out, nil
}
