package marketdata

import (
	"bytes"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

// candleDTO is one row of the canonical candle table. The timestamp is
// either epoch milliseconds or an ISO-8601 string.
type candleDTO struct {
	Timestamp string  `csv:"timestamp" json:"timestamp"`
	Open      float64 `csv:"open" json:"open"`
	High      float64 `csv:"high" json:"high"`
	Low       float64 `csv:"low" json:"low"`
	Close     float64 `csv:"close" json:"close"`
	Volume    float64 `csv:"volume" json:"volume"`
}

func (dto candleDTO) ToModel() (types.Candle, error) {
	ts, err := ParseTimestamp(dto.Timestamp)
	if err != nil {
		return types.Candle{}, err
	}
	return types.Candle{
		Timestamp: ts,
		Open:      dto.Open,
		High:      dto.High,
		Low:       dto.Low,
		Close:     dto.Close,
		Volume:    dto.Volume,
	}, nil
}

// jsonCandleDTO accepts the timestamp as a number or a string.
type jsonCandleDTO struct {
	Timestamp rawTimestamp `json:"timestamp"`
	Open      float64     `json:"open"`
	High      float64     `json:"high"`
	Low       float64     `json:"low"`
	Close     float64     `json:"close"`
	Volume    float64     `json:"volume"`
}

// rawTimestamp keeps the raw JSON token so both 1704067200000 and
// "2024-01-01T00:00:00Z" decode.
type rawTimestamp string

func (n *rawTimestamp) UnmarshalJSON(b []byte) error {
	*n = rawTimestamp(strings.Trim(string(b), `"`))
	return nil
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02",
}

// ParseTimestamp reads epoch milliseconds or ISO-8601 and returns UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognised timestamp %q", s)
}

// Normalize sorts candles by time and rejects duplicate timestamps.
func Normalize(candles []types.Candle) ([]types.Candle, error) {
	sort.SliceStable(candles, func(i, j int) bool { return candles[i].Timestamp.Before(candles[j].Timestamp) })
	if err := types.ValidateSeries(candles); err != nil {
		return nil, err
	}
	return candles, nil
}

// ReadCSV parses the canonical table from r.
func ReadCSV(r io.Reader) ([]types.Candle, error) {
	var rows []candleDTO
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, errors.Wrap(err, "parse candle csv")
	}
	out := make([]types.Candle, 0, len(rows))
	for i, dto := range rows {
		c, err := dto.ToModel()
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+1)
		}
		out = append(out, c)
	}
	return Normalize(out)
}

// LoadCSV reads a candle CSV file.
func LoadCSV(path string) ([]types.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open candles")
	}
	defer f.Close()
	candles, err := ReadCSV(f)
	return candles, errors.Wrap(err, path)
}

// ReadJSON parses a JSON array of candle objects.
func ReadJSON(r io.Reader) ([]types.Candle, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, errors.Wrap(err, "read candle json")
	}
	var rows []jsonCandleDTO
	if err := sonic.Unmarshal(buf.Bytes(), &rows); err != nil {
		return nil, errors.Wrap(err, "parse candle json")
	}
	out := make([]types.Candle, 0, len(rows))
	for i, row := range rows {
		c, err := candleDTO{
			Timestamp: string(row.Timestamp),
			Open:      row.Open, High: row.High, Low: row.Low, Close: row.Close, Volume: row.Volume,
		}.ToModel()
		if err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}
		out = append(out, c)
	}
	return Normalize(out)
}

// LoadJSON reads a candle JSON file.
func LoadJSON(path string) ([]types.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open candles")
	}
	defer f.Close()
	candles, err := ReadJSON(f)
	return candles, errors.Wrap(err, path)
}

// Load picks the reader from the file extension (.csv or .json).
func Load(path string) ([]types.Candle, error) {
	switch strings.ToLower(path[strings.LastIndex(path, ".")+1:]) {
	case "csv":
		return LoadCSV(path)
	case "json":
		return LoadJSON(path)
	}
	return nil, errors.Errorf("%s: unsupported candle file type", path)
}

// WriteCSV writes candles in the canonical table with ms timestamps.
func WriteCSV(w io.Writer, candles []types.Candle) error {
	rows := make([]candleDTO, len(candles))
	for i, c := range candles {
		rows[i] = candleDTO{
			Timestamp: strconv.FormatInt(c.Timestamp.UnixMilli(), 10),
			Open:      c.Open, High: c.High, Low: c.Low, Close: c.Close, Volume: c.Volume,
		}
	}
	return errors.Wrap(gocsv.Marshal(&rows, w), "write candle csv")
}
