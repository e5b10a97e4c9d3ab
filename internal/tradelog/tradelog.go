package tradelog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"tradelog-audit/internal/types"

	"github.com/gocarina/gocsv"
)

// ErrMissingColumns is returned when the trade log lacks one of the
// required source columns. This is the only structural failure that
// aborts a run; malformed cell values degrade to flagged rows instead.
var ErrMissingColumns = errors.New("trade log missing required columns")

// Exchange local time is minus 5h30m relative to the parsed wall-clock
// value, mirroring the upstream log convention.
const localOffset = -(5*time.Hour + 30*time.Minute)

// Accepted timestamp layouts, most specific first. Parsing is lenient:
// a string matching none of these yields an invalid epoch, not an error.
var timeLayouts = []string{
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// RawRow is one unparsed trade log row. All fields are strings so that a
// malformed cell never aborts the load.
type RawRow struct {
	Key            string `csv:"Key"`
	ExitTime       string `csv:"ExitTime"`
	Symbol         string `csv:"Symbol"`
	EntryPrice     string `csv:"EntryPrice"`
	ExitPrice      string `csv:"ExitPrice"`
	Quantity       string `csv:"Quantity"`
	PositionStatus string `csv:"PositionStatus"`
	Pnl            string `csv:"Pnl"`
	ExitType       string `csv:"ExitType"`
}

// Load reads a trade log CSV, verifies the required header columns and
// returns the raw rows in source order.
func Load(path string) ([]RawRow, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trade log: %w", err)
	}
	header, err := csvHeader(b)
	if err != nil {
		return nil, fmt.Errorf("read trade log header: %w", err)
	}
	if missing := missingColumns(header); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	var rows []RawRow
	if err := gocsv.UnmarshalBytes(b, &rows); err != nil {
		return nil, fmt.Errorf("parse trade log: %w", err)
	}
	return rows, nil
}

func csvHeader(b []byte) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = -1
	return r.Read()
}

func missingColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)] = true
	}
	var missing []string
	for _, c := range types.SourceColumns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// Normalize builds the canonical table: idx assignment, numeric parsing,
// epoch derivation in exchange local time and the derived ExitTag and
// ExpectedPnl columns. It never fails; unparseable values degrade to
// NaN or the sentinel epoch and are left for the checks to flag.
func Normalize(raws []RawRow) *types.Table {
	t := &types.Table{Rows: make([]types.Record, 0, len(raws))}
	for i, raw := range raws {
		rec := types.Record{
			Idx:      i,
			Key:      raw.Key,
			ExitTime: raw.ExitTime,
			Symbol:   raw.Symbol,
			ExitType: raw.ExitType,
		}
		if raw.Key == "" {
			rec.Missing = append(rec.Missing, "Key")
		}
		if raw.ExitTime == "" {
			rec.Missing = append(rec.Missing, "ExitTime")
		}
		if raw.Symbol == "" {
			rec.Missing = append(rec.Missing, "Symbol")
		}
		if raw.ExitType == "" {
			rec.Missing = append(rec.Missing, "ExitType")
		}
		rec.EntryPrice = parseNumeric(raw.EntryPrice, "EntryPrice", &rec)
		rec.ExitPrice = parseNumeric(raw.ExitPrice, "ExitPrice", &rec)
		rec.Quantity = parseNumeric(raw.Quantity, "Quantity", &rec)
		rec.PositionStatus = parseNumeric(raw.PositionStatus, "PositionStatus", &rec)
		rec.Pnl = parseNumeric(raw.Pnl, "Pnl", &rec)

		rec.EntryEpoch = ParseEpoch(raw.Key)
		rec.ExitEpoch = ParseEpoch(raw.ExitTime)
		rec.ExitTag = exitTag(raw.ExitType)
		rec.ExpectedPnl = rec.Quantity * (rec.ExitPrice - rec.EntryPrice) * rec.PositionStatus

		t.Rows = append(t.Rows, rec)
	}
	return t
}

func parseNumeric(s, col string, rec *types.Record) float64 {
	if s == "" {
		rec.Missing = append(rec.Missing, col)
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		rec.Missing = append(rec.Missing, col)
		return math.NaN()
	}
	return v
}

// ParseEpoch converts a wall-clock timestamp to microseconds shifted to
// exchange local time. Unparseable input yields the sentinel epoch.
func ParseEpoch(s string) types.Epoch {
	t, ok := ParseWallClock(s)
	if !ok {
		return types.Epoch{}
	}
	return types.Epoch{Micros: t.Add(localOffset).UnixMicro(), Valid: true}
}

// ParseWallClock parses a source timestamp leniently, trying each
// accepted layout in turn.
func ParseWallClock(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func exitTag(exitType string) string {
	switch {
	case strings.Contains(exitType, "Target"):
		return "+"
	case strings.Contains(exitType, "Stoploss"):
		return "-"
	default:
		return ""
	}
}
