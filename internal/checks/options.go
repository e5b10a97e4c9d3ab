package checks

import (
	"regexp"
	"strconv"
	"time"

	"tradelog-audit/internal/lots"
	"tradelog-audit/internal/types"
)

// Expiry token embedded in an option symbol at a fixed offset: a
// seven-character slice starting after the five-character root, parsed
// as day, month abbreviation, two-digit year.
const (
	expiryOffset = 5
	expiryWidth  = 7
)

var expiryPattern = regexp.MustCompile(`^(\d{1,2})([A-Za-z]{3})(\d{2})$`)

var monthAbbrev = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// parseExpiry derives the option expiry deadline from a symbol: the
// expiry date plus one day of grace, midnight, as exchange-local epoch
// micros. A symbol whose token does not parse yields no deadline and
// the row is not flagged, matching the lenient source parse.
func parseExpiry(symbol string) (int64, bool) {
	if len(symbol) < expiryOffset+expiryWidth {
		return 0, false
	}
	m := expiryPattern.FindStringSubmatch(symbol[expiryOffset : expiryOffset+expiryWidth])
	if m == nil {
		return 0, false
	}
	day, _ := strconv.Atoi(m[1])
	month, ok := monthAbbrev[upper3(m[2])]
	if !ok {
		return 0, false
	}
	year, _ := strconv.Atoi(m[3])
	d := time.Date(2000+year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != month {
		return 0, false
	}
	return d.AddDate(0, 0, 1).UnixMicro(), true
}

func upper3(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

type optionsExpiryCheck struct{}

func (optionsExpiryCheck) Name() string           { return "option_expiry_check" }
func (optionsExpiryCheck) Segment() types.Segment { return types.SegmentOptions }

func (c optionsExpiryCheck) Evaluate(t *types.Table, _ *SideInputs) types.CheckResult {
	detail := newDetail(types.DetailColumns)
	for _, r := range t.Rows {
		deadline, ok := parseExpiry(r.Symbol)
		if !ok {
			continue
		}
		if r.ExitEpoch.Micros > deadline {
			detail.Append(r)
		}
	}
	if len(detail.Rows) > 0 {
		return types.CheckResult{
			Name: c.Name(), Segment: c.Segment(), Status: types.StatusFail,
			Message:  "Exit After expiry",
			Details:  map[string]*types.IssueDetail{"Exit After Expiry": detail},
			Severity: map[string]types.Severity{"Exit After Expiry": types.SeverityError},
		}
	}
	return types.CheckResult{Name: c.Name(), Segment: c.Segment(), Status: types.StatusPass, Message: "Exit After expiry"}
}

type optionsQuantityCheck struct{}

func (optionsQuantityCheck) Name() string           { return "option_quantity_check" }
func (optionsQuantityCheck) Segment() types.Segment { return types.SegmentOptions }

func (optionsQuantityCheck) Ready(side *SideInputs) bool { return side.Lots != nil }

// An unrecognized symbol root is a SYMBOL issue; a recognized root whose
// recorded quantity differs from the required lot size is a QTY issue.
func (c optionsQuantityCheck) Evaluate(t *types.Table, side *SideInputs) types.CheckResult {
	qty := newDetail(types.DetailColumns)
	sym := newDetail(types.DetailColumns)
	for _, r := range t.Rows {
		root, ok := lots.Root(r.Symbol)
		if !ok {
			sym.Append(r)
			continue
		}
		size, found := side.Lots.Lookup(root)
		if !found {
			sym.Append(r)
			continue
		}
		if float64(size) != r.Quantity {
			qty.Append(r)
		}
	}
	if len(qty.Rows) > 0 || len(sym.Rows) > 0 {
		return types.CheckResult{
			Name: c.Name(), Segment: c.Segment(), Status: types.StatusFail,
			Message: "Wrong Quantity detected",
			Details: map[string]*types.IssueDetail{"QTY": qty, "SYMBOL": sym},
			Severity: map[string]types.Severity{
				"QTY":    types.SeverityError,
				"SYMBOL": types.SeverityError,
			},
		}
	}
	return types.CheckResult{Name: c.Name(), Segment: c.Segment(), Status: types.StatusPass, Message: "No Wrong Quantity detected"}
}
