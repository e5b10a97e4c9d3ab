package checks

import (
	"fmt"
	"math"
	"time"

	"tradelog-audit/internal/tradelog"
	"tradelog-audit/internal/types"
)

// pnlTolerance is one-sided: only an actual PnL falling short of the
// expected value by more than this is flagged.
const pnlTolerance = 1e-4

// Market session window, time of day in seconds.
const (
	marketOpenSec  = 9*3600 + 15*60
	marketCloseSec = 15*3600 + 25*60
)

// nullColumns is the reporting order for the no-nulls check: the epoch
// pair is derived, so it is neither scanned nor reported there.
var nullColumns = types.DetailColumns[:10]

type noNullsCheck struct{}

func (noNullsCheck) Name() string           { return "No Nulls" }
func (noNullsCheck) Segment() types.Segment { return types.SegmentUniversal }

func (c noNullsCheck) Evaluate(t *types.Table, _ *SideInputs) types.CheckResult {
	detail := newDetail(nullColumns)
	for _, col := range nullColumns {
		for _, r := range t.Rows {
			if r.IsMissing(col) {
				detail.Append(r)
			}
		}
	}
	if len(detail.Rows) > 0 {
		return types.CheckResult{
			Name: c.Name(), Segment: c.Segment(), Status: types.StatusFail,
			Message:  "Nulls detected",
			Details:  map[string]*types.IssueDetail{"Nulls": detail},
			Severity: map[string]types.Severity{"Nulls": types.SeverityError},
		}
	}
	return types.CheckResult{Name: c.Name(), Segment: c.Segment(), Status: types.StatusPass, Message: "No nulls found"}
}

type nonZeroCheck struct{}

func (nonZeroCheck) Name() string           { return "NON ZERO CHECKS" }
func (nonZeroCheck) Segment() types.Segment { return types.SegmentUniversal }

func (c nonZeroCheck) Evaluate(t *types.Table, _ *SideInputs) types.CheckResult {
	detail := newDetail(types.DetailColumns)
	for _, field := range []func(*types.Record) float64{
		func(r *types.Record) float64 { return r.PositionStatus },
		func(r *types.Record) float64 { return r.Quantity },
		func(r *types.Record) float64 { return r.EntryPrice },
		func(r *types.Record) float64 { return r.ExitPrice },
		func(r *types.Record) float64 { return r.Pnl },
	} {
		for i := range t.Rows {
			if field(&t.Rows[i]) == 0 {
				detail.Append(t.Rows[i])
			}
		}
	}
	if len(detail.Rows) > 0 {
		return types.CheckResult{
			Name: c.Name(), Segment: c.Segment(), Status: types.StatusFail,
			Message:  "Zero values detected",
			Details:  map[string]*types.IssueDetail{"Zeros": detail},
			Severity: map[string]types.Severity{"Zeros": types.SeverityError},
		}
	}
	return types.CheckResult{Name: c.Name(), Segment: c.Segment(), Status: types.StatusPass, Message: "No zeros detected"}
}

type noFractionalCheck struct{}

func (noFractionalCheck) Name() string           { return "FRACTIONAL VALUES" }
func (noFractionalCheck) Segment() types.Segment { return types.SegmentUniversal }

func (c noFractionalCheck) Evaluate(t *types.Table, _ *SideInputs) types.CheckResult {
	detail := newDetail(types.DetailColumns)
	for _, field := range []func(*types.Record) float64{
		func(r *types.Record) float64 { return r.PositionStatus },
		func(r *types.Record) float64 { return r.Quantity },
	} {
		for i := range t.Rows {
			if v := field(&t.Rows[i]); v-math.Floor(v) > 0 {
				detail.Append(t.Rows[i])
			}
		}
	}
	if len(detail.Rows) > 0 {
		return types.CheckResult{
			Name: c.Name(), Segment: c.Segment(), Status: types.StatusFail,
			Message:  "Fractional values detected",
			Details:  map[string]*types.IssueDetail{"Fractional Value": detail},
			Severity: map[string]types.Severity{"Fractional Value": types.SeverityError},
		}
	}
	return types.CheckResult{Name: c.Name(), Segment: c.Segment(), Status: types.StatusPass, Message: "No fractional values detected"}
}

type noNegativesCheck struct{}

func (noNegativesCheck) Name() string           { return "NEGATIVE VALUES" }
func (noNegativesCheck) Segment() types.Segment { return types.SegmentUniversal }

func (c noNegativesCheck) Evaluate(t *types.Table, _ *SideInputs) types.CheckResult {
	detail := newDetail(types.DetailColumns)
	for _, field := range []func(*types.Record) float64{
		func(r *types.Record) float64 { return r.Quantity },
		func(r *types.Record) float64 { return r.EntryPrice },
		func(r *types.Record) float64 { return r.ExitPrice },
	} {
		for i := range t.Rows {
			if field(&t.Rows[i]) < 0 {
				detail.Append(t.Rows[i])
			}
		}
	}
	if len(detail.Rows) > 0 {
		return types.CheckResult{
			Name: c.Name(), Segment: c.Segment(), Status: types.StatusFail,
			Message:  "Negative values detected",
			Details:  map[string]*types.IssueDetail{"Negatives": detail},
			Severity: map[string]types.Severity{"Negatives": types.SeverityError},
		}
	}
	return types.CheckResult{Name: c.Name(), Segment: c.Segment(), Status: types.StatusPass, Message: "No Negative values detected"}
}

type exitAfterEntryCheck struct{}

func (exitAfterEntryCheck) Name() string           { return "EXIT TI > ENTRY" }
func (exitAfterEntryCheck) Segment() types.Segment { return types.SegmentUniversal }

// Equality is valid: a trade entered and exited in the same instant is
// not a violation.
func (c exitAfterEntryCheck) Evaluate(t *types.Table, _ *SideInputs) types.CheckResult {
	detail := newDetail(types.DetailColumns)
	for _, r := range t.Rows {
		if r.ExitEpoch.Micros < r.EntryEpoch.Micros {
			detail.Append(r)
		}
	}
	if len(detail.Rows) > 0 {
		return types.CheckResult{
			Name: c.Name(), Segment: c.Segment(), Status: types.StatusFail,
			Message:  "Exit before entry detected",
			Details:  map[string]*types.IssueDetail{"Exit < Entry": detail},
			Severity: map[string]types.Severity{"Exit < Entry": types.SeverityError},
		}
	}
	return types.CheckResult{Name: c.Name(), Segment: c.Segment(), Status: types.StatusPass, Message: "All trades have valid entry/exit ordering"}
}

type marketHoursCheck struct{}

func (marketHoursCheck) Name() string           { return "TRADING OUTSIDE MARKET HOURS" }
func (marketHoursCheck) Segment() types.Segment { return types.SegmentUniversal }

// Wall-clock times are reparsed from the source strings; a row whose
// timestamp does not parse is left for the nulls/chain checks to flag.
func (c marketHoursCheck) Evaluate(t *types.Table, _ *SideInputs) types.CheckResult {
	detail := newDetail(types.DetailColumns)
	entryBefore := func(r *types.Record) bool { return timeOfDayBefore(r.Key, marketOpenSec) }
	exitBefore := func(r *types.Record) bool { return timeOfDayBefore(r.ExitTime, marketOpenSec) }
	entryAfter := func(r *types.Record) bool { return timeOfDayAfter(r.Key, marketCloseSec) }
	exitAfter := func(r *types.Record) bool { return timeOfDayAfter(r.ExitTime, marketCloseSec) }
	for _, match := range []func(*types.Record) bool{entryBefore, exitBefore, entryAfter, exitAfter} {
		for i := range t.Rows {
			if match(&t.Rows[i]) {
				detail.Append(t.Rows[i])
			}
		}
	}
	if len(detail.Rows) > 0 {
		return types.CheckResult{
			Name: c.Name(), Segment: c.Segment(), Status: types.StatusFail,
			Message:  "Market hour violations",
			Details:  map[string]*types.IssueDetail{"OUTSIDE MARKET HOURS": detail},
			Severity: map[string]types.Severity{"OUTSIDE MARKET HOURS": types.SeverityError},
		}
	}
	return types.CheckResult{Name: c.Name(), Segment: c.Segment(), Status: types.StatusPass, Message: "All trades within market hours"}
}

func timeOfDayBefore(s string, limit int) bool {
	t, ok := tradelog.ParseWallClock(s)
	if !ok {
		return false
	}
	return secondsOfDay(t) < limit
}

func timeOfDayAfter(s string, limit int) bool {
	t, ok := tradelog.ParseWallClock(s)
	if !ok {
		return false
	}
	return secondsOfDay(t) > limit
}

func secondsOfDay(t time.Time) int {
	h, m, s := t.Clock()
	return h*3600 + m*60 + s
}

type pnlCheck struct{}

func (pnlCheck) Name() string           { return "Pnl Validation" }
func (pnlCheck) Segment() types.Segment { return types.SegmentUniversal }

// Two issue labels: "Pnl" (ERROR) is the numeric reconciliation against
// ExpectedPnl, tolerance applied one-sided; "PnL" (WARNING) is the
// exit-tag/sign agreement.
func (c pnlCheck) Evaluate(t *types.Table, _ *SideInputs) types.CheckResult {
	numeric := newDetail(types.PnlDetailColumns)
	sign := newDetail(types.PnlDetailColumns)
	for _, r := range t.Rows {
		if r.ExpectedPnl-r.Pnl > pnlTolerance {
			numeric.Append(r)
		}
	}
	for _, r := range t.Rows {
		if (r.ExitTag == "+" && r.Pnl < 0) || (r.ExitTag == "-" && r.Pnl > 0) {
			sign.Append(r)
		}
	}
	if len(numeric.Rows) > 0 || len(sign.Rows) > 0 {
		return types.CheckResult{
			Name: c.Name(), Segment: c.Segment(), Status: types.StatusFail,
			Message: "PnL mismatches detected",
			Details: map[string]*types.IssueDetail{"Pnl": numeric, "PnL": sign},
			Severity: map[string]types.Severity{
				"Pnl": types.SeverityError,
				"PnL": types.SeverityWarning,
			},
		}
	}
	return types.CheckResult{Name: c.Name(), Segment: c.Segment(), Status: types.StatusPass, Message: "PnL validation passed"}
}

type chainConsistencyCheck struct{}

func (chainConsistencyCheck) Name() string           { return "LTP VALIDATION" }
func (chainConsistencyCheck) Segment() types.Segment { return types.SegmentUniversal }

func (chainConsistencyCheck) Ready(side *SideInputs) bool { return side.Chain != nil }

// Recorded prices are corroborated against the chain at sixty seconds
// before the trade timestamp, the preceding chain tick. A row with an
// invalid epoch is an automatic violation regardless of chain contents.
func (c chainConsistencyCheck) Evaluate(t *types.Table, side *SideInputs) types.CheckResult {
	detail := newDetail(types.DetailColumns)
	for _, r := range t.Rows {
		if !r.EntryEpoch.Valid || !r.ExitEpoch.Valid {
			detail.Append(r)
			continue
		}
		entryTi := r.EntryEpoch.Micros/1e6 - 60
		exitTi := r.ExitEpoch.Micros/1e6 - 60
		entry, entryOK := side.Chain.Lookup(entryTi, r.Symbol)
		exitp, exitOK := side.Chain.Lookup(exitTi, r.Symbol)
		if !entryOK || entry != r.EntryPrice || !exitOK || exitp != r.ExitPrice {
			detail.Append(r)
		}
	}
	if len(detail.Rows) > 0 {
		return types.CheckResult{
			Name: c.Name(), Segment: c.Segment(), Status: types.StatusFail,
			Message:  "Chain entry/exit mismatches detected",
			Details:  map[string]*types.IssueDetail{"LTP": detail},
			Severity: map[string]types.Severity{"LTP": types.SeverityError},
		}
	}
	return types.CheckResult{Name: c.Name(), Segment: c.Segment(), Status: types.StatusPass, Message: "Entry/Exit chain prices consistent"}
}

type duplicateRowsCheck struct{}

func (duplicateRowsCheck) Name() string           { return "duplicate_rows_check" }
func (duplicateRowsCheck) Segment() types.Segment { return types.SegmentGeneral }

// Rows are grouped over every column except idx; NaN cells compare
// equal for grouping purposes, matching the source tie-break.
func (c duplicateRowsCheck) Evaluate(t *types.Table, _ *SideInputs) types.CheckResult {
	counts := make(map[string]int, len(t.Rows))
	for i := range t.Rows {
		counts[dupKey(&t.Rows[i])]++
	}
	detail := newDetail(types.DetailColumns)
	for i := range t.Rows {
		if counts[dupKey(&t.Rows[i])] > 1 {
			detail.Append(t.Rows[i])
		}
	}
	if len(detail.Rows) > 0 {
		return types.CheckResult{
			Name: c.Name(), Segment: c.Segment(), Status: types.StatusFail,
			Message:  "Duplicate rows detected",
			Details:  map[string]*types.IssueDetail{"DUPLICATES": detail},
			Severity: map[string]types.Severity{"DUPLICATES": types.SeverityError},
		}
	}
	return types.CheckResult{Name: c.Name(), Segment: c.Segment(), Status: types.StatusPass, Message: "No duplicate rows detected"}
}

func dupKey(r *types.Record) string {
	return fmt.Sprintf("%s\x00%s\x00%s\x00%v\x00%v\x00%v\x00%v\x00%v\x00%s\x00%d\x00%d",
		r.Key, r.ExitTime, r.Symbol,
		r.EntryPrice, r.ExitPrice, r.Quantity, r.PositionStatus, r.Pnl,
		r.ExitType, r.EntryEpoch.Micros, r.ExitEpoch.Micros)
}
