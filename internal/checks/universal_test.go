package checks

import (
	"math"
	"testing"

	"tradelog-audit/internal/chain"
	"tradelog-audit/internal/tradelog"
	"tradelog-audit/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw() tradelog.RawRow {
	return tradelog.RawRow{
		Key:            "01-01-2021 09:30",
		ExitTime:       "01-01-2021 10:30",
		Symbol:         "NIFTY",
		EntryPrice:     "100.0",
		ExitPrice:      "105.0",
		Quantity:       "10",
		PositionStatus: "1",
		Pnl:            "50.0",
		ExitType:       "Target Hit",
	}
}

func baseTable(n int) *types.Table {
	raws := make([]tradelog.RawRow, n)
	for i := range raws {
		raws[i] = validRaw()
	}
	return tradelog.Normalize(raws)
}

func flaggedIdxs(res types.CheckResult, label string) []int {
	d := res.Details[label]
	if d == nil {
		return nil
	}
	idxs := make([]int, 0, len(d.Rows))
	for _, r := range d.Rows {
		idxs = append(idxs, r.Idx)
	}
	return idxs
}

func TestNoNullsCheck(t *testing.T) {
	tbl := baseTable(3)
	res := noNullsCheck{}.Evaluate(tbl, nil)
	assert.Equal(t, types.StatusPass, res.Status)

	tbl.Rows[1].Missing = []string{"EntryPrice"}
	tbl.Rows[1].EntryPrice = math.NaN()
	res = noNullsCheck{}.Evaluate(tbl, nil)
	require.Equal(t, types.StatusFail, res.Status)
	assert.Equal(t, []int{1}, flaggedIdxs(res, "Nulls"))
	assert.Equal(t, types.SeverityError, res.Severity["Nulls"])
}

func TestNonZeroCheck(t *testing.T) {
	tbl := baseTable(3)
	res := nonZeroCheck{}.Evaluate(tbl, nil)
	assert.Equal(t, types.StatusPass, res.Status)

	tbl.Rows[2].Quantity = 0
	res = nonZeroCheck{}.Evaluate(tbl, nil)
	require.Equal(t, types.StatusFail, res.Status)
	assert.Contains(t, flaggedIdxs(res, "Zeros"), 2)
}

func TestNonZeroCheckAllMonitoredColumns(t *testing.T) {
	for _, mutate := range []func(*types.Record){
		func(r *types.Record) { r.PositionStatus = 0 },
		func(r *types.Record) { r.Quantity = 0 },
		func(r *types.Record) { r.EntryPrice = 0 },
		func(r *types.Record) { r.ExitPrice = 0 },
		func(r *types.Record) { r.Pnl = 0 },
	} {
		tbl := baseTable(1)
		mutate(&tbl.Rows[0])
		res := nonZeroCheck{}.Evaluate(tbl, nil)
		assert.Equal(t, types.StatusFail, res.Status)
	}
}

func TestNoFractionalCheck(t *testing.T) {
	tbl := baseTable(2)
	res := noFractionalCheck{}.Evaluate(tbl, nil)
	assert.Equal(t, types.StatusPass, res.Status)

	tbl.Rows[0].Quantity = 10.5
	res = noFractionalCheck{}.Evaluate(tbl, nil)
	require.Equal(t, types.StatusFail, res.Status)
	assert.Equal(t, []int{0}, flaggedIdxs(res, "Fractional Value"))
}

func TestNoNegativesCheck(t *testing.T) {
	tbl := baseTable(2)
	res := noNegativesCheck{}.Evaluate(tbl, nil)
	assert.Equal(t, types.StatusPass, res.Status)

	tbl.Rows[1].EntryPrice = -5
	res = noNegativesCheck{}.Evaluate(tbl, nil)
	require.Equal(t, types.StatusFail, res.Status)
	assert.Equal(t, []int{1}, flaggedIdxs(res, "Negatives"))
}

func TestExitAfterEntryCheck(t *testing.T) {
	tbl := baseTable(2)
	res := exitAfterEntryCheck{}.Evaluate(tbl, nil)
	assert.Equal(t, types.StatusPass, res.Status)

	// exit strictly before entry fails
	raw := validRaw()
	raw.Key = "01-01-2021 11:00"
	raw.ExitTime = "01-01-2021 10:00"
	tbl = tradelog.Normalize([]tradelog.RawRow{raw})
	res = exitAfterEntryCheck{}.Evaluate(tbl, nil)
	require.Equal(t, types.StatusFail, res.Status)
	assert.Equal(t, types.SeverityError, res.Severity["Exit < Entry"])
}

func TestExitEqualsEntryIsValid(t *testing.T) {
	raw := validRaw()
	raw.ExitTime = raw.Key
	tbl := tradelog.Normalize([]tradelog.RawRow{raw})
	res := exitAfterEntryCheck{}.Evaluate(tbl, nil)
	assert.Equal(t, types.StatusPass, res.Status)
}

func TestMarketHoursCheck(t *testing.T) {
	tbl := baseTable(2)
	res := marketHoursCheck{}.Evaluate(tbl, nil)
	assert.Equal(t, types.StatusPass, res.Status)

	raw := validRaw()
	raw.Key = "01-01-2021 09:00" // before open
	tbl = tradelog.Normalize([]tradelog.RawRow{raw, validRaw()})
	res = marketHoursCheck{}.Evaluate(tbl, nil)
	require.Equal(t, types.StatusFail, res.Status)
	assert.Equal(t, []int{0}, flaggedIdxs(res, "OUTSIDE MARKET HOURS"))

	late := validRaw()
	late.ExitTime = "01-01-2021 15:26" // after close
	tbl = tradelog.Normalize([]tradelog.RawRow{late})
	res = marketHoursCheck{}.Evaluate(tbl, nil)
	assert.Equal(t, types.StatusFail, res.Status)
}

func TestMarketHoursBoundariesInclusive(t *testing.T) {
	raw := validRaw()
	raw.Key = "01-01-2021 09:15"
	raw.ExitTime = "01-01-2021 15:25"
	tbl := tradelog.Normalize([]tradelog.RawRow{raw})
	res := marketHoursCheck{}.Evaluate(tbl, nil)
	assert.Equal(t, types.StatusPass, res.Status)
}

func TestPnlCheckToleranceIsOneSided(t *testing.T) {
	// actual slightly above expected never fails
	tbl := baseTable(1)
	tbl.Rows[0].Pnl = 50.00000001
	tbl.Rows[0].ExpectedPnl = 50.0
	res := pnlCheck{}.Evaluate(tbl, nil)
	assert.Equal(t, types.StatusPass, res.Status)

	// actual well below expected fails under the Pnl/ERROR label
	tbl = baseTable(1)
	tbl.Rows[0].Pnl = 30.0
	tbl.Rows[0].ExpectedPnl = 50.0
	res = pnlCheck{}.Evaluate(tbl, nil)
	require.Equal(t, types.StatusFail, res.Status)
	assert.Equal(t, []int{0}, flaggedIdxs(res, "Pnl"))
	assert.Equal(t, types.SeverityError, res.Severity["Pnl"])

	// actual exceeding expected by a lot still passes
	tbl = baseTable(1)
	tbl.Rows[0].Pnl = 500.0
	tbl.Rows[0].ExpectedPnl = 50.0
	res = pnlCheck{}.Evaluate(tbl, nil)
	assert.Equal(t, types.StatusPass, res.Status)
}

func TestPnlCheckTagSignAgreement(t *testing.T) {
	// target hit with a negative pnl warns under PnL
	raw := validRaw()
	raw.Pnl = "-10"
	raw.ExitPrice = "99"
	tbl := tradelog.Normalize([]tradelog.RawRow{raw})
	res := pnlCheck{}.Evaluate(tbl, nil)
	require.Equal(t, types.StatusFail, res.Status)
	assert.Equal(t, []int{0}, flaggedIdxs(res, "PnL"))
	assert.Equal(t, types.SeverityWarning, res.Severity["PnL"])

	// stoploss hit with a positive pnl warns as well
	raw = validRaw()
	raw.ExitType = "Stoploss Hit"
	raw.Pnl = "10"
	raw.ExitPrice = "101"
	tbl = tradelog.Normalize([]tradelog.RawRow{raw})
	res = pnlCheck{}.Evaluate(tbl, nil)
	require.Equal(t, types.StatusFail, res.Status)
	assert.Equal(t, []int{0}, flaggedIdxs(res, "PnL"))
}

func TestChainCheck(t *testing.T) {
	tbl := baseTable(1)
	entryTi := tbl.Rows[0].EntryEpoch.Micros/1e6 - 60
	exitTi := tbl.Rows[0].ExitEpoch.Micros/1e6 - 60

	ix := chain.New()
	ix.Add(entryTi, "NIFTY", 100.0)
	ix.Add(exitTi, "NIFTY", 105.0)

	res := chainConsistencyCheck{}.Evaluate(tbl, &SideInputs{Chain: ix})
	assert.Equal(t, types.StatusPass, res.Status)

	// price mismatch at any precision fails
	ix.Add(exitTi, "NIFTY", 105.01)
	res = chainConsistencyCheck{}.Evaluate(tbl, &SideInputs{Chain: ix})
	require.Equal(t, types.StatusFail, res.Status)
	assert.Equal(t, []int{0}, flaggedIdxs(res, "LTP"))
}

func TestChainCheckMissingLookupFails(t *testing.T) {
	tbl := baseTable(1)
	res := chainConsistencyCheck{}.Evaluate(tbl, &SideInputs{Chain: chain.New()})
	assert.Equal(t, types.StatusFail, res.Status)
}

func TestChainCheckSentinelEpochAlwaysFlagged(t *testing.T) {
	raw := validRaw()
	raw.Key = "garbage"
	tbl := tradelog.Normalize([]tradelog.RawRow{raw})

	// even a chain that would match the exit leg cannot rescue the row
	ix := chain.New()
	exitTi := tbl.Rows[0].ExitEpoch.Micros/1e6 - 60
	ix.Add(exitTi, "NIFTY", 105.0)

	res := chainConsistencyCheck{}.Evaluate(tbl, &SideInputs{Chain: ix})
	require.Equal(t, types.StatusFail, res.Status)
	assert.Equal(t, []int{0}, flaggedIdxs(res, "LTP"))
}

func TestDuplicateRowsCheck(t *testing.T) {
	tbl := baseTable(2) // identical except idx
	res := duplicateRowsCheck{}.Evaluate(tbl, nil)
	require.Equal(t, types.StatusFail, res.Status)
	assert.ElementsMatch(t, []int{0, 1}, flaggedIdxs(res, "DUPLICATES"))

	distinct := validRaw()
	distinct.Symbol = "BANKNIFTY"
	tbl = tradelog.Normalize([]tradelog.RawRow{validRaw(), distinct})
	res = duplicateRowsCheck{}.Evaluate(tbl, nil)
	assert.Equal(t, types.StatusPass, res.Status)
}

func TestBatteryIsIdempotent(t *testing.T) {
	tbl := baseTable(3)
	tbl.Rows[1].Quantity = 0
	side := &SideInputs{}

	first := make([]types.CheckResult, 0)
	second := make([]types.CheckResult, 0)
	for _, c := range []Check{noNullsCheck{}, nonZeroCheck{}, noFractionalCheck{}, exitAfterEntryCheck{}, marketHoursCheck{}, pnlCheck{}, noNegativesCheck{}, duplicateRowsCheck{}} {
		first = append(first, c.Evaluate(tbl, side))
	}
	for _, c := range []Check{noNullsCheck{}, nonZeroCheck{}, noFractionalCheck{}, exitAfterEntryCheck{}, marketHoursCheck{}, pnlCheck{}, noNegativesCheck{}, duplicateRowsCheck{}} {
		second = append(second, c.Evaluate(tbl, side))
	}
	assert.Equal(t, first, second)
}
