package checks

import (
	"testing"
	"time"

	"tradelog-audit/internal/lots"
	"tradelog-audit/internal/tradelog"
	"tradelog-audit/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpiry(t *testing.T) {
	deadline, ok := parseExpiry("NIFTY07JAN2115000CE")
	require.True(t, ok)
	assert.Equal(t, time.Date(2021, time.January, 8, 0, 0, 0, 0, time.UTC).UnixMicro(), deadline)

	// lowercase month abbreviation still parses
	_, ok = parseExpiry("NIFTY07Jan2115000CE")
	assert.True(t, ok)

	// impossible calendar date is rejected
	_, ok = parseExpiry("NIFTY31FEB2115000CE")
	assert.False(t, ok)

	// token position is fixed, a short or non-matching slice yields nothing
	_, ok = parseExpiry("NIFTY")
	assert.False(t, ok)
	_, ok = parseExpiry("NIFTYBANK07JAN21")
	assert.False(t, ok)
}

func TestOptionsExpiryCheck(t *testing.T) {
	within := validRaw()
	within.Symbol = "NIFTY07JAN2115000CE"
	within.Key = "05-01-2021 09:30"
	within.ExitTime = "07-01-2021 15:20"

	// exits on the grace day itself, still valid
	grace := within
	grace.ExitTime = "08-01-2021 05:00"

	late := within
	late.ExitTime = "09-01-2021 09:30"

	tbl := tradelog.Normalize([]tradelog.RawRow{within, grace, late})
	res := optionsExpiryCheck{}.Evaluate(tbl, nil)
	require.Equal(t, types.StatusFail, res.Status)
	assert.Equal(t, []int{2}, flaggedIdxs(res, "Exit After Expiry"))

	tbl = tradelog.Normalize([]tradelog.RawRow{within, grace})
	res = optionsExpiryCheck{}.Evaluate(tbl, nil)
	assert.Equal(t, types.StatusPass, res.Status)
}

func TestOptionsExpiryCheckSkipsUnparseableSymbols(t *testing.T) {
	raw := validRaw()
	raw.Symbol = "NIFTY" // no expiry token
	tbl := tradelog.Normalize([]tradelog.RawRow{raw})
	res := optionsExpiryCheck{}.Evaluate(tbl, nil)
	assert.Equal(t, types.StatusPass, res.Status)
}

func TestOptionsQuantityCheck(t *testing.T) {
	lt := lots.New()
	lt.Add("NIFTY", 10)

	good := validRaw()
	good.Symbol = "NIFTY07JAN2115000CE"

	wrongQty := good
	wrongQty.Quantity = "15"

	unknownRoot := good
	unknownRoot.Symbol = "FINNIFTY07JAN2115000CE"

	noToken := good
	noToken.Symbol = "RELIANCE"

	tbl := tradelog.Normalize([]tradelog.RawRow{good, wrongQty, unknownRoot, noToken})
	res := optionsQuantityCheck{}.Evaluate(tbl, &SideInputs{Lots: lt})
	require.Equal(t, types.StatusFail, res.Status)
	assert.Equal(t, []int{1}, flaggedIdxs(res, "QTY"))
	assert.ElementsMatch(t, []int{2, 3}, flaggedIdxs(res, "SYMBOL"))
	assert.Equal(t, types.SeverityError, res.Severity["QTY"])
	assert.Equal(t, types.SeverityError, res.Severity["SYMBOL"])

	tbl = tradelog.Normalize([]tradelog.RawRow{good})
	res = optionsQuantityCheck{}.Evaluate(tbl, &SideInputs{Lots: lt})
	assert.Equal(t, types.StatusPass, res.Status)
}
