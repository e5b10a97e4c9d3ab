package checks

import (
	"fmt"
	"math"
	"sort"

	"tradelog-audit/internal/types"
)

// Informational checks never contribute a FAIL; their output is
// reported separately from violations.

type concurrentPositionsCheck struct{}

func (concurrentPositionsCheck) Name() string           { return "Concurrent positions" }
func (concurrentPositionsCheck) Segment() types.Segment { return types.SegmentUniversal }

// A signed event stream over all rows: +1 at entry, -1 at exit, sorted
// by event time. The running sum after each event is the concurrent
// open position count; non-positive counts are discarded before the
// min/max/mean summary.
func (c concurrentPositionsCheck) Evaluate(t *types.Table, _ *SideInputs) types.CheckResult {
	type event struct {
		ts    int64
		delta int
	}
	events := make([]event, 0, 2*len(t.Rows))
	for _, r := range t.Rows {
		events = append(events, event{r.EntryEpoch.Micros, +1})
	}
	for _, r := range t.Rows {
		events = append(events, event{r.ExitEpoch.Micros, -1})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].ts < events[j].ts })

	var counts []int
	running := 0
	for _, e := range events {
		running += e.delta
		if running > 0 {
			counts = append(counts, running)
		}
	}

	info := map[string]string{"min": "0", "max": "0", "mean": "0.0000"}
	if len(counts) > 0 {
		minC, maxC, sum := counts[0], counts[0], 0
		for _, v := range counts {
			if v < minC {
				minC = v
			}
			if v > maxC {
				maxC = v
			}
			sum += v
		}
		info["min"] = fmt.Sprintf("%d", minC)
		info["max"] = fmt.Sprintf("%d", maxC)
		info["mean"] = fmt.Sprintf("%.4f", float64(sum)/float64(len(counts)))
	}
	return types.CheckResult{
		Name: c.Name(), Segment: c.Segment(), Status: types.StatusInfo,
		Message: "Concurrent Positions", Info: info,
	}
}

type pnlDistributionCheck struct{}

func (pnlDistributionCheck) Name() string           { return "PnL distribution" }
func (pnlDistributionCheck) Segment() types.Segment { return types.SegmentUniversal }

func (c pnlDistributionCheck) Evaluate(t *types.Table, _ *SideInputs) types.CheckResult {
	mean, maxV, minV := summarize(t, func(r *types.Record) float64 { return r.Pnl })
	return types.CheckResult{
		Name: c.Name(), Segment: c.Segment(), Status: types.StatusInfo,
		Message: "Pnl Distribution",
		Info: map[string]string{
			"mean": fmt.Sprintf("Rs.%.4f", mean),
			"max":  fmt.Sprintf("Rs.%.4f", maxV),
			"min":  fmt.Sprintf("Rs.%.4f", minV),
		},
	}
}

type tradeDurationCheck struct{}

func (tradeDurationCheck) Name() string           { return "Trades duration (DAYS)" }
func (tradeDurationCheck) Segment() types.Segment { return types.SegmentUniversal }

func (c tradeDurationCheck) Evaluate(t *types.Table, _ *SideInputs) types.CheckResult {
	const microsPerDay = 86400 * 1e6
	mean, maxV, minV := summarize(t, func(r *types.Record) float64 {
		return float64(r.ExitEpoch.Micros-r.EntryEpoch.Micros) / microsPerDay
	})
	return types.CheckResult{
		Name: c.Name(), Segment: c.Segment(), Status: types.StatusInfo,
		Message: "Trade Duration",
		Info: map[string]string{
			"mean": fmt.Sprintf("%.4f DAYS", mean),
			"max":  fmt.Sprintf("%.4f DAYS", maxV),
			"min":  fmt.Sprintf("%.4f DAYS", minV),
		},
	}
}

func summarize(t *types.Table, value func(*types.Record) float64) (mean, maxV, minV float64) {
	if len(t.Rows) == 0 {
		return 0, 0, 0
	}
	maxV = math.Inf(-1)
	minV = math.Inf(1)
	sum := 0.0
	for i := range t.Rows {
		v := value(&t.Rows[i])
		sum += v
		if v > maxV {
			maxV = v
		}
		if v < minV {
			minV = v
		}
	}
	return sum / float64(len(t.Rows)), maxV, minV
}
