// Package checks implements the validation rule battery run over a
// normalized trade table. Every check is a pure, stateless evaluation
// producing one structured result; the battery never short-circuits and
// a failure in one check cannot suppress another's evaluation.
package checks

import (
	"context"
	"fmt"

	"tradelog-audit/internal/chain"
	"tradelog-audit/internal/logger"
	"tradelog-audit/internal/lots"
	"tradelog-audit/internal/trace"
	"tradelog-audit/internal/types"

	"golang.org/x/sync/errgroup"
)

// SideInputs carries the optional companion datasets. A nil field means
// the dataset is absent and the dependent check is skipped, never
// retried or deferred.
type SideInputs struct {
	Chain *chain.Index
	Lots  *lots.Table
}

// Check is the single capability every battery member implements.
type Check interface {
	Name() string
	Segment() types.Segment
	Evaluate(t *types.Table, side *SideInputs) types.CheckResult
}

// sideDependent is implemented by checks that require a side input and
// must be skipped when it is absent.
type sideDependent interface {
	Ready(side *SideInputs) bool
}

// Options toggles the optional informational checks. The PnL and
// duration distributions are available but off in the default run.
type Options struct {
	PnlDistribution bool
	TradeDuration   bool
}

// Registry returns the full battery in its stable reporting order.
func Registry(opts Options) []Check {
	reg := []Check{
		noNullsCheck{},
		nonZeroCheck{},
		noFractionalCheck{},
		exitAfterEntryCheck{},
		marketHoursCheck{},
		pnlCheck{},
		noNegativesCheck{},
		duplicateRowsCheck{},
		chainConsistencyCheck{},
		optionsExpiryCheck{},
		optionsQuantityCheck{},
		concurrentPositionsCheck{},
	}
	if opts.PnlDistribution {
		reg = append(reg, pnlDistributionCheck{})
	}
	if opts.TradeDuration {
		reg = append(reg, tradeDurationCheck{})
	}
	return reg
}

// Run evaluates the battery for the selected segment. Checks execute in
// parallel; results keep registration order. A check that panics is
// logged and dropped so the aggregator still gets a best-effort result
// set.
func Run(ctx context.Context, reg []Check, segment types.Segment, t *types.Table, side *SideInputs) []types.CheckResult {
	ctx, span := trace.StartSpan(ctx, "checks.Run")
	defer span.End()

	if side == nil {
		side = &SideInputs{}
	}

	slots := make([]*types.CheckResult, len(reg))
	g, ctx := errgroup.WithContext(ctx)
	for i, c := range reg {
		if c.Segment() == types.SegmentOptions && segment != types.SegmentOptions {
			continue
		}
		if dep, ok := c.(sideDependent); ok && !dep.Ready(side) {
			logger.Warn(ctx, "Check skipped, side input absent", "check", c.Name())
			continue
		}
		i, c := i, c
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					logger.Error(ctx, "Check panicked, dropping its result",
						"check", c.Name(), "panic", fmt.Sprint(r))
				}
			}()
			res := c.Evaluate(t, side)
			slots[i] = &res
			return nil
		})
	}
	_ = g.Wait()

	results := make([]types.CheckResult, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results
}

func newDetail(cols []string) *types.IssueDetail {
	return &types.IssueDetail{Columns: cols}
}
