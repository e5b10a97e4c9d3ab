package interfaces

import (
	"context"
	"time"

	"tradelog-audit/internal/chain"
	"tradelog-audit/internal/report"
)

// Auditor runs the full validation pipeline over a configured trade
// log and produces the aggregated outcome.
type Auditor interface {
	Run(ctx context.Context) (*report.Outcome, error)
}

// ChainSource supplies a price chain index for a set of symbols over a
// time range. It backs the optional broker-sourced chain side input.
type ChainSource interface {
	FetchChain(ctx context.Context, symbols []string, from, to time.Time) (*chain.Index, error)
}
