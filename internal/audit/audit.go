// Package audit wires the loader, side inputs, check battery and
// report builder into one validation run.
package audit

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"tradelog-audit/internal/chain"
	"tradelog-audit/internal/checks"
	"tradelog-audit/internal/interfaces"
	"tradelog-audit/internal/logger"
	"tradelog-audit/internal/lots"
	"tradelog-audit/internal/report"
	"tradelog-audit/internal/runlog"
	"tradelog-audit/internal/store"
	"tradelog-audit/internal/tradelog"
	"tradelog-audit/internal/types"
)

// Runner is the default Auditor implementation.
type Runner struct {
	cfg         *store.Config
	chainSource interfaces.ChainSource
}

var _ interfaces.Auditor = (*Runner)(nil)

// New creates a Runner. chainSource may be nil; it is consulted only
// when the config selects a broker-sourced price chain.
func New(cfg *store.Config, chainSource interfaces.ChainSource) *Runner {
	return &Runner{cfg: cfg, chainSource: chainSource}
}

// Run executes the full validation pipeline. The only errors returned
// are structural: an unreadable trade log or missing required columns.
// Everything else degrades to flagged rows or skipped checks.
func (r *Runner) Run(ctx context.Context) (*report.Outcome, error) {
	console, err := runlog.New(r.cfg.AlgoName, r.cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	defer console.Close()
	if err := runlog.CompressOlder(r.cfg.OutputDir, r.cfg.Runlog.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old run logs", "error", err)
	}

	table, err := r.loadTable()
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "Trade log loaded", "rows", len(table.Rows), "path", r.cfg.TradeLog)

	side := r.loadSideInputs(ctx, table)
	segment := store.ResolveSegment(r.cfg.Segment)

	reg := checks.Registry(checks.Options{
		PnlDistribution: r.cfg.Info.PnlDistribution,
		TradeDuration:   r.cfg.Info.TradeDuration,
	})
	results := checks.Run(ctx, reg, segment, table, side)

	var violations, infos []types.CheckResult
	for _, res := range results {
		logger.CheckOutcome(ctx, res.Name, string(res.Status), res.Message)
		if res.Status == types.StatusInfo {
			infos = append(infos, res)
		} else {
			violations = append(violations, res)
		}
	}

	report.PrintSummary(console, violations, infos)
	fmt.Fprintln(console, "\n"+strings.Repeat("=", 80))

	rep := report.Build(ctx, violations, table, console)
	outcome := &report.Outcome{
		Results:    violations,
		Infos:      infos,
		Report:     rep,
		RunLogPath: console.Path(),
	}
	if rep == nil {
		fmt.Fprintln(console, "No report generated.")
		return outcome, nil
	}

	if len(rep.Rows) > 0 {
		path, werr := rep.WriteCSV(r.cfg.OutputDir, r.cfg.AlgoName)
		if werr != nil {
			logger.ErrorWithErr(ctx, "Failed to write violations report", werr)
		}
		outcome.ReportPath = path
	}
	rep.Print(console, outcome.ReportPath)
	logger.Violations(ctx, rep.Errors, rep.Warnings, "report", outcome.ReportPath)

	fmt.Fprintf(console, "\n[OK] Console output logged to: %s\n", console.Path())
	return outcome, nil
}

func (r *Runner) loadTable() (*types.Table, error) {
	var (
		raws []tradelog.RawRow
		err  error
	)
	if ext := strings.ToLower(filepath.Ext(r.cfg.TradeLog)); ext == ".xlsx" || ext == ".xlsm" {
		raws, err = tradelog.LoadExcel(r.cfg.TradeLog)
	} else {
		raws, err = tradelog.Load(r.cfg.TradeLog)
	}
	if err != nil {
		return nil, err
	}
	return tradelog.Normalize(raws), nil
}

// loadSideInputs resolves the optional chain and lot size datasets.
// Absence or a load failure degrades the dependent check to skipped,
// never aborts the run.
func (r *Runner) loadSideInputs(ctx context.Context, table *types.Table) *checks.SideInputs {
	side := &checks.SideInputs{}

	switch {
	case r.cfg.ChainFile != "":
		idx, err := chain.Load(r.cfg.ChainFile)
		if err != nil {
			logger.Warn(ctx, "Price chain unavailable, chain check will be skipped", "error", err)
		} else {
			side.Chain = idx
		}
	case strings.EqualFold(r.cfg.Chain.Source, "ZERODHA") && r.chainSource != nil:
		idx, err := r.fetchChain(ctx, table)
		if err != nil {
			logger.Warn(ctx, "Broker price chain unavailable, chain check will be skipped", "error", err)
		} else {
			side.Chain = idx
		}
	}

	if r.cfg.LotSizeFile != "" {
		lt, err := lots.Load(r.cfg.LotSizeFile)
		if err != nil {
			logger.Warn(ctx, "Lot size table unavailable, quantity check will be skipped", "error", err)
		} else {
			side.Lots = lt
		}
	}
	return side
}

func (r *Runner) fetchChain(ctx context.Context, table *types.Table) (*chain.Index, error) {
	symbols := make([]string, 0)
	seen := make(map[string]bool)
	var minMicros, maxMicros int64
	for _, rec := range table.Rows {
		if rec.Symbol != "" && !seen[rec.Symbol] {
			seen[rec.Symbol] = true
			symbols = append(symbols, rec.Symbol)
		}
		if rec.EntryEpoch.Valid && (minMicros == 0 || rec.EntryEpoch.Micros < minMicros) {
			minMicros = rec.EntryEpoch.Micros
		}
		if rec.ExitEpoch.Valid && rec.ExitEpoch.Micros > maxMicros {
			maxMicros = rec.ExitEpoch.Micros
		}
	}
	if len(symbols) == 0 || minMicros == 0 || maxMicros == 0 {
		return nil, fmt.Errorf("trade log has no usable symbols or timestamps")
	}
	// Widen by a couple of minutes so the preceding-tick lookup always
	// has a candle to land on.
	from := time.UnixMicro(minMicros).Add(-2 * time.Minute)
	to := time.UnixMicro(maxMicros).Add(2 * time.Minute)
	return r.chainSource.FetchChain(ctx, symbols, from, to)
}
