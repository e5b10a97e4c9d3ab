// Package report merges check results into a single deduplicated,
// severity-tagged violation report keyed by original row identity.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"tradelog-audit/internal/logger"
	"tradelog-audit/internal/types"
)

// Informational checks whose FAIL rows, if any, are reported to the
// operator console only and never written to the persisted report.
var infoCheckNames = map[string]bool{
	"concurrent positions":   true,
	"pnl distribution":       true,
	"trades duration (days)": true,
}

// Row is one expanded report row: a flagged trade duplicated once per
// distinct issue attached to its idx.
type Row struct {
	Record     types.Record
	IssueType  string
	IssueLevel types.Severity
}

// IssueCount is one entry of the per-issue-type frequency breakdown.
type IssueCount struct {
	IssueType string
	Count     int
}

// Report is the aggregation outcome. An empty Rows slice is the
// explicit "no violations" result; a nil *Report from Build means the
// aggregation itself failed and no report was generated.
type Report struct {
	Rows        []Row
	Errors      int
	Warnings    int
	IssueCounts []IssueCount
}

type issueKey struct {
	idx   int
	issue string
}

// Build merges all FAIL results into one flattened report. Any
// unexpected failure inside the aggregation is caught and logged and
// yields a nil report rather than crashing the validation run.
func Build(ctx context.Context, results []types.CheckResult, t *types.Table, console io.Writer) (rep *Report) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "Report aggregation failed, no report generated", "panic", fmt.Sprint(r))
			rep = nil
		}
	}()

	flagged := make(map[int]bool)
	issuesByIdx := make(map[int][]string)
	severityByKey := make(map[issueKey]types.Severity)
	infoViolations := make(map[int]string)
	errors, warnings := 0, 0

	for _, result := range results {
		if result.Status != types.StatusFail || result.Details == nil {
			continue
		}
		isInfo := infoCheckNames[strings.ToLower(result.Name)]
		for _, label := range sortedLabels(result.Details) {
			detail := result.Details[label]
			if detail == nil || len(detail.Rows) == 0 {
				continue
			}
			severity := types.SeverityError
			if s, ok := result.Severity[label]; ok {
				severity = s
			}
			for _, row := range detail.Rows {
				if isInfo {
					infoViolations[row.Idx] = fmt.Sprintf("%s: %s", result.Name, label)
					continue
				}
				flagged[row.Idx] = true
				issuesByIdx[row.Idx] = append(issuesByIdx[row.Idx], label)
				severityByKey[issueKey{row.Idx, label}] = severity
				if severity == types.SeverityError {
					errors++
				} else {
					warnings++
				}
			}
		}
	}

	if len(infoViolations) > 0 {
		fmt.Fprintf(console, "\n=== Info Check Violations (Console Only) ===\n")
		idxs := make([]int, 0, len(infoViolations))
		for idx := range infoViolations {
			idxs = append(idxs, idx)
		}
		sort.Ints(idxs)
		for _, idx := range idxs {
			fmt.Fprintf(console, "  Row %d: %s\n", idx, infoViolations[idx])
		}
	}

	rep = &Report{Errors: errors, Warnings: warnings}
	if len(flagged) == 0 {
		return rep
	}

	// Expand each flagged row once per attached issue label, then
	// collapse exact duplicates. Table order keeps idx ascending.
	seen := make(map[string]bool)
	for _, rec := range t.Rows {
		if !flagged[rec.Idx] {
			continue
		}
		for _, label := range issuesByIdx[rec.Idx] {
			severity := severityByKey[issueKey{rec.Idx, label}]
			dedup := fmt.Sprintf("%d\x00%s\x00%s", rec.Idx, label, severity)
			if seen[dedup] {
				continue
			}
			seen[dedup] = true
			rep.Rows = append(rep.Rows, Row{Record: rec, IssueType: label, IssueLevel: severity})
		}
	}

	counts := make(map[string]int)
	for _, labels := range issuesByIdx {
		for _, label := range labels {
			counts[strings.ToUpper(label)]++
		}
	}
	for issue, n := range counts {
		rep.IssueCounts = append(rep.IssueCounts, IssueCount{IssueType: issue, Count: n})
	}
	sort.Slice(rep.IssueCounts, func(i, j int) bool {
		if rep.IssueCounts[i].Count != rep.IssueCounts[j].Count {
			return rep.IssueCounts[i].Count > rep.IssueCounts[j].Count
		}
		return rep.IssueCounts[i].IssueType < rep.IssueCounts[j].IssueType
	})
	return rep
}

func sortedLabels(details map[string]*types.IssueDetail) []string {
	labels := make([]string, 0, len(details))
	for l := range details {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Header of the persisted report: source columns minus the derived
// epoch pair, plus the issue annotation.
var csvHeader = []string{
	"idx", "Key", "ExitTime", "Symbol", "EntryPrice", "ExitPrice",
	"Quantity", "PositionStatus", "Pnl", "ExitType", "IssueType", "IssueLevel",
}

// WriteCSV persists the report to a timestamped file under dir and
// returns the path. An empty report writes no file.
func (r *Report) WriteCSV(dir, algoName string) (string, error) {
	if len(r.Rows) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("violations_report_%s_%s.csv", algoName, time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, row := range r.Rows {
		rec := row.Record
		out := []string{
			strconv.Itoa(rec.Idx),
			rec.Key, rec.ExitTime, rec.Symbol,
			formatFloat(rec.EntryPrice), formatFloat(rec.ExitPrice),
			formatFloat(rec.Quantity), formatFloat(rec.PositionStatus), formatFloat(rec.Pnl),
			rec.ExitType, row.IssueType, string(row.IssueLevel),
		}
		if err := w.Write(out); err != nil {
			return "", err
		}
	}
	w.Flush()
	return path, w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// PrintSummary writes the per-check PASS/FAIL lines and the info-check
// key/value dump to the console (and through it, the run log).
func PrintSummary(console io.Writer, results, infos []types.CheckResult) {
	fmt.Fprintln(console, "=== Validation Summary ===")
	for _, r := range results {
		fmt.Fprintf(console, "[%s] %s: %s\n", r.Status, r.Name, r.Message)
	}
	if len(infos) == 0 {
		return
	}
	fmt.Fprintln(console, "\nInfo Checks:")
	for _, r := range infos {
		fmt.Fprintf(console, "- %s\n", r.Name)
		for _, k := range infoKeyOrder(r.Info) {
			fmt.Fprintf(console, "%s: %s\n", strings.ToUpper(k), r.Info[k])
		}
	}
}

func infoKeyOrder(info map[string]string) []string {
	preferred := []string{"min", "max", "mean"}
	var keys []string
	for _, k := range preferred {
		if _, ok := info[k]; ok {
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range info {
		found := false
		for _, p := range preferred {
			if k == p {
				found = true
				break
			}
		}
		if !found {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// Print writes the report totals and the issue-type frequency
// breakdown, or the explicit no-violations outcome.
func (r *Report) Print(console io.Writer, outputFile string) {
	fmt.Fprintf(console, "\n=== Violations Report Generated (Excluding Info Checks) ===\n")
	if len(r.Rows) == 0 {
		fmt.Fprintln(console, "No violations found (excluding info checks).")
		return
	}
	fmt.Fprintf(console, "Output file: %s\n", outputFile)
	fmt.Fprintln(console, "\nBreakdown by Issue Type:")
	fmt.Fprintf(console, "ERRORS: %d\n", r.Errors)
	fmt.Fprintf(console, "WARNINGS: %d\n", r.Warnings)
	for _, ic := range r.IssueCounts {
		fmt.Fprintf(console, "  %s: %d\n", ic.IssueType, ic.Count)
	}
}
