package report

import "tradelog-audit/internal/types"

// Outcome is everything a completed validation run produced: the raw
// check results, the informational results and the aggregated report.
// Report is nil when aggregation itself failed ("no report generated").
type Outcome struct {
	Results    []types.CheckResult
	Infos      []types.CheckResult
	Report     *Report
	ReportPath string
	RunLogPath string
}
