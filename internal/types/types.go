package types

// Segment selects the validation profile for a run.
type Segment string

const (
	SegmentUniversal Segment = "UNIVERSAL"
	SegmentOptions   Segment = "OPTIONS"
	SegmentGeneral   Segment = "GENERAL"
)

// Status is the outcome of a single check invocation.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
	StatusInfo Status = "FETCHED INFO"
)

// Severity grades a single issue label within a check result.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// Epoch is a normalized timestamp in microseconds since the Unix epoch,
// shifted to exchange local time. Valid is false when the source string
// failed to parse; Micros is then the sentinel 0.
type Epoch struct {
	Micros int64
	Valid  bool
}

// Record is one normalized row of the trade log. Idx is assigned once at
// load time and is the join key used to re-attach violations to original
// rows. Records are immutable after normalization.
type Record struct {
	Idx            int
	Key            string
	ExitTime       string
	Symbol         string
	EntryPrice     float64
	ExitPrice      float64
	Quantity       float64
	PositionStatus float64
	Pnl            float64
	ExitType       string
	EntryEpoch     Epoch
	ExitEpoch      Epoch
	ExitTag        string
	ExpectedPnl    float64

	// Missing lists source columns that were empty or unparseable on this
	// row. Numeric fields degrade to NaN rather than aborting the load.
	Missing []string
}

// IsMissing reports whether the named source column was null on this row.
func (r *Record) IsMissing(col string) bool {
	for _, m := range r.Missing {
		if m == col {
			return true
		}
	}
	return false
}

// Table is the canonical in-memory trade table. Checks receive it
// read-only and never mutate rows.
type Table struct {
	Rows []Record
}

// Source column names in file order. The derived epoch columns come last
// and are dropped again when the violation report is written.
var (
	SourceColumns = []string{
		"Key", "ExitTime", "Symbol", "EntryPrice", "ExitPrice",
		"Quantity", "PositionStatus", "Pnl", "ExitType",
	}
	DetailColumns = []string{
		"idx", "Key", "ExitTime", "Symbol", "EntryPrice", "ExitPrice",
		"Quantity", "PositionStatus", "Pnl", "ExitType", "KeyEpoch", "ExitEpoch",
	}
	PnlDetailColumns = []string{
		"idx", "Key", "ExitTime", "Symbol", "EntryPrice", "ExitPrice",
		"Quantity", "PositionStatus", "Pnl", "ExitType", "KeyEpoch", "ExitEpoch",
		"ExitTag", "ExpectedPnl",
	}
)

// IssueDetail holds the offending rows for one issue label. Columns is
// the reporting column order; an empty Rows slice means no violations.
type IssueDetail struct {
	Columns []string
	Rows    []Record
}

// Append records an offending row under this issue label.
func (d *IssueDetail) Append(r Record) {
	d.Rows = append(d.Rows, r)
}

// CheckResult is the structured outcome of one check. It is created once
// per invocation, never mutated after return, and consumed only by the
// aggregator.
type CheckResult struct {
	Name     string
	Segment  Segment
	Status   Status
	Message  string
	Details  map[string]*IssueDetail
	Severity map[string]Severity
	// Info carries the key/value output of informational checks.
	Info map[string]string
}

// HasIssues reports whether any issue label carries at least one row.
func (cr *CheckResult) HasIssues() bool {
	for _, d := range cr.Details {
		if len(d.Rows) > 0 {
			return true
		}
	}
	return false
}
