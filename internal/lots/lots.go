package lots

import (
	"fmt"
	"os"
	"regexp"

	"github.com/gocarina/gocsv"
)

// expiry token at the end of an option symbol root: day, month
// abbreviation, two-digit year (e.g. 25JAN24).
var expiryToken = regexp.MustCompile(`^(.+?)\d{1,2}[A-Z]{3}\d{2}`)

// Table maps an option symbol root to its contractually required lot
// size.
type Table struct {
	sizes map[string]int
}

type row struct {
	Symbol  string `csv:"Symbol"`
	LotSize int    `csv:"LotSize"`
}

func New() *Table {
	return &Table{sizes: make(map[string]int)}
}

// Load reads a lot size CSV (Symbol, LotSize). Callers treat a failure
// as "side input absent" and skip the dependent check.
func Load(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lot sizes: %w", err)
	}
	var rows []row
	if err := gocsv.UnmarshalBytes(b, &rows); err != nil {
		return nil, fmt.Errorf("parse lot sizes: %w", err)
	}
	t := New()
	for _, r := range rows {
		t.sizes[r.Symbol] = r.LotSize
	}
	return t, nil
}

// Add registers a symbol root with its lot size.
func (t *Table) Add(symbol string, size int) {
	t.sizes[symbol] = size
}

// Lookup returns the required lot size for an option symbol root.
func (t *Table) Lookup(root string) (int, bool) {
	s, ok := t.sizes[root]
	return s, ok
}

// Root strips the trailing expiry token from an option symbol. The
// second return is false when the symbol carries no recognizable token.
func Root(symbol string) (string, bool) {
	m := expiryToken.FindStringSubmatch(symbol)
	if m == nil {
		return "", false
	}
	return m[1], true
}
