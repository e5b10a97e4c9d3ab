package chain

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// Index is the price-chain side input: a point lookup from
// (epoch seconds, symbol) to last traded price. When the source carries
// duplicate keys the last entry wins, matching the upstream tie-break.
type Index struct {
	prices map[key]float64
}

type key struct {
	ti  int64
	sym string
}

type row struct {
	Ti  int64   `csv:"ti"`
	Sym string  `csv:"sym"`
	C   float64 `csv:"c"`
}

func New() *Index {
	return &Index{prices: make(map[key]float64)}
}

// Load reads a price chain CSV (ti, sym, c). Callers treat a failure as
// "side input absent" and skip the dependent check.
func Load(path string) (*Index, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read price chain: %w", err)
	}
	var rows []row
	if err := gocsv.UnmarshalBytes(b, &rows); err != nil {
		return nil, fmt.Errorf("parse price chain: %w", err)
	}
	idx := New()
	for _, r := range rows {
		idx.Add(r.Ti, r.Sym, r.C)
	}
	return idx, nil
}

// Add inserts a price point, replacing any earlier entry for the key.
func (ix *Index) Add(ti int64, sym string, price float64) {
	ix.prices[key{ti, sym}] = price
}

// Lookup returns the last traded price recorded at exactly
// (ti, sym), with an explicit not-found variant.
func (ix *Index) Lookup(ti int64, sym string) (float64, bool) {
	p, ok := ix.prices[key{ti, sym}]
	return p, ok
}

// Len reports the number of distinct (ti, sym) keys.
func (ix *Index) Len() int {
	return len(ix.prices)
}
