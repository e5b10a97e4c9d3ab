package lots

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot(t *testing.T) {
	cases := []struct {
		symbol string
		root   string
		ok     bool
	}{
		{"NIFTY25JAN24C21000", "NIFTY", true},
		{"BANKNIFTY4FEB2545000PE", "BANKNIFTY", true},
		{"RELIANCE", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		root, ok := Root(c.symbol)
		assert.Equal(t, c.ok, ok, "symbol %q", c.symbol)
		assert.Equal(t, c.root, root, "symbol %q", c.symbol)
	}
}

func TestLookup(t *testing.T) {
	tbl := New()
	tbl.Add("NIFTY", 75)

	size, ok := tbl.Lookup("NIFTY")
	require.True(t, ok)
	assert.Equal(t, 75, size)

	_, ok = tbl.Lookup("BANKNIFTY")
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lots.csv")
	content := "Symbol,LotSize\nNIFTY,75\nBANKNIFTY,15\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tbl, err := Load(path)
	require.NoError(t, err)

	size, ok := tbl.Lookup("BANKNIFTY")
	require.True(t, ok)
	assert.Equal(t, 15, size)
}
