package chain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	ix := New()
	ix.Add(1609473540, "NIFTY", 100.0)
	ix.Add(1609477140, "NIFTY", 105.0)

	p, ok := ix.Lookup(1609473540, "NIFTY")
	require.True(t, ok)
	assert.Equal(t, 100.0, p)

	_, ok = ix.Lookup(1609473540, "BANKNIFTY")
	assert.False(t, ok)

	_, ok = ix.Lookup(42, "NIFTY")
	assert.False(t, ok)
}

func TestDuplicateKeyLastMatchWins(t *testing.T) {
	ix := New()
	ix.Add(1609473540, "NIFTY", 100.0)
	ix.Add(1609473540, "NIFTY", 101.5)

	p, ok := ix.Lookup(1609473540, "NIFTY")
	require.True(t, ok)
	assert.Equal(t, 101.5, p)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chain.csv")
	content := "ti,sym,c\n1609473540,NIFTY,100.0\n1609477140,NIFTY,105.0\n1609473540,NIFTY,100.5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ix, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Len())

	// later file entry replaced the earlier one
	p, ok := ix.Lookup(1609473540, "NIFTY")
	require.True(t, ok)
	assert.Equal(t, 100.5, p)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
