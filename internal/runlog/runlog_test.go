package runlog

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerTeesToFile(t *testing.T) {
	dir := t.TempDir()
	l, err := New("demo", dir)
	require.NoError(t, err)
	l.terminal = io.Discard

	fmt.Fprintln(l, "hello run log")
	require.NoError(t, l.Close())

	assert.True(t, strings.Contains(filepath.Base(l.Path()), "validation_demo_"))
	b, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	content := string(b)
	assert.Contains(t, content, "Run started at:")
	assert.Contains(t, content, "hello run log")
	assert.Contains(t, content, "Run completed at:")
}

func TestCloseTwiceIsSafe(t *testing.T) {
	l, err := New("demo", t.TempDir())
	require.NoError(t, err)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "validation_demo_old.log")
	fresh := filepath.Join(dir, "validation_demo_new.log")
	require.NoError(t, os.WriteFile(old, []byte("stale run\n"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("recent run\n"), 0o644))
	stale := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(old, stale, stale))

	require.NoError(t, CompressOlder(dir, 7))

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)

	f, err := os.Open(old + ".gz")
	require.NoError(t, err)
	defer f.Close()
	gr, err := gzip.NewReader(f)
	require.NoError(t, err)
	b, err := io.ReadAll(gr)
	require.NoError(t, err)
	assert.Equal(t, "stale run\n", string(b))
}

func TestCompressOlderDisabled(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "validation_demo_old.log")
	require.NoError(t, os.WriteFile(old, []byte("stale run\n"), 0o644))
	stale := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(old, stale, stale))

	require.NoError(t, CompressOlder(dir, 0))
	_, err := os.Stat(old)
	assert.NoError(t, err)
}
