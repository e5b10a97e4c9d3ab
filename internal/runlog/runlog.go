// Package runlog tees the console summary of a validation run into a
// timestamped log file and manages retention of old run logs.
package runlog

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var mu sync.Mutex

// Logger duplicates everything written to it onto the terminal and a
// per-run log file, framed by run start/end separators.
type Logger struct {
	terminal io.Writer
	file     *os.File
	path     string
}

func istNow() time.Time {
	return time.Now().In(time.FixedZone("IST", 19800))
}

// New opens logs/validation_<algo>_<timestamp>.log under dir.
func New(algoName, dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	ts := istNow().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("validation_%s_%s.log", algoName, ts))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	l := &Logger{terminal: os.Stdout, file: f, path: path}
	sep := strings.Repeat("=", 80)
	fmt.Fprintf(f, "\n%s\nRun started at: %s\n%s\n\n", sep, istNow().Format("2006-01-02 15:04:05"), sep)
	return l, nil
}

// Write sends p to both the terminal and the run log file.
func (l *Logger) Write(p []byte) (int, error) {
	mu.Lock()
	defer mu.Unlock()
	n, err := l.terminal.Write(p)
	if l.file != nil {
		_, _ = l.file.Write(p)
	}
	return n, err
}

// Path returns the run log file path.
func (l *Logger) Path() string {
	return l.path
}

// Close writes the run footer and closes the file.
func (l *Logger) Close() error {
	mu.Lock()
	defer mu.Unlock()
	if l.file == nil {
		return nil
	}
	sep := strings.Repeat("=", 80)
	fmt.Fprintf(l.file, "\n%s\nRun completed at: %s\n%s\n", sep, istNow().Format("2006-01-02 15:04:05"), sep)
	err := l.file.Close()
	l.file = nil
	return err
}

// CompressOlder gzips run logs older than retentionDays under dir and
// removes the originals. A non-positive retention disables compression.
func CompressOlder(dir string, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if filepath.Ext(p) != ".log" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil || !info.ModTime().Before(cutoff) {
			return nil
		}

		gz := p + ".gz"
		if _, e2 := os.Stat(gz); e2 == nil {
			_ = os.Remove(p)
			return nil
		}

		in, e3 := os.Open(p)
		if e3 != nil {
			return nil
		}
		defer in.Close()

		out, e4 := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if e4 != nil {
			return nil
		}
		gw := gzip.NewWriter(out)
		if _, e5 := io.Copy(gw, in); e5 == nil {
			_ = gw.Close()
			_ = out.Close()
			_ = os.Remove(p)
		} else {
			_ = gw.Close()
			_ = out.Close()
		}
		return nil
	})
}
