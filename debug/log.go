package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	out     io.Writer
	file    *os.File
	mu      sync.Mutex
	enabled bool
	warns   int
)

// DefaultPath returns ~/.config/go-mpe/debug.log
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "go-mpe", "debug.log")
}

// Enable starts debug logging to path (DefaultPath when empty)
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}
	if path == "" {
		path = DefaultPath()
	}

	// Ensure directory exists
	os.MkdirAll(filepath.Dir(path), 0755)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	file = f
	out = f
	enabled = true

	// Write directly (can't call Log - we hold the mutex)
	write("debug", "=== Debug logging started ===")

	return nil
}

// SetOutput logs to w instead of a file; nil disables logging
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		file.Close()
		file = nil
	}
	out = w
	enabled = w != nil
}

// Disable stops debug logging
func Disable() {
	SetOutput(nil)
}

// Log writes a message to the debug log
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || out == nil {
		return
	}
	write(category, fmt.Sprintf(format, args...))
}

// Warn logs under the "warn" category and counts the warning even when
// logging is disabled
func Warn(format string, args ...any) {
	mu.Lock()
	warns++
	mu.Unlock()
	Log("warn", format, args...)
}

// Warnings returns how many warnings were raised since start
func Warnings() int {
	mu.Lock()
	defer mu.Unlock()
	return warns
}

func write(category, msg string) {
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(out, "[%s] %-10s %s\n", ts, category, msg)
	if file != nil {
		file.Sync() // flush immediately so we see logs even on crash
	}
}

// LogEvery logs only every N calls (use for high-frequency events)
var counters = make(map[string]int)

func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}
