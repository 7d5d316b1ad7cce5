package debug

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogWritesCategory(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer Disable()

	Log("zone", "lower members=%d", 4)

	line := buf.String()
	if !strings.Contains(line, "zone") || !strings.Contains(line, "lower members=4") {
		t.Fatalf("unexpected log line %q", line)
	}
}

func TestDisabledLogIsSilent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Disable()

	Log("zone", "ignored")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestWarnCountsWithoutOutput(t *testing.T) {
	Disable()
	before := Warnings()
	Warn("member channels are all active")
	if got := Warnings(); got != before+1 {
		t.Fatalf("Warnings() = %d, want %d", got, before+1)
	}
}

func TestLogEvery(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer Disable()

	for i := 0; i < 10; i++ {
		LogEvery(5, "parser", "drop")
	}
	if n := strings.Count(buf.String(), "\n"); n != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", n, buf.String())
	}
}

func TestEnableCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	if err := Enable(path); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	Log("test", "hello")
	Disable()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Fatalf("log file missing message: %q", data)
	}
}
