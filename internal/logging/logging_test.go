package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLevel(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Errorf("expected error for unknown level")
	}
}

func TestNew_WritesFileAndStdout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	var stdout bytes.Buffer

	logger, closeLog, err := New(Options{File: path, Level: "info", Stdout: &stdout})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("searching keyword", "keyword", "running shoes")
	if err := closeLog(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for name, out := range map[string]string{"file": string(data), "stdout": stdout.String()} {
		if !strings.Contains(out, `keyword="running shoes"`) {
			t.Errorf("%s missing record: %q", name, out)
		}
		if strings.Contains(out, "hidden") {
			t.Errorf("%s has a debug record at info level", name)
		}
	}
}

func TestNew_StdoutOnly(t *testing.T) {
	var stdout bytes.Buffer
	logger, closeLog, err := New(Options{Stdout: &stdout})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Warn("careful")
	if err := closeLog(); err != nil {
		t.Errorf("close failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "careful") {
		t.Errorf("expected record on stdout, got %q", stdout.String())
	}
}

func TestNew_BadFile(t *testing.T) {
	_, _, err := New(Options{File: filepath.Join(t.TempDir(), "missing", "run.log")})
	if err == nil {
		t.Errorf("expected error for unwritable path")
	}
}
