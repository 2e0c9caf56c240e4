package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogFile_DatedPerLaunch(t *testing.T) {
	now := time.Date(2026, 3, 9, 7, 5, 0, 0, time.Local)
	f := logFile("/var/log/food", now)
	want := filepath.Join("/var/log/food", "2026-03-09", "app_07-05.log")
	if f.Filename != want {
		t.Fatalf("filename %q, want %q", f.Filename, want)
	}
	if f.MaxAge != 0 || f.MaxBackups != 0 {
		t.Fatalf("per-launch files must not carry retention limits: age=%d backups=%d", f.MaxAge, f.MaxBackups)
	}
	if f.MaxSize <= 0 {
		t.Fatalf("size rotation expected")
	}
}

func TestNewLogger_WritesJSONToDatedDir(t *testing.T) {
	dir := t.TempDir()
	logger, closer := NewLogger(slog.LevelInfo, dir)
	logger.Debug("hidden")
	logger.Info("effect detected", "regions", 2)
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	days, err := os.ReadDir(dir)
	if err != nil || len(days) != 1 {
		t.Fatalf("expected one day dir, got %v err=%v", days, err)
	}
	if _, err := time.Parse("2006-01-02", days[0].Name()); err != nil {
		t.Fatalf("day dir %q: %v", days[0].Name(), err)
	}
	files, _ := filepath.Glob(filepath.Join(dir, days[0].Name(), "app_*.log"))
	if len(files) != 1 {
		t.Fatalf("expected one log file, got %v", files)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, `"msg":"effect detected"`) || !strings.Contains(text, `"regions":2`) {
		t.Fatalf("unexpected log content %q", text)
	}
	if strings.Contains(text, "hidden") {
		t.Fatalf("debug record written at info level")
	}
}

func TestNewLogger_NoDirSkipsFile(t *testing.T) {
	logger, closer := NewLogger(slog.LevelInfo, "")
	if logger == nil {
		t.Fatal("nil logger")
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
