package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestSetupLoggerWithoutFileLeavesNoArtifacts(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	if err := setupLogger("info", ""); err != nil {
		t.Fatalf("setupLogger() error = %v", err)
	}
	slog.Info("zero-config run")

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("setupLogger() created %d entries, first %q; want none", len(entries), entries[0].Name())
	}
}

func TestSetupLoggerWithFileCreatesDir(t *testing.T) {
	dir := t.TempDir()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logFile := filepath.Join(dir, "logs", "verify.log")
	if err := setupLogger("debug", logFile); err != nil {
		t.Fatalf("setupLogger() error = %v", err)
	}
	slog.Debug("file run")

	if _, err := os.Stat(logFile); err != nil {
		t.Fatalf("Stat(%q) error = %v; want log file", logFile, err)
	}
}
