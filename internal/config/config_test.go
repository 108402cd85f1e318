package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadVerifyDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadVerify()
	if err != nil {
		t.Fatalf("LoadVerify() error = %v", err)
	}
	if got, want := cfg.BaseURL, "http://localhost:3000"; got != want {
		t.Fatalf("BaseURL = %q; want %q", got, want)
	}
	if got, want := cfg.OutputDir, "jules-scratch/verification"; got != want {
		t.Fatalf("OutputDir = %q; want %q", got, want)
	}
	if got, want := cfg.NavTimeout, 30*time.Second; got != want {
		t.Fatalf("NavTimeout = %v; want %v", got, want)
	}
	if cfg.ContinueOnError {
		t.Fatal("ContinueOnError = true; want false")
	}
	if !cfg.Headless {
		t.Fatal("Headless = false; want true")
	}
	if cfg.CDPPort != 0 {
		t.Fatalf("CDPPort = %d; want 0", cfg.CDPPort)
	}
	if cfg.LogFile != "" {
		t.Fatalf("LogFile = %q; want empty", cfg.LogFile)
	}
}

func TestLoadVerifyOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("VERIFY_BASE_URL", "http://127.0.0.1:4000/")
	t.Setenv("VERIFY_NAV_TIMEOUT", "5s")
	t.Setenv("VERIFY_CONTINUE_ON_ERROR", "true")
	t.Setenv("VERIFY_IMAGE_QUALITY", "500")
	t.Setenv("CHROMIUM_CDP_PORT", "9333")

	cfg, err := LoadVerify()
	if err != nil {
		t.Fatalf("LoadVerify() error = %v", err)
	}
	if got, want := cfg.BaseURL, "http://127.0.0.1:4000"; got != want {
		t.Fatalf("BaseURL = %q; want %q", got, want)
	}
	if got, want := cfg.NavTimeout, 5*time.Second; got != want {
		t.Fatalf("NavTimeout = %v; want %v", got, want)
	}
	if !cfg.ContinueOnError {
		t.Fatal("ContinueOnError = false; want true")
	}
	if got, want := cfg.ImageQuality, 90; got != want {
		t.Fatalf("ImageQuality = %d; want %d", got, want)
	}
	if got, want := cfg.CDPPort, 9333; got != want {
		t.Fatalf("CDPPort = %d; want %d", got, want)
	}
}

func TestLoadVerifyReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("VERIFY_OUTPUT_DIR=shots\n"), 0o644); err != nil {
		t.Fatalf("os.WriteFile() failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("VERIFY_OUTPUT_DIR") })

	cfg, err := LoadVerify()
	if err != nil {
		t.Fatalf("LoadVerify() error = %v", err)
	}
	if got, want := cfg.OutputDir, "shots"; got != want {
		t.Fatalf("OutputDir = %q; want %q", got, want)
	}
}

func TestLoadVerifyRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, val, wantErr string
	}{
		{"VERIFY_BASE_URL", "localhost:3000", "VERIFY_BASE_URL"},
		{"CHROMIUM_CDP_PORT", "70000", "CHROMIUM_CDP_PORT"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.val)
			_, err := LoadVerify()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %q; want to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadStub(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STUB_ROLES", " shipper , ,admin")

	cfg, err := LoadStub()
	if err != nil {
		t.Fatalf("LoadStub() error = %v", err)
	}
	if got, want := strings.Join(cfg.Roles, ","), "shipper,admin"; got != want {
		t.Fatalf("Roles = %q; want %q", got, want)
	}
	if got, want := cfg.BindAddr, "127.0.0.1:3000"; got != want {
		t.Fatalf("BindAddr = %q; want %q", got, want)
	}
	if cfg.PortAutoFallback || len(cfg.PortCandidates) != 0 {
		t.Fatalf("port fallback = %v %v; want disabled", cfg.PortAutoFallback, cfg.PortCandidates)
	}

	t.Setenv("STUB_PORT_CANDIDATES", "127.0.0.1:3001, 127.0.0.1:3002")
	t.Setenv("STUB_PORT_AUTO_FALLBACK", "true")
	cfg, err = LoadStub()
	if err != nil {
		t.Fatalf("LoadStub() error = %v", err)
	}
	if !cfg.PortAutoFallback || len(cfg.PortCandidates) != 2 {
		t.Fatalf("port fallback = %v %v; want enabled with 2 candidates", cfg.PortAutoFallback, cfg.PortCandidates)
	}
}

func TestLoadTargets(t *testing.T) {
	got, err := LoadTargets("")
	if err != nil {
		t.Fatalf("LoadTargets(\"\") error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(LoadTargets(\"\")) = %d; want 3", len(got))
	}

	path := filepath.Join(t.TempDir(), "targets.yaml")
	doc := "targets:\n  - path: /dashboard/admin\n    output: admin.png\n  - path: /dashboard/shipper\n    output: shipper.png\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("os.WriteFile() failed: %v", err)
	}
	got, err = LoadTargets(path)
	if err != nil {
		t.Fatalf("LoadTargets() error = %v", err)
	}
	if len(got) != 2 || got[0].Path != "/dashboard/admin" || got[1].OutputFile != "shipper.png" {
		t.Fatalf("LoadTargets() = %+v", got)
	}
}

func TestLoadTargetsErrors(t *testing.T) {
	if _, err := LoadTargets(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "targets.yaml")
	if err := os.WriteFile(path, []byte("targets: []\n"), 0o644); err != nil {
		t.Fatalf("os.WriteFile() failed: %v", err)
	}
	_, err := LoadTargets(path)
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("LoadTargets() error = %v; want empty list error", err)
	}
}
