package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// VerifyConfig holds all configuration for the dashboard verification runner.
// The zero-environment defaults reproduce the reference run exactly.
type VerifyConfig struct {
	// Target server
	BaseURL     string
	TargetsFile string

	// Capture behavior
	OutputDir       string
	NavTimeout      time.Duration
	ContinueOnError bool
	FullPage        bool
	ImageQuality    int

	// Browser launch
	BrowserPath string
	Headless    bool
	CDPAddress  string
	CDPPort     int

	// Optional outputs
	JournalDir string
	ReportDir  string
	NTFYURL    string

	LogLevel string
	// LogFile enables a rotated log file next to stdout. Empty logs to stdout only.
	LogFile string
}

// LoadVerify reads runner configuration from environment variables and an optional .env file.
func LoadVerify() (*VerifyConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &VerifyConfig{
		BaseURL:         strings.TrimRight(getEnvOrDefault("VERIFY_BASE_URL", "http://localhost:3000"), "/"),
		TargetsFile:     getEnvOrDefault("VERIFY_TARGETS_FILE", ""),
		OutputDir:       getEnvOrDefault("VERIFY_OUTPUT_DIR", "jules-scratch/verification"),
		NavTimeout:      getEnvDurationOrDefault("VERIFY_NAV_TIMEOUT", 30*time.Second),
		ContinueOnError: getEnvBoolOrDefault("VERIFY_CONTINUE_ON_ERROR", false),
		FullPage:        getEnvBoolOrDefault("VERIFY_FULL_PAGE", false),
		ImageQuality:    getEnvIntOrDefault("VERIFY_IMAGE_QUALITY", 90),
		BrowserPath:     getEnvOrDefault("VERIFY_BROWSER_PATH", ""),
		Headless:        getEnvBoolOrDefault("VERIFY_HEADLESS", true),
		CDPAddress:      getEnvOrDefault("CHROMIUM_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:         getEnvIntOrDefault("CHROMIUM_CDP_PORT", 0),
		JournalDir:      getEnvOrDefault("VERIFY_JOURNAL_DIR", ""),
		ReportDir:       getEnvOrDefault("VERIFY_REPORT_DIR", ""),
		NTFYURL:         getEnvOrDefault("VERIFY_NTFY_URL", ""),
		LogLevel:        strings.ToLower(getEnvOrDefault("VERIFY_LOG_LEVEL", "info")),
		LogFile:         getEnvOrDefault("VERIFY_LOG_FILE", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *VerifyConfig) validate() error {
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("VERIFY_BASE_URL must be an http(s) URL, got %q", c.BaseURL)
	}
	if c.ImageQuality < 1 || c.ImageQuality > 100 {
		c.ImageQuality = 90
	}
	if c.NavTimeout < time.Second {
		c.NavTimeout = time.Second
	}
	if c.CDPPort < 0 || c.CDPPort > 65535 {
		return fmt.Errorf("CHROMIUM_CDP_PORT out of range: %d", c.CDPPort)
	}
	return nil
}

// StubConfig holds configuration for the stand-in dashboard server.
type StubConfig struct {
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool
	Roles            []string
	LogLevel         string
	LogFile          string
}

// LoadStub reads stub server configuration from environment variables.
func LoadStub() (*StubConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &StubConfig{
		BindAddr:         getEnvOrDefault("STUB_BIND_ADDR", "127.0.0.1:3000"),
		PortCandidates:   splitList(getEnvOrDefault("STUB_PORT_CANDIDATES", "")),
		PortAutoFallback: getEnvBoolOrDefault("STUB_PORT_AUTO_FALLBACK", false),
		Roles:            splitList(getEnvOrDefault("STUB_ROLES", "truck-owner,shipper,admin")),
		LogLevel:         strings.ToLower(getEnvOrDefault("STUB_LOG_LEVEL", "info")),
		LogFile:          getEnvOrDefault("STUB_LOG_FILE", "logs/dashboard_stub.log"),
	}
	if len(cfg.Roles) == 0 {
		return nil, fmt.Errorf("STUB_ROLES must name at least one role")
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if ms, err := strconv.Atoi(val); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultVal
}
