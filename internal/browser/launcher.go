package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/dgnsrekt/dashverify/internal/netutil"
)

// Config holds browser launch configuration.
type Config struct {
	// BrowserPath overrides binary detection when set.
	BrowserPath string
	CDPAddress  string
	// CDPPort 0 picks a free port. An explicit port that is already listening is
	// treated as a browser someone else started; it is attached to, never stopped.
	CDPPort    int
	ProfileDir string
	Headless   bool
	WindowSize string
	ExtraArgs  []string
}

// Launcher manages the lifecycle of a browser process.
type Launcher struct {
	cfg          Config
	cmd          *exec.Cmd
	running      bool
	attached     bool
	tempProfile  string
	readyTimeout time.Duration
}

// NewLauncher creates a new browser launcher with the given config.
func NewLauncher(cfg Config) *Launcher {
	if cfg.CDPAddress == "" {
		cfg.CDPAddress = "127.0.0.1"
	}
	if cfg.WindowSize == "" {
		cfg.WindowSize = "1280,1024"
	}
	return &Launcher{cfg: cfg, readyTimeout: 15 * time.Second}
}

// browserCandidates lists the binary names tried, in order, on PATH.
var browserCandidates = []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable", "chrome", "headless_shell"}

// detectBrowser finds an available Chrome/Chromium binary.
func detectBrowser(override string) (string, error) {
	if override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("browser path %q: %w", override, err)
		}
		return override, nil
	}
	for _, name := range browserCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	if runtime.GOOS == "darwin" {
		macPath := "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
		if _, err := os.Stat(macPath); err == nil {
			return macPath, nil
		}
	}
	return "", fmt.Errorf("no supported browser found (tried %v)", browserCandidates)
}

// BrowserPath resolves the binary Launch would start.
func (l *Launcher) BrowserPath() (string, error) {
	return detectBrowser(l.cfg.BrowserPath)
}

// CDPURL returns the HTTP endpoint chromedp's remote allocator connects to.
func (l *Launcher) CDPURL() string {
	return "http://" + l.cfg.CDPAddress + ":" + strconv.Itoa(l.cfg.CDPPort)
}

func (l *Launcher) args() []string {
	args := []string{
		fmt.Sprintf("--remote-debugging-port=%d", l.cfg.CDPPort),
		fmt.Sprintf("--remote-debugging-address=%s", l.cfg.CDPAddress),
		fmt.Sprintf("--user-data-dir=%s", l.cfg.ProfileDir),
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-dev-shm-usage",
		"--disable-breakpad",
		"--disable-crash-reporter",
		"--disable-background-networking",
		"--hide-scrollbars",
		"--mute-audio",
		fmt.Sprintf("--window-size=%s", l.cfg.WindowSize),
	}
	if l.cfg.Headless {
		args = append(args, "--headless=new", "--disable-gpu")
	}
	// Chromium refuses to start as root with the sandbox enabled.
	if os.Geteuid() == 0 {
		args = append(args, "--no-sandbox")
	}
	args = append(args, l.cfg.ExtraArgs...)
	return append(args, "about:blank")
}

// Launch starts the browser process and blocks until its CDP endpoint answers.
func (l *Launcher) Launch(ctx context.Context) error {
	if l.cfg.CDPPort != 0 && netutil.IsPortInUse(l.cfg.CDPAddress, l.cfg.CDPPort) {
		slog.Info("browser already running, attaching",
			"address", l.cfg.CDPAddress, "port", l.cfg.CDPPort)
		l.attached = true
		return nil
	}
	if l.cfg.CDPPort == 0 {
		port, err := netutil.FreePort(l.cfg.CDPAddress)
		if err != nil {
			return fmt.Errorf("pick CDP port: %w", err)
		}
		l.cfg.CDPPort = port
	}

	browserPath, err := detectBrowser(l.cfg.BrowserPath)
	if err != nil {
		return err
	}
	slog.Info("detected browser", "path", browserPath)

	if l.cfg.ProfileDir == "" {
		dir, err := os.MkdirTemp("", "dashverify-profile-")
		if err != nil {
			return fmt.Errorf("create profile dir: %w", err)
		}
		l.cfg.ProfileDir = dir
		l.tempProfile = dir
	} else if err := os.MkdirAll(l.cfg.ProfileDir, 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	l.cmd = exec.Command(browserPath, l.args()...)
	l.cmd.Stdout = os.Stdout
	l.cmd.Stderr = os.Stderr

	if err := l.cmd.Start(); err != nil {
		l.removeTempProfile()
		return fmt.Errorf("start browser: %w", err)
	}
	l.running = true
	slog.Info("browser process started", "pid", l.cmd.Process.Pid, "headless", l.cfg.Headless)

	if err := l.waitForCDP(ctx); err != nil {
		l.Stop()
		return fmt.Errorf("waiting for CDP: %w", err)
	}
	slog.Info("CDP endpoint ready",
		"address", l.cfg.CDPAddress, "port", l.cfg.CDPPort)

	return nil
}

// waitForCDP polls the CDP /json/version endpoint until it responds.
func (l *Launcher) waitForCDP(ctx context.Context) error {
	url := l.CDPURL() + "/json/version"
	deadline := time.After(l.readyTimeout)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	client := &http.Client{Timeout: time.Second}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("CDP did not become ready within %s at %s", l.readyTimeout, url)
		case <-ticker.C:
			resp, err := client.Get(url)
			if err != nil {
				continue
			}
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
	}
}

// Running reports whether this launcher spawned a browser process that is still alive.
func (l *Launcher) Running() bool {
	return l.running
}

// Attached reports whether Launch found an existing browser instead of starting one.
func (l *Launcher) Attached() bool {
	return l.attached
}

// Stop terminates the browser process with SIGTERM, falling back to SIGKILL.
// It is a no-op for attached browsers and safe to call more than once.
func (l *Launcher) Stop() {
	defer l.removeTempProfile()
	if l.cmd == nil || l.cmd.Process == nil || !l.running {
		return
	}
	slog.Info("stopping browser", "pid", l.cmd.Process.Pid)
	_ = l.cmd.Process.Signal(syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		_ = l.cmd.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("browser stopped gracefully")
	case <-time.After(5 * time.Second):
		slog.Warn("browser did not exit, sending SIGKILL")
		_ = l.cmd.Process.Kill()
		<-done
	}
	l.running = false
}

func (l *Launcher) removeTempProfile() {
	if l.tempProfile == "" {
		return
	}
	if err := os.RemoveAll(l.tempProfile); err != nil {
		slog.Debug("temp profile cleanup failed", "dir", l.tempProfile, "error", err)
	}
	l.tempProfile = ""
}
