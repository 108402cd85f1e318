package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dgnsrekt/dashverify/internal/browser"
	"github.com/dgnsrekt/dashverify/internal/config"
	"github.com/dgnsrekt/dashverify/internal/device"
	"github.com/dgnsrekt/dashverify/internal/notify"
	"github.com/dgnsrekt/dashverify/internal/snapshot"
	"github.com/dgnsrekt/dashverify/internal/storage"
	"github.com/dgnsrekt/dashverify/internal/verify"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cfg, err := config.LoadVerify()
	if err != nil {
		slog.Error("failed to load verify config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		_, _ = io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n")
		os.Exit(1)
	}

	slog.Info("verify config loaded",
		"base_url", cfg.BaseURL,
		"output_dir", cfg.OutputDir,
		"targets_file", cfg.TargetsFile,
		"nav_timeout", cfg.NavTimeout,
		"continue_on_error", cfg.ContinueOnError,
		"full_page", cfg.FullPage,
		"headless", cfg.Headless,
		"cdp_port", cfg.CDPPort,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		slog.Error("verification failed", "stage", verify.StageOf(err), "error", err)
		os.Exit(1)
	}
	slog.Info("verification complete")
}

func run(ctx context.Context, cfg *config.VerifyConfig) error {
	targets, err := config.LoadTargets(cfg.TargetsFile)
	if err != nil {
		return err
	}

	store, err := snapshot.NewStore(cfg.OutputDir)
	if err != nil {
		return err
	}

	profile := device.Mobile()
	launcher := browser.NewLauncher(browser.Config{
		BrowserPath: cfg.BrowserPath,
		CDPAddress:  cfg.CDPAddress,
		CDPPort:     cfg.CDPPort,
		Headless:    cfg.Headless,
		WindowSize:  fmt.Sprintf("%d,%d", profile.Width, profile.Height),
	})

	runner, err := verify.NewRunner(verify.NewChromeDriver(launcher), store, verify.Options{
		BaseURL:         cfg.BaseURL,
		Targets:         targets,
		Profile:         profile,
		StepTimeout:     cfg.NavTimeout,
		ContinueOnError: cfg.ContinueOnError,
		FullPage:        cfg.FullPage,
		Quality:         cfg.ImageQuality,
	})
	if err != nil {
		return err
	}

	if cfg.JournalDir != "" {
		journal := storage.NewJSONLWriter(cfg.JournalDir, "runs", "verify-"+time.Now().UTC().Format("20060102T150405Z"), 64, 10)
		defer func() {
			if err := journal.Close(); err != nil {
				slog.Warn("journal close failed", "error", err)
			}
			slog.Info("run journal written", "path", journal.Path())
		}()
		runner.WithRecorder(journal)
	}

	report, runErr := runner.Run(ctx)
	slog.Info("verification summary", "run_id", report.RunID, "summary", report.Summary())

	if cfg.ReportDir != "" {
		path, err := report.WriteMarkdown(cfg.ReportDir)
		if err != nil {
			slog.Warn("report write failed", "dir", cfg.ReportDir, "error", err)
		} else {
			slog.Info("report written", "path", path)
		}
	}

	if cfg.NTFYURL != "" {
		notifyRun(cfg.NTFYURL, report, runErr)
	}

	return runErr
}

func notifyRun(endpoint string, report *verify.Report, runErr error) {
	msg := notify.Message{
		Title:    "Dashboard verification passed",
		Body:     report.Summary(),
		Tags:     []string{"white_check_mark"},
		Priority: 3,
	}
	if runErr != nil {
		msg.Title = "Dashboard verification failed"
		msg.Body = report.Summary() + "\n" + runErr.Error()
		msg.Tags = []string{"x"}
		msg.Priority = 4
		switch {
		case errors.Is(runErr, context.DeadlineExceeded):
			msg.Title = "Dashboard verification timed out"
		case errors.Is(runErr, context.Canceled):
			msg.Title = "Dashboard verification interrupted"
		}
	}

	// A fresh context: the run context may already be cancelled by a signal.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := notify.Send(ctx, &http.Client{Timeout: 10 * time.Second}, endpoint, msg); err != nil {
		slog.Warn("ntfy notification failed", "endpoint", endpoint, "error", err)
	}
}

// setupLogger installs a text slog handler on stdout, teeing into a rotated file
// when filename is set.
func setupLogger(level, filename string) error {
	var out io.Writer = os.Stdout
	if filename != "" {
		if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
			return err
		}
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    25,
			MaxBackups: 10,
			MaxAge:     14,
			Compress:   true,
		})
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(out, &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
