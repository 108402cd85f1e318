// Package verify loads a fixed list of dashboard pages in one emulated mobile browsing
// context and saves a screenshot of each.
package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgnsrekt/dashverify/internal/device"
	"github.com/dgnsrekt/dashverify/internal/snapshot"
	"github.com/dgnsrekt/dashverify/internal/target"
	"github.com/google/uuid"
)

// Options configures a Runner.
type Options struct {
	BaseURL string
	Targets []target.Target
	Profile device.Profile
	// StepTimeout bounds each navigation and each capture separately.
	StepTimeout time.Duration
	// ContinueOnError records a failed target and moves on instead of aborting the run.
	ContinueOnError bool
	FullPage        bool
	Quality         int
}

// Recorder receives one JournalRecord per visited target.
type Recorder interface {
	Record(record any) error
}

// Runner visits every target in order on a single page.
type Runner struct {
	driver   Driver
	store    *snapshot.Store
	opts     Options
	recorder Recorder
	now      func() time.Time
}

// NewRunner validates opts and returns a Runner writing screenshots to store.
func NewRunner(driver Driver, store *snapshot.Store, opts Options) (*Runner, error) {
	if driver == nil {
		return nil, errors.New("verify: driver is required")
	}
	if store == nil {
		return nil, errors.New("verify: snapshot store is required")
	}
	if opts.BaseURL == "" {
		return nil, errors.New("verify: base URL is required")
	}
	if err := target.Validate(opts.Targets); err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	if err := opts.Profile.Validate(); err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = 30 * time.Second
	}
	return &Runner{driver: driver, store: store, opts: opts, now: time.Now}, nil
}

// WithRecorder makes the runner journal each target result to rec.
func (r *Runner) WithRecorder(rec Recorder) *Runner {
	r.recorder = rec
	return r
}

// Run executes the whole verification. The browser is released on every return path.
// The returned report is never nil and holds a result for every target attempted.
func (r *Runner) Run(ctx context.Context) (report *Report, err error) {
	report = &Report{
		RunID:     uuid.NewString(),
		StartedAt: r.now().UTC(),
		BaseURL:   r.opts.BaseURL,
		Profile:   r.opts.Profile,
		OutputDir: r.store.Dir(),
	}
	defer func() {
		report.FinishedAt = r.now().UTC()
	}()

	defer func() {
		if closeErr := r.driver.Close(); closeErr != nil {
			slog.Warn("browser shutdown failed", "run_id", report.RunID, "error", closeErr)
		}
	}()

	slog.Info("verification run starting",
		"run_id", report.RunID,
		"base_url", r.opts.BaseURL,
		"targets", len(r.opts.Targets),
		"profile", r.opts.Profile.String(),
		"continue_on_error", r.opts.ContinueOnError,
	)

	pg, err := r.driver.Open(ctx, r.opts.Profile)
	if err != nil {
		if StageOf(err) == "" {
			err = newStageError(StageLaunch, "", "open browser", err)
		}
		return report, err
	}
	defer func() {
		if closeErr := pg.Close(); closeErr != nil {
			slog.Debug("page close failed", "run_id", report.RunID, "error", closeErr)
		}
	}()

	for i, t := range r.opts.Targets {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, fmt.Errorf("run interrupted before %s: %w", t.Path, ctxErr)
		}

		res, visitErr := r.visit(ctx, pg, i, t)
		report.Results = append(report.Results, res)
		r.record(report.RunID, res)

		if visitErr != nil {
			slog.Error("target failed",
				"run_id", report.RunID,
				"index", i,
				"target", t.Path,
				"stage", StageOf(visitErr),
				"error", visitErr,
			)
			if !r.opts.ContinueOnError {
				return report, visitErr
			}
			continue
		}
		slog.Info("target captured",
			"run_id", report.RunID,
			"index", i,
			"target", t.Path,
			"status", res.Status,
			"file", res.OutputFile,
			"size_bytes", res.SizeBytes,
			"duration_ms", res.Duration.Milliseconds(),
		)
	}

	if failed := report.Failed(); failed > 0 {
		return report, fmt.Errorf("%w: %d of %d", ErrTargetsFailed, failed, len(r.opts.Targets))
	}
	return report, nil
}

func (r *Runner) visit(ctx context.Context, pg Page, index int, t target.Target) (Result, error) {
	start := r.now()
	res := Result{
		Index:      index,
		Path:       t.Path,
		URL:        t.URL(r.opts.BaseURL),
		OutputFile: r.store.Path(t.OutputFile),
	}
	fail := func(err error) (Result, error) {
		res.Duration = r.now().Sub(start)
		res.Err = err
		res.Error = err.Error()
		return res, err
	}

	navCtx, cancel := context.WithTimeout(ctx, r.opts.StepTimeout)
	status, err := pg.Navigate(navCtx, res.URL)
	cancel()
	res.Status = status
	if err != nil {
		return fail(newStageError(StageNavigation, t.Path, "navigate to "+res.URL, err))
	}
	if status != 0 && (status < 200 || status >= 300) {
		return fail(newStageError(StageNavigation, t.Path, fmt.Sprintf("unexpected HTTP status %d from %s", status, res.URL), nil))
	}

	capCtx, cancel := context.WithTimeout(ctx, r.opts.StepTimeout)
	data, err := pg.Capture(capCtx, CaptureOptions{
		Format:   snapshot.FormatFromName(t.OutputFile),
		Quality:  r.opts.Quality,
		FullPage: r.opts.FullPage,
	})
	cancel()
	if err != nil {
		return fail(newStageError(StageCapture, t.Path, "capture screenshot", err))
	}

	meta, err := r.store.Save(t.OutputFile, data)
	if err != nil {
		return fail(newStageError(StageCapture, t.Path, "write "+res.OutputFile, err))
	}

	res.OutputFile = meta.Path
	res.SizeBytes = meta.SizeBytes
	res.Width = meta.Width
	res.Height = meta.Height
	res.Duration = r.now().Sub(start)
	return res, nil
}

func (r *Runner) record(runID string, res Result) {
	if r.recorder == nil {
		return
	}
	rec := JournalRecord{RunID: runID, Timestamp: r.now().UTC(), Result: res}
	if err := r.recorder.Record(rec); err != nil {
		slog.Warn("journal record dropped", "run_id", runID, "target", res.Path, "error", err)
	}
}
