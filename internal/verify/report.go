package verify

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgnsrekt/dashverify/internal/device"
	"github.com/samber/lo"
)

// Result is the outcome of one target.
type Result struct {
	Index      int           `json:"index"`
	Path       string        `json:"path"`
	URL        string        `json:"url"`
	OutputFile string        `json:"output_file"`
	Status     int           `json:"status,omitempty"`
	SizeBytes  int           `json:"size_bytes,omitempty"`
	Width      int           `json:"width,omitempty"`
	Height     int           `json:"height,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
	Error      string        `json:"error,omitempty"`
	Err        error         `json:"-"`
}

// OK reports whether the target was captured.
func (r Result) OK() bool { return r.Err == nil && r.Error == "" }

// JournalRecord is one line of the run journal.
type JournalRecord struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Result
}

// Report summarises a whole run.
type Report struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	BaseURL    string         `json:"base_url"`
	OutputDir  string         `json:"output_dir"`
	Profile    device.Profile `json:"profile"`
	Results    []Result       `json:"results"`
}

// Succeeded counts captured targets.
func (r *Report) Succeeded() int {
	return lo.CountBy(r.Results, func(res Result) bool { return res.OK() })
}

// Failed counts targets that were attempted and failed.
func (r *Report) Failed() int {
	return lo.CountBy(r.Results, func(res Result) bool { return !res.OK() })
}

// Summary is a one-line description suitable for logs and notifications.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d captured, %d failed, %d attempted against %s in %s",
		r.Succeeded(), r.Failed(), len(r.Results), r.BaseURL,
		r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
}

// WriteMarkdown writes verify-report-<timestamp>.md into dir and returns its path.
func (r *Report) WriteMarkdown(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("verify-report-%s.md", r.StartedAt.UTC().Format("20060102T150405Z"))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	w := bufio.NewWriter(f)
	_, _ = fmt.Fprintln(w, "# Dashboard Verification Report")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "- Run ID: `%s`\n", r.RunID)
	_, _ = fmt.Fprintf(w, "- Started (UTC): `%s`\n", r.StartedAt.UTC().Format(time.RFC3339))
	_, _ = fmt.Fprintf(w, "- Finished (UTC): `%s`\n", r.FinishedAt.UTC().Format(time.RFC3339))
	_, _ = fmt.Fprintf(w, "- Base URL: `%s`\n", r.BaseURL)
	_, _ = fmt.Fprintf(w, "- Output directory: `%s`\n", filepath.ToSlash(r.OutputDir))
	_, _ = fmt.Fprintf(w, "- Profile: `%s`\n", r.Profile.String())
	_, _ = fmt.Fprintf(w, "- User agent: `%s`\n", r.Profile.UserAgent)
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "## Targets")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "| # | Path | Status | File | Size | Image | Result |")
	_, _ = fmt.Fprintln(w, "|---|---|---|---|---|---|---|")
	for _, res := range r.Results {
		outcome := "ok"
		if !res.OK() {
			outcome = tableCell(res.Error)
		}
		_, _ = fmt.Fprintf(w, "| %d | `%s` | %d | `%s` | %d | %dx%d | %s |\n",
			res.Index+1, res.Path, res.Status, filepath.Base(res.OutputFile),
			res.SizeBytes, res.Width, res.Height, outcome)
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Summary: %s\n", r.Summary())
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// tableCell keeps free text inside one markdown table cell.
func tableCell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.NewReplacer("\n", " ", "\r", " ", "|", "\\|").Replace(s)
	return strings.TrimSpace(s)
}
