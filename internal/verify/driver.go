package verify

import (
	"context"

	"github.com/dgnsrekt/dashverify/internal/device"
)

// Driver owns the browser process. Close must be safe to call whether or not Open
// succeeded, and more than once.
type Driver interface {
	Open(ctx context.Context, profile device.Profile) (Page, error)
	Close() error
}

// Page is the single emulated tab every target is loaded into.
type Page interface {
	// Navigate loads url and blocks until the load event. status is the HTTP status
	// of the main document, or 0 when the browser reported none.
	Navigate(ctx context.Context, url string) (status int, err error)
	Capture(ctx context.Context, opts CaptureOptions) ([]byte, error)
	Close() error
}

// CaptureOptions controls screenshot encoding.
type CaptureOptions struct {
	Format   string // png, jpeg or webp
	Quality  int    // ignored for png
	FullPage bool
}
