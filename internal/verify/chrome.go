package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/dgnsrekt/dashverify/internal/browser"
	"github.com/dgnsrekt/dashverify/internal/device"
)

// ChromeDriver drives a Chromium process started (or found) by a browser.Launcher
// over the DevTools protocol.
type ChromeDriver struct {
	launcher *browser.Launcher

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewChromeDriver wraps launcher. The launcher is started by Open and stopped by Close.
func NewChromeDriver(launcher *browser.Launcher) *ChromeDriver {
	return &ChromeDriver{launcher: launcher}
}

// Open launches the browser, creates an isolated browser context emulating profile
// and returns its only page.
func (d *ChromeDriver) Open(ctx context.Context, profile device.Profile) (Page, error) {
	if err := profile.Validate(); err != nil {
		return nil, newStageError(StageContext, "", "invalid device profile", err)
	}
	if err := d.launcher.Launch(ctx); err != nil {
		return nil, newStageError(StageLaunch, "", "launch browser", err)
	}

	cdpURL := d.launcher.CDPURL()
	slog.Info("connecting to browser", "cdp_url", cdpURL)

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), cdpURL)
	d.allocCancel = allocCancel
	d.browserCtx, d.browserCancel = chromedp.NewContext(allocCtx)

	// The first Run on a chromedp context allocates its browser or target and ties
	// their lifetime to the context it is given, so it must not get a derived one.
	if err := chromedp.Run(d.browserCtx); err != nil {
		return nil, newStageError(StageLaunch, "", "connect to browser", err)
	}

	tabCtx, tabCancel := chromedp.NewContext(d.browserCtx, chromedp.WithNewBrowserContext())
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, newStageError(StageContext, "", "create browser context", err)
	}

	emulateCtx, cancel := bind(tabCtx, ctx)
	err := chromedp.Run(emulateCtx, chromedp.Emulate(profile))
	cancel()
	if err != nil {
		tabCancel()
		return nil, newStageError(StageContext, "", "emulate "+profile.Name, err)
	}

	slog.Info("browsing context ready", "profile", profile.String())
	return &chromePage{ctx: tabCtx, cancel: tabCancel}, nil
}

// Close disconnects from the browser and stops it if this driver launched it.
func (d *ChromeDriver) Close() error {
	if d.browserCancel != nil {
		d.browserCancel()
		d.browserCancel = nil
	}
	if d.allocCancel != nil {
		d.allocCancel()
		d.allocCancel = nil
	}
	d.launcher.Stop()
	return nil
}

type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func (p *chromePage) Navigate(ctx context.Context, url string) (int, error) {
	runCtx, cancel := bind(p.ctx, ctx)
	defer cancel()

	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(url))
	if err != nil {
		return 0, err
	}
	if resp == nil {
		return 0, nil
	}
	return int(resp.Status), nil
}

func (p *chromePage) Capture(ctx context.Context, opts CaptureOptions) ([]byte, error) {
	runCtx, cancel := bind(p.ctx, ctx)
	defer cancel()

	var buf []byte
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		params := page.CaptureScreenshot().
			WithFormat(screenshotFormat(opts.Format)).
			WithFromSurface(true)
		if opts.Format != "png" && opts.Quality > 0 {
			params = params.WithQuality(int64(opts.Quality))
		}
		if opts.FullPage {
			_, _, _, _, _, contentSize, err := page.GetLayoutMetrics().Do(ctx)
			if err != nil {
				return fmt.Errorf("layout metrics: %w", err)
			}
			params = params.
				WithCaptureBeyondViewport(true).
				WithClip(&page.Viewport{Width: contentSize.Width, Height: contentSize.Height, Scale: 1})
		}
		var err error
		buf, err = params.Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Close disposes the tab and its browser context.
func (p *chromePage) Close() error {
	if p.cancel == nil {
		return nil
	}
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	p.cancel = nil
	return err
}

func screenshotFormat(format string) page.CaptureScreenshotFormat {
	switch format {
	case "jpeg":
		return page.CaptureScreenshotFormatJpeg
	case "webp":
		return page.CaptureScreenshotFormatWebp
	default:
		return page.CaptureScreenshotFormatPng
	}
}

// bind derives a context from the chromedp context base that also ends when caller
// is cancelled or reaches its deadline. chromedp needs base for target routing while
// cancellation and timeouts belong to the caller. The deadline is mirrored, so only a
// real cancellation of caller is forwarded; a timeout surfaces as DeadlineExceeded.
func bind(base, caller context.Context) (context.Context, context.CancelFunc) {
	var ctx context.Context
	var cancel context.CancelFunc
	if dl, ok := caller.Deadline(); ok {
		ctx, cancel = context.WithDeadline(base, dl)
	} else {
		ctx, cancel = context.WithCancel(base)
	}
	stop := context.AfterFunc(caller, func() {
		if !errors.Is(caller.Err(), context.DeadlineExceeded) {
			cancel()
		}
	})
	return ctx, func() {
		stop()
		cancel()
	}
}
