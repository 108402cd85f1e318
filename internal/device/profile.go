// Package device describes the emulated device a browsing context renders as.
package device

import (
	"fmt"

	cdpdevice "github.com/chromedp/chromedp/device"
)

// IPhoneUserAgent is the Safari on iOS 13.5 user agent sent with every request of a
// default run.
const IPhoneUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 13_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/13.1.1 Mobile/15E148 Safari/604.1"

// Profile is the viewport and identity applied once when the browsing context is created.
type Profile struct {
	Name      string  `json:"name"`
	Width     int64   `json:"width"`
	Height    int64   `json:"height"`
	Scale     float64 `json:"scale"`
	Mobile    bool    `json:"mobile"`
	Touch     bool    `json:"touch"`
	UserAgent string  `json:"user_agent"`
}

// Mobile returns the 375x812 iPhone profile used for dashboard verification.
func Mobile() Profile {
	return Profile{
		Name:      "iPhone 375x812",
		Width:     375,
		Height:    812,
		Scale:     1,
		Mobile:    true,
		UserAgent: IPhoneUserAgent,
	}
}

// Device satisfies chromedp.Device so a Profile can be passed to chromedp.Emulate.
func (p Profile) Device() cdpdevice.Info {
	return cdpdevice.Info{
		Name:      p.Name,
		UserAgent: p.UserAgent,
		Width:     p.Width,
		Height:    p.Height,
		Scale:     p.Scale,
		Landscape: p.Width > p.Height,
		Mobile:    p.Mobile,
		Touch:     p.Touch,
	}
}

// Validate reports a profile chromedp would reject or render blank.
func (p Profile) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("device profile %q: viewport must be positive, got %dx%d", p.Name, p.Width, p.Height)
	}
	if p.Scale <= 0 {
		return fmt.Errorf("device profile %q: scale must be positive, got %v", p.Name, p.Scale)
	}
	if p.UserAgent == "" {
		return fmt.Errorf("device profile %q: user agent is required", p.Name)
	}
	return nil
}

func (p Profile) String() string {
	return fmt.Sprintf("%s (%dx%d mobile=%t)", p.Name, p.Width, p.Height, p.Mobile)
}
