package stub

import (
	"sync"
	"time"
)

// Navigation is one dashboard page load seen by the stub.
type Navigation struct {
	Seq       int       `json:"seq"`
	Path      string    `json:"path"`
	Role      string    `json:"role"`
	UserAgent string    `json:"user_agent"`
	RequestID string    `json:"request_id,omitempty"`
	At        time.Time `json:"at"`
}

// Viewport is the window geometry a dashboard page reported after loading.
type Viewport struct {
	Seq              int       `json:"seq"`
	Path             string    `json:"path"`
	Role             string    `json:"role"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	DevicePixelRatio float64   `json:"device_pixel_ratio"`
	Touch            bool      `json:"touch"`
	UserAgent        string    `json:"user_agent"`
	At               time.Time `json:"at"`
}

// Journal keeps navigations and viewport reports in arrival order.
type Journal struct {
	mu          sync.Mutex
	navigations []Navigation
	viewports   []Viewport
	now         func() time.Time
}

func newJournal() *Journal {
	return &Journal{now: time.Now}
}

func (j *Journal) addNavigation(n Navigation) Navigation {
	j.mu.Lock()
	defer j.mu.Unlock()
	n.Seq = len(j.navigations) + 1
	n.At = j.now().UTC()
	j.navigations = append(j.navigations, n)
	return n
}

func (j *Journal) addViewport(v Viewport) Viewport {
	j.mu.Lock()
	defer j.mu.Unlock()
	v.Seq = len(j.viewports) + 1
	v.At = j.now().UTC()
	j.viewports = append(j.viewports, v)
	return v
}

// Navigations returns a copy of every recorded navigation.
func (j *Journal) Navigations() []Navigation {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Navigation(nil), j.navigations...)
}

// Viewports returns a copy of every recorded viewport report.
func (j *Journal) Viewports() []Viewport {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Viewport(nil), j.viewports...)
}

// Reset drops everything and returns how many entries were removed.
func (j *Journal) Reset() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := len(j.navigations) + len(j.viewports)
	j.navigations = nil
	j.viewports = nil
	return n
}
