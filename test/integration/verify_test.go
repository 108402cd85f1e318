//go:build integration

package integration

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/dgnsrekt/dashverify/internal/device"
	"github.com/dgnsrekt/dashverify/internal/netutil"
	"github.com/dgnsrekt/dashverify/internal/stub"
	"github.com/dgnsrekt/dashverify/internal/target"
	"github.com/dgnsrekt/dashverify/internal/verify"
)

func TestVerifyCapturesEveryDashboard(t *testing.T) {
	env.reset(t)
	out := t.TempDir()
	r := env.newRunner(t, env.BaseURL, out, nil)

	report, err := env.run(t, r)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	t.Logf("summary: %s", report.Summary())

	for _, tgt := range target.Reference() {
		info, err := os.Stat(filepath.Join(out, tgt.OutputFile))
		if err != nil {
			t.Fatalf("missing %s: %v", tgt.OutputFile, err)
		}
		if info.Size() == 0 {
			t.Fatalf("%s is empty", tgt.OutputFile)
		}
	}
	for _, res := range report.Results {
		if res.Width != 375 || res.Height != 812 {
			t.Fatalf("%s captured at %dx%d; want 375x812", res.Path, res.Width, res.Height)
		}
	}

	resp := env.GET(t, "/api/v1/requests")
	requireStatus(t, resp, http.StatusOK)
	got := decodeJSON[struct {
		Navigations []stub.Navigation `json:"navigations"`
	}](t, resp)

	want := target.Reference()
	if len(got.Navigations) != len(want) {
		t.Fatalf("navigations = %d; want %d: %+v", len(got.Navigations), len(want), got.Navigations)
	}
	for i, nav := range got.Navigations {
		if nav.Path != want[i].Path {
			t.Fatalf("navigation %d = %s; want %s", i, nav.Path, want[i].Path)
		}
		if nav.UserAgent != device.IPhoneUserAgent {
			t.Fatalf("navigation %d user agent = %q; want %q", i, nav.UserAgent, device.IPhoneUserAgent)
		}
	}

	vps := env.waitViewports(t, len(want))
	if len(vps) != len(want) {
		t.Fatalf("viewport reports = %d; want %d", len(vps), len(want))
	}
	for _, vp := range vps {
		if vp.Width != 375 || vp.Height != 812 {
			t.Fatalf("%s viewport = %dx%d; want 375x812", vp.Path, vp.Width, vp.Height)
		}
		if vp.UserAgent != device.IPhoneUserAgent {
			t.Fatalf("%s navigator.userAgent = %q; want iPhone UA", vp.Path, vp.UserAgent)
		}
	}
}

func TestVerifyOverwritesOnRerun(t *testing.T) {
	env.reset(t)
	out := t.TempDir()
	stale := filepath.Join(out, "shipper-dashboard.png")
	if err := os.WriteFile(stale, []byte("stale"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := env.run(t, env.newRunner(t, env.BaseURL, out, nil)); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	first, err := os.ReadFile(stale)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if bytes.Equal(first, []byte("stale")) {
		t.Fatalf("shipper-dashboard.png was not overwritten")
	}

	if _, err := env.run(t, env.newRunner(t, env.BaseURL, out, nil)); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("files after rerun = %d; want 3", len(entries))
	}
}

func TestVerifyUnreachableServer(t *testing.T) {
	port, err := netutil.FreePort("127.0.0.1")
	if err != nil {
		t.Fatalf("FreePort() error = %v", err)
	}
	out := t.TempDir()
	baseURL := "http://127.0.0.1:" + strconv.Itoa(port)

	_, err = env.run(t, env.newRunner(t, baseURL, out, nil))
	if err == nil {
		t.Fatal("Run() error = nil; want navigation failure")
	}
	if got := verify.StageOf(err); got != verify.StageNavigation {
		t.Fatalf("StageOf(err) = %q; want %q (%v)", got, verify.StageNavigation, err)
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Fatalf("files = %d; want 0", len(entries))
	}
}

func TestVerifyFailFastOnMissingDashboard(t *testing.T) {
	env.reset(t)
	out := t.TempDir()
	targets := []target.Target{
		{Path: "/dashboard/truck-owner", OutputFile: "truck-owner-dashboard.png"},
		{Path: "/dashboard/driver", OutputFile: "driver-dashboard.png"},
		{Path: "/dashboard/admin", OutputFile: "admin-dashboard.png"},
	}
	r := env.newRunner(t, env.BaseURL, out, func(o *verify.Options) { o.Targets = targets })

	_, err := env.run(t, r)
	if got := verify.StageOf(err); got != verify.StageNavigation {
		t.Fatalf("StageOf(err) = %q; want %q (%v)", got, verify.StageNavigation, err)
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 1 || entries[0].Name() != "truck-owner-dashboard.png" {
		t.Fatalf("files = %v; want only truck-owner-dashboard.png", entries)
	}
	if n := len(env.Stub.Journal().Navigations()); n != 1 {
		t.Fatalf("recorded navigations = %d; want 1", n)
	}
}
