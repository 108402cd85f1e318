package target

import (
	"strings"
	"testing"
)

func TestReferenceOrder(t *testing.T) {
	got := Reference()
	want := []Target{
		{Path: "/dashboard/truck-owner", OutputFile: "truck-owner-dashboard.png"},
		{Path: "/dashboard/shipper", OutputFile: "shipper-dashboard.png"},
		{Path: "/dashboard/admin", OutputFile: "admin-dashboard.png"},
	}
	if len(got) != len(want) {
		t.Fatalf("len(Reference()) = %d; want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Reference()[%d] = %+v; want %+v", i, got[i], want[i])
		}
	}
}

func TestTargetURL(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{"http://localhost:3000", "/dashboard/admin", "http://localhost:3000/dashboard/admin"},
		{"http://localhost:3000/", "/dashboard/admin", "http://localhost:3000/dashboard/admin"},
		{"http://localhost:3000", "dashboard/admin", "http://localhost:3000/dashboard/admin"},
	}
	for _, tt := range tests {
		got := Target{Path: tt.path}.URL(tt.base)
		if got != tt.want {
			t.Fatalf("URL(%q) with path %q = %q; want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(Reference()); err != nil {
		t.Fatalf("Validate(Reference()) = %v; want nil", err)
	}

	tests := []struct {
		name    string
		targets []Target
		wantErr string
	}{
		{"empty", nil, "empty"},
		{"missing path", []Target{{OutputFile: "a.png"}}, "missing path"},
		{"missing output", []Target{{Path: "/a"}}, "missing output"},
		{"duplicate output", []Target{{Path: "/a", OutputFile: "x.png"}, {Path: "/b", OutputFile: "./x.png"}}, "duplicate output"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.targets)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %q; want to contain %q", err, tt.wantErr)
			}
		})
	}
}
