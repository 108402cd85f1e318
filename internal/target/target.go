package target

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// Target is one page to visit and the file its screenshot is written to.
type Target struct {
	Path       string `yaml:"path" json:"path"`
	OutputFile string `yaml:"output" json:"output_file"`
}

// Reference returns the dashboards captured by a default run, in capture order.
func Reference() []Target {
	return []Target{
		{Path: "/dashboard/truck-owner", OutputFile: "truck-owner-dashboard.png"},
		{Path: "/dashboard/shipper", OutputFile: "shipper-dashboard.png"},
		{Path: "/dashboard/admin", OutputFile: "admin-dashboard.png"},
	}
}

// URL joins baseURL and the target path with exactly one slash between them.
func (t Target) URL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(t.Path, "/")
}

// Validate rejects empty lists, entries without a path or output, and lists where two
// entries would overwrite the same file.
func Validate(targets []Target) error {
	if len(targets) == 0 {
		return errors.New("target list is empty")
	}
	for i, t := range targets {
		if strings.TrimSpace(t.Path) == "" {
			return fmt.Errorf("targets[%d] missing path", i)
		}
		if strings.TrimSpace(t.OutputFile) == "" {
			return fmt.Errorf("targets[%d] missing output", i)
		}
	}
	dups := lo.FindDuplicatesBy(targets, func(t Target) string {
		return filepath.Clean(t.OutputFile)
	})
	if len(dups) > 0 {
		names := lo.Map(dups, func(t Target, _ int) string { return t.OutputFile })
		return fmt.Errorf("duplicate output files: %s", strings.Join(names, ", "))
	}
	return nil
}
