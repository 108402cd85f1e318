package snapshot

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/webp"
)

// SnapshotMeta describes a screenshot written to disk.
type SnapshotMeta struct {
	Path      string    `json:"path"`
	Format    string    `json:"format"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	SizeBytes int       `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Store writes screenshot files under one directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates a Store and ensures the directory exists.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot store: mkdir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory images are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Path resolves name against the store directory. Absolute names are kept as is.
func (s *Store) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

// Save writes imageData to name, replacing any existing file. The bytes go to a temp
// file in the destination directory first and are renamed into place, so a failed
// write never leaves a truncated image behind.
func (s *Store) Save(name string, imageData []byte) (SnapshotMeta, error) {
	if len(imageData) == 0 {
		return SnapshotMeta{}, fmt.Errorf("snapshot store: empty image for %s", name)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		return SnapshotMeta{}, fmt.Errorf("snapshot store: decode %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return SnapshotMeta{}, fmt.Errorf("snapshot store: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return SnapshotMeta{}, fmt.Errorf("snapshot store: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			slog.Debug("snapshot temp cleanup failed", "path", tmpPath, "error", err)
		}
	}

	if _, err := tmp.Write(imageData); err != nil {
		_ = tmp.Close()
		cleanup()
		return SnapshotMeta{}, fmt.Errorf("snapshot store: write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return SnapshotMeta{}, fmt.Errorf("snapshot store: close image: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		slog.Debug("snapshot chmod failed", "path", tmpPath, "error", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return SnapshotMeta{}, fmt.Errorf("snapshot store: rename image: %w", err)
	}

	return SnapshotMeta{
		Path:      path,
		Format:    format,
		Width:     cfg.Width,
		Height:    cfg.Height,
		SizeBytes: len(imageData),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Exists reports whether name is present in the store.
func (s *Store) Exists(name string) bool {
	info, err := os.Stat(s.Path(name))
	return err == nil && !info.IsDir()
}

// FormatFromName maps a file extension to a CDP screenshot format, defaulting to png.
func FormatFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".webp":
		return "webp"
	default:
		return "png"
	}
}
