package codec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var unsafeNameChars = strings.NewReplacer("/", "_", "\\", "_", ":", "-", " ", "_")

// SnapshotPath returns the file a snapshot of kind and name is written to,
// e.g. network_Basin.json
func SnapshotPath(dir, kind, name string, exporter Exporter) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", kind, unsafeNameChars.Replace(name), exporter.Format()))
}

// WriteSnapshot writes v to dir and returns the file path
func WriteSnapshot(dir, kind, name string, exporter Exporter, v any) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := SnapshotPath(dir, kind, name, exporter)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := exporter.Export(v, f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
