package artifacts

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// WriteTable writes an arbitrary header+rows CSV atomically; stage
// writers and the report package build on it.
func WriteTable(path string, header []string, rows [][]string) error {
	return writeCSVAtomic(path, header, rows)
}

// writeCSVAtomic writes header+rows to path via temp file + rename so a
// failed run never leaves a truncated artifact behind.
func writeCSVAtomic(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("ensure dir %s: %w", dir, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	return os.Rename(tmpPath, path)
}
