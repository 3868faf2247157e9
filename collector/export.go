package collector

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/testmeta/go-testmeta/metrics"
)

// ExportJSON serializes the snapshot as a UTF-8 JSON document at path,
// indented with the given number of spaces (0 for compact output). Parent
// directories are created as needed.
//
// The document is written to a temporary file in the target directory and
// renamed into place, so a partially written file is never the only
// artifact visible on failure. Unlike the ingestion path, I/O failures here
// are returned to the caller: an export was explicitly requested and the
// caller needs to know it did not happen.
func (c *Collector) ExportJSON(path string, indent int) (err error) {
	defer func() { metrics.RecordExport(err) }()

	data, err := c.marshalSnapshot(indent)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".testmeta-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary export file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write export file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move export file into place: %w", err)
	}

	c.log.Info("Exported session metadata", "path", path, "bytes", len(data))
	return nil
}

func (c *Collector) marshalSnapshot(indent int) ([]byte, error) {
	snap := c.Snapshot()
	if indent <= 0 {
		return json.Marshal(snap)
	}
	return json.MarshalIndent(snap, "", strings.Repeat(" ", indent))
}
