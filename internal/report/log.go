package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/irinasmt/rcabrain/internal/models"
)

type logDocument struct {
	SavedAt string           `json:"saved_at"`
	Report  *models.RcaReport `json:"report"`
}

// WriteLog writes report as a single JSON document
// ({"saved_at": <ISO-8601 UTC>, "report": {...}}) to path, creating
// parent directories as needed.
func WriteLog(path string, report *models.RcaReport, savedAt time.Time) error {
	doc := logDocument{
		SavedAt: savedAt.UTC().Format(time.RFC3339),
		Report:  report,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal log document: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("report: create log dir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: write log %s: %w", path, err)
	}
	return nil
}
