// internal/state/report.go
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/chartadvisor/internal/types"
)

// ReportStore persists the validated trade plan for each session at
// days/<date>/report.json, and raw response payloads next to it at
// days/<date>/response.json. Saving a report replaces any prior one for the
// date; sessions carry at most one report.
type ReportStore struct {
	root string
	mu   sync.RWMutex
}

// NewReportStore creates a file-backed ReportStore rooted at the given directory.
func NewReportStore(root string) *ReportStore {
	return &ReportStore{root: root}
}

func (r *ReportStore) reportPath(date types.SessionDate) string {
	return filepath.Join(r.root, "days", string(date), "report.json")
}

func (r *ReportStore) responsePath(date types.SessionDate) string {
	return filepath.Join(r.root, "days", string(date), "response.json")
}

// Save writes the report atomically, replacing any existing report for the date.
func (r *ReportStore) Save(_ context.Context, report *types.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeAtomic(r.reportPath(report.Date), data)
}

// Get returns the report for the date.
func (r *ReportStore) Get(_ context.Context, date types.SessionDate) (*types.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(r.reportPath(date))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no report for %s", date)
		}
		return nil, fmt.Errorf("read report: %w", err)
	}

	var report types.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &report, nil
}

// Delete removes the report for the date. Missing reports are not an error.
func (r *ReportStore) Delete(_ context.Context, date types.SessionDate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.reportPath(date)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove report: %w", err)
	}
	return nil
}

// SaveResponse retains a submitted raw response payload for the date,
// overwriting any earlier submission.
func (r *ReportStore) SaveResponse(_ context.Context, date types.SessionDate, raw []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return writeAtomic(r.responsePath(date), raw)
}

// writeAtomic writes data via temp file + rename, creating parent directories.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
