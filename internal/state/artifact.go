// internal/state/artifact.go
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/user/chartadvisor/internal/types"
)

// ArtifactStore is the screenshot ingestion ledger. Metadata is kept in
// artifacts.json keyed by (symbol, timeframe, date); image files live under
// screenshots/<date>/. Re-ingesting the same key overwrites the prior entry
// and file (last-write-wins, the policy for operator re-captures).
type ArtifactStore struct {
	root string
	mu   sync.RWMutex
}

// NewArtifactStore creates a file-backed ArtifactStore rooted at the given directory.
func NewArtifactStore(root string) *ArtifactStore {
	return &ArtifactStore{root: root}
}

func (a *ArtifactStore) ledgerPath() string {
	return filepath.Join(a.root, "artifacts.json")
}

func (a *ArtifactStore) screenshotDir(date types.SessionDate) string {
	return filepath.Join(a.root, "screenshots", string(date))
}

func (a *ArtifactStore) loadLedger() (map[types.ArtifactKey]*types.Artifact, error) {
	data, err := os.ReadFile(a.ledgerPath())
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[types.ArtifactKey]*types.Artifact), nil
		}
		return nil, fmt.Errorf("read artifact ledger: %w", err)
	}

	var artifacts []*types.Artifact
	if err := json.Unmarshal(data, &artifacts); err != nil {
		return nil, fmt.Errorf("unmarshal artifact ledger: %w", err)
	}

	ledger := make(map[types.ArtifactKey]*types.Artifact, len(artifacts))
	for _, art := range artifacts {
		ledger[art.Key()] = art
	}
	return ledger, nil
}

func (a *ArtifactStore) saveLedger(ledger map[types.ArtifactKey]*types.Artifact) error {
	artifacts := make([]*types.Artifact, 0, len(ledger))
	for _, art := range ledger {
		artifacts = append(artifacts, art)
	}
	sortArtifacts(artifacts)

	data, err := json.MarshalIndent(artifacts, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact ledger: %w", err)
	}

	if err := os.MkdirAll(a.root, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp := a.ledgerPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp ledger: %w", err)
	}
	if err := os.Rename(tmp, a.ledgerPath()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp ledger: %w", err)
	}
	return nil
}

// Put copies srcPath into dated storage under a normalized name and upserts
// the ledger entry for the artifact's key. Returns whether a prior artifact
// with the same key was replaced. The source file is removed on success.
func (a *ArtifactStore) Put(_ context.Context, artifact *types.Artifact, srcPath string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ledger, err := a.loadLedger()
	if err != nil {
		return false, err
	}

	dir := a.screenshotDir(artifact.Date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create screenshot dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(srcPath))
	dest := filepath.Join(dir, fmt.Sprintf("%s_%s%s", artifact.Symbol, artifact.Timeframe, ext))
	if err := moveFile(srcPath, dest); err != nil {
		return false, fmt.Errorf("store screenshot: %w", err)
	}
	artifact.Path = dest

	prior, replaced := ledger[artifact.Key()]
	if replaced && prior.Path != dest {
		// Stale file from an earlier capture with a different extension.
		os.Remove(prior.Path)
	}
	ledger[artifact.Key()] = artifact

	if err := a.saveLedger(ledger); err != nil {
		return false, err
	}
	return replaced, nil
}

// ListByDate returns the date's artifacts sorted by symbol, then by the
// canonical timeframe order (widest first).
func (a *ArtifactStore) ListByDate(_ context.Context, date types.SessionDate) ([]*types.Artifact, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ledger, err := a.loadLedger()
	if err != nil {
		return nil, err
	}

	var artifacts []*types.Artifact
	for _, art := range ledger {
		if art.Date == date {
			artifacts = append(artifacts, art)
		}
	}
	sortArtifacts(artifacts)
	return artifacts, nil
}

// CountByDate returns how many artifacts exist for the date.
func (a *ArtifactStore) CountByDate(ctx context.Context, date types.SessionDate) (int, error) {
	artifacts, err := a.ListByDate(ctx, date)
	if err != nil {
		return 0, err
	}
	return len(artifacts), nil
}

func sortArtifacts(artifacts []*types.Artifact) {
	sort.Slice(artifacts, func(i, j int) bool {
		if artifacts[i].Date != artifacts[j].Date {
			return artifacts[i].Date < artifacts[j].Date
		}
		if artifacts[i].Symbol != artifacts[j].Symbol {
			return artifacts[i].Symbol < artifacts[j].Symbol
		}
		return artifacts[i].Timeframe.Rank() < artifacts[j].Timeframe.Rank()
	})
}

// moveFile renames src to dest, falling back to copy+remove across devices.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
