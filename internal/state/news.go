// internal/state/news.go
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/user/chartadvisor/internal/types"
)

// NewsStore is an append-only headline cache in news/items.json, deduplicated
// by (source, published timestamp). Later fetches add only unseen items.
type NewsStore struct {
	root string
	mu   sync.RWMutex
}

// NewNewsStore creates a file-backed NewsStore rooted at the given directory.
func NewNewsStore(root string) *NewsStore {
	return &NewsStore{root: root}
}

func (n *NewsStore) itemsPath() string {
	return filepath.Join(n.root, "news", "items.json")
}

func (n *NewsStore) load() ([]types.NewsItem, error) {
	data, err := os.ReadFile(n.itemsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read news cache: %w", err)
	}
	var items []types.NewsItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal news cache: %w", err)
	}
	return items, nil
}

func (n *NewsStore) save(items []types.NewsItem) error {
	sortNews(items)

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal news cache: %w", err)
	}

	dir := filepath.Dir(n.itemsPath())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create news dir: %w", err)
	}

	tmp := n.itemsPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp news cache: %w", err)
	}
	if err := os.Rename(tmp, n.itemsPath()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp news cache: %w", err)
	}
	return nil
}

// Add appends unseen items and returns how many were new. Existing items are
// never overwritten.
func (n *NewsStore) Add(_ context.Context, items []types.NewsItem) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	cached, err := n.load()
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool, len(cached))
	for i := range cached {
		seen[cached[i].DedupKey()] = true
	}

	added := 0
	for i := range items {
		key := items[i].DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		cached = append(cached, items[i])
		added++
	}

	if added == 0 {
		return 0, nil
	}
	return added, n.save(cached)
}

// Since returns items published at or after the cutoff, newest first.
func (n *NewsStore) Since(_ context.Context, cutoff time.Time) ([]types.NewsItem, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	cached, err := n.load()
	if err != nil {
		return nil, err
	}

	var items []types.NewsItem
	for _, item := range cached {
		if !item.PublishedAt.Before(cutoff) {
			items = append(items, item)
		}
	}
	sortNews(items)
	return items, nil
}

// sortNews orders newest first, breaking ties by source then title so any
// listing derived from the cache is deterministic.
func sortNews(items []types.NewsItem) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].PublishedAt.Equal(items[j].PublishedAt) {
			return items[i].PublishedAt.After(items[j].PublishedAt)
		}
		if items[i].Source != items[j].Source {
			return items[i].Source < items[j].Source
		}
		return items[i].Title < items[j].Title
	})
}
