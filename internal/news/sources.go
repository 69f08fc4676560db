// internal/news/sources.go
package news

import (
	"fmt"
	"log/slog"

	"github.com/user/chartadvisor/internal/types"
)

// Sources resolves configured source names to adapters. Unknown names are an
// error so config typos surface at startup rather than as silent empty feeds.
func Sources(names []string, logger *slog.Logger) ([]types.NewsSource, error) {
	var sources []types.NewsSource
	for _, name := range names {
		switch name {
		case "fed":
			sources = append(sources, NewFed(logger))
		default:
			return nil, fmt.Errorf("unknown news source %q", name)
		}
	}
	return sources, nil
}
