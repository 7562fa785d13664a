package pipeline

import (
	"go.uber.org/zap"

	"github.com/JakeFAU/gazette-permits/internal/extract"
	"github.com/JakeFAU/gazette-permits/internal/gazette"
)

// collector accumulates listing entries across pagination cycles in discovery
// order. An entry seen on an earlier snapshot is not added again.
type collector struct {
	extractor *extract.ListingExtractor
	logger    *zap.Logger

	seen    map[string]struct{}
	entries []gazette.ListEntry
}

func newCollector(extractor *extract.ListingExtractor, logger *zap.Logger) *collector {
	return &collector{
		extractor: extractor,
		logger:    logger,
		seen:      make(map[string]struct{}),
	}
}

// Harvest implements pagination.Harvester.
func (c *collector) Harvest(snap gazette.Snapshot) int {
	page, strategy := c.extractor.Extract(snap)
	added := 0
	for _, entry := range page {
		key := entryKey(entry)
		if _, ok := c.seen[key]; ok {
			continue
		}
		c.seen[key] = struct{}{}
		c.entries = append(c.entries, entry)
		added++
	}
	c.logger.Debug("listing harvested",
		zap.String("strategy", strategy),
		zap.Int("visible", len(page)),
		zap.Int("added", added),
		zap.Int("total", len(c.entries)),
	)
	return len(c.entries)
}

// Entries returns the accumulated entries.
func (c *collector) Entries() []gazette.ListEntry {
	return c.entries
}

func entryKey(entry gazette.ListEntry) string {
	if entry.DetailURL == "" {
		return "\x00" + entry.Title + "\x00" + entry.PublishedDateRaw + "\x00" + entry.Snippet
	}
	if normalized, err := gazette.NormalizeURL(entry.DetailURL); err == nil {
		return normalized
	}
	return entry.DetailURL
}
