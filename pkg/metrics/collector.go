package metrics

import (
	"context"
	"time"

	"github.com/wtreehq/merkletree/pkg/log"
	"github.com/wtreehq/merkletree/pkg/types"
)

// rootsReader is the subset of *whitelist.Service the collector needs:
// a paged scan of the roots table, which collect follows page by page
// until the continuation token is empty.
type rootsReader interface {
	GetMerkleRoots(ctx context.Context, pageSize int32, startingToken string) (types.Page[types.RootRecord], error)
}

// Collector periodically scans the roots table and republishes the
// per-status row counts as a gauge, so TreesTotal reflects the current
// distribution of CREATING/COMPLETED/FAILED/DELETING rows rather than
// only the cumulative counters the lifecycle transitions feed.
type Collector struct {
	roots  rootsReader
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector over the roots table.
func NewCollector(roots rootsReader) *Collector {
	return &Collector{
		roots:  roots,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics on a 15-second tick.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	counts := make(map[types.Status]int)
	token := ""
	for {
		page, err := c.roots.GetMerkleRoots(ctx, 1000, token)
		if err != nil {
			log.WithComponent("metrics-collector").Error().Err(err).Msg("scanning roots table")
			return
		}
		for _, rec := range page.Items {
			counts[rec.WhitelistStatus]++
		}
		if page.Token == "" {
			break
		}
		token = page.Token
	}

	for _, status := range []types.Status{
		types.StatusCreating, types.StatusCompleted, types.StatusFailed, types.StatusDeleting,
	} {
		TreesTotal.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}
