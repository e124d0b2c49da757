package mining

import (
	"fmt"

	"github.com/hailam/puzzleforge/internal/filter"
	"github.com/hailam/puzzleforge/internal/store"
)

// Config is the immutable set of parameters governing one mining run. It
// is constructed once by the driver and threaded explicitly through the
// pipeline; nothing here is process-wide mutable state.
type Config struct {
	Accelerate *filter.Node
	Verify     *filter.Node

	NodesCap      int64
	DurationCapMs int64

	// MultiPV requests that many PV lines per search from an engine that
	// supports it. Zero or one leaves the engine at its own default.
	MultiPV int

	Infinite    bool
	Chess960    bool
	RandomSeeds int

	MaxFrontier int
	MaxWaves    int
	MaxTotal    int

	// Cache, if non-nil, is consulted before a position is sent to the
	// engine pool and populated with every fresh result afterward. It is
	// strictly a cross-run cache: seen_set/analyzed_set remain the sole
	// authority for within-run de-duplication regardless of what Cache
	// holds. ProtocolHash must be set whenever Cache is, since it's part
	// of every cache key.
	Cache        *store.Cache
	ProtocolHash string
}

// Validate checks the numeric invariants every MiningConfig must satisfy:
// all caps are at least 1.
func (c Config) Validate() error {
	if c.NodesCap < 1 {
		return fmt.Errorf("mining: nodes cap must be >= 1")
	}
	if c.DurationCapMs < 1 {
		return fmt.Errorf("mining: duration cap must be >= 1")
	}
	if c.MaxFrontier < 1 {
		return fmt.Errorf("mining: max frontier must be >= 1")
	}
	if c.MaxWaves < 1 {
		return fmt.Errorf("mining: max waves must be >= 1")
	}
	if c.MaxTotal < 1 {
		return fmt.Errorf("mining: max total must be >= 1")
	}
	if c.Infinite && c.RandomSeeds < 1 {
		return fmt.Errorf("mining: random seed count must be >= 1 in infinite mode")
	}
	return nil
}
