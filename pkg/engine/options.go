package engine

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/latmesh/pkg/cache"
)

// Default policy values.
const (
	// DefaultAllPairsMaxNodes is the largest mesh for which the engine
	// will consider building the cubic all-pairs matrix.
	DefaultAllPairsMaxNodes = 512

	// DefaultPromoteAfter is how many distinct queried sources it takes
	// before the all-pairs matrix pays for itself.
	DefaultPromoteAfter = 3
)

// Options configures an Engine. The zero value is usable: defaults are
// applied by New.
type Options struct {
	// AllPairsMaxNodes caps the mesh size eligible for all-pairs
	// precomputation. Zero means DefaultAllPairsMaxNodes.
	AllPairsMaxNodes int

	// PromoteAfter is the number of distinct queried sources after which
	// an eligible mesh is promoted to the all-pairs strategy.
	// Zero means DefaultPromoteAfter.
	PromoteAfter int

	// ForceAllPairs builds the matrix eagerly in New and skips the
	// promotion heuristic. Useful when the query mix is known up front.
	ForceAllPairs bool

	// Ephemeral disables tree retention: point queries run an
	// early-exit solver pass, full-table queries a plain one, and both
	// discard the result afterwards. Intended for one-shot CLI
	// invocations where process lifetime is a single query.
	Ephemeral bool

	// MaxLatency bounds frontier expansion; nodes beyond it read as
	// unreachable. Zero means unbounded.
	MaxLatency int64

	// Cache persists per-source route tables across processes, keyed by
	// graph fingerprint. Nil disables persistence (in-memory only).
	Cache cache.Cache

	// CacheTTL bounds the lifetime of persisted route tables.
	// Zero means cache.TTLRouteTable.
	CacheTTL time.Duration

	// Logger receives strategy decisions and timings. Nil means the
	// default logger.
	Logger *log.Logger
}

// withDefaults returns a copy of o with zero fields replaced by defaults.
func (o Options) withDefaults() Options {
	if o.AllPairsMaxNodes == 0 {
		o.AllPairsMaxNodes = DefaultAllPairsMaxNodes
	}
	if o.PromoteAfter == 0 {
		o.PromoteAfter = DefaultPromoteAfter
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = cache.TTLRouteTable
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}
