package ports

import (
	"context"
	"math/rand/v2"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// Stream creates an independent deterministic generator for one keyed draw
	// of a stage (e.g. stage "rarefaction", key "<depth>/<iteration>").
	// The same (stage, key, baseSeed) always yields the same stream.
	Stream(ctx context.Context, stage, key string, baseSeed uint64) (*rand.Rand, error)
}
