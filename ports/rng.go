package ports

import (
	"context"
	"math/rand/v2"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// Stream creates a deterministic RNG stream for one unit of work (a simulation index, a chain).
	// Equal (streamName, key, baseSeed) triples always yield identical streams, independent of scheduling.
	Stream(ctx context.Context, streamName, key string, baseSeed int64) (*rand.Rand, error)
}
