package rng

import (
	"context"
	"math/rand/v2"
)

// golden is the 64-bit golden ratio, used to decorrelate the two PCG seed words
const golden = 0x9e3779b97f4a7c15

// StreamAdapter implements ports.RNGPort with PCG generators
type StreamAdapter struct{}

// NewStreamAdapter creates a new stream adapter
func NewStreamAdapter() *StreamAdapter {
	return &StreamAdapter{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (a *StreamAdapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(hashString(name))^golden)), nil
}

// Stream creates a deterministic stream keyed by stream name, key and base seed
func (a *StreamAdapter) Stream(ctx context.Context, streamName, key string, baseSeed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hi := uint64(hashString(streamName))<<32 | uint64(hashString(key))
	return rand.New(rand.NewPCG(uint64(baseSeed)^golden, hi)), nil
}

// Seeded returns a standalone generator for callers outside a run (tests, one-off rounds)
func Seeded(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), golden))
}

// hashString creates a djb2 hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c)
	}
	return hash
}
