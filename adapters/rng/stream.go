package rng

import (
	"context"
	"math/rand/v2"
)

// StreamAdapter implements ports.RNGPort with PCG streams
type StreamAdapter struct{}

// NewStreamAdapter creates the default seeded stream source
func NewStreamAdapter() *StreamAdapter {
	return &StreamAdapter{}
}

// Stream creates a deterministic RNG stream for a stage/key pair.
// The stage and key hashes select the PCG stream so that iterations sharing a
// base seed still draw independently.
func (a *StreamAdapter) Stream(ctx context.Context, stage, key string, baseSeed uint64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewPCG(baseSeed, streamSeed(stage, key))), nil
}

// streamSeed combines stage and key with djb2 so "a"+"bc" and "ab"+"c" differ
func streamSeed(stage, key string) uint64 {
	return hashString(stage)<<32 ^ hashString(key)
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint64 {
	var hash uint64 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint64(c) // djb2 algorithm
	}
	return hash
}
