// Package random provides seed generation and reproducible random streams.
//
// Every stochastic step of the pipeline takes an explicit *rand.Rand; this
// package is where those streams come from.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// SeedSource reports where a resolved seed came from.
type SeedSource string

const (
	SeedSourceConfig    SeedSource = "config"
	SeedSourceGenerated SeedSource = "generated"
)

// streamIncrement is the fixed second PCG word; streams differ only by seed.
const streamIncrement = 0x9e3779b97f4a7c15

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// ResolveSeed returns configured when it is non-zero, otherwise a seed from
// generate (NewSeed when nil).
func ResolveSeed(configured uint64, generate func() (uint64, error)) (uint64, SeedSource, error) {
	if configured != 0 {
		return configured, SeedSourceConfig, nil
	}
	if generate == nil {
		generate = NewSeed
	}
	seed, err := generate()
	if err != nil {
		return 0, "", err
	}
	return seed, SeedSourceGenerated, nil
}

// NewStream returns a PCG-backed generator; equal seeds give equal streams.
func NewStream(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, streamIncrement))
}

// Derive returns the seed of the n-th independent substream of seed, for
// example one per exposure of a visit.
func Derive(seed uint64, n int) uint64 {
	// splitmix64 finalizer
	z := seed + uint64(n+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
