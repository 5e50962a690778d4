package util

import (
	"time"

	"golang.org/x/exp/rand"
)

// SeedStream hands out seeds for independent generators, one per worker.
// The same starting seed always yields the same sequence.
type SeedStream struct {
	rnd *rand.Rand
}

// NewSeedStream starts a stream at seed.
func NewSeedStream(seed uint64) *SeedStream {
	return &SeedStream{rnd: rand.New(rand.NewSource(seed))}
}

// TimeSeed derives a seed from the wall clock.
func TimeSeed() uint64 {
	return uint64(time.Now().UnixNano())
}

// Next returns the next n seeds.
func (s *SeedStream) Next(n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = s.rnd.Uint64()
	}
	return out
}
