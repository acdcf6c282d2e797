package solver

import (
	"math/rand/v2"
	"sync"
)

// NewRandomSource returns a reproducible source seeded with seed
func NewRandomSource(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// SystemRandom returns a source backed by the runtime's global generator
func SystemRandom() RandomSource {
	return systemRandom{}
}

type systemRandom struct{}

func (systemRandom) Float64() float64 {
	return rand.Float64()
}

// LockedSource makes a RandomSource safe to share between goroutines.
// Seeded sources are shared by the HTTP layer across requests.
type LockedSource struct {
	mu  sync.Mutex
	src RandomSource
}

// NewLockedSource wraps src
func NewLockedSource(src RandomSource) *LockedSource {
	return &LockedSource{src: src}
}

func (l *LockedSource) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}
