package pose

import "math/rand/v2"

// Chooser is the source of uniform choices behind every random decision the
// simulator makes. *rand.Rand satisfies it; tests swap in a scripted one.
type Chooser interface {
	IntN(n int) int
	Float64() float64
}

// NewChooser returns a seeded PCG-backed chooser. It is not safe for
// concurrent use; give each actor its own.
func NewChooser(seed uint64) Chooser {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// RandomChooser seeds a new chooser from the runtime's random source.
func RandomChooser() Chooser {
	return NewChooser(rand.Uint64())
}

// Pick returns one element of items chosen uniformly.
func Pick[T any](c Chooser, items []T) T {
	return items[c.IntN(len(items))]
}
