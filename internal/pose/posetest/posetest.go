// Package posetest provides deterministic choosers for tests.
package posetest

import "sync"

// Scripted replays fixed answers. Ints are taken modulo n so a script never
// goes out of range; both lists wrap around when exhausted.
type Scripted struct {
	mu     sync.Mutex
	Ints   []int
	Floats []float64
	i, f   int
}

func (s *Scripted) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[s.i%len(s.Ints)]
	s.i++
	return ((v % n) + n) % n
}

func (s *Scripted) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Floats) == 0 {
		return 0.5
	}
	v := s.Floats[s.f%len(s.Floats)]
	s.f++
	return v
}
