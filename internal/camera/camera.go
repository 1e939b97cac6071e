// Package camera models the capture device a live session streams from.
package camera

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrPermissionDenied  = errors.New("camera permission denied")
	ErrDeviceUnavailable = errors.New("camera unavailable")
	ErrStreamClosed      = errors.New("stream already closed")
)

// Constraints describe the requested capture. There is no fallback
// negotiation: a device either satisfies them or the open fails.
type Constraints struct {
	Width  int  `json:"width"`
	Height int  `json:"height"`
	Audio  bool `json:"audio"`
}

// DefaultConstraints is video-only 640x480.
var DefaultConstraints = Constraints{Width: 640, Height: 480}

// Stream is an acquired capture handle. Whoever opened it owns it until Close.
type Stream interface {
	ID() string
	Constraints() Constraints
	Close() error
}

type Camera interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Simulated is an in-process camera. It grants every request unless Deny is
// set, and keeps count of streams that have not been closed.
type Simulated struct {
	Deny bool

	mu   sync.Mutex
	open map[string]bool
}

func NewSimulated(deny bool) *Simulated {
	return &Simulated{Deny: deny, open: make(map[string]bool)}
}

func (c *Simulated) Open(ctx context.Context, cons Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Deny {
		return nil, ErrPermissionDenied
	}
	if cons.Width <= 0 || cons.Height <= 0 {
		return nil, ErrDeviceUnavailable
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open == nil {
		c.open = make(map[string]bool)
	}
	s := &simStream{id: uuid.NewString(), cons: cons, owner: c}
	c.open[s.id] = true
	return s, nil
}

// OpenStreams reports how many streams are still held.
func (c *Simulated) OpenStreams() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.open)
}

func (c *Simulated) release(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open[id] {
		return false
	}
	delete(c.open, id)
	return true
}

type simStream struct {
	id    string
	cons  Constraints
	owner *Simulated
}

func (s *simStream) ID() string               { return s.id }
func (s *simStream) Constraints() Constraints { return s.cons }

func (s *simStream) Close() error {
	if !s.owner.release(s.id) {
		return ErrStreamClosed
	}
	return nil
}
