package camera

import (
	"context"
	"errors"
	"testing"
)

func TestSimulated_GrantAndRelease(t *testing.T) {
	cam := NewSimulated(false)

	s, err := cam.Open(context.Background(), DefaultConstraints)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := s.Constraints(); got != DefaultConstraints {
		t.Fatalf("constraints: got %+v", got)
	}
	if cam.OpenStreams() != 1 {
		t.Fatalf("want 1 open stream, got %d", cam.OpenStreams())
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if cam.OpenStreams() != 0 {
		t.Fatalf("want 0 open streams, got %d", cam.OpenStreams())
	}
	if err := s.Close(); !errors.Is(err, ErrStreamClosed) {
		t.Fatalf("second close: want ErrStreamClosed, got %v", err)
	}
}

func TestSimulated_Deny(t *testing.T) {
	cam := NewSimulated(true)
	_, err := cam.Open(context.Background(), DefaultConstraints)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("want ErrPermissionDenied, got %v", err)
	}
	if cam.OpenStreams() != 0 {
		t.Fatalf("denied open must not hold a stream")
	}
}

func TestSimulated_BadConstraints(t *testing.T) {
	cam := NewSimulated(false)
	_, err := cam.Open(context.Background(), Constraints{})
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("want ErrDeviceUnavailable, got %v", err)
	}
}

func TestSimulated_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSimulated(false).Open(ctx, DefaultConstraints); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
