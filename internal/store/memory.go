package store

import (
	"context"
	"slices"
	"sync"
)

// Memory is the History used when no database is configured.
type Memory struct {
	mu       sync.Mutex
	sessions []SessionSummary
	analyses []AnalysisRecord
	closed   bool
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) RecordSession(_ context.Context, s SessionSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.sessions = append(m.sessions, s)
	return nil
}

func (m *Memory) RecordAnalysis(_ context.Context, a AnalysisRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	a.Feedback = slices.Clone(a.Feedback)
	m.analyses = append(m.analyses, a)
	return nil
}

func (m *Memory) Sessions(_ context.Context, limit int) ([]SessionSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return newestFirst(m.sessions, normalizeLimit(limit)), nil
}

func (m *Memory) Analyses(_ context.Context, limit int) ([]AnalysisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return newestFirst(m.analyses, normalizeLimit(limit)), nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func newestFirst[T any](items []T, limit int) []T {
	out := make([]T, 0, min(limit, len(items)))
	for i := len(items) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, items[i])
	}
	return out
}
