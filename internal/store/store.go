// Package store keeps the practice history: finished live sessions and
// completed upload analyses.
package store

import (
	"context"
	"errors"
	"time"
)

var ErrClosed = errors.New("store closed")

type SessionSummary struct {
	ID             string
	StartedAt      time.Time
	EndedAt        time.Time
	ElapsedSeconds int
	Detections     int
	BestPose       string
	BestAccuracy   int
}

type AnalysisRecord struct {
	ID          string
	WorkspaceID string
	FileName    string
	Kind        string
	PoseName    string
	Accuracy    int
	Feedback    []string
	AnalyzedAt  time.Time
}

// Recorder is what the live sessions and upload workspaces write to.
type Recorder interface {
	RecordSession(ctx context.Context, s SessionSummary) error
	RecordAnalysis(ctx context.Context, a AnalysisRecord) error
}

// History reads back what was recorded, newest first.
type History interface {
	Recorder
	Sessions(ctx context.Context, limit int) ([]SessionSummary, error)
	Analyses(ctx context.Context, limit int) ([]AnalysisRecord, error)
	Close() error
}

const DefaultLimit = 50

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return DefaultLimit
	}
	return limit
}
