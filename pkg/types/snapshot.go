// Package types holds the JSON shapes the server sends to browsers.
package types

import "time"

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SessionView is a live session as the client renders it.
//
// Detection fields are omitted until the first detection tick and again
// after Stop.
type SessionView struct {
	ID             string    `json:"id"`
	Version        int       `json:"version"`
	Streaming      bool      `json:"streaming"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	Elapsed        string    `json:"elapsed"` // MM:SS
	Pose           string    `json:"pose,omitempty"`
	Accuracy       int       `json:"accuracy,omitempty"`
	Grade          string    `json:"grade,omitempty"`
	Feedback       []string  `json:"feedback,omitempty"`
	Keypoints      []Point   `json:"keypoints,omitempty"`
	OverlayURL     string    `json:"overlay_url,omitempty"`
	Clients        int       `json:"clients"`
	StartedAt      time.Time `json:"started_at,omitzero"`
}

type MediaView struct {
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
}

type ResultView struct {
	Pose     string   `json:"pose"`
	Accuracy int      `json:"accuracy"`
	Grade    string   `json:"grade"`
	Feedback []string `json:"feedback"`
	// Message replaces the feedback list when it is empty.
	Message string `json:"message,omitempty"`
}

type PlaybackView struct {
	Playing     bool    `json:"playing"`
	CurrentTime float64 `json:"current_time"`
	Duration    float64 `json:"duration"`
	Current     string  `json:"current"`
	Total       string  `json:"total"`
	Progress    float64 `json:"progress"`
}

type UploadView struct {
	ID         string        `json:"id"`
	Version    int           `json:"version"`
	Phase      string        `json:"phase"`
	Analyzing  bool          `json:"analyzing"`
	Media      *MediaView    `json:"media,omitempty"`
	Result     *ResultView   `json:"result,omitempty"`
	Keypoints  []Point       `json:"keypoints,omitempty"`
	OverlayURL string        `json:"overlay_url,omitempty"`
	Playback   *PlaybackView `json:"playback,omitempty"`
}

type Limits struct {
	MaxBytes int64    `json:"max_bytes"`
	MaxLabel string   `json:"max_label"`
	Accept   []string `json:"accept"`
}

type SessionRecord struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	Elapsed        string    `json:"elapsed"`
	Detections     int       `json:"detections"`
	BestPose       string    `json:"best_pose,omitempty"`
	BestAccuracy   int       `json:"best_accuracy,omitempty"`
}

type AnalysisRecord struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	FileName    string    `json:"file_name"`
	Kind        string    `json:"kind"`
	Pose        string    `json:"pose"`
	Accuracy    int       `json:"accuracy"`
	Grade       string    `json:"grade"`
	Feedback    []string  `json:"feedback"`
	AnalyzedAt  time.Time `json:"analyzed_at"`
}

// ErrorBody is every non-2xx JSON response. Notice is the user-facing text.
type ErrorBody struct {
	Error  string `json:"error"`
	Notice string `json:"notice,omitempty"`
}
