package engine

import (
	"slices"
	"time"

	"github.com/DoyleJ11/profit-backend/internal/overlay"
	"github.com/DoyleJ11/profit-backend/internal/pose"
)

type LivePhase string

const (
	PhaseIdle      LivePhase = "idle"
	PhaseStreaming LivePhase = "streaming"
)

type LiveState struct {
	Phase          LivePhase
	StartedAt      time.Time
	ElapsedSeconds int

	// Detection fields are replaced together on every detection tick.
	HasDetection bool
	DetectedPose string
	Accuracy     int
	Feedback     []string
	Skeleton     overlay.Skeleton

	// Running totals for the session summary.
	Detections   int
	BestPose     string
	BestAccuracy int
}

func (s LiveState) Streaming() bool { return s.Phase == PhaseStreaming }

type LiveCommand struct {
	Type      CommandType
	At        time.Time
	Detection pose.Detection
}

func ApplyLive(s LiveState, cmd LiveCommand) ([]Event, LiveState, error) {
	switch cmd.Type {
	case CmdStartStream:
		if s.Streaming() {
			return nil, s, ErrAlreadyStreaming
		}
		next := NewIdleSession()
		next.Phase = PhaseStreaming
		next.StartedAt = cmd.At
		return []Event{{Type: EvtStreamStarted}}, next, nil

	case CmdStopStream:
		if !s.Streaming() {
			// Stop is idempotent
			return nil, s, nil
		}
		next := s
		next.Phase = PhaseIdle
		clearDetection(&next)
		return []Event{{Type: EvtStreamStopped}}, next, nil

	case CmdElapsedTick:
		if !s.Streaming() {
			return nil, s, ErrNotStreaming
		}
		next := s
		next.ElapsedSeconds++
		return []Event{{Type: EvtElapsedAdvanced}}, next, nil

	case CmdDetectionTick:
		if !s.Streaming() {
			return nil, s, ErrNotStreaming
		}
		d := cmd.Detection
		next := s
		next.HasDetection = true
		next.DetectedPose = d.Pose
		next.Accuracy = min(max(d.Accuracy, 0), 100)
		next.Feedback = slices.Clone(d.Feedback)
		if next.Feedback == nil {
			next.Feedback = []string{}
		}
		next.Skeleton = d.Keypoints.Clone()

		next.Detections++
		if next.BestPose == "" || next.Accuracy > next.BestAccuracy {
			next.BestPose = next.DetectedPose
			next.BestAccuracy = next.Accuracy
		}
		return []Event{{Type: EvtPoseDetected}}, next, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func clearDetection(s *LiveState) {
	s.HasDetection = false
	s.DetectedPose = ""
	s.Accuracy = 0
	s.Feedback = []string{}
	s.Skeleton = nil
}
