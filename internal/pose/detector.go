package pose

import (
	"github.com/DoyleJ11/profit-backend/internal/overlay"
)

const (
	MinLiveAccuracy = 60
	MaxLiveAccuracy = 100
	feedbackStep    = 15
)

// Detection is one detection tick's output.
type Detection struct {
	Pose      string
	Accuracy  int
	Feedback  []string
	Keypoints overlay.Skeleton
}

// Detector produces a detection for the current frame.
type Detector interface {
	Detect() Detection
}

// FeedbackCount is how many correction lines a live detection shows:
// one per 15 points below 100, at least one, never more than available.
func FeedbackCount(accuracy, available int) int {
	n := max(1, (100-accuracy)/feedbackStep)
	return min(n, available)
}

// MockDetector fabricates detections: a random catalog pose, a random
// accuracy in [60,100] and random keypoints inside the frame.
type MockDetector struct {
	Chooser Chooser
	Frame   overlay.Frame
	Points  int
}

func NewMockDetector(c Chooser) *MockDetector {
	return &MockDetector{Chooser: c, Frame: overlay.LiveFrame, Points: overlay.DefaultPoints}
}

func (d *MockDetector) Detect() Detection {
	name := Pick(d.Chooser, Poses)
	acc := MinLiveAccuracy + d.Chooser.IntN(MaxLiveAccuracy-MinLiveAccuracy+1)

	lines := feedbackLines[name]
	n := FeedbackCount(acc, len(lines))
	fb := make([]string, n)
	copy(fb, lines[:n])

	return Detection{
		Pose:      name,
		Accuracy:  acc,
		Feedback:  fb,
		Keypoints: overlay.Generate(d.Chooser, d.Frame, d.Points),
	}
}

// Analyzer resolves an uploaded file to a result.
type Analyzer interface {
	Analyze() Result
}

// CannedAnalyzer returns one of CannedResults chosen uniformly.
type CannedAnalyzer struct {
	Chooser Chooser
}

func (a CannedAnalyzer) Analyze() Result {
	return Pick(a.Chooser, CannedResults).Clone()
}
