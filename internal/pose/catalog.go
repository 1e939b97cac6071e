// Package pose holds the pose catalog, the canned analysis records and the
// mock detector that stands in for a real keypoint model.
package pose

import "slices"

const (
	WarriorI     = "Warrior I"
	WarriorII    = "Warrior II"
	TreePose     = "Tree Pose"
	DownwardDog  = "Downward Dog"
	MountainPose = "Mountain Pose"
)

// Poses is the live detector's catalog, in selection order.
var Poses = []string{WarriorI, WarriorII, TreePose, DownwardDog, MountainPose}

var feedbackLines = map[string][]string{
	WarriorI: {
		"Extend your arms fully",
		"Square your hips to the front",
		"Bend your front knee at 90 degrees",
	},
	WarriorII: {
		"Extend your arms parallel to the floor",
		"Turn your back foot at 90 degrees",
		"Gaze over your front hand",
	},
	TreePose: {
		"Focus on a point in front of you",
		"Press your foot into your inner thigh",
		"Keep your standing leg straight",
	},
	DownwardDog: {
		"Press your heels toward the floor",
		"Lengthen your spine",
		"Relax your neck and head",
	},
	MountainPose: {
		"Stand tall with feet together",
		"Engage your core muscles",
		"Relax your shoulders down",
	},
}

// FeedbackFor returns a copy of the canned correction lines for a pose.
func FeedbackFor(name string) []string {
	return slices.Clone(feedbackLines[name])
}

// Result is a finished analysis: what an upload resolves to.
type Result struct {
	PoseName string   `json:"pose_name"`
	Accuracy int      `json:"accuracy"`
	Feedback []string `json:"feedback"`
}

func (r Result) Clone() Result {
	r.Feedback = slices.Clone(r.Feedback)
	if r.Feedback == nil {
		r.Feedback = []string{}
	}
	return r
}

// CannedResults are the fixed records an upload analysis picks from.
var CannedResults = []Result{
	{
		PoseName: WarriorI,
		Accuracy: 78,
		Feedback: []string{
			"Extend your arms fully",
			"Square your hips to the front",
		},
	},
	{
		PoseName: WarriorII,
		Accuracy: 86,
		Feedback: []string{
			"Extend your arms parallel to the floor",
		},
	},
	{
		PoseName: TreePose,
		Accuracy: 65,
		Feedback: []string{
			"Focus on a point in front of you",
			"Press your foot into your inner thigh",
			"Keep your standing leg straight",
		},
	},
	{
		PoseName: DownwardDog,
		Accuracy: 92,
		Feedback: []string{},
	},
}

// IsCanned reports whether r equals one of CannedResults.
func IsCanned(r Result) bool {
	for _, c := range CannedResults {
		if c.PoseName == r.PoseName && c.Accuracy == r.Accuracy && slices.Equal(c.Feedback, r.Feedback) {
			return true
		}
	}
	return false
}

type Grade string

const (
	GradeGood Grade = "good"
	GradeFair Grade = "fair"
	GradePoor Grade = "poor"
)

func GradeOf(accuracy int) Grade {
	switch {
	case accuracy >= 80:
		return GradeGood
	case accuracy >= 60:
		return GradeFair
	default:
		return GradePoor
	}
}

// NoFeedbackMessage is shown when a result carries no corrections.
const NoFeedbackMessage = "Great form! Keep it up."
