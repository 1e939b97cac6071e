package web

import (
	"github.com/DoyleJ11/profit-backend/internal/media"
	"github.com/DoyleJ11/profit-backend/internal/pose"
)

type Feature struct {
	Title string
	Text  string
	Href  string
	Tags  []string
}

type Step struct {
	Title string
	Text  string
}

type Stat struct {
	Value string
	Label string
}

type Landing struct {
	Headline string
	Features []Feature
	Steps    []Step
	Benefits []string
	Stats    []Stat
}

var Home = Landing{
	Headline: "Perfect Your Yoga Practice With AI",
	Features: []Feature{
		{
			Title: "Live Detection",
			Text:  "Get real-time feedback on your poses using your camera.",
			Href:  "/live",
			Tags:  []string{"Real-time", "Instant feedback", "Pose tracking"},
		},
		{
			Title: "Upload Practice",
			Text:  "Upload a photo or video of your practice for a detailed analysis.",
			Href:  "/upload",
			Tags:  []string{"Detailed analysis", "Progress tracking", "Form correction"},
		},
	},
	Steps: []Step{
		{Title: "Select Mode", Text: "Choose between live detection or upload your yoga practice"},
		{Title: "Perform Your Poses", Text: "Our advanced AI analyzes your form and alignment in real-time"},
		{Title: "Get Feedback", Text: "Receive personalized corrections to improve your practice safely"},
	},
	Benefits: []string{
		"Prevent injuries with proper form guidance",
		"Track your progress over time",
		"Practice with confidence at your own pace",
		"Personalized recommendations for improvement",
	},
	Stats: []Stat{
		{Value: "20+", Label: "Yoga poses detected"},
		{Value: "98%", Label: "Detection accuracy"},
		{Value: "5000+", Label: "Active users"},
	},
}

type LivePage struct {
	Poses []string
	Info  string
}

var Live = LivePage{
	Poses: pose.Poses,
	Info:  "Our AI analyzes your pose in real-time and provides feedback to help you improve. The accuracy score shows how well your pose matches the ideal form.",
}

type UploadPage struct {
	Formats  string
	MaxBytes int64
	MaxLabel string
}

var Upload = UploadPage{
	Formats:  "JPG, PNG, MP4, MOV",
	MaxBytes: media.MaxUploadBytes,
	MaxLabel: "100MB",
}
