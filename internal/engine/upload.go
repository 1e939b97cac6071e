package engine

import (
	"math"
	"strings"

	"github.com/DoyleJ11/profit-backend/internal/overlay"
	"github.com/DoyleJ11/profit-backend/internal/pose"
)

type UploadPhase string

const (
	PhaseEmpty     UploadPhase = "empty"
	PhaseLoaded    UploadPhase = "loaded"
	PhaseAnalyzing UploadPhase = "analyzing"
	PhaseAnalyzed  UploadPhase = "analyzed"
)

type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

// KindOf maps a MIME type onto a media kind. Anything that is not image/* or
// video/* is rejected.
func KindOf(contentType string) (MediaKind, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return KindImage, nil
	case strings.HasPrefix(ct, "video/"):
		return KindVideo, nil
	default:
		return "", ErrInvalidFileType
	}
}

type Media struct {
	Kind        MediaKind
	Name        string
	ContentType string
	Size        int64
	BlobKey     string
}

type Playback struct {
	Playing     bool
	CurrentTime float64
	Duration    float64
}

type UploadState struct {
	Phase    UploadPhase
	Media    *Media
	Result   *pose.Result
	Skeleton overlay.Skeleton
	Playback Playback

	// Generation identifies the pending analysis. Completions carrying any
	// other generation are stale.
	Generation int
}

type UploadCommand struct {
	Type       CommandType
	Media      Media
	Result     pose.Result
	Skeleton   overlay.Skeleton
	Generation int
	Seconds    float64
}

func ApplyUpload(s UploadState, cmd UploadCommand) ([]Event, UploadState, error) {
	next := s

	switch cmd.Type {
	case CmdLoadFile:
		kind, err := KindOf(cmd.Media.ContentType)
		if err != nil {
			return nil, s, err
		}
		events := cancelPending(&next)
		m := cmd.Media
		m.Kind = kind
		next.Media = &m
		next.Result = nil
		next.Skeleton = nil
		next.Playback = Playback{}
		next.Phase = PhaseLoaded
		return append(events, Event{Type: EvtFileLoaded}), next, nil

	case CmdAnalyze:
		switch s.Phase {
		case PhaseEmpty:
			return nil, s, ErrNoFile
		case PhaseAnalyzing:
			return nil, s, ErrAnalysisInProgress
		}
		next.Phase = PhaseAnalyzing
		next.Generation++
		return []Event{{Type: EvtAnalysisStarted, Generation: next.Generation}}, next, nil

	case CmdCompleteAnalysis:
		if s.Phase != PhaseAnalyzing || cmd.Generation != s.Generation {
			return nil, s, ErrStaleAnalysis
		}
		r := cmd.Result.Clone()
		next.Result = &r
		next.Skeleton = nil
		if s.Media != nil && s.Media.Kind == KindImage {
			next.Skeleton = cmd.Skeleton.Clone()
		}
		next.Phase = PhaseAnalyzed
		return []Event{{Type: EvtAnalysisCompleted, Generation: s.Generation}}, next, nil

	case CmdRemoveFile:
		if s.Phase == PhaseEmpty {
			return nil, s, ErrNoFile
		}
		events := cancelPending(&next)
		next.Phase = PhaseEmpty
		next.Media = nil
		next.Result = nil
		next.Skeleton = nil
		next.Playback = Playback{}
		return append(events, Event{Type: EvtFileRemoved}), next, nil

	case CmdTogglePlayback, CmdTimeUpdate, CmdPlaybackEnded, CmdSetDuration:
		if s.Media == nil {
			return nil, s, ErrNoFile
		}
		if s.Media.Kind != KindVideo {
			return nil, s, ErrNotVideo
		}
		applyPlayback(&next.Playback, cmd)
		return []Event{{Type: EvtPlaybackChanged}}, next, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// cancelPending invalidates an in-flight analysis so its completion is
// dropped when it arrives.
func cancelPending(s *UploadState) []Event {
	if s.Phase != PhaseAnalyzing {
		return nil
	}
	s.Generation++
	return []Event{{Type: EvtAnalysisCancelled, Generation: s.Generation - 1}}
}

func applyPlayback(p *Playback, cmd UploadCommand) {
	switch cmd.Type {
	case CmdTogglePlayback:
		p.Playing = !p.Playing
	case CmdTimeUpdate:
		p.CurrentTime = finiteOrZero(cmd.Seconds)
	case CmdPlaybackEnded:
		p.Playing = false
	case CmdSetDuration:
		p.Duration = finiteOrZero(cmd.Seconds)
	}
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
