package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/DoyleJ11/profit-backend/internal/overlay"
	"github.com/DoyleJ11/profit-backend/internal/pose"
)

func streaming(t *testing.T) LiveState {
	t.Helper()
	_, s, err := ApplyLive(NewIdleSession(), LiveCommand{Type: CmdStartStream, At: time.Unix(100, 0)})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return s
}

func TestLive_StartTwiceIsRejected(t *testing.T) {
	s := streaming(t)
	_, _, err := ApplyLive(s, LiveCommand{Type: CmdStartStream})
	if !errors.Is(err, ErrAlreadyStreaming) {
		t.Fatalf("want ErrAlreadyStreaming, got %v", err)
	}
}

func TestLive_TicksRequireStreaming(t *testing.T) {
	cases := []struct {
		name string
		cmd  LiveCommand
	}{
		{name: "elapsed", cmd: LiveCommand{Type: CmdElapsedTick}},
		{name: "detection", cmd: LiveCommand{Type: CmdDetectionTick}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ApplyLive(NewIdleSession(), tc.cmd)
			if !errors.Is(err, ErrNotStreaming) {
				t.Fatalf("want ErrNotStreaming, got %v", err)
			}
		})
	}
}

func TestLive_DetectionReplacesWholesale(t *testing.T) {
	s := streaming(t)

	first := pose.Detection{Pose: pose.TreePose, Accuracy: 70, Feedback: []string{"a", "b"}, Keypoints: overlay.Skeleton{{X: 1, Y: 1}, {X: 2, Y: 2}}}
	events, s, err := ApplyLive(s, LiveCommand{Type: CmdDetectionTick, Detection: first})
	if err != nil {
		t.Fatalf("unexpected err %v", err)
	}
	if !ContainsEvent(events, EvtPoseDetected) {
		t.Fatalf("expected EvtPoseDetected")
	}

	second := pose.Detection{Pose: pose.WarriorI, Accuracy: 95, Feedback: []string{"c"}}
	_, s, _ = ApplyLive(s, LiveCommand{Type: CmdDetectionTick, Detection: second})

	if s.DetectedPose != pose.WarriorI || s.Accuracy != 95 || len(s.Feedback) != 1 || s.Skeleton != nil {
		t.Fatalf("detection not replaced wholesale: %+v", s)
	}
	if s.Detections != 2 || s.BestPose != pose.WarriorI || s.BestAccuracy != 95 {
		t.Fatalf("running totals wrong: %+v", s)
	}
}

func TestLive_StopResetsDetectionAndFreezesClock(t *testing.T) {
	s := streaming(t)
	_, s, _ = ApplyLive(s, LiveCommand{Type: CmdElapsedTick})
	_, s, _ = ApplyLive(s, LiveCommand{Type: CmdElapsedTick})
	_, s, _ = ApplyLive(s, LiveCommand{Type: CmdDetectionTick, Detection: pose.Detection{Pose: pose.TreePose, Accuracy: 61, Feedback: []string{"x"}}})

	events, s, err := ApplyLive(s, LiveCommand{Type: CmdStopStream})
	if err != nil || !ContainsEvent(events, EvtStreamStopped) {
		t.Fatalf("stop: events=%v err=%v", events, err)
	}
	if s.Streaming() || s.HasDetection || s.DetectedPose != "" || s.Accuracy != 0 || len(s.Feedback) != 0 || s.Skeleton != nil {
		t.Fatalf("detection fields not cleared: %+v", s)
	}
	if s.ElapsedSeconds != 2 {
		t.Fatalf("elapsed should freeze at 2, got %d", s.ElapsedSeconds)
	}

	// idempotent
	events, again, err := ApplyLive(s, LiveCommand{Type: CmdStopStream})
	if err != nil || len(events) != 0 || again.Phase != PhaseIdle {
		t.Fatalf("second stop should be a no-op: events=%v err=%v", events, err)
	}
}

func TestLive_AccuracyClamped(t *testing.T) {
	s := streaming(t)
	_, s, _ = ApplyLive(s, LiveCommand{Type: CmdDetectionTick, Detection: pose.Detection{Pose: pose.TreePose, Accuracy: 140}})
	if s.Accuracy != 100 {
		t.Fatalf("want 100, got %d", s.Accuracy)
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		ct      string
		want    MediaKind
		wantErr bool
	}{
		{ct: "image/png", want: KindImage},
		{ct: "IMAGE/JPEG", want: KindImage},
		{ct: "video/mp4", want: KindVideo},
		{ct: "video/quicktime", want: KindVideo},
		{ct: "text/plain", wantErr: true},
		{ct: "", wantErr: true},
		{ct: "application/image", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.ct, func(t *testing.T) {
			got, err := KindOf(tc.ct)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidFileType) {
					t.Fatalf("want ErrInvalidFileType, got %v", err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("got %q, %v; want %q", got, err, tc.want)
			}
		})
	}
}

func loaded(t *testing.T, ct string) UploadState {
	t.Helper()
	_, s, err := ApplyUpload(NewEmptyUpload(), UploadCommand{Type: CmdLoadFile, Media: Media{Name: "f", ContentType: ct}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func analyzed(t *testing.T, s UploadState, r pose.Result) UploadState {
	t.Helper()
	_, s, err := ApplyUpload(s, UploadCommand{Type: CmdAnalyze})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	_, s, err = ApplyUpload(s, UploadCommand{Type: CmdCompleteAnalysis, Result: r, Generation: s.Generation, Skeleton: overlay.Skeleton{{X: 1, Y: 1}, {X: 2, Y: 2}}})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	return s
}

func TestUpload_RejectedTypeKeepsPriorResult(t *testing.T) {
	s := analyzed(t, loaded(t, "image/png"), pose.CannedResults[1])

	_, after, err := ApplyUpload(s, UploadCommand{Type: CmdLoadFile, Media: Media{Name: "notes.txt", ContentType: "text/plain"}})
	if !errors.Is(err, ErrInvalidFileType) {
		t.Fatalf("want ErrInvalidFileType, got %v", err)
	}
	if after.Phase != PhaseAnalyzed || after.Result == nil || after.Media.Name != "f" {
		t.Fatalf("state mutated by rejected file: %+v", after)
	}
}

func TestUpload_RejectedTypeOnEmpty(t *testing.T) {
	_, s, err := ApplyUpload(NewEmptyUpload(), UploadCommand{Type: CmdLoadFile, Media: Media{ContentType: "text/plain"}})
	if !errors.Is(err, ErrInvalidFileType) || s.Media != nil || s.Phase != PhaseEmpty {
		t.Fatalf("want empty state and ErrInvalidFileType, got %+v %v", s, err)
	}
}

func TestUpload_AnalyzeTransitions(t *testing.T) {
	cases := []struct {
		name    string
		setup   func(t *testing.T) UploadState
		wantErr error
	}{
		{name: "from empty", setup: func(*testing.T) UploadState { return NewEmptyUpload() }, wantErr: ErrNoFile},
		{name: "from loaded", setup: func(t *testing.T) UploadState { return loaded(t, "video/mp4") }},
		{
			name: "from analyzing",
			setup: func(t *testing.T) UploadState {
				_, s, _ := ApplyUpload(loaded(t, "video/mp4"), UploadCommand{Type: CmdAnalyze})
				return s
			},
			wantErr: ErrAnalysisInProgress,
		},
		{name: "from analyzed", setup: func(t *testing.T) UploadState { return analyzed(t, loaded(t, "video/mp4"), pose.CannedResults[0]) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.setup(t)
			_, next, err := ApplyUpload(s, UploadCommand{Type: CmdAnalyze})
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("want %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil || next.Phase != PhaseAnalyzing || next.Generation != s.Generation+1 {
				t.Fatalf("want analyzing with new generation, got %+v %v", next, err)
			}
		})
	}
}

func TestUpload_ReanalyzeReplacesResult(t *testing.T) {
	s := analyzed(t, loaded(t, "image/jpeg"), pose.CannedResults[0])
	s = analyzed(t, s, pose.CannedResults[3])
	if s.Result.PoseName != pose.DownwardDog || s.Phase != PhaseAnalyzed {
		t.Fatalf("result not replaced: %+v", s.Result)
	}
	if len(s.Skeleton) != 2 {
		t.Fatalf("image analysis should carry a skeleton")
	}
}

func TestUpload_VideoAnalysisHasNoSkeleton(t *testing.T) {
	s := analyzed(t, loaded(t, "video/mp4"), pose.CannedResults[0])
	if s.Skeleton != nil {
		t.Fatalf("video analysis must not carry a skeleton")
	}
}

func TestUpload_RemoveCancelsPendingAnalysis(t *testing.T) {
	_, s, _ := ApplyUpload(loaded(t, "image/png"), UploadCommand{Type: CmdAnalyze})
	pending := s.Generation

	events, s, err := ApplyUpload(s, UploadCommand{Type: CmdRemoveFile})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !ContainsEvent(events, EvtAnalysisCancelled) || !ContainsEvent(events, EvtFileRemoved) {
		t.Fatalf("want cancel + remove events, got %v", events)
	}

	_, after, err := ApplyUpload(s, UploadCommand{Type: CmdCompleteAnalysis, Generation: pending, Result: pose.CannedResults[0]})
	if !errors.Is(err, ErrStaleAnalysis) {
		t.Fatalf("want ErrStaleAnalysis, got %v", err)
	}
	if after.Phase != PhaseEmpty || after.Result != nil {
		t.Fatalf("stale completion leaked into state: %+v", after)
	}
}

func TestUpload_RemoveFromEmpty(t *testing.T) {
	_, _, err := ApplyUpload(NewEmptyUpload(), UploadCommand{Type: CmdRemoveFile})
	if !errors.Is(err, ErrNoFile) {
		t.Fatalf("want ErrNoFile, got %v", err)
	}
}

func TestUpload_ReplaceFileDiscardsResult(t *testing.T) {
	s := analyzed(t, loaded(t, "image/png"), pose.CannedResults[0])
	_, s, err := ApplyUpload(s, UploadCommand{Type: CmdLoadFile, Media: Media{Name: "clip.mp4", ContentType: "video/mp4"}})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if s.Phase != PhaseLoaded || s.Result != nil || s.Skeleton != nil || s.Media.Kind != KindVideo {
		t.Fatalf("replace did not reset: %+v", s)
	}
}

func TestUpload_Playback(t *testing.T) {
	s := loaded(t, "video/mp4")

	steps := []UploadCommand{
		{Type: CmdSetDuration, Seconds: 120},
		{Type: CmdTogglePlayback},
		{Type: CmdTimeUpdate, Seconds: 30.5},
	}
	for _, cmd := range steps {
		var err error
		_, s, err = ApplyUpload(s, cmd)
		if err != nil {
			t.Fatalf("%s: %v", cmd.Type, err)
		}
	}
	if !s.Playback.Playing || s.Playback.CurrentTime != 30.5 || s.Playback.Duration != 120 {
		t.Fatalf("playback: %+v", s.Playback)
	}

	_, s, _ = ApplyUpload(s, UploadCommand{Type: CmdPlaybackEnded})
	if s.Playback.Playing {
		t.Fatalf("ended must stop playing")
	}

	_, s, _ = ApplyUpload(s, UploadCommand{Type: CmdTogglePlayback})
	_, s, _ = ApplyUpload(s, UploadCommand{Type: CmdTogglePlayback})
	if s.Playback.Playing {
		t.Fatalf("toggle twice should return to paused")
	}
}

func TestUpload_PlaybackOnImageRejected(t *testing.T) {
	_, _, err := ApplyUpload(loaded(t, "image/png"), UploadCommand{Type: CmdTogglePlayback})
	if !errors.Is(err, ErrNotVideo) {
		t.Fatalf("want ErrNotVideo, got %v", err)
	}
}
