// Package types turns actor state into the JSON views in pkg/types and maps
// domain errors onto HTTP statuses and user notices.
package types

import (
	"errors"
	"net/http"

	"github.com/DoyleJ11/profit-backend/internal/camera"
	"github.com/DoyleJ11/profit-backend/internal/engine"
	"github.com/DoyleJ11/profit-backend/internal/overlay"
	"github.com/DoyleJ11/profit-backend/internal/pose"
	"github.com/DoyleJ11/profit-backend/internal/session"
	"github.com/DoyleJ11/profit-backend/internal/store"
	"github.com/DoyleJ11/profit-backend/internal/timefmt"
	"github.com/DoyleJ11/profit-backend/internal/upload"
	api "github.com/DoyleJ11/profit-backend/pkg/types"
)

const (
	NoticeCamera   = "Could not access webcam. Please ensure you have given permission."
	NoticeFileType = "Please upload an image or video file"
)

func points(s overlay.Skeleton) []api.Point {
	if len(s) == 0 {
		return nil
	}
	out := make([]api.Point, len(s))
	for i, p := range s {
		out[i] = api.Point{X: p.X, Y: p.Y}
	}
	return out
}

func SessionView(id string, v session.View) api.SessionView {
	st := v.State
	out := api.SessionView{
		ID:             id,
		Version:        v.Version,
		Streaming:      st.Streaming(),
		ElapsedSeconds: st.ElapsedSeconds,
		Elapsed:        timefmt.Clock(st.ElapsedSeconds),
		Clients:        v.NumClients,
		StartedAt:      st.StartedAt,
	}
	if st.HasDetection {
		out.Pose = st.DetectedPose
		out.Accuracy = st.Accuracy
		out.Grade = string(pose.GradeOf(st.Accuracy))
		out.Feedback = append([]string{}, st.Feedback...)
		out.Keypoints = points(st.Skeleton)
		out.OverlayURL = "/api/live/sessions/" + id + "/overlay.png"
	}
	return out
}

// SnapshotMessage wraps a pushed snapshot for the websocket.
func SnapshotMessage(id string, snap session.Snapshot) api.ServerMessage {
	sv := SessionView(id, session.View{Version: snap.Version, NumClients: snap.Clients, State: snap.State})
	return api.ServerMessage{Type: api.MsgSessionSnapshot, Version: snap.Version, Session: &sv}
}

func ResultView(r pose.Result) *api.ResultView {
	out := &api.ResultView{
		Pose:     r.PoseName,
		Accuracy: r.Accuracy,
		Grade:    string(pose.GradeOf(r.Accuracy)),
		Feedback: append([]string{}, r.Feedback...),
	}
	if len(out.Feedback) == 0 {
		out.Message = pose.NoFeedbackMessage
	}
	return out
}

func UploadView(v upload.View) api.UploadView {
	st := v.State
	base := "/api/uploads/" + v.ID
	out := api.UploadView{
		ID:        v.ID,
		Version:   v.Version,
		Phase:     string(st.Phase),
		Analyzing: st.Phase == engine.PhaseAnalyzing,
	}
	if st.Media != nil {
		out.Media = &api.MediaView{
			Kind:        string(st.Media.Kind),
			Name:        st.Media.Name,
			ContentType: st.Media.ContentType,
			Size:        st.Media.Size,
			URL:         base + "/media",
		}
		if st.Media.Kind == engine.KindVideo {
			p := st.Playback
			out.Playback = &api.PlaybackView{
				Playing:     p.Playing,
				CurrentTime: p.CurrentTime,
				Duration:    p.Duration,
				Current:     timefmt.Playback(p.CurrentTime),
				Total:       timefmt.Playback(p.Duration),
				Progress:    timefmt.Progress(p.CurrentTime, p.Duration),
			}
		}
	}
	if st.Result != nil {
		out.Result = ResultView(*st.Result)
	}
	if len(st.Skeleton) > 0 {
		out.Keypoints = points(st.Skeleton)
		out.OverlayURL = base + "/overlay.png"
	}
	return out
}

func SessionRecord(s store.SessionSummary) api.SessionRecord {
	return api.SessionRecord{
		ID:             s.ID,
		StartedAt:      s.StartedAt,
		EndedAt:        s.EndedAt,
		ElapsedSeconds: s.ElapsedSeconds,
		Elapsed:        timefmt.Clock(s.ElapsedSeconds),
		Detections:     s.Detections,
		BestPose:       s.BestPose,
		BestAccuracy:   s.BestAccuracy,
	}
}

func AnalysisRecord(a store.AnalysisRecord) api.AnalysisRecord {
	fb := append([]string{}, a.Feedback...)
	return api.AnalysisRecord{
		ID:          a.ID,
		WorkspaceID: a.WorkspaceID,
		FileName:    a.FileName,
		Kind:        a.Kind,
		Pose:        a.PoseName,
		Accuracy:    a.Accuracy,
		Grade:       string(pose.GradeOf(a.Accuracy)),
		Feedback:    fb,
		AnalyzedAt:  a.AnalyzedAt,
	}
}

// Classify picks the HTTP status and the user notice for a domain error.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, camera.ErrPermissionDenied):
		return http.StatusForbidden, NoticeCamera
	case errors.Is(err, camera.ErrDeviceUnavailable):
		return http.StatusServiceUnavailable, NoticeCamera
	case errors.Is(err, engine.ErrInvalidFileType):
		return http.StatusUnsupportedMediaType, NoticeFileType
	case errors.Is(err, engine.ErrAlreadyStreaming),
		errors.Is(err, engine.ErrNotStreaming),
		errors.Is(err, engine.ErrNoFile),
		errors.Is(err, engine.ErrAnalysisInProgress),
		errors.Is(err, engine.ErrNotVideo),
		errors.Is(err, engine.ErrUnsupportedCommand):
		return http.StatusConflict, ""
	case errors.Is(err, session.ErrClosed), errors.Is(err, upload.ErrClosed):
		return http.StatusGone, ""
	default:
		return http.StatusInternalServerError, ""
	}
}

func ErrorBody(err error) (int, api.ErrorBody) {
	status, notice := Classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	return status, api.ErrorBody{Error: msg, Notice: notice}
}
