package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/profit-backend/internal/camera"
	"github.com/DoyleJ11/profit-backend/internal/hub"
	"github.com/DoyleJ11/profit-backend/internal/media"
	"github.com/DoyleJ11/profit-backend/internal/pose"
	"github.com/DoyleJ11/profit-backend/internal/session"
	"github.com/DoyleJ11/profit-backend/internal/store"
	"github.com/DoyleJ11/profit-backend/internal/types"
	"github.com/DoyleJ11/profit-backend/internal/upload"
	"github.com/DoyleJ11/profit-backend/internal/web"
	api "github.com/DoyleJ11/profit-backend/pkg/types"
)

const testDelay = 60 * time.Millisecond

type env struct {
	srv  *httptest.Server
	cam  *camera.Simulated
	hist *store.Memory
}

func newEnv(t *testing.T, deny bool) env {
	t.Helper()
	log := zaptest.NewLogger(t)
	cam := camera.NewSimulated(deny)
	hist := store.NewMemory()

	blobs, err := media.Open("", nil)
	require.NoError(t, err)

	h := hub.NewHub(context.Background(), hub.Factories{
		NewSession: func(ctx context.Context, id string) *session.Session {
			return session.NewSession(ctx, id, cam, pose.NewMockDetector(pose.NewChooser(3)), session.Config{
				ElapsedEvery: 10 * time.Millisecond,
				DetectEvery:  20 * time.Millisecond,
				Recorder:     hist,
				Logger:       log,
			})
		},
		NewWorkspace: func(ctx context.Context, id string) *upload.Workspace {
			return upload.NewWorkspace(ctx, id, upload.Config{
				Delay:    testDelay,
				Chooser:  pose.NewChooser(5),
				Blobs:    blobs,
				Recorder: hist,
				Logger:   log,
			})
		},
	})

	pages, err := web.New()
	require.NoError(t, err)

	srv := httptest.NewServer(SetupRoutes(Deps{Hub: h, History: hist, Pages: pages, Logger: log}))
	t.Cleanup(func() {
		srv.Close()
		h.Shutdown(context.Background())
		_ = blobs.Close()
	})
	return env{srv: srv, cam: cam, hist: hist}
}

func (e env) do(t *testing.T, method, path string, body []byte, header map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func multipartFile(t *testing.T, name, contentType string, data []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write(data)
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func TestLiveSession_StartStopOverHTTP(t *testing.T) {
	e := newEnv(t, false)

	resp := e.do(t, http.MethodPost, "/api/live/sessions", nil, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[api.SessionView](t, resp)
	assert.False(t, created.Streaming)
	assert.Equal(t, "00:00", created.Elapsed)

	resp = e.do(t, http.MethodPost, "/api/live/sessions/"+created.ID+"/start", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[api.SessionView](t, resp).Streaming)

	resp = e.do(t, http.MethodPost, "/api/live/sessions/"+created.ID+"/start", nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	require.Eventually(t, func() bool {
		r := e.do(t, http.MethodGet, "/api/live/sessions/"+created.ID, nil, nil)
		return decode[api.SessionView](t, r).Pose != ""
	}, 2*time.Second, 10*time.Millisecond)

	resp = e.do(t, http.MethodGet, "/api/live/sessions/"+created.ID+"/overlay.png", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 480, img.Bounds().Dy())

	resp = e.do(t, http.MethodPost, "/api/live/sessions/"+created.ID+"/stop", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stopped := decode[api.SessionView](t, resp)
	assert.False(t, stopped.Streaming)
	assert.Empty(t, stopped.Pose)
	assert.Empty(t, stopped.Feedback)
	assert.Equal(t, 0, e.cam.OpenStreams())

	resp = e.do(t, http.MethodGet, "/api/history/sessions", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]api.SessionRecord](t, resp), 1)

	resp = e.do(t, http.MethodDelete, "/api/live/sessions/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = e.do(t, http.MethodGet, "/api/live/sessions/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLiveSession_CameraDenied(t *testing.T) {
	e := newEnv(t, true)
	created := decode[api.SessionView](t, e.do(t, http.MethodPost, "/api/live/sessions", nil, nil))

	resp := e.do(t, http.MethodPost, "/api/live/sessions/"+created.ID+"/start", nil, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	body := decode[api.ErrorBody](t, resp)
	assert.Equal(t, types.NoticeCamera, body.Notice)

	v := decode[api.SessionView](t, e.do(t, http.MethodGet, "/api/live/sessions/"+created.ID, nil, nil))
	assert.False(t, v.Streaming)
}

func TestUpload_ImageEndToEnd(t *testing.T) {
	e := newEnv(t, false)
	w := decode[api.UploadView](t, e.do(t, http.MethodPost, "/api/uploads", nil, nil))
	assert.Equal(t, "empty", w.Phase)
	base := "/api/uploads/" + w.ID

	resp := e.do(t, http.MethodPost, base+"/analyze", nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	body, ct := multipartFile(t, "tree.png", "image/png", []byte("fake png bytes"))
	resp = e.do(t, http.MethodPut, base+"/file", body, map[string]string{"Content-Type": ct})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	loaded := decode[api.UploadView](t, resp)
	assert.Equal(t, "loaded", loaded.Phase)
	require.NotNil(t, loaded.Media)
	assert.Equal(t, "image", loaded.Media.Kind)
	assert.Equal(t, int64(len("fake png bytes")), loaded.Media.Size)

	resp = e.do(t, http.MethodGet, base+"/media", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp = e.do(t, http.MethodPost, base+"/analyze", nil, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.True(t, decode[api.UploadView](t, resp).Analyzing)

	resp = e.do(t, http.MethodPost, base+"/analyze", nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var done api.UploadView
	require.Eventually(t, func() bool {
		done = decode[api.UploadView](t, e.do(t, http.MethodGet, base, nil, nil))
		return done.Phase == "analyzed"
	}, 2*time.Second, 10*time.Millisecond)
	require.NotNil(t, done.Result)
	assert.True(t, pose.IsCanned(pose.Result{PoseName: done.Result.Pose, Accuracy: done.Result.Accuracy, Feedback: done.Result.Feedback}))
	assert.Len(t, done.Keypoints, 15)
	assert.NotEmpty(t, done.OverlayURL)

	resp = e.do(t, http.MethodGet, base+"/overlay.png", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 500, img.Bounds().Dx())

	resp = e.do(t, http.MethodGet, "/api/history/analyses?limit=5", nil, nil)
	assert.Len(t, decode[[]api.AnalysisRecord](t, resp), 1)

	resp = e.do(t, http.MethodDelete, base+"/file", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cleared := decode[api.UploadView](t, resp)
	assert.Equal(t, "empty", cleared.Phase)
	assert.Nil(t, cleared.Media)
	assert.Nil(t, cleared.Result)
}

func TestUpload_RejectedTypeKeepsState(t *testing.T) {
	e := newEnv(t, false)
	w := decode[api.UploadView](t, e.do(t, http.MethodPost, "/api/uploads", nil, nil))
	base := "/api/uploads/" + w.ID

	resp := e.do(t, http.MethodPost, base+"/drop", []byte("clip"), map[string]string{
		"Content-Type": "video/mp4",
		"X-File-Name":  "flow.mp4",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodPost, base+"/drop", []byte("notes"), map[string]string{
		"Content-Type": "text/plain",
		"X-File-Name":  "notes.txt",
	})
	require.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	assert.Equal(t, types.NoticeFileType, decode[api.ErrorBody](t, resp).Notice)

	v := decode[api.UploadView](t, e.do(t, http.MethodGet, base, nil, nil))
	require.NotNil(t, v.Media)
	assert.Equal(t, "flow.mp4", v.Media.Name)
}

func TestUpload_VideoPlayback(t *testing.T) {
	e := newEnv(t, false)
	w := decode[api.UploadView](t, e.do(t, http.MethodPost, "/api/uploads", nil, nil))
	base := "/api/uploads/" + w.ID

	e.do(t, http.MethodPost, base+"/drop", []byte("clip"), map[string]string{"Content-Type": "video/mp4", "X-File-Name": "flow.mp4"})

	post := func(action string, seconds float64) *http.Response {
		b, _ := json.Marshal(map[string]any{"action": action, "seconds": seconds})
		return e.do(t, http.MethodPost, base+"/playback", b, map[string]string{"Content-Type": "application/json"})
	}

	require.Equal(t, http.StatusOK, post("duration", 200).StatusCode)
	require.Equal(t, http.StatusOK, post("toggle", 0).StatusCode)
	resp := post("time", 65.7)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v := decode[api.UploadView](t, resp)
	require.NotNil(t, v.Playback)
	assert.True(t, v.Playback.Playing)
	assert.Equal(t, "01:05", v.Playback.Current)
	assert.Equal(t, "03:20", v.Playback.Total)

	v = decode[api.UploadView](t, post("ended", 0))
	assert.False(t, v.Playback.Playing)

	assert.Equal(t, http.StatusBadRequest, post("rewind", 0).StatusCode)
}

func TestUpload_PlaybackOnImageConflicts(t *testing.T) {
	e := newEnv(t, false)
	w := decode[api.UploadView](t, e.do(t, http.MethodPost, "/api/uploads", nil, nil))
	base := "/api/uploads/" + w.ID
	e.do(t, http.MethodPost, base+"/drop", []byte("img"), map[string]string{"Content-Type": "image/jpeg", "X-File-Name": "a.jpg"})

	b, _ := json.Marshal(map[string]any{"action": "toggle"})
	resp := e.do(t, http.MethodPost, base+"/playback", b, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUnknownIDs(t *testing.T) {
	e := newEnv(t, false)
	for _, p := range []string{"/api/live/sessions/nope", "/api/uploads/nope", "/api/uploads/nope/media"} {
		assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, p, nil, nil).StatusCode, p)
	}
}

func TestPagesLimitsAndHealth(t *testing.T) {
	e := newEnv(t, false)

	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/healthz", nil, nil).StatusCode)

	limits := decode[api.Limits](t, e.do(t, http.MethodGet, "/api/uploads/limits", nil, nil))
	assert.Equal(t, int64(media.MaxUploadBytes), limits.MaxBytes)

	for _, p := range []string{"/", "/live", "/upload"} {
		resp := e.do(t, http.MethodGet, p, nil, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, p)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	}
}
