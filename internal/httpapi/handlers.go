package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/profit-backend/internal/engine"
	"github.com/DoyleJ11/profit-backend/internal/hub"
	"github.com/DoyleJ11/profit-backend/internal/media"
	"github.com/DoyleJ11/profit-backend/internal/overlay"
	"github.com/DoyleJ11/profit-backend/internal/session"
	"github.com/DoyleJ11/profit-backend/internal/store"
	"github.com/DoyleJ11/profit-backend/internal/types"
	"github.com/DoyleJ11/profit-backend/internal/upload"
	api "github.com/DoyleJ11/profit-backend/pkg/types"
)

// multipart parts above this spill to temp files
const formMemory = 32 << 20

type Handlers struct {
	hub      *hub.Hub
	history  store.History
	renderer overlay.Renderer
	log      *zap.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := types.ErrorBody(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		a.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, body)
}

func notFound(w http.ResponseWriter, what string) {
	writeJSON(w, http.StatusNotFound, api.ErrorBody{Error: what + " not found"})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, api.ErrorBody{Error: msg})
}

// ---- live sessions

func (a *Handlers) session(w http.ResponseWriter, r *http.Request) *session.Session {
	s := a.hub.Session(r.Context(), chi.URLParam(r, "id"))
	if s == nil {
		notFound(w, "session")
	}
	return s
}

func (a *Handlers) writeSession(w http.ResponseWriter, r *http.Request, s *session.Session, status int) {
	v, err := s.View(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, status, types.SessionView(s.ID(), v))
}

func (a *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := a.hub.NewSession(r.Context())
	if s == nil {
		writeJSON(w, http.StatusServiceUnavailable, api.ErrorBody{Error: "failed to create session"})
		return
	}
	a.writeSession(w, r, s, http.StatusCreated)
}

func (a *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	if s := a.session(w, r); s != nil {
		a.writeSession(w, r, s, http.StatusOK)
	}
}

func (a *Handlers) StartSession(w http.ResponseWriter, r *http.Request) {
	s := a.session(w, r)
	if s == nil {
		return
	}
	if err := s.Start(r.Context()); err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeSession(w, r, s, http.StatusOK)
}

func (a *Handlers) StopSession(w http.ResponseWriter, r *http.Request) {
	s := a.session(w, r)
	if s == nil {
		return
	}
	if err := s.Stop(r.Context()); err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeSession(w, r, s, http.StatusOK)
}

func (a *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !a.hub.RemoveSession(r.Context(), chi.URLParam(r, "id")) {
		notFound(w, "session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *Handlers) SessionOverlay(w http.ResponseWriter, r *http.Request) {
	s := a.session(w, r)
	if s == nil {
		return
	}
	v, err := s.View(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.png(w, r, overlay.LiveFrame, v.State.Skeleton)
}

func (a *Handlers) png(w http.ResponseWriter, r *http.Request, f overlay.Frame, s overlay.Skeleton) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := a.renderer.Render(w, f, s); err != nil {
		a.log.Error("render overlay", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

// ---- uploads

func (a *Handlers) workspace(w http.ResponseWriter, r *http.Request) *upload.Workspace {
	ws := a.hub.Workspace(r.Context(), chi.URLParam(r, "id"))
	if ws == nil {
		notFound(w, "upload")
	}
	return ws
}

func (a *Handlers) writeWorkspace(w http.ResponseWriter, r *http.Request, ws *upload.Workspace, status int) {
	v, err := ws.View(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, status, types.UploadView(v))
}

func (a *Handlers) CreateUpload(w http.ResponseWriter, r *http.Request) {
	ws := a.hub.NewWorkspace(r.Context())
	if ws == nil {
		writeJSON(w, http.StatusServiceUnavailable, api.ErrorBody{Error: "failed to create upload"})
		return
	}
	a.writeWorkspace(w, r, ws, http.StatusCreated)
}

func (a *Handlers) GetUpload(w http.ResponseWriter, r *http.Request) {
	if ws := a.workspace(w, r); ws != nil {
		a.writeWorkspace(w, r, ws, http.StatusOK)
	}
}

func (a *Handlers) DeleteUpload(w http.ResponseWriter, r *http.Request) {
	if !a.hub.RemoveWorkspace(r.Context(), chi.URLParam(r, "id")) {
		notFound(w, "upload")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PutFile takes a file chosen through the browser's file picker.
func (a *Handlers) PutFile(w http.ResponseWriter, r *http.Request) {
	ws := a.workspace(w, r)
	if ws == nil {
		return
	}
	if err := r.ParseMultipartForm(formMemory); err != nil {
		badRequest(w, "expected multipart form")
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "missing file field")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		badRequest(w, "read file")
		return
	}
	a.load(w, r, ws, engine.Media{Name: hdr.Filename, ContentType: hdr.Header.Get("Content-Type")}, data)
}

// DropFile takes a drag-and-dropped file as the raw request body.
func (a *Handlers) DropFile(w http.ResponseWriter, r *http.Request) {
	ws := a.workspace(w, r)
	if ws == nil {
		return
	}
	m := engine.Media{Name: r.Header.Get("X-File-Name"), ContentType: r.Header.Get("Content-Type")}
	// Reject before reading the body.
	if _, err := engine.KindOf(m.ContentType); err != nil {
		a.fail(w, r, err)
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		badRequest(w, "read body")
		return
	}
	a.load(w, r, ws, m, data)
}

func (a *Handlers) load(w http.ResponseWriter, r *http.Request, ws *upload.Workspace, m engine.Media, data []byte) {
	if err := ws.LoadFile(r.Context(), m, data); err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeWorkspace(w, r, ws, http.StatusOK)
}

func (a *Handlers) RemoveFile(w http.ResponseWriter, r *http.Request) {
	ws := a.workspace(w, r)
	if ws == nil {
		return
	}
	if err := ws.RemoveFile(r.Context()); err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeWorkspace(w, r, ws, http.StatusOK)
}

func (a *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	ws := a.workspace(w, r)
	if ws == nil {
		return
	}
	if err := ws.Analyze(r.Context()); err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeWorkspace(w, r, ws, http.StatusAccepted)
}

func (a *Handlers) Media(w http.ResponseWriter, r *http.Request) {
	ws := a.workspace(w, r)
	if ws == nil {
		return
	}
	m, data, err := ws.Media(r.Context())
	if errors.Is(err, media.ErrNotFound) {
		notFound(w, "media")
		return
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", m.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (a *Handlers) UploadOverlay(w http.ResponseWriter, r *http.Request) {
	ws := a.workspace(w, r)
	if ws == nil {
		return
	}
	v, err := ws.View(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.png(w, r, overlay.ImageFrame, v.State.Skeleton)
}

type playbackRequest struct {
	Action  string  `json:"action"`
	Seconds float64 `json:"seconds"`
}

func (a *Handlers) Playback(w http.ResponseWriter, r *http.Request) {
	ws := a.workspace(w, r)
	if ws == nil {
		return
	}
	var req playbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "bad json")
		return
	}

	var err error
	switch req.Action {
	case "toggle":
		err = ws.TogglePlayPause(r.Context())
	case "time":
		err = ws.TimeUpdate(r.Context(), req.Seconds)
	case "ended":
		err = ws.Ended(r.Context())
	case "duration":
		err = ws.SetDuration(r.Context(), req.Seconds)
	default:
		badRequest(w, "unknown action")
		return
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.writeWorkspace(w, r, ws, http.StatusOK)
}

func Limits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.Limits{
		MaxBytes: media.MaxUploadBytes,
		MaxLabel: "100MB",
		Accept:   []string{"image/*", "video/*"},
	})
}

// ---- history

func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return store.DefaultLimit
	}
	return n
}

func (a *Handlers) SessionHistory(w http.ResponseWriter, r *http.Request) {
	rows, err := a.history.Sessions(r.Context(), limitParam(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]api.SessionRecord, len(rows))
	for i, s := range rows {
		out[i] = types.SessionRecord(s)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *Handlers) AnalysisHistory(w http.ResponseWriter, r *http.Request) {
	rows, err := a.history.Analyses(r.Context(), limitParam(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]api.AnalysisRecord, len(rows))
	for i, rec := range rows {
		out[i] = types.AnalysisRecord(rec)
	}
	writeJSON(w, http.StatusOK, out)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
