// Package upload runs the upload-and-analyze workspaces. Each workspace is
// an actor holding one uploaded file, its pending or finished analysis and
// the playback position for videos.
package upload

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/profit-backend/internal/engine"
	"github.com/DoyleJ11/profit-backend/internal/overlay"
	"github.com/DoyleJ11/profit-backend/internal/pose"
	"github.com/DoyleJ11/profit-backend/internal/store"
)

var ErrClosed = errors.New("workspace closed")

const DefaultDelay = 2000 * time.Millisecond

// Blobs is where uploaded bytes live while the workspace holds them.
type Blobs interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type Msg interface{ isWorkspaceMsg() }

type Load struct {
	Media engine.Media
	Data  []byte
	Reply chan error
}

type Analyze struct{ Reply chan error }

type Remove struct{ Reply chan error }

// Playback carries one of the video playback commands.
type Playback struct {
	Cmd   engine.UploadCommand
	Reply chan error
}

type GetState struct{ Reply chan View }

type Shutdown struct{}

type analysisDue struct{ generation int }

func (Load) isWorkspaceMsg()        {}
func (Analyze) isWorkspaceMsg()     {}
func (Remove) isWorkspaceMsg()      {}
func (Playback) isWorkspaceMsg()    {}
func (GetState) isWorkspaceMsg()    {}
func (Shutdown) isWorkspaceMsg()    {}
func (analysisDue) isWorkspaceMsg() {}

type View struct {
	ID      string
	Version int
	State   engine.UploadState
}

type Config struct {
	Delay    time.Duration
	Analyzer pose.Analyzer
	Chooser  pose.Chooser
	Blobs    Blobs
	Recorder store.Recorder
	Logger   *zap.Logger
	Now      func() time.Time
}

type Workspace struct {
	id      string
	inbox   chan Msg
	state   engine.UploadState
	version int
	cfg     Config
	log     *zap.Logger
	timer   *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewWorkspace(parent context.Context, id string, cfg Config) *Workspace {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	if cfg.Chooser == nil {
		cfg.Chooser = pose.RandomChooser()
	}
	if cfg.Analyzer == nil {
		cfg.Analyzer = pose.CannedAnalyzer{Chooser: cfg.Chooser}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	ctx, cancel := context.WithCancel(parent)
	w := &Workspace{
		id:     id,
		inbox:  make(chan Msg, 16),
		state:  engine.NewEmptyUpload(),
		cfg:    cfg,
		log:    cfg.Logger.With(zap.String("workspace", id)),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Workspace) ID() string { return w.id }

func (w *Workspace) Done() <-chan struct{} { return w.done }

func (w *Workspace) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			w.shutdown()
			return

		case m := <-w.inbox:
			switch msg := m.(type) {
			case Load:
				msg.Reply <- w.load(msg)

			case Analyze:
				msg.Reply <- w.analyze()

			case analysisDue:
				w.complete(msg.generation)

			case Remove:
				msg.Reply <- w.remove()

			case Playback:
				_, err := w.apply(msg.Cmd)
				msg.Reply <- err

			case GetState:
				msg.Reply <- View{ID: w.id, Version: w.version, State: w.state}

			case Shutdown:
				w.shutdown()
				return
			}
		}
	}
}

func (w *Workspace) load(msg Load) error {
	// Validate before touching the blob store so a rejected file leaves
	// everything as it was.
	if _, err := engine.KindOf(msg.Media.ContentType); err != nil {
		w.log.Info("file rejected", zap.String("name", msg.Media.Name), zap.String("type", msg.Media.ContentType))
		return err
	}

	prev := w.state.Media
	media := msg.Media
	media.Size = int64(len(msg.Data))
	media.BlobKey = w.id + "/" + uuid.NewString()

	if w.cfg.Blobs != nil {
		if err := w.cfg.Blobs.Put(w.ctx, media.BlobKey, msg.Data); err != nil {
			return err
		}
	}

	events, err := w.apply(engine.UploadCommand{Type: engine.CmdLoadFile, Media: media})
	if err != nil {
		w.dropBlob(media.BlobKey)
		return err
	}
	if engine.ContainsEvent(events, engine.EvtAnalysisCancelled) {
		w.disarm()
	}
	if prev != nil {
		w.dropBlob(prev.BlobKey)
	}
	w.log.Info("file loaded", zap.String("name", media.Name), zap.String("kind", string(w.state.Media.Kind)), zap.Int64("bytes", media.Size))
	return nil
}

func (w *Workspace) analyze() error {
	if _, err := w.apply(engine.UploadCommand{Type: engine.CmdAnalyze}); err != nil {
		return err
	}
	w.arm(w.state.Generation)
	return nil
}

// arm schedules the artificial processing delay. Only the workspace
// goroutine touches w.timer.
func (w *Workspace) arm(gen int) {
	w.disarm()
	w.timer = time.AfterFunc(w.cfg.Delay, func() {
		select {
		case w.inbox <- analysisDue{generation: gen}:
		case <-w.ctx.Done():
		}
	})
}

func (w *Workspace) disarm() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Workspace) complete(gen int) {
	if gen != w.state.Generation || w.state.Phase != engine.PhaseAnalyzing {
		w.log.Debug("dropping stale analysis", zap.Int("generation", gen))
		return
	}
	w.timer = nil

	result := w.cfg.Analyzer.Analyze()
	var skel overlay.Skeleton
	if w.state.Media != nil && w.state.Media.Kind == engine.KindImage {
		skel = overlay.Generate(w.cfg.Chooser, overlay.ImageFrame, overlay.DefaultPoints)
	}

	if _, err := w.apply(engine.UploadCommand{
		Type:       engine.CmdCompleteAnalysis,
		Result:     result,
		Skeleton:   skel,
		Generation: gen,
	}); err != nil {
		return
	}

	if w.cfg.Recorder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := w.cfg.Recorder.RecordAnalysis(ctx, store.AnalysisRecord{
			ID:          uuid.NewString(),
			WorkspaceID: w.id,
			FileName:    w.state.Media.Name,
			Kind:        string(w.state.Media.Kind),
			PoseName:    result.PoseName,
			Accuracy:    result.Accuracy,
			Feedback:    result.Feedback,
			AnalyzedAt:  w.cfg.Now(),
		})
		if err != nil {
			w.log.Error("record analysis", zap.Error(err))
		}
	}
	w.log.Info("analysis completed", zap.String("pose", result.PoseName), zap.Int("accuracy", result.Accuracy))
}

func (w *Workspace) remove() error {
	prev := w.state.Media
	if _, err := w.apply(engine.UploadCommand{Type: engine.CmdRemoveFile}); err != nil {
		return err
	}
	w.disarm()
	if prev != nil {
		w.dropBlob(prev.BlobKey)
	}
	return nil
}

func (w *Workspace) apply(cmd engine.UploadCommand) ([]engine.Event, error) {
	events, next, err := engine.ApplyUpload(w.state, cmd)
	if err != nil {
		return nil, err
	}
	w.state = next
	w.version++
	return events, nil
}

func (w *Workspace) dropBlob(key string) {
	if w.cfg.Blobs == nil || key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := w.cfg.Blobs.Delete(ctx, key); err != nil {
		w.log.Warn("drop blob", zap.String("key", key), zap.Error(err))
	}
}

func (w *Workspace) shutdown() {
	w.disarm()
	if w.state.Media != nil {
		w.dropBlob(w.state.Media.BlobKey)
	}
	w.cancel()
}

// LoadFile stores a candidate file. Files that are neither image/* nor
// video/* return engine.ErrInvalidFileType and change nothing.
func (w *Workspace) LoadFile(ctx context.Context, m engine.Media, data []byte) error {
	reply := make(chan error, 1)
	return w.call(ctx, Load{Media: m, Data: data, Reply: reply}, reply)
}

// Analyze starts the artificial analysis; the result lands after the
// configured delay.
func (w *Workspace) Analyze(ctx context.Context) error {
	reply := make(chan error, 1)
	return w.call(ctx, Analyze{Reply: reply}, reply)
}

func (w *Workspace) RemoveFile(ctx context.Context) error {
	reply := make(chan error, 1)
	return w.call(ctx, Remove{Reply: reply}, reply)
}

func (w *Workspace) TogglePlayPause(ctx context.Context) error {
	return w.playback(ctx, engine.UploadCommand{Type: engine.CmdTogglePlayback})
}

func (w *Workspace) TimeUpdate(ctx context.Context, seconds float64) error {
	return w.playback(ctx, engine.UploadCommand{Type: engine.CmdTimeUpdate, Seconds: seconds})
}

func (w *Workspace) Ended(ctx context.Context) error {
	return w.playback(ctx, engine.UploadCommand{Type: engine.CmdPlaybackEnded})
}

func (w *Workspace) SetDuration(ctx context.Context, seconds float64) error {
	return w.playback(ctx, engine.UploadCommand{Type: engine.CmdSetDuration, Seconds: seconds})
}

func (w *Workspace) playback(ctx context.Context, cmd engine.UploadCommand) error {
	reply := make(chan error, 1)
	return w.call(ctx, Playback{Cmd: cmd, Reply: reply}, reply)
}

func (w *Workspace) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := w.post(ctx, GetState{Reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-w.done:
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// Media returns the currently loaded file and its bytes.
func (w *Workspace) Media(ctx context.Context) (engine.Media, []byte, error) {
	v, err := w.View(ctx)
	if err != nil {
		return engine.Media{}, nil, err
	}
	if v.State.Media == nil {
		return engine.Media{}, nil, engine.ErrNoFile
	}
	m := *v.State.Media
	if w.cfg.Blobs == nil {
		return m, nil, nil
	}
	data, err := w.cfg.Blobs.Get(ctx, m.BlobKey)
	if err != nil {
		return engine.Media{}, nil, err
	}
	return m, data, nil
}

func (w *Workspace) Close() {
	select {
	case w.inbox <- Shutdown{}:
	case <-w.done:
		return
	}
	<-w.done
}

func (w *Workspace) call(ctx context.Context, m Msg, reply chan error) error {
	if err := w.post(ctx, m); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-w.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Workspace) post(ctx context.Context, m Msg) error {
	select {
	case w.inbox <- m:
		return nil
	case <-w.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}
