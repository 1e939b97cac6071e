package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DoyleJ11/profit-backend/internal/camera"
	"github.com/DoyleJ11/profit-backend/internal/engine"
	"github.com/DoyleJ11/profit-backend/internal/pose"
	"github.com/DoyleJ11/profit-backend/internal/store"
)

var ErrClosed = errors.New("session closed")

const (
	DefaultElapsedEvery = time.Second
	DefaultDetectEvery  = 3 * time.Second
)

type Msg interface{ isSessionMsg() }

type Start struct {
	Ctx   context.Context
	Reply chan error
}

func (Start) isSessionMsg() {}

type Stop struct {
	Reply chan struct{}
}

func (Stop) isSessionMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isSessionMsg() {}

type Leave struct{ ClientID string }

func (Leave) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isSessionMsg() {}

type Snapshot struct {
	Version int
	Clients int
	State   engine.LiveState
}

type View struct {
	Version    int
	NumClients int
	State      engine.LiveState
}

// Ticker is a repeating task trigger. *time.Ticker is adapted by RealTicker.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func RealTicker(d time.Duration) Ticker { return realTicker{t: time.NewTicker(d)} }

type Config struct {
	ElapsedEvery time.Duration
	DetectEvery  time.Duration
	Constraints  camera.Constraints
	NewTicker    func(time.Duration) Ticker
	Now          func() time.Time
	Recorder     store.Recorder
	Logger       *zap.Logger
}

func (c *Config) defaults() {
	if c.ElapsedEvery <= 0 {
		c.ElapsedEvery = DefaultElapsedEvery
	}
	if c.DetectEvery <= 0 {
		c.DetectEvery = DefaultDetectEvery
	}
	if c.Constraints == (camera.Constraints{}) {
		c.Constraints = camera.DefaultConstraints
	}
	if c.NewTicker == nil {
		c.NewTicker = RealTicker
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// Session is one live practice session. A single goroutine owns the state,
// the camera stream and both repeating tasks.
type Session struct {
	id       string
	inbox    chan Msg
	state    engine.LiveState
	version  int
	clients  map[string]chan Snapshot
	cam      camera.Camera
	detector pose.Detector
	cfg      Config
	log      *zap.Logger

	stream      camera.Stream
	elapsedTask Ticker
	detectTask  Ticker

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSession(parent context.Context, id string, cam camera.Camera, det pose.Detector, cfg Config) *Session {
	cfg.defaults()
	ctx, cancel := context.WithCancel(parent)

	s := &Session{
		id:       id,
		inbox:    make(chan Msg, 64),
		state:    engine.NewIdleSession(),
		clients:  make(map[string]chan Snapshot),
		cam:      cam,
		detector: det,
		cfg:      cfg,
		log:      cfg.Logger.With(zap.String("session", id)),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go s.loop()
	return s
}

func (s *Session) ID() string { return s.id }

// Inbox exposes the mailbox so the ws layer and tests can send messages.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Done is closed once the session goroutine has exited and released the
// camera.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case <-tickC(s.elapsedTask):
			s.apply(engine.LiveCommand{Type: engine.CmdElapsedTick})

		case <-tickC(s.detectTask):
			s.apply(engine.LiveCommand{Type: engine.CmdDetectionTick, Detection: s.detector.Detect()})

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Start:
				msg.Reply <- s.start(msg.Ctx)

			case Stop:
				s.stop()
				close(msg.Reply)

			case Join:
				// Register client + send current snapshot immediately
				s.clients[msg.ClientID] = msg.Outbox
				s.send(msg.ClientID, msg.Outbox, Snapshot{Version: s.version, Clients: len(s.clients), State: s.state})

			case Leave:
				delete(s.clients, msg.ClientID)

			case GetState:
				msg.Reply <- View{
					Version:    s.version,
					NumClients: len(s.clients),
					State:      s.state,
				}

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

// tickC returns nil for an idle task so its select case never fires.
func tickC(t Ticker) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C()
}

func (s *Session) start(ctx context.Context) error {
	if s.state.Streaming() {
		return engine.ErrAlreadyStreaming
	}
	if ctx == nil {
		ctx = s.ctx
	}

	stream, err := s.cam.Open(ctx, s.cfg.Constraints)
	if err != nil {
		s.log.Warn("camera access failed", zap.Error(err))
		return err
	}

	if !s.apply(engine.LiveCommand{Type: engine.CmdStartStream, At: s.cfg.Now()}) {
		_ = stream.Close()
		return engine.ErrAlreadyStreaming
	}
	s.stream = stream
	s.elapsedTask = s.cfg.NewTicker(s.cfg.ElapsedEvery)
	s.detectTask = s.cfg.NewTicker(s.cfg.DetectEvery)

	s.log.Info("session started", zap.String("stream", stream.ID()))
	return nil
}

// stop cancels both tasks, releases the camera and clears the detection
// fields. It is a no-op when idle.
func (s *Session) stop() {
	if !s.state.Streaming() {
		return
	}

	if s.elapsedTask != nil {
		s.elapsedTask.Stop()
		s.elapsedTask = nil
	}
	if s.detectTask != nil {
		s.detectTask.Stop()
		s.detectTask = nil
	}

	var err error
	if s.stream != nil {
		err = multierr.Append(err, s.stream.Close())
		s.stream = nil
	}

	final := s.state
	s.apply(engine.LiveCommand{Type: engine.CmdStopStream})

	if s.cfg.Recorder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = multierr.Append(err, s.cfg.Recorder.RecordSession(ctx, store.SessionSummary{
			ID:             uuid.NewString(),
			StartedAt:      final.StartedAt,
			EndedAt:        s.cfg.Now(),
			ElapsedSeconds: final.ElapsedSeconds,
			Detections:     final.Detections,
			BestPose:       final.BestPose,
			BestAccuracy:   final.BestAccuracy,
		}))
		cancel()
	}

	if err != nil {
		s.log.Error("session teardown", zap.Error(err))
	}
	s.log.Info("session stopped", zap.Int("elapsed", final.ElapsedSeconds), zap.Int("detections", final.Detections))
}

func (s *Session) apply(cmd engine.LiveCommand) bool {
	events, next, err := engine.ApplyLive(s.state, cmd)
	if err != nil {
		s.log.Debug("command rejected", zap.String("cmd", string(cmd.Type)), zap.Error(err))
		return false
	}
	if len(events) == 0 {
		return true
	}
	s.state = next
	s.version++
	s.broadcast(Snapshot{Version: s.version, Clients: len(s.clients), State: s.state})
	return true
}

func (s *Session) shutdown() {
	s.stop()
	for id, ch := range s.clients {
		close(ch) // Tell client no more snapshots
		delete(s.clients, id)
	}
	s.cancel()
}

func (s *Session) broadcast(snap Snapshot) {
	for id, ch := range s.clients {
		s.send(id, ch, snap)
	}
}

func (s *Session) send(id string, ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		//ok
	default:
		// Client is slow/full - drop them.
		close(ch)
		delete(s.clients, id)
	}
}

// Start requests the camera and begins streaming. Once the request is
// queued Start waits for the session's answer even if ctx ends, so a nil
// return always means the caller now owns a streaming session. ctx still
// reaches the camera, which is expected to give up when it is cancelled.
func (s *Session) Start(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := s.post(ctx, Start{Ctx: ctx, Reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		return ErrClosed
	}
}

// Stop returns once both tasks are cancelled and the camera is released.
func (s *Session) Stop(ctx context.Context) error {
	reply := make(chan struct{})
	if err := s.post(ctx, Stop{Reply: reply}); err != nil {
		return err
	}
	select {
	case <-reply:
		return nil
	case <-s.done:
		// shutdown stops the stream too
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := s.post(ctx, GetState{Reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-s.done:
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// Close shuts the session down and waits for the camera to be released.
func (s *Session) Close() {
	select {
	case s.inbox <- Shutdown{}:
	case <-s.done:
		return
	}
	<-s.done
}

func (s *Session) post(ctx context.Context, m Msg) error {
	select {
	case s.inbox <- m:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}
