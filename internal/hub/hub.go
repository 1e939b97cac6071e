package hub

import (
	"context"

	"github.com/google/uuid"

	"github.com/DoyleJ11/profit-backend/internal/session"
	"github.com/DoyleJ11/profit-backend/internal/upload"
)

type HubMsg interface{ isHubMsg() }

type CreateSession struct {
	Reply chan *session.Session
}

type GetSession struct {
	ID    string
	Reply chan *session.Session
}

// RemoveSession unregisters a session and hands it back so the caller can
// close it outside the hub loop. Without a Reply the hub closes it in the
// background.
type RemoveSession struct {
	ID    string
	Reply chan *session.Session
}

type CreateWorkspace struct {
	Reply chan *upload.Workspace
}

type GetWorkspace struct {
	ID    string
	Reply chan *upload.Workspace
}

type RemoveWorkspace struct {
	ID    string
	Reply chan *upload.Workspace
}

type ShutdownHub struct {
	Done chan struct{}
}

func (CreateSession) isHubMsg()   {}
func (GetSession) isHubMsg()      {}
func (RemoveSession) isHubMsg()   {}
func (CreateWorkspace) isHubMsg() {}
func (GetWorkspace) isHubMsg()    {}
func (RemoveWorkspace) isHubMsg() {}
func (ShutdownHub) isHubMsg()     {}

// Factories build the actors the hub registers. The context passed in is the
// hub's, so cancelling the hub tears every actor down.
type Factories struct {
	NewSession   func(ctx context.Context, id string) *session.Session
	NewWorkspace func(ctx context.Context, id string) *upload.Workspace
}

type Hub struct {
	inbox      chan HubMsg
	sessions   map[string]*session.Session
	workspaces map[string]*upload.Workspace
	factories  Factories
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewHub(parent context.Context, f Factories) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:      make(chan HubMsg, 64),
		sessions:   make(map[string]*session.Session),
		workspaces: make(map[string]*upload.Workspace),
		factories:  f,
		ctx:        ctx,
		cancel:     cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateSession:
				id := uuid.NewString()
				s := h.factories.NewSession(h.ctx, id)
				h.sessions[id] = s
				msg.Reply <- s

			case GetSession:
				msg.Reply <- h.sessions[msg.ID] // May be nil

			case RemoveSession:
				s := h.sessions[msg.ID] // May be nil
				delete(h.sessions, msg.ID)
				switch {
				case msg.Reply != nil:
					msg.Reply <- s
				case s != nil:
					go s.Close()
				}

			case CreateWorkspace:
				id := uuid.NewString()
				w := h.factories.NewWorkspace(h.ctx, id)
				h.workspaces[id] = w
				msg.Reply <- w

			case GetWorkspace:
				msg.Reply <- h.workspaces[msg.ID]

			case RemoveWorkspace:
				w := h.workspaces[msg.ID]
				delete(h.workspaces, msg.ID)
				switch {
				case msg.Reply != nil:
					msg.Reply <- w
				case w != nil:
					go w.Close()
				}

			case ShutdownHub:
				h.closeAll()
				h.cancel()
				if msg.Done != nil {
					close(msg.Done)
				}
				return
			}
		}
	}
}

func (h *Hub) closeAll() {
	for _, s := range h.sessions {
		s.Close()
	}
	for _, w := range h.workspaces {
		w.Close()
	}
	clear(h.sessions)
	clear(h.workspaces)
}

// Session looks a session up; nil when unknown or the hub is gone.
func (h *Hub) Session(ctx context.Context, id string) *session.Session {
	reply := make(chan *session.Session, 1)
	if !h.send(ctx, GetSession{ID: id, Reply: reply}) {
		return nil
	}
	return recv(ctx, h.ctx.Done(), reply)
}

func (h *Hub) NewSession(ctx context.Context) *session.Session {
	reply := make(chan *session.Session, 1)
	if !h.send(ctx, CreateSession{Reply: reply}) {
		return nil
	}
	return recv(ctx, h.ctx.Done(), reply)
}

// RemoveSession unregisters the session and waits for it to release its
// camera. Other hub traffic is not held up by the teardown.
func (h *Hub) RemoveSession(ctx context.Context, id string) bool {
	reply := make(chan *session.Session, 1)
	if !h.send(ctx, RemoveSession{ID: id, Reply: reply}) {
		return false
	}
	s := recv(ctx, h.ctx.Done(), reply)
	if s == nil {
		return false
	}
	s.Close()
	return true
}

func (h *Hub) Workspace(ctx context.Context, id string) *upload.Workspace {
	reply := make(chan *upload.Workspace, 1)
	if !h.send(ctx, GetWorkspace{ID: id, Reply: reply}) {
		return nil
	}
	return recv(ctx, h.ctx.Done(), reply)
}

func (h *Hub) NewWorkspace(ctx context.Context) *upload.Workspace {
	reply := make(chan *upload.Workspace, 1)
	if !h.send(ctx, CreateWorkspace{Reply: reply}) {
		return nil
	}
	return recv(ctx, h.ctx.Done(), reply)
}

func (h *Hub) RemoveWorkspace(ctx context.Context, id string) bool {
	reply := make(chan *upload.Workspace, 1)
	if !h.send(ctx, RemoveWorkspace{ID: id, Reply: reply}) {
		return false
	}
	w := recv(ctx, h.ctx.Done(), reply)
	if w == nil {
		return false
	}
	w.Close()
	return true
}

// Shutdown closes every actor and waits for the hub loop to exit.
func (h *Hub) Shutdown(ctx context.Context) {
	done := make(chan struct{})
	if !h.send(ctx, ShutdownHub{Done: done}) {
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (h *Hub) send(ctx context.Context, m HubMsg) bool {
	if h.ctx.Err() != nil {
		return false
	}
	select {
	case h.inbox <- m:
		return true
	case <-h.ctx.Done():
		return false
	case <-ctx.Done():
		return false
	}
}

func recv[T any](ctx context.Context, stop <-chan struct{}, ch <-chan T) T {
	var zero T
	select {
	case v := <-ch:
		return v
	case <-stop:
		select {
		case v := <-ch:
			return v
		default:
			return zero
		}
	case <-ctx.Done():
		return zero
	}
}
