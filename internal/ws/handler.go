package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/profit-backend/internal/hub"
	"github.com/DoyleJ11/profit-backend/internal/session"
	"github.com/DoyleJ11/profit-backend/internal/types"
	api "github.com/DoyleJ11/profit-backend/pkg/types"
)

const writeTimeout = 3 * time.Second

// Handler streams a live session's snapshots to one browser and accepts
// Start/Stop from it.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}

		sess := h.Session(r.Context(), id)
		if sess == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		log := log.With(zap.String("session", id), zap.String("client", clientID))

		out := make(chan session.Snapshot, 8)
		if !post(r.Context(), sess, session.Join{ClientID: clientID, Outbox: out}) {
			return
		}
		defer post(context.Background(), sess, session.Leave{ClientID: clientID})

		// A session this browser started is stopped when the browser goes
		// away, so the camera never outlives the page.
		started := false
		defer func() {
			if !started {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := sess.Stop(ctx); err != nil {
				log.Warn("stop on disconnect", zap.Error(err))
			}
		}()

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go writeLoop(writeCtx, conn, id, out)

		// Reader loop
		for {
			var cm api.ClientMessage
			if err := wsjson.Read(r.Context(), conn, &cm); err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("read ended", zap.Error(err))
				}
				return
			}

			switch cm.Type {
			case api.MsgStart:
				if err := sess.Start(r.Context()); err != nil {
					writeError(writeCtx, conn, err)
					continue
				}
				started = true
			case api.MsgStop:
				if err := sess.Stop(r.Context()); err != nil {
					writeError(writeCtx, conn, err)
					continue
				}
				started = false
			default:
				_ = write(writeCtx, conn, api.ServerMessage{Type: api.MsgError, Error: "unknown type"})
			}
		}
	}
}

// writeLoop forwards snapshots until the handler returns or the session
// stops feeding this client.
func writeLoop(ctx context.Context, conn *websocket.Conn, id string, out <-chan session.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-out:
			if !ok {
				// The session dropped us (slow or shut down).
				_ = conn.Close(websocket.StatusGoingAway, "session closed")
				return
			}
			if err := write(ctx, conn, types.SnapshotMessage(id, snap)); err != nil {
				return
			}
		}
	}
}

func post(ctx context.Context, s *session.Session, m session.Msg) bool {
	select {
	case s.Inbox() <- m:
		return true
	case <-s.Done():
		return false
	case <-ctx.Done():
		return false
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg api.ServerMessage) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}

func writeError(ctx context.Context, conn *websocket.Conn, err error) {
	_, body := types.ErrorBody(err)
	_ = write(ctx, conn, api.ServerMessage{Type: api.MsgError, Error: body.Error, Notice: body.Notice})
}
