package types

// Client -> Server over /ws/live:
//   {"type": "Start"}  request the camera and begin streaming
//   {"type": "Stop"}   end the session
//
// Server -> Client:
//   {"type": "SessionSnapshot", "version": n, "session": SessionView}
//   {"type": "Error", "error": "...", "notice": "..."}

const (
	MsgStart           = "Start"
	MsgStop            = "Stop"
	MsgSessionSnapshot = "SessionSnapshot"
	MsgError           = "Error"
)

type ClientMessage struct {
	Type string `json:"type"`
}

type ServerMessage struct {
	Type    string       `json:"type"`
	Version int          `json:"version,omitempty"`
	Session *SessionView `json:"session,omitempty"`
	Error   string       `json:"error,omitempty"`
	Notice  string       `json:"notice,omitempty"`
}
