package apilog

import (
	"encoding/json"
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/imedsys/appointment-gateway/pkg/logging"
)

// Handler exposes the rolling call log as a developer console: a JSON
// snapshot endpoint and a websocket stream of new entries.
type Handler struct {
	buf    *Buffer
	logger *logging.Logger
}

// NewHandler creates a log console handler.
func NewHandler(buf *Buffer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{buf: buf, logger: logger}
}

// SnapshotResponse is the body returned by List.
type SnapshotResponse struct {
	Logs     []Entry `json:"logs"`
	Count    int     `json:"count"`
	Capacity int     `json:"capacity"`
}

// List handles GET /debug/logs requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	snap := h.buf.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(SnapshotResponse{
		Logs:     snap,
		Count:    len(snap),
		Capacity: h.buf.Capacity(),
	}); err != nil {
		h.logger.Error("failed to encode log snapshot", "error", err)
	}
}

// StreamMessage frames entries sent over the websocket.
type StreamMessage struct {
	Type  string  `json:"type"` // "snapshot" or "entry"
	Entry *Entry  `json:"entry,omitempty"`
	Logs  []Entry `json:"logs,omitempty"`
}

// Stream upgrades to WebSocket, replays the current snapshot, then relays
// new entries until the client disconnects.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn) {
	if err := websocket.JSON.Send(conn, StreamMessage{Type: "snapshot", Logs: h.buf.Snapshot()}); err != nil {
		return
	}

	entries, cancel := h.buf.Subscribe()
	defer cancel()

	// Drain client frames so we notice the disconnect.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			var discard any
			if err := websocket.JSON.Receive(conn, &discard); err != nil {
				return
			}
		}
	}()

	h.logger.Debug("log stream opened")
	for {
		select {
		case e, ok := <-entries:
			if !ok {
				return
			}
			if err := websocket.JSON.Send(conn, StreamMessage{Type: "entry", Entry: &e}); err != nil {
				h.logger.Debug("log stream closed", "error", err)
				return
			}
		case <-closed:
			return
		}
	}
}
