package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/moonpalace/concierge/internal/http/middleware"
	"github.com/moonpalace/concierge/internal/widget"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// Send pings with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// The browser never sends payloads; anything bigger is dropped.
	maxMessageSize = 512
)

// Stream frame types.
const (
	FrameSnapshot = "snapshot" // whole transcript; replaces the client copy
	FrameDelta    = "delta"    // entries from Offset onward; appended
)

// StreamFrame is one push on GET /widget/stream.
type StreamFrame struct {
	Type string `json:"type"`
	widget.Snapshot
}

func newUpgrader(allowed []string) websocket.Upgrader {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if len(set) == 0 || origin == "" {
				return true
			}
			_, ok := set[origin]
			return ok
		},
	}
}

// Stream handles GET /widget/stream. The first frame is a full snapshot;
// after every widget change the client gets the new transcript entries, or
// a fresh snapshot when the transcript was cleared by a reset.
func (h *Handler) Stream(c *gin.Context) {
	w, _, found := h.resolve(c)
	if !found {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		middleware.LoggerFrom(c).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	defer middleware.StreamOpened()()

	changes, cancel := w.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go readPump(conn, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	s := streamer{w: w}
	if err := s.push(conn, true); err != nil {
		return
	}
	for {
		select {
		case <-done:
			return
		case <-changes:
			if err := s.push(conn, false); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// streamer remembers what the client already holds.
type streamer struct {
	w       *widget.Widget
	epoch   uint64
	total   int
	version uint64
}

func (s *streamer) push(conn *websocket.Conn, first bool) error {
	snap := s.w.Snapshot(s.total)
	if !first && snap.Version == s.version {
		return nil
	}

	frame := StreamFrame{Type: FrameDelta, Snapshot: snap}
	if first || snap.Epoch != s.epoch || snap.Total < s.total {
		frame = StreamFrame{Type: FrameSnapshot, Snapshot: s.w.Snapshot(0)}
	}
	s.epoch = frame.Epoch
	s.total = frame.Total
	s.version = frame.Version

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(frame)
}

// readPump drains the connection so control frames are processed, and
// closes done when the peer goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
