package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nyashahama/management-diagnostic/internal/chart"
	"github.com/nyashahama/management-diagnostic/internal/engine"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	eventBuffer    = 16
)

// ─── GET /api/session/:sessionID/events ───────────────────────────────────────

// handleEvents upgrades to a websocket and pushes a View after every applied
// operation on the session, starting with the current one. The stream is
// server to client only; anything the client sends is read and discarded.
//
// A slow reader drops intermediate views rather than stalling the engine.
// The next view it receives is always complete, so nothing is lost but
// animation frames.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return !s.cfg.isProduction() || r.Header.Get("Origin") == "" || sameHost(r)
		},
	}

	// Subscribe before the handshake completes so no operation issued after
	// the client sees the upgrade can be missed.
	sess := sessionFrom(r)
	views := make(chan engine.View, eventBuffer)

	var cancel func()
	sess.Do(func(e *engine.Engine, _ *chart.Holder) {
		views <- e.View()
		cancel = e.Subscribe(func(v engine.View) {
			select {
			case views <- v:
			default:
			}
		})
	})
	defer sess.Do(func(*engine.Engine, *chart.Holder) { cancel() })

	// An open stream keeps the session alive however long the respondent
	// sits on one screen.
	defer s.sessions.Watch(sess)()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Warn("events: upgrade failed", "error", err, logField(r))
		return
	}
	defer conn.Close()

	s.logger.Debug("events: subscribed", "session_id", sess.ID, logField(r))

	closed := make(chan struct{})
	go readPump(conn, closed)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case v := <-views:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(v); err != nil {
				s.logger.Debug("events: write failed", "session_id", sess.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so pongs and close frames are processed.
// It closes done when the connection goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func sameHost(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "https://"+r.Host || origin == "http://"+r.Host
}

func (c Config) isProduction() bool { return c.Env == "production" }
