package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/pritechvior/project-wizard/internal/notify"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleLive streams session events over a websocket. The first message
// is a snapshot of the current view.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// subscribe before the snapshot so nothing published in between is lost
	sub := s.hub.Subscribe(id)
	defer sub.Close()

	view, err := s.manager.Get(r.Context(), id)
	if err != nil {
		respondManagerError(w, err, "open live stream")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("live stream connected", "session_id", id)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := writeEvent(conn, notify.Event{
		Type:      notify.EventSnapshot,
		SessionID: id,
		Data:      view,
		Time:      time.Now().UTC(),
	}); err != nil {
		return
	}

	// the client only sends control frames; reading keeps pongs flowing
	// and notices when it goes away
	go func() {
		defer cancel()
		conn.SetReadDeadline(time.Now().Add(livePongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(livePongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("websocket read error", "error", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("live stream disconnected", "session_id", id)
			return

		case ev, ok := <-sub.C:
			if !ok {
				closeLive(conn, "session closed")
				return
			}
			if err := writeEvent(conn, ev); err != nil {
				return
			}
			if ev.Type == notify.EventClosed {
				closeLive(conn, "session closed")
				return
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait)); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, ev notify.Event) error {
	conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	if err := conn.WriteJSON(ev); err != nil {
		slog.Debug("failed to send live event", "type", ev.Type, "error", err)
		return err
	}
	return nil
}

func closeLive(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(liveWriteWait))
}
