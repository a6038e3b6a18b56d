package server

import (
	"net/http"

	"Musarty/core/session"
	"Musarty/logger"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWebSocket starts one player session for the page.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	sess := session.New(s.hub, conn, s.dir, session.Config{
		PopularLimit: s.cfg.PopularLimit,
		SearchLimit:  s.cfg.SearchLimit,
		Volume:       s.cfg.DefaultVolume,
		Icon:         IconPath,
	})
	if !s.hub.Register(sess) {
		conn.Close()
		return
	}

	go sess.WritePump()
	sess.Start()
	go sess.ReadPump()
}

// HealthResponse reports liveness and the number of open players.
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Sessions: s.hub.Count()})
}
