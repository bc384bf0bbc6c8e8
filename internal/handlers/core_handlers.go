package handlers

import (
	"net/http"

	"gator-social/internal/api"
	"gator-social/internal/engine/actors"
	"gator-social/internal/middleware"
	"gator-social/internal/websocket"

	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// HandleHealth reports the committed height and request counters.
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := actors.RequestAs[*actors.Stats](s.Context, s.EnginePID, &actors.GetStatsMsg{}, s.RequestTimeout)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.HealthResponse{
			Status:   "healthy",
			Height:   stats.Height,
			Requests: stats.Requests,
			Errors:   stats.Errors,
			Uptime:   stats.Uptime,
		})
	}
}

func (s *Server) upgrader() *ws.Upgrader {
	return &ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     middleware.NewOriginPolicy(s.AllowedOrigins).CheckOrigin,
	}
}

// HandleWebSocket streams committed events to the caller. Browsers cannot
// set headers on the upgrade request, so the token comes as ?token=.
func (s *Server) HandleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			http.Error(w, "Missing authentication token", http.StatusUnauthorized)
			return
		}
		claims, err := s.Auth.ValidateToken(tokenString)
		if err != nil {
			s.Logger.Debug("WebSocket auth failed", zap.Error(err))
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		conn, err := s.upgrader().Upgrade(w, r, nil)
		if err != nil {
			s.Logger.Warn("WebSocket upgrade failed", zap.Stringer("account", claims.AccountID), zap.Error(err))
			return
		}

		client := websocket.NewClient(s.Hub, claims.AccountID, conn)
		if !s.Hub.Join(client) {
			conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseGoingAway, "server shutting down"))
			conn.Close()
			return
		}
		go client.WritePump()
		go client.ReadPump()
	}
}
