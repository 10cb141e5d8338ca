package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// HealthFunc returns the current health report for /healthz.
type HealthFunc func() any

// Server exposes the websocket hub and health endpoint for the thin
// dashboard transport layer.
type Server struct {
	hub    *Hub
	health HealthFunc
	srv    *http.Server
}

// NewServer wires the hub and health callback to an HTTP server.
func NewServer(addr string, hub *Hub, health HealthFunc) *Server {
	s := &Server{hub: hub, health: health}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/healthz", s.handleHealth)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start runs the server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", s.srv.Addr).Msg("telemetry server listening")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("telemetry server failed")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	report := map[string]any{
		"status":  "healthy",
		"clients": s.hub.ClientCount(),
		"ts":      time.Now(),
	}
	if s.health != nil {
		report["engine"] = s.health()
	}
	_ = json.NewEncoder(w).Encode(report)
}
