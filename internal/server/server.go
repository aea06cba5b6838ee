// Package server exposes a dashboard over HTTP: JSON views, card moves, a
// server-sent event stream, and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/IdanRossman/jiranimo/internal/dashboard"
)

// Server serves one dashboard.
type Server struct {
	dash    *dashboard.Dashboard
	sseHub  *sseHub
	metrics *Metrics
	logger  *slog.Logger

	unsubscribe func()
}

// New returns a Server for d. Every event published on the dashboard bus is
// fanned out to SSE clients and counted in the metrics.
func New(d *dashboard.Dashboard, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		dash:    d,
		sseHub:  newSSEHub(),
		metrics: NewMetrics(),
		logger:  logger,
	}
	s.unsubscribe = d.Bus().Subscribe("", s.onEvent)
	return s
}

// Metrics returns the server's metrics.
func (s *Server) Metrics() *Metrics { return s.metrics }

func (s *Server) onEvent(_ context.Context, topic string, event any) {
	s.metrics.observe(topic, event)
	s.broadcastEvent(topic, event)
}

// broadcastEvent fans an event out to SSE clients.
func (s *Server) broadcastEvent(topic string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to marshal event for SSE broadcast", "topic", topic, "error", err)
		return
	}
	s.sseHub.broadcast(topic, payload)
}

// Close stops receiving dashboard events. It does not close the dashboard.
func (s *Server) Close() {
	s.unsubscribe()
}
