package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	IdeaCount          int    `json:"idea_count"`
	OpenPositionCount  int    `json:"open_position_count"`
	TelegramIdeaCount  int    `json:"telegram_idea_count"`
	TelegramLastSync   string `json:"telegram_last_sync,omitempty"`
	AnalyticsReachable bool   `json:"analytics_reachable"`
}

// handleHealth returns a simple liveness response
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// handleSystemStatus returns counts and upstream reachability
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	s.log.Debug().Msg("Getting system status")

	var ideaCount int
	err := s.db.QueryRow("SELECT COUNT(*) FROM ideas").Scan(&ideaCount)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.log.Error().Err(err).Msg("Failed to count ideas")
	}

	var openPositions int
	err = s.db.QueryRow("SELECT COUNT(*) FROM positions WHERE is_open = 1").Scan(&openPositions)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.log.Error().Err(err).Msg("Failed to count positions")
	}

	telegramCount, err := s.telegramRepo.Count()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to count telegram ideas")
	}

	var lastSync string
	if t, err := s.telegramRepo.LastSyncedAt(); err == nil && t != nil {
		lastSync = t.Format("2006-01-02 15:04")
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	reachable := s.analytics.Ping(ctx) == nil

	s.writeJSON(w, SystemStatusResponse{
		IdeaCount:          ideaCount,
		OpenPositionCount:  openPositions,
		TelegramIdeaCount:  telegramCount,
		TelegramLastSync:   lastSync,
		AnalyticsReachable: reachable,
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
