package trend

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const defaultDays = 30

// Handler exposes trend windows and sparklines over HTTP
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new trend handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "trend").Logger(),
	}
}

// Routes mounts the /api/trend and /api/sparklines endpoints
func (h *Handler) Routes(r chi.Router) {
	r.Get("/trend/{code}", h.HandleGetTrend)
	r.Get("/sparklines", h.HandleGetSparklines)
}

// HandleGetTrend returns the price window since a reference timestamp,
// typically the idea's creation date.
func (h *Handler) HandleGetTrend(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	sinceParam := r.URL.Query().Get("since")
	if sinceParam == "" {
		h.writeError(w, http.StatusBadRequest, "Missing since parameter")
		return
	}
	since, err := time.Parse(time.RFC3339, sinceParam)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid since parameter, expected RFC3339")
		return
	}

	days, ok := h.parseDays(w, r)
	if !ok {
		return
	}

	result, err := h.service.TrendSince(r.Context(), code, since, days)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleGetSparklines returns series for a comma-separated code list
func (h *Handler) HandleGetSparklines(w http.ResponseWriter, r *http.Request) {
	codesParam := r.URL.Query().Get("codes")
	if codesParam == "" {
		h.writeError(w, http.StatusBadRequest, "Missing codes parameter")
		return
	}

	var codes []string
	for _, code := range strings.Split(codesParam, ",") {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}

	days, ok := h.parseDays(w, r)
	if !ok {
		return
	}

	sparklines, err := h.service.Sparklines(r.Context(), days, codes)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, sparklines)
}

func (h *Handler) parseDays(w http.ResponseWriter, r *http.Request) (int, bool) {
	days := defaultDays
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > 365 {
			h.writeError(w, http.StatusBadRequest, "Invalid days parameter")
			return 0, false
		}
		days = parsed
	}
	return days, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
