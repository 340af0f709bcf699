package telegram

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler exposes the telegram idea lister over HTTP
type Handler struct {
	source Lister
	log    zerolog.Logger
}

// NewHandler creates a new telegram handler
func NewHandler(source Lister, log zerolog.Logger) *Handler {
	return &Handler{
		source: source,
		log:    log.With().Str("handler", "telegram").Logger(),
	}
}

// Routes mounts the /api/telegram endpoints
func (h *Handler) Routes(r chi.Router) {
	r.Get("/ideas", h.HandleListIdeas)
}

// HandleListIdeas proxies a live page of telegram ideas
func (h *Handler) HandleListIdeas(w http.ResponseWriter, r *http.Request) {
	q := ListQuery{
		Days:   7,
		Limit:  50,
		Offset: 0,
	}

	params := r.URL.Query()
	if v := params.Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "Invalid days parameter")
			return
		}
		q.Days = parsed
	}
	if v := params.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > 500 {
			h.writeError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		q.Limit = parsed
	}
	if v := params.Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "Invalid offset parameter")
			return
		}
		q.Offset = parsed
	}
	if v := params.Get("source"); v != "" {
		if v != string(SourceMy) && v != string(SourceOthers) {
			h.writeError(w, http.StatusBadRequest, "Invalid source parameter")
			return
		}
		q.Source = SourceType(v)
	}
	q.Author = params.Get("author")
	q.Sentiment = ParseSentiment(params.Get("sentiment"))

	page, err := h.source.List(r.Context(), q)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, page)
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
