package feed

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler exposes the unified feed and its filter state over HTTP
type Handler struct {
	aggregator *Aggregator
	filters    *Manager
	log        zerolog.Logger
}

// NewHandler creates a new feed handler
func NewHandler(aggregator *Aggregator, filters *Manager, log zerolog.Logger) *Handler {
	return &Handler{
		aggregator: aggregator,
		filters:    filters,
		log:        log.With().Str("handler", "feed").Logger(),
	}
}

// Routes mounts the /api/feed endpoints
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.HandleGetFeed)
	r.Route("/filters", func(r chi.Router) {
		r.Get("/", h.HandleGetFilters)
		r.Put("/", h.HandleReplaceFilters)
		r.Post("/reset", h.HandleResetFilters)
		r.Post("/hashtags", h.HandleAddHashtag)
		r.Delete("/hashtags/{tag}", h.HandleRemoveHashtag)
	})
}

// HandleGetFeed runs one aggregation under the active filter state.
// Recognized filter parameters on the URL take precedence and become the
// new canonical state; the response echoes the canonical query string.
func (h *Handler) HandleGetFeed(w http.ResponseWriter, r *http.Request) {
	f := h.filters.Resolve(r.URL.Query())

	opts := FetchOptions{}
	params := r.URL.Query()
	if v := params.Get("group"); v != "" {
		group, err := strconv.ParseBool(v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid group parameter")
			return
		}
		opts.Group = &group
	}
	if v := params.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > 500 {
			h.writeError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		opts.Limit = parsed
	}
	if v := params.Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "Invalid offset parameter")
			return
		}
		opts.Offset = parsed
	}

	result, err := h.aggregator.Fetch(r.Context(), f, opts)
	if err != nil {
		if errors.Is(err, ErrAllSourcesUnavailable) {
			h.writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"feed":  result,
		"query": f.Encode(),
	})
}

// HandleGetFilters returns the active state and its canonical query string
func (h *Handler) HandleGetFilters(w http.ResponseWriter, r *http.Request) {
	f := h.filters.Current()
	h.writeFilters(w, f, f.Encode())
}

// HandleReplaceFilters swaps in a full state
func (h *Handler) HandleReplaceFilters(w http.ResponseWriter, r *http.Request) {
	var f FilterState
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, query := h.filters.Replace(f)
	h.writeFilters(w, state, query)
}

// HandleResetFilters returns to the hard defaults
func (h *Handler) HandleResetFilters(w http.ResponseWriter, r *http.Request) {
	state, query := h.filters.Reset()
	h.writeFilters(w, state, query)
}

// HandleAddHashtag selects a tag (idempotent)
func (h *Handler) HandleAddHashtag(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Tag string `json:"tag"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Tag == "" {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, query := h.filters.AddHashtag(body.Tag)
	h.writeFilters(w, state, query)
}

// HandleRemoveHashtag deselects a tag (idempotent)
func (h *Handler) HandleRemoveHashtag(w http.ResponseWriter, r *http.Request) {
	state, query := h.filters.RemoveHashtag(chi.URLParam(r, "tag"))
	h.writeFilters(w, state, query)
}

func (h *Handler) writeFilters(w http.ResponseWriter, f FilterState, query string) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"filters": f,
		"query":   query,
	})
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
