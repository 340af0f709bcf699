package ideas

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles idea and position HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new ideas handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "ideas").Logger(),
	}
}

// IdeaRoutes mounts the /api/ideas endpoints
func (h *Handler) IdeaRoutes(r chi.Router) {
	r.Get("/", h.HandleListIdeas)
	r.Post("/", h.HandleCreateIdea)
	r.Route("/{ideaID}", func(r chi.Router) {
		r.Get("/", h.HandleGetIdea)
		r.Put("/", h.HandleUpdateIdea)
		r.Delete("/", h.HandleDeleteIdea)
		r.Post("/positions", h.HandleOpenPosition)
	})
}

// PositionRoutes mounts the /api/positions endpoints
func (h *Handler) PositionRoutes(r chi.Router) {
	r.Route("/{positionID}", func(r chi.Router) {
		r.Post("/buys", h.HandleAddBuy)
		r.Post("/exits", h.HandleExit)
		r.Get("/exits", h.HandleGetExits)
	})
}

// HandleListIdeas returns ideas within the requested period
func (h *Handler) HandleListIdeas(w http.ResponseWriter, r *http.Request) {
	days := 0
	if daysParam := r.URL.Query().Get("days"); daysParam != "" {
		parsed, err := strconv.Atoi(daysParam)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "Invalid days parameter")
			return
		}
		days = parsed
	}

	list, total, err := h.service.ListIdeas(days)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": list,
		"total": total,
	})
}

// HandleCreateIdea records a new idea
func (h *Handler) HandleCreateIdea(w http.ResponseWriter, r *http.Request) {
	var input CreateIdeaInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	idea, err := h.service.CreateIdea(input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, idea)
}

// HandleGetIdea returns one idea with positions and cooldown
func (h *Handler) HandleGetIdea(w http.ResponseWriter, r *http.Request) {
	idea, err := h.service.GetIdea(chi.URLParam(r, "ideaID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, idea)
}

// HandleUpdateIdea rewrites the editable idea fields
func (h *Handler) HandleUpdateIdea(w http.ResponseWriter, r *http.Request) {
	var input CreateIdeaInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	idea, err := h.service.UpdateIdea(chi.URLParam(r, "ideaID"), input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, idea)
}

// HandleDeleteIdea removes an idea and its positions
func (h *Handler) HandleDeleteIdea(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteIdea(chi.URLParam(r, "ideaID")); err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// HandleOpenPosition opens a position under an idea
func (h *Handler) HandleOpenPosition(w http.ResponseWriter, r *http.Request) {
	var spec PositionSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	pos, err := h.service.OpenPosition(chi.URLParam(r, "ideaID"), spec)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, pos)
}

// HandleAddBuy adds a lot to an open position
func (h *Handler) HandleAddBuy(w http.ResponseWriter, r *http.Request) {
	var spec BuySpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	pos, err := h.service.AddBuy(chi.URLParam(r, "positionID"), spec)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, pos)
}

// HandleExit sells part or all of a position
func (h *Handler) HandleExit(w http.ResponseWriter, r *http.Request) {
	var spec ExitSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome, err := h.service.ExitPosition(chi.URLParam(r, "positionID"), spec)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, outcome)
}

// HandleGetExits returns the realized exit history of a position
func (h *Handler) HandleGetExits(w http.ResponseWriter, r *http.Request) {
	exits, err := h.service.GetExitHistory(chi.URLParam(r, "positionID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if exits == nil {
		exits = []ExitRecord{}
	}

	h.writeJSON(w, http.StatusOK, exits)
}

// writeServiceError maps domain errors onto status codes. Ledger violations
// surface inline as 422 so the originating form can show them.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrIdeaNotFound), errors.Is(err, ErrPositionNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidInput):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidPrice),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInsufficientQuantity):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
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
