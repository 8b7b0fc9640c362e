package eventlog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"libradesk/internal/web"
)

// Handler serves the audit trail endpoints.
type Handler struct {
	log *Log
}

func NewHandler(log *Log) *Handler {
	return &Handler{log: log}
}

// Routes returns the audit routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleRecent)
	return r
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.log.Recent(r.Context(), limit)
	if err != nil {
		web.Msg(w, http.StatusInternalServerError, "Server error")
		return
	}
	web.JSON(w, http.StatusOK, events)
}
