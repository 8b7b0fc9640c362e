package reports

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"libradesk/internal/catalog"
	"libradesk/internal/web"
)

// Handler serves the read-only report endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the report routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/books", h.handleItems(catalog.TypeBook))
	r.Get("/movies", h.handleItems(catalog.TypeMovie))
	r.Get("/memberships", h.handleMemberships)
	r.Get("/active-issues", h.handleActiveIssues)
	r.Get("/overdue-returns", h.handleOverdueReturns)
	r.Get("/pending-fines", h.handlePendingFines)
	return r
}

func (h *Handler) handleItems(itemType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := h.service.MasterItems(r.Context(), itemType, ItemFilter{
			Category: r.URL.Query().Get("category"),
			Status:   r.URL.Query().Get("status"),
		})
		if err != nil {
			web.Msg(w, http.StatusInternalServerError, "Server error")
			return
		}
		web.JSON(w, http.StatusOK, report)
	}
}

func (h *Handler) handleMemberships(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.MasterMemberships(r.Context(), MembershipFilter{
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		web.Msg(w, http.StatusInternalServerError, "Server error")
		return
	}
	web.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleActiveIssues(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.ActiveIssues(r.Context(), r.URL.Query().Get("membershipId"))
	if err != nil {
		web.Msg(w, http.StatusInternalServerError, "Server error")
		return
	}
	web.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleOverdueReturns(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.OverdueReturns(r.Context())
	if err != nil {
		web.Msg(w, http.StatusInternalServerError, "Server error")
		return
	}
	web.JSON(w, http.StatusOK, report)
}

func (h *Handler) handlePendingFines(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.PendingFines(r.Context(), r.URL.Query().Get("membershipId"))
	if err != nil {
		web.Msg(w, http.StatusInternalServerError, "Server error")
		return
	}
	web.JSON(w, http.StatusOK, report)
}
