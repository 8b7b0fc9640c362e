package fine

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"libradesk/internal/web"
)

// Handler serves the fine endpoints.
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the fine routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/pending", h.handlePending)
	r.Get("/member/{membershipID}", h.handleByMember)
	r.Get("/{fineID}", h.handleGet)
	r.Put("/pay/{fineID}", h.handlePay)
	return r
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.Get(r.Context(), chi.URLParam(r, "fineID"))
	if err != nil {
		if errors.Is(err, ErrFineNotFound) {
			web.Msg(w, http.StatusNotFound, "Fine not found")
			return
		}
		web.Msg(w, http.StatusInternalServerError, "Server error")
		return
	}
	web.JSON(w, http.StatusOK, f)
}

func (h *Handler) handlePay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaidDate string `json:"paidDate"`
		Remarks  string `json:"remarks"`
	}
	if err := web.Decode(r, &req); err != nil {
		web.Msg(w, http.StatusBadRequest, err.Error())
		return
	}

	var paidDate *time.Time
	if req.PaidDate != "" {
		t, err := web.ParseDate(req.PaidDate)
		if err != nil {
			web.Msg(w, http.StatusBadRequest, err.Error())
			return
		}
		paidDate = &t
	}

	_, err := h.service.Pay(r.Context(), chi.URLParam(r, "fineID"), PayParams{
		PaidDate: paidDate,
		Remarks:  req.Remarks,
	})
	if err != nil {
		if errors.Is(err, ErrFineNotFound) {
			web.Msg(w, http.StatusNotFound, "Fine not found")
			return
		}
		web.Msg(w, http.StatusInternalServerError, "Server error")
		return
	}
	web.Msg(w, http.StatusOK, "Fine paid successfully")
}

func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	fines, err := h.service.ListPending(r.Context())
	if err != nil {
		web.Msg(w, http.StatusInternalServerError, "Server error")
		return
	}
	web.JSON(w, http.StatusOK, fines)
}

func (h *Handler) handleByMember(w http.ResponseWriter, r *http.Request) {
	fines, err := h.service.ListByMember(r.Context(), chi.URLParam(r, "membershipID"))
	if err != nil {
		web.Msg(w, http.StatusInternalServerError, "Server error")
		return
	}
	web.JSON(w, http.StatusOK, fines)
}
