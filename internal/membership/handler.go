package membership

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"libradesk/internal/auth"
	"libradesk/internal/web"
)

// Handler serves the membership endpoints.
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the membership routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleList)
	r.Get("/active", h.handleListActive)
	r.Get("/{membershipID}", h.handleGet)
	r.With(auth.RequireAdmin).Post("/", h.handleAdd)
	r.With(auth.RequireAdmin).Put("/{membershipID}", h.handleUpdate)
	return r
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName      string `json:"firstName"`
		LastName       string `json:"lastName"`
		ContactNumber  string `json:"contactNumber"`
		ContactAddress string `json:"contactAddress"`
		AadharCardNo   string `json:"aadharCardNo"`
		StartDate      string `json:"startDate"`
		MembershipType string `json:"membershipType"`
	}
	if err := web.Decode(r, &req); err != nil {
		web.Msg(w, http.StatusBadRequest, err.Error())
		return
	}

	var start time.Time
	if req.StartDate != "" {
		t, err := web.ParseDate(req.StartDate)
		if err != nil {
			web.Msg(w, http.StatusBadRequest, err.Error())
			return
		}
		start = t
	}

	m, err := h.service.Add(r.Context(), AddParams{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		ContactNumber:  req.ContactNumber,
		ContactAddress: req.ContactAddress,
		AadharCardNo:   req.AadharCardNo,
		StartDate:      start,
		MembershipType: req.MembershipType,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	web.JSON(w, http.StatusOK, m)
}

// handleUpdate extends or cancels a membership depending on the action field.
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action        string `json:"action"`
		ExtensionType string `json:"extensionType"`
	}
	if err := web.Decode(r, &req); err != nil {
		web.Msg(w, http.StatusBadRequest, err.Error())
		return
	}

	membershipID := chi.URLParam(r, "membershipID")

	var (
		m   *Membership
		err error
	)
	switch req.Action {
	case "extend":
		m, err = h.service.Extend(r.Context(), membershipID, req.ExtensionType)
	case "cancel":
		m, err = h.service.Cancel(r.Context(), membershipID)
	default:
		web.Msg(w, http.StatusBadRequest, "Unknown action")
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	web.JSON(w, http.StatusOK, m)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.Get(r.Context(), chi.URLParam(r, "membershipID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	web.JSON(w, http.StatusOK, m)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	memberships, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	web.JSON(w, http.StatusOK, memberships)
}

func (h *Handler) handleListActive(w http.ResponseWriter, r *http.Request) {
	memberships, err := h.service.ListActive(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	web.JSON(w, http.StatusOK, memberships)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMembershipNotFound):
		web.Msg(w, http.StatusNotFound, "Membership not found")
	case errors.Is(err, ErrDuplicateAadhar):
		web.Msg(w, http.StatusBadRequest, "Aadhar Card Number already registered")
	case errors.Is(err, ErrInvalidTerm):
		web.Msg(w, http.StatusBadRequest, "Invalid membership type")
	default:
		web.Msg(w, http.StatusInternalServerError, "Server error")
	}
}
