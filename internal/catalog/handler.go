package catalog

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"libradesk/internal/auth"
	"libradesk/internal/web"
)

// Handler serves the book and movie catalog endpoints.
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the catalog routes for one item type. The same handler is
// mounted twice, under /books and /movies.
func (h *Handler) Routes(itemType string) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleList(itemType))
	r.Get("/available", h.handleAvailable(itemType))
	r.Get("/search", h.handleSearch(itemType))
	r.Get("/item", h.handleGet(itemType))
	r.With(auth.RequireAdmin).Post("/", h.handleAdd(itemType))
	r.With(auth.RequireAdmin).Put("/", h.handleUpdate(itemType))
	return r
}

// itemRequest accepts both the book and movie request shapes; whichever of
// author/director is set becomes the creator.
type itemRequest struct {
	SerialNo        string   `json:"serialNo"`
	Name            string   `json:"name"`
	Author          string   `json:"author"`
	Director        string   `json:"director"`
	Category        string   `json:"category"`
	Status          *string  `json:"status"`
	Cost            *float64 `json:"cost"`
	ProcurementDate string   `json:"procurementDate"`
	Quantity        *int     `json:"quantity"`
}

func (req *itemRequest) creator() string {
	if req.Director != "" {
		return req.Director
	}
	return req.Author
}

func (h *Handler) handleAdd(itemType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req itemRequest
		if err := web.Decode(r, &req); err != nil {
			web.Msg(w, http.StatusBadRequest, err.Error())
			return
		}

		if req.Name == "" || req.creator() == "" || req.Category == "" || req.Cost == nil || req.Quantity == nil {
			web.Msg(w, http.StatusBadRequest,
				"Missing required fields: name, "+creatorField(itemType)+", category, cost, quantity")
			return
		}

		var procured time.Time
		if req.ProcurementDate != "" {
			t, err := web.ParseDate(req.ProcurementDate)
			if err != nil {
				web.Msg(w, http.StatusBadRequest, err.Error())
				return
			}
			procured = t
		}

		item, err := h.service.AddItem(r.Context(), AddItemParams{
			Name:            req.Name,
			CreatorName:     req.creator(),
			Category:        req.Category,
			Cost:            *req.Cost,
			ProcurementDate: procured,
			Quantity:        *req.Quantity,
			Type:            itemType,
		})
		if err != nil {
			h.writeError(w, err)
			return
		}
		web.JSON(w, http.StatusOK, item)
	}
}

// handleGet looks an item up by serial number. Serials contain a slash, so
// the serial travels as a query parameter rather than a path segment.
func (h *Handler) handleGet(itemType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serialNo := r.URL.Query().Get("serialNo")
		if serialNo == "" {
			web.Msg(w, http.StatusBadRequest, "Serial number required")
			return
		}
		item, err := h.service.GetItem(r.Context(), serialNo, itemType)
		if err != nil {
			h.writeError(w, err)
			return
		}
		web.JSON(w, http.StatusOK, item)
	}
}

func (h *Handler) handleList(itemType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.service.ListItems(r.Context(), itemType)
		if err != nil {
			h.writeError(w, err)
			return
		}
		web.JSON(w, http.StatusOK, items)
	}
}

func (h *Handler) handleAvailable(itemType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.service.AvailableItems(r.Context(), itemType)
		if err != nil {
			h.writeError(w, err)
			return
		}
		web.JSON(w, http.StatusOK, items)
	}
}

func (h *Handler) handleSearch(itemType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		if query == "" {
			web.Msg(w, http.StatusBadRequest, "Search query required")
			return
		}

		items, err := h.service.SearchItems(r.Context(), itemType, query)
		if err != nil {
			h.writeError(w, err)
			return
		}
		web.JSON(w, http.StatusOK, items)
	}
}

// handleUpdate takes the serial number in the body for the same reason
// handleGet takes it as a query parameter.
func (h *Handler) handleUpdate(itemType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req itemRequest
		if err := web.Decode(r, &req); err != nil {
			web.Msg(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.SerialNo == "" {
			web.Msg(w, http.StatusBadRequest, "Serial number required")
			return
		}

		params := UpdateItemParams{
			Cost:     req.Cost,
			Status:   req.Status,
			Quantity: req.Quantity,
		}
		if req.Name != "" {
			params.Name = &req.Name
		}
		if creator := req.creator(); creator != "" {
			params.CreatorName = &creator
		}
		if req.Category != "" {
			params.Category = &req.Category
		}

		item, err := h.service.UpdateItem(r.Context(), req.SerialNo, itemType, params)
		if err != nil {
			h.writeError(w, err)
			return
		}
		web.JSON(w, http.StatusOK, item)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrItemNotFound):
		web.Msg(w, http.StatusNotFound, "Item not found")
	case errors.Is(err, ErrInvalidCategory):
		web.Msg(w, http.StatusBadRequest, "Invalid category")
	default:
		web.Msg(w, http.StatusInternalServerError, "Server error")
	}
}

func creatorField(itemType string) string {
	if itemType == TypeMovie {
		return "director"
	}
	return "author"
}
