package circulation

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"libradesk/internal/auth"
	"libradesk/internal/catalog"
	"libradesk/internal/web"
)

// Handler serves the issue and return endpoints.
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// IssueRoutes returns the routes mounted under /issue.
func (h *Handler) IssueRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleIssue)
	r.Get("/active", h.handleActive)
	r.Get("/overdue", h.handleOverdue)
	r.Get("/member/{membershipID}", h.handleByMember)
	return r
}

// ReturnRoutes returns the routes mounted under /return.
func (h *Handler) ReturnRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleReturn)
	return r
}

type issueRequest struct {
	SerialNo     string `json:"serialNo"`
	ItemType     string `json:"itemType"`
	MembershipID string `json:"membershipId"`
	IssueDate    string `json:"issueDate"`
	ReturnDate   string `json:"returnDate"`
	Remarks      string `json:"remarks"`
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := web.Decode(r, &req); err != nil {
		web.Msg(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SerialNo == "" || req.ReturnDate == "" {
		web.Msg(w, http.StatusBadRequest, "Serial number and return date are required")
		return
	}
	itemType := req.ItemType
	if itemType == "" {
		itemType = catalog.TypeBook
	}

	returnDate, err := web.ParseDate(req.ReturnDate)
	if err != nil {
		web.Msg(w, http.StatusBadRequest, "Invalid return date")
		return
	}
	issueDate := time.Now()
	if req.IssueDate != "" {
		issueDate, err = web.ParseDate(req.IssueDate)
		if err != nil {
			web.Msg(w, http.StatusBadRequest, "Invalid issue date")
			return
		}
	}

	issue, err := h.service.Issue(r.Context(), IssueRequest{
		SerialNo:     req.SerialNo,
		ItemType:     itemType,
		MembershipID: req.MembershipID,
		IssueDate:    issueDate,
		ReturnDate:   returnDate,
		Remarks:      req.Remarks,
		IssuedBy:     auth.PrincipalOrSystem(r.Context()).Name,
	})
	if err != nil {
		writeIssueError(w, err)
		return
	}
	web.JSON(w, http.StatusCreated, issue)
}

type returnRequest struct {
	SerialNo         string `json:"serialNo"`
	MembershipID     string `json:"membershipId"`
	ActualReturnDate string `json:"actualReturnDate"`
	Remarks          string `json:"remarks"`
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if err := web.Decode(r, &req); err != nil {
		web.Msg(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SerialNo == "" {
		web.Msg(w, http.StatusBadRequest, "Serial number is required")
		return
	}
	membershipID := req.MembershipID
	if membershipID == "" {
		membershipID = GuestMembershipID
	}

	actual := time.Now()
	if req.ActualReturnDate != "" {
		t, err := web.ParseDate(req.ActualReturnDate)
		if err != nil {
			web.Msg(w, http.StatusBadRequest, "Invalid return date")
			return
		}
		actual = t
	}

	result, err := h.service.Return(r.Context(), ReturnRequest{
		SerialNo:         req.SerialNo,
		MembershipID:     membershipID,
		ActualReturnDate: actual,
		Remarks:          req.Remarks,
	})
	if err != nil {
		writeIssueError(w, err)
		return
	}

	web.JSON(w, http.StatusOK, map[string]any{
		"msg":        "Book returned successfully",
		"issue":      result.Issue,
		"fineAmount": result.FineAmount,
	})
}

func (h *Handler) handleActive(w http.ResponseWriter, r *http.Request) {
	issues, err := h.service.ActiveIssues(r.Context())
	if err != nil {
		web.Msg(w, http.StatusInternalServerError, "Server error")
		return
	}
	web.JSON(w, http.StatusOK, issues)
}

func (h *Handler) handleOverdue(w http.ResponseWriter, r *http.Request) {
	issues, err := h.service.OverdueIssues(r.Context())
	if err != nil {
		web.Msg(w, http.StatusInternalServerError, "Server error")
		return
	}
	web.JSON(w, http.StatusOK, issues)
}

func (h *Handler) handleByMember(w http.ResponseWriter, r *http.Request) {
	issues, err := h.service.IssuesByMember(r.Context(), chi.URLParam(r, "membershipID"))
	if err != nil {
		web.Msg(w, http.StatusInternalServerError, "Server error")
		return
	}
	web.JSON(w, http.StatusOK, issues)
}

func writeIssueError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrItemNotFound):
		web.Msg(w, http.StatusNotFound, "Item not found")
	case errors.Is(err, catalog.ErrItemUnavailable):
		web.Msg(w, http.StatusBadRequest, "Item is not available for issue")
	case errors.Is(err, ErrInvalidMembership):
		web.Msg(w, http.StatusBadRequest, "Invalid or inactive membership")
	case errors.Is(err, ErrFinesOutstanding):
		web.Msg(w, http.StatusBadRequest, "Member has outstanding fines")
	case errors.Is(err, ErrNoActiveIssue):
		web.Msg(w, http.StatusNotFound, "No active issue found for this item and member")
	default:
		web.Msg(w, http.StatusInternalServerError, "Server error")
	}
}
