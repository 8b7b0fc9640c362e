package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"libradesk/internal/web"
)

// Handler serves the login and staff-maintenance endpoints.
type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the session routes. Login is public; the rest require a
// valid token.
func (h *Handler) Routes(secret string) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(Middleware(secret))
		r.Get("/me", h.handleMe)
	})
	return r
}

// MaintenanceRoutes returns the admin-only staff-user maintenance routes.
func (h *Handler) MaintenanceRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/users", h.handleCreateUser)
	r.Put("/users/{userID}", h.handleUpdateUser)
	r.Get("/users", h.handleListUsers)
	return r
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		Password string `json:"password"`
	}
	if err := web.Decode(r, &req); err != nil {
		web.Msg(w, http.StatusBadRequest, err.Error())
		return
	}

	token, user, err := h.service.Login(r.Context(), req.UserID, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			web.Msg(w, http.StatusBadRequest, "Invalid Credentials")
			return
		}
		web.Msg(w, http.StatusInternalServerError, "Server error")
		return
	}

	web.JSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user": Principal{
			UserID:  user.UserID,
			Name:    user.Name,
			Role:    user.Role,
			IsAdmin: user.IsAdmin,
		},
		"msg": "Login Successful",
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := FromContext(r.Context())
	if !ok {
		web.Msg(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	user, err := h.service.GetUser(r.Context(), principal.UserID)
	if err != nil {
		web.Msg(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	web.JSON(w, http.StatusOK, user)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		UserID   string `json:"userId"`
		Password string `json:"password"`
		Role     string `json:"role"`
		IsAdmin  bool   `json:"isAdmin"`
	}
	if err := web.Decode(r, &req); err != nil {
		web.Msg(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.CreateUser(r.Context(), CreateUserParams{
		Name:     req.Name,
		UserID:   req.UserID,
		Password: req.Password,
		Role:     req.Role,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			web.Msg(w, http.StatusBadRequest, "User already exists")
			return
		}
		web.Msg(w, http.StatusInternalServerError, "Server error")
		return
	}
	web.JSON(w, http.StatusOK, user)
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    *string `json:"name"`
		Role    *string `json:"role"`
		IsAdmin *bool   `json:"isAdmin"`
		Active  *bool   `json:"active"`
	}
	if err := web.Decode(r, &req); err != nil {
		web.Msg(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.UpdateUser(r.Context(), chi.URLParam(r, "userID"), UpdateUserParams{
		Name:    req.Name,
		Role:    req.Role,
		IsAdmin: req.IsAdmin,
		Active:  req.Active,
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			web.Msg(w, http.StatusNotFound, "User not found")
			return
		}
		web.Msg(w, http.StatusInternalServerError, "Server error")
		return
	}
	web.JSON(w, http.StatusOK, user)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		web.Msg(w, http.StatusInternalServerError, "Server error")
		return
	}
	web.JSON(w, http.StatusOK, users)
}
