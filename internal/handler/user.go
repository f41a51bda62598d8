package handler

import (
	"log/slog"
	"net/http"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/auth"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/models"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/domain/services"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/httputil"
)

// UserHandler handles registration, login and account management.
type UserHandler struct {
	users    services.UserService
	sessions *auth.SessionManager
	logger   *slog.Logger
}

func NewUserHandler(users services.UserService, sessions *auth.SessionManager, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, sessions: sessions, logger: logger}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates an account and logs it in.
// POST /api/auth/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.users.Register(r.Context(), req.Username, req.Password, false)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	token, err := h.sessions.Issue(user, nil)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, sessionResponse{Token: token, User: user})
}

// Login verifies credentials and returns a session token.
// POST /api/auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	token, err := h.sessions.Issue(user, nil)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, sessionResponse{Token: token, User: user})
}

// Me returns the authenticated user.
// GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := httputil.GetClaims(r)
	user, err := h.users.Get(r.Context(), claims.UserID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, user)
}

// DeleteUser removes an account with everything it owns. Admin only.
// DELETE /api/admin/users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		handleError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
