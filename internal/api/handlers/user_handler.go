package handlers

import (
	"net/http"
	"time"

	"keyring/internal/engine/tokens"
	"keyring/internal/pkg/errors"
	"keyring/internal/platform/auth"
	"keyring/internal/platform/models"
	"keyring/internal/platform/repositories"
)

type UserHandler struct {
	users    *repositories.UserRepository
	options  *repositories.OptionRepository
	groups   tokens.GroupCatalog
	tokenSvc *auth.TokenService
}

func NewUserHandler(users *repositories.UserRepository, options *repositories.OptionRepository, groups tokens.GroupCatalog, tokenSvc *auth.TokenService) *UserHandler {
	return &UserHandler{users: users, options: options, groups: groups, tokenSvc: tokenSvc}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil || req.Username == "" || req.Password == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Username and password are required")
		return
	}

	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid username or password")
		return
	}

	accessToken, err := h.tokenSvc.GenerateAccessToken(user.ID, user.Username, user.Role, user.Group)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	now := time.Now().Unix()
	if err := h.users.UpdateLastLogin(r.Context(), user.ID, now); err == nil {
		user.LastLoginAt = &now
	}

	errors.WriteSuccess(w, "", LoginResponse{User: user, AccessToken: accessToken})
}

// Self returns the account behind the session.
func (h *UserHandler) Self(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), currentUser(r).ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if user == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "User not found")
		return
	}
	errors.WriteSuccess(w, "", user)
}

// Options lists the feature switches visible to every user.
func (h *UserHandler) Options(w http.ResponseWriter, r *http.Request) {
	opts, err := h.options.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	errors.WriteSuccess(w, "", opts)
}

// Models lists the models available to the caller's group.
func (h *UserHandler) Models(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, "", tokens.ModelsForGroup(h.groups, currentUser(r).Group))
}

// UpdateOption is the admin write path for feature switches.
func (h *UserHandler) UpdateOption(w http.ResponseWriter, r *http.Request) {
	var req models.Option
	if err := decodeJSON(r, &req); err != nil || req.Key == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body")
		return
	}
	if err := h.options.Upsert(r.Context(), req.Key, req.Value); err != nil {
		writeServiceError(w, r, err)
		return
	}
	errors.WriteSuccess(w, "", nil)
}
