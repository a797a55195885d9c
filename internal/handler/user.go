package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"pulsechat/internal/httputil"
	"pulsechat/internal/model"
	"pulsechat/internal/service"
	"pulsechat/internal/transport/http/middleware"
)

// UserHandler groups user lookup and self-mutation endpoints.
type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetProfile returns the public profile of any user
// GET /users/{id}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	user, err := h.userService.Resolve(r.Context(), model.KeyFromID(userID))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] GetProfile handler: %v", err)
		httputil.WriteInternalError(w, "Failed to get user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.PublicProfile{
		UserID:          user.UserID,
		Username:        user.Username,
		DisplayName:     user.DisplayName,
		Badges:          user.Badges,
		Status:          user.Status,
		BannerColor:     user.BannerColor,
		BackgroundColor: user.BackgroundColor,
	})
}

// IsAdmin reports whether a user is an administrator
// GET /users/{id}/admin
func (h *UserHandler) IsAdmin(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	isAdmin, err := h.userService.IsAdmin(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] IsAdmin handler: %v", err)
		httputil.WriteInternalError(w, "Failed to get user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"is_admin": isAdmin})
}

// Me returns the full record of the authenticated user
// GET /me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// UpdateFieldRequest names one allow-listed field and its new value.
type UpdateFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// UpdateSelf applies a single field mutation to the authenticated user
// PATCH /me
func (h *UserHandler) UpdateSelf(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req UpdateFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	updated, err := h.userService.UpdateField(r.Context(), user, req.Field, req.Value)
	if err != nil {
		h.writeUpdateError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, updated)
}

// SetStatusRequest carries the new presence code.
type SetStatusRequest struct {
	Status int16 `json:"status"`
}

// SetStatus updates the authenticated user's presence code
// PUT /me/status
func (h *UserHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	_, err := h.userService.UpdateField(r.Context(), user, "status", strconv.Itoa(int(req.Status)))
	if err != nil {
		h.writeUpdateError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Status updated"})
}

func (h *UserHandler) writeUpdateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrUnauthenticated):
		httputil.WriteUnauthorized(w, "Not authenticated")
	case errors.Is(err, model.ErrFieldNotAllowed):
		httputil.WriteForbidden(w, "Field cannot be updated")
	case errors.Is(err, model.ErrInvalidStatus), errors.Is(err, model.ErrInvalidEmail):
		httputil.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrUpdateConflict):
		httputil.WriteConflict(w, "User record changed, please retry")
	default:
		log.Printf("[ERROR] UpdateField handler: %v", err)
		httputil.WriteInternalError(w, "Failed to update user")
	}
}
