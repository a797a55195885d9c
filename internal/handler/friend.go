package handler

import (
	"log"
	"net/http"

	"pulsechat/internal/httputil"
	"pulsechat/internal/service"
	"pulsechat/internal/transport/http/middleware"
)

// FriendHandler serves the authenticated user's friend list.
type FriendHandler struct {
	friendService *service.FriendService
}

func NewFriendHandler(friendService *service.FriendService) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

// ListFriends returns the expanded friend views for the authenticated user
// GET /me/friends
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	friends, err := h.friendService.ListFriends(r.Context(), user)
	if err != nil {
		log.Printf("[ERROR] ListFriends handler: %v", err)
		httputil.WriteInternalError(w, "Failed to list friends")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"friends": friends,
	})
}
