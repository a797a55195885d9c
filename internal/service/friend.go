package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"pulsechat/internal/model"
	"pulsechat/internal/repository"
)

// FriendService expands a user's raw relationship map into fully populated
// friend views.
type FriendService struct {
	repo repository.UserRepository
}

func NewFriendService(repo repository.UserRepository) *FriendService {
	return &FriendService{repo: repo}
}

// ListFriends builds a Friend view for every entry in the user's friends
// map. A peer that no longer resolves is skipped and logged rather than
// failing the whole listing; the social list degrades instead of breaking
// on stale entries. Store-level failures still abort.
func (s *FriendService) ListFriends(ctx context.Context, user *model.User) (map[uuid.UUID]model.Friend, error) {
	friends := make(map[uuid.UUID]model.Friend, len(user.Friends))

	for peerID, relationship := range user.Friends {
		profile, err := s.repo.GetProfileByID(ctx, peerID)
		if err != nil {
			if errors.Is(err, model.ErrUserNotFound) {
				log.Printf("[FriendService] Skipping missing peer: user=%s peer=%s", user.UserID, peerID)
				continue
			}
			return nil, fmt.Errorf("failed to look up peer %s: %w", peerID, err)
		}

		friends[peerID] = model.Friend{
			FriendStatus:    relationship,
			UserID:          profile.UserID,
			Username:        profile.Username,
			Badges:          profile.Badges,
			DisplayName:     profile.DisplayName,
			BannerColor:     profile.BannerColor,
			BackgroundColor: profile.BackgroundColor,
			Status:          profile.Status,
		}
	}

	return friends, nil
}
