package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"pulsechat/internal/model"
)

func TestFriendService_EmptyFriendsMap(t *testing.T) {
	svc := NewFriendService(&mockUserRepository{})

	user := resolvedUser()
	user.Friends = model.FriendsMap{}

	friends, err := svc.ListFriends(context.Background(), user)
	if err != nil {
		t.Fatalf("ListFriends: %v", err)
	}
	if friends == nil {
		t.Fatal("expected empty map, got nil")
	}
	if len(friends) != 0 {
		t.Errorf("friends = %v, want empty", friends)
	}
}

func TestFriendService_ExpandsProfiles(t *testing.T) {
	peerA := uuid.New()
	peerB := uuid.New()
	banner := "#ff0000"

	profiles := map[uuid.UUID]*model.PublicProfile{
		peerA: {UserID: peerA, Username: "bob", DisplayName: "Bob", Status: 1, BannerColor: &banner},
		peerB: {UserID: peerB, Username: "carol", DisplayName: "Carol", Status: 3},
	}

	mockRepo := &mockUserRepository{
		getProfileByIDFn: func(ctx context.Context, id uuid.UUID) (*model.PublicProfile, error) {
			if p, ok := profiles[id]; ok {
				return p, nil
			}
			return nil, model.ErrUserNotFound
		},
	}
	svc := NewFriendService(mockRepo)

	user := resolvedUser()
	user.Friends = model.FriendsMap{peerA: 1, peerB: 2}

	friends, err := svc.ListFriends(context.Background(), user)
	if err != nil {
		t.Fatalf("ListFriends: %v", err)
	}
	if len(friends) != 2 {
		t.Fatalf("friends = %d, want 2", len(friends))
	}

	a := friends[peerA]
	if a.Username != "bob" || a.FriendStatus != 1 || a.Status != 1 {
		t.Errorf("friend A = %+v", a)
	}
	if a.BannerColor == nil || *a.BannerColor != banner {
		t.Errorf("friend A banner = %v, want %q", a.BannerColor, banner)
	}

	b := friends[peerB]
	if b.Username != "carol" || b.FriendStatus != 2 {
		t.Errorf("friend B = %+v", b)
	}
}

func TestFriendService_SkipsMissingPeer(t *testing.T) {
	peerA := uuid.New()
	gone := uuid.New()

	mockRepo := &mockUserRepository{
		getProfileByIDFn: func(ctx context.Context, id uuid.UUID) (*model.PublicProfile, error) {
			if id == peerA {
				return &model.PublicProfile{UserID: peerA, Username: "bob"}, nil
			}
			return nil, model.ErrUserNotFound
		},
	}
	svc := NewFriendService(mockRepo)

	user := resolvedUser()
	user.Friends = model.FriendsMap{peerA: 0, gone: 1}

	friends, err := svc.ListFriends(context.Background(), user)
	if err != nil {
		t.Fatalf("ListFriends: %v", err)
	}
	if len(friends) != 1 {
		t.Fatalf("friends = %d, want 1 (missing peer skipped)", len(friends))
	}
	if _, ok := friends[gone]; ok {
		t.Error("missing peer must be omitted, not present")
	}
}

func TestFriendService_StoreFailureAborts(t *testing.T) {
	storeErr := errors.New("connection reset")
	mockRepo := &mockUserRepository{
		getProfileByIDFn: func(ctx context.Context, id uuid.UUID) (*model.PublicProfile, error) {
			return nil, storeErr
		},
	}
	svc := NewFriendService(mockRepo)

	user := resolvedUser()
	user.Friends = model.FriendsMap{uuid.New(): 0}

	_, err := svc.ListFriends(context.Background(), user)
	if !errors.Is(err, storeErr) {
		t.Errorf("err = %v, want wrapped store error", err)
	}
}
