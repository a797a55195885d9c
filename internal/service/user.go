package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"pulsechat/internal/credential"
	"pulsechat/internal/model"
	"pulsechat/internal/queue"
	"pulsechat/internal/repository"
)

// allowedUpdateFields maps the field names reachable through UpdateField to
// their storage columns. The map is the authorizer's own immutable
// configuration; anything absent here (user_id, token, username, created_at,
// badges, is_admin) cannot be mutated through this path no matter what a
// caller sends.
var allowedUpdateFields = map[string]string{
	"email":            "email",
	"password":         "password_hash",
	"display_name":     "display_name",
	"status":           "status",
	"banner_color":     "banner_color",
	"background_color": "background_color",
	"description":      "description",
}

// UserService handles resolution, registration, login and field-level
// mutation of user records.
type UserService struct {
	repo      repository.UserRepository
	publisher queue.Publisher // nil disables account events
}

func NewUserService(repo repository.UserRepository, publisher queue.Publisher) *UserService {
	return &UserService{
		repo:      repo,
		publisher: publisher,
	}
}

// Resolve fetches the complete user record for the given key. Exactly one
// lookup runs, chosen by priority user_id > token > email. A zero key fails
// without touching the store.
func (s *UserService) Resolve(ctx context.Context, key model.UserKey) (*model.User, error) {
	switch {
	case key.UserID() != uuid.Nil:
		return s.repo.GetByID(ctx, key.UserID())
	case key.Token() != uuid.Nil:
		return s.repo.GetByToken(ctx, key.Token())
	case key.Email() != "":
		return s.repo.GetByEmail(ctx, key.Email())
	default:
		return nil, model.ErrNoLookupKey
	}
}

// Register validates input, checks username and email uniqueness, and
// creates the user with freshly generated user_id and token. The two
// existence checks and the insert are not atomic; a concurrent registration
// with the same username can slip through. Accepted, see the schema notes.
func (s *UserService) Register(ctx context.Context, username, email, password string) (token, userID uuid.UUID, err error) {
	if username == "" || email == "" || password == "" {
		return uuid.Nil, uuid.Nil, model.ErrMissingFields
	}
	if !strings.Contains(email, "@") {
		return uuid.Nil, uuid.Nil, model.ErrInvalidEmail
	}
	if len(username) < 3 || len(password) < 3 {
		return uuid.Nil, uuid.Nil, model.ErrCredentialsTooShort
	}

	usernameTaken, err := s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("failed to check username: %w", err)
	}
	emailTaken, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("failed to check email: %w", err)
	}
	if usernameTaken || emailTaken {
		return uuid.Nil, uuid.Nil, model.ErrUserExists
	}

	hash, err := credential.Hash(password)
	if err != nil {
		// Fatal: a user row must never be created with an unhashed password.
		return uuid.Nil, uuid.Nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		UserID:       uuid.New(),
		Token:        uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		DisplayName:  username,
		Friends:      model.FriendsMap{},
		Badges:       pq.StringArray{},
		Status:       0,
		IsAdmin:      false,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.publish(ctx, queue.NewUserRegisteredEvent(user.UserID))

	return user.Token, user.UserID, nil
}

// Login resolves the user by email and verifies the password. Every failure
// mode collapses into ErrInvalidCredentials so callers cannot probe which
// emails are registered.
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.Resolve(ctx, model.KeyFromEmail(email))
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}

	if err := credential.Verify(password, user.PasswordHash); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// UpdateField validates and applies a single named-field mutation to a
// resolved user. The user must carry its bearer token as ownership proof.
// The in-memory record is only mutated after the store accepts the change;
// on any failure the record is returned to the caller untouched.
func (s *UserService) UpdateField(ctx context.Context, user *model.User, field, value string) (*model.User, error) {
	if user.Token == uuid.Nil {
		return user, model.ErrUnauthenticated
	}

	column, ok := allowedUpdateFields[field]
	if !ok {
		return user, model.ErrFieldNotAllowed
	}

	var stored interface{} = value
	var status int16

	switch field {
	case "password":
		hash, err := credential.Hash(value)
		if err != nil {
			return user, fmt.Errorf("failed to hash password: %w", err)
		}
		stored = hash
		value = hash
	case "status":
		parsed, err := strconv.ParseInt(value, 10, 16)
		if err != nil || !model.StatusCodes[int16(parsed)] {
			return user, model.ErrInvalidStatus
		}
		status = int16(parsed)
		stored = status
	case "email":
		if !strings.Contains(value, "@") || len(value) < 3 {
			return user, model.ErrInvalidEmail
		}
	}

	if err := s.repo.UpdateColumn(ctx, user, column, stored); err != nil {
		return user, err
	}

	switch field {
	case "email":
		user.Email = value
	case "password":
		user.PasswordHash = value
	case "display_name":
		user.DisplayName = value
	case "status":
		user.Status = status
	case "banner_color":
		user.BannerColor = &value
	case "background_color":
		user.BackgroundColor = &value
	case "description":
		user.Description = &value
	}

	s.publish(ctx, queue.NewProfileUpdatedEvent(user.UserID, field))

	return user, nil
}

// IsAdmin reports whether the given user is an administrator.
func (s *UserService) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := s.Resolve(ctx, model.KeyFromID(userID))
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}

// publish emits an account event, best effort. A publish failure never
// fails the user-facing operation.
func (s *UserService) publish(ctx context.Context, event queue.AccountEvent) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.Publish(ctx, queue.StreamAccount, event); err != nil {
		log.Printf("[UserService] Failed to publish %s event: user=%s err=%v", event.Type, event.UserID, err)
	}
}
