package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"pulsechat/internal/credential"
	"pulsechat/internal/model"
	"pulsechat/internal/queue"
)

// =============================================================================
// MOCK REPOSITORY
// =============================================================================
//
// UserService depends on the UserRepository interface, so tests swap in a
// mock whose behavior each test controls through function fields.

type mockUserRepository struct {
	createFn           func(ctx context.Context, user *model.User) error
	getByIDFn          func(ctx context.Context, id uuid.UUID) (*model.User, error)
	getByTokenFn       func(ctx context.Context, token uuid.UUID) (*model.User, error)
	getByEmailFn       func(ctx context.Context, email string) (*model.User, error)
	existsByUsernameFn func(ctx context.Context, username string) (bool, error)
	existsByEmailFn    func(ctx context.Context, email string) (bool, error)
	getProfileByIDFn   func(ctx context.Context, id uuid.UUID) (*model.PublicProfile, error)
	updateColumnFn     func(ctx context.Context, user *model.User, column string, value interface{}) error

	// Track calls for assertions
	createCalls []*model.User
	updateCalls []updateCall
	lookupCalls []string
}

type updateCall struct {
	Column string
	Value  interface{}
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	user.CreatedAt = time.Now()
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	m.lookupCalls = append(m.lookupCalls, "id")
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByToken(ctx context.Context, token uuid.UUID) (*model.User, error) {
	m.lookupCalls = append(m.lookupCalls, "token")
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	m.lookupCalls = append(m.lookupCalls, "email")
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsByUsernameFn != nil {
		return m.existsByUsernameFn(ctx, username)
	}
	return false, nil
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailFn != nil {
		return m.existsByEmailFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepository) GetProfileByID(ctx context.Context, id uuid.UUID) (*model.PublicProfile, error) {
	if m.getProfileByIDFn != nil {
		return m.getProfileByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) UpdateColumn(ctx context.Context, user *model.User, column string, value interface{}) error {
	m.updateCalls = append(m.updateCalls, updateCall{Column: column, Value: value})
	if m.updateColumnFn != nil {
		return m.updateColumnFn(ctx, user, column, value)
	}
	return nil
}

type mockPublisher struct {
	events []queue.AccountEvent
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.AccountEvent) (string, error) {
	m.events = append(m.events, event)
	return "1-0", nil
}

func resolvedUser() *model.User {
	return &model.User{
		UserID:       uuid.New(),
		Token:        uuid.New(),
		CreatedAt:    time.Now(),
		Username:     "alice",
		Email:        "alice@x.com",
		PasswordHash: "$argon2id$...",
		DisplayName:  "alice",
		Friends:      model.FriendsMap{},
		Status:       0,
	}
}

// =============================================================================
// REGISTER TESTS
// =============================================================================

func TestUserService_Register_Success(t *testing.T) {
	mockRepo := &mockUserRepository{}
	pub := &mockPublisher{}
	svc := NewUserService(mockRepo, pub)

	token, userID, err := svc.Register(context.Background(), "alice", "alice@x.com", "secret123")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if token == uuid.Nil || userID == uuid.Nil {
		t.Fatal("expected generated token and user_id")
	}
	if token == userID {
		t.Error("token and user_id must be generated independently")
	}

	if len(mockRepo.createCalls) != 1 {
		t.Fatalf("Create called %d times, want 1", len(mockRepo.createCalls))
	}

	created := mockRepo.createCalls[0]
	if created.Username != "alice" || created.Email != "alice@x.com" {
		t.Errorf("created user = %q/%q, want alice/alice@x.com", created.Username, created.Email)
	}
	if created.Status != 0 {
		t.Errorf("status = %d, want 0", created.Status)
	}
	if created.IsAdmin {
		t.Error("new users must not be admins")
	}

	// Password must be stored hashed, never as plaintext.
	if created.PasswordHash == "secret123" {
		t.Error("password stored in plain text")
	}
	if err := credential.Verify("secret123", created.PasswordHash); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}

	if len(pub.events) != 1 || pub.events[0].Type != queue.EventUserRegistered {
		t.Errorf("events = %+v, want one user_registered", pub.events)
	}
}

func TestUserService_Register_UsernameExists(t *testing.T) {
	mockRepo := &mockUserRepository{
		existsByUsernameFn: func(ctx context.Context, username string) (bool, error) {
			return true, nil
		},
	}
	svc := NewUserService(mockRepo, nil)

	_, _, err := svc.Register(context.Background(), "alice", "other@x.com", "secret123")
	if !errors.Is(err, model.ErrUserExists) {
		t.Errorf("err = %v, want ErrUserExists", err)
	}
	if len(mockRepo.createCalls) != 0 {
		t.Error("Create must not be called on a uniqueness conflict")
	}
}

func TestUserService_Register_EmailExists(t *testing.T) {
	mockRepo := &mockUserRepository{
		existsByEmailFn: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}
	svc := NewUserService(mockRepo, nil)

	_, _, err := svc.Register(context.Background(), "bob", "alice@x.com", "secret123")
	if !errors.Is(err, model.ErrUserExists) {
		t.Errorf("err = %v, want ErrUserExists", err)
	}
}

func TestUserService_Register_Validation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		password string
		wantErr  error
	}{
		{"empty username", "", "a@x.com", "secret123", model.ErrMissingFields},
		{"empty email", "alice", "", "secret123", model.ErrMissingFields},
		{"empty password", "alice", "a@x.com", "", model.ErrMissingFields},
		{"email without at-sign", "alice", "not-an-email", "secret123", model.ErrInvalidEmail},
		{"short username", "al", "a@x.com", "secret123", model.ErrCredentialsTooShort},
		{"short password", "alice", "a@x.com", "ab", model.ErrCredentialsTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockUserRepository{}
			svc := NewUserService(mockRepo, nil)

			_, _, err := svc.Register(context.Background(), tt.username, tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if len(mockRepo.createCalls) != 0 {
				t.Error("Create must not be called for invalid input")
			}
		})
	}
}

// =============================================================================
// RESOLVE TESTS
// =============================================================================

func TestUserService_Resolve_NoKey(t *testing.T) {
	mockRepo := &mockUserRepository{}
	svc := NewUserService(mockRepo, nil)

	_, err := svc.Resolve(context.Background(), model.UserKey{})
	if !errors.Is(err, model.ErrNoLookupKey) {
		t.Errorf("err = %v, want ErrNoLookupKey", err)
	}
	if len(mockRepo.lookupCalls) != 0 {
		t.Errorf("store queried %v times for a zero key", mockRepo.lookupCalls)
	}
}

func TestUserService_Resolve_KeyedLookupOnly(t *testing.T) {
	// Resolution must run exactly the one lookup matching the key that was
	// set, regardless of which other keys would also match the user.
	user := resolvedUser()
	mockRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.User, error) {
			return user, nil
		},
		getByTokenFn: func(ctx context.Context, token uuid.UUID) (*model.User, error) {
			return user, nil
		},
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return user, nil
		},
	}
	svc := NewUserService(mockRepo, nil)

	got, err := svc.Resolve(context.Background(), model.KeyFromID(user.UserID))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != user {
		t.Error("resolved user does not match the stored record")
	}
	if len(mockRepo.lookupCalls) != 1 || mockRepo.lookupCalls[0] != "id" {
		t.Errorf("lookups = %v, want exactly [id]", mockRepo.lookupCalls)
	}

	mockRepo.lookupCalls = nil
	if _, err := svc.Resolve(context.Background(), model.KeyFromToken(user.Token)); err != nil {
		t.Fatalf("Resolve by token: %v", err)
	}
	if len(mockRepo.lookupCalls) != 1 || mockRepo.lookupCalls[0] != "token" {
		t.Errorf("lookups = %v, want exactly [token]", mockRepo.lookupCalls)
	}

	mockRepo.lookupCalls = nil
	if _, err := svc.Resolve(context.Background(), model.KeyFromEmail(user.Email)); err != nil {
		t.Fatalf("Resolve by email: %v", err)
	}
	if len(mockRepo.lookupCalls) != 1 || mockRepo.lookupCalls[0] != "email" {
		t.Errorf("lookups = %v, want exactly [email]", mockRepo.lookupCalls)
	}
}

func TestUserService_Resolve_NotFound(t *testing.T) {
	svc := NewUserService(&mockUserRepository{}, nil)

	_, err := svc.Resolve(context.Background(), model.KeyFromEmail("nobody@x.com"))
	if !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

// =============================================================================
// UPDATE FIELD TESTS
// =============================================================================

func TestUserService_UpdateField_RequiresToken(t *testing.T) {
	mockRepo := &mockUserRepository{}
	svc := NewUserService(mockRepo, nil)

	user := resolvedUser()
	user.Token = uuid.Nil

	_, err := svc.UpdateField(context.Background(), user, "display_name", "Alice")
	if !errors.Is(err, model.ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
	if len(mockRepo.updateCalls) != 0 {
		t.Error("store must not be touched without a token")
	}
}

func TestUserService_UpdateField_AllowListEnforced(t *testing.T) {
	// Immutable and administrative fields are unreachable through this path
	// no matter what field name a caller sends.
	blocked := []string{"is_admin", "user_id", "token", "username", "created_at", "badges", "friends", "password_hash", ""}

	for _, field := range blocked {
		mockRepo := &mockUserRepository{}
		svc := NewUserService(mockRepo, nil)
		user := resolvedUser()
		wasAdmin := user.IsAdmin

		_, err := svc.UpdateField(context.Background(), user, field, "true")
		if !errors.Is(err, model.ErrFieldNotAllowed) {
			t.Errorf("UpdateField(%q) err = %v, want ErrFieldNotAllowed", field, err)
		}
		if len(mockRepo.updateCalls) != 0 {
			t.Errorf("UpdateField(%q) reached the store", field)
		}
		if user.IsAdmin != wasAdmin {
			t.Errorf("UpdateField(%q) mutated is_admin", field)
		}
	}
}

func TestUserService_UpdateField_StatusValidation(t *testing.T) {
	for _, valid := range []string{"0", "1", "2", "3"} {
		mockRepo := &mockUserRepository{}
		svc := NewUserService(mockRepo, nil)
		user := resolvedUser()

		updated, err := svc.UpdateField(context.Background(), user, "status", valid)
		if err != nil {
			t.Errorf("UpdateField(status, %q) err = %v, want nil", valid, err)
			continue
		}
		if len(mockRepo.updateCalls) != 1 || mockRepo.updateCalls[0].Column != "status" {
			t.Errorf("UpdateField(status, %q) calls = %+v", valid, mockRepo.updateCalls)
		}
		want := valid[0] - '0'
		if updated.Status != int16(want) {
			t.Errorf("status = %d, want %d", updated.Status, want)
		}
	}

	for _, invalid := range []string{"4", "-1", "abc", "1.5", ""} {
		mockRepo := &mockUserRepository{}
		svc := NewUserService(mockRepo, nil)
		user := resolvedUser()

		_, err := svc.UpdateField(context.Background(), user, "status", invalid)
		if !errors.Is(err, model.ErrInvalidStatus) {
			t.Errorf("UpdateField(status, %q) err = %v, want ErrInvalidStatus", invalid, err)
		}
		if len(mockRepo.updateCalls) != 0 {
			t.Errorf("UpdateField(status, %q) reached the store", invalid)
		}
	}
}

func TestUserService_UpdateField_EmailValidation(t *testing.T) {
	for _, invalid := range []string{"no-at-sign", "@x", "ab"} {
		mockRepo := &mockUserRepository{}
		svc := NewUserService(mockRepo, nil)

		_, err := svc.UpdateField(context.Background(), resolvedUser(), "email", invalid)
		if !errors.Is(err, model.ErrInvalidEmail) {
			t.Errorf("UpdateField(email, %q) err = %v, want ErrInvalidEmail", invalid, err)
		}
	}

	mockRepo := &mockUserRepository{}
	svc := NewUserService(mockRepo, nil)
	user := resolvedUser()

	updated, err := svc.UpdateField(context.Background(), user, "email", "new@x.com")
	if err != nil {
		t.Fatalf("UpdateField(email): %v", err)
	}
	if updated.Email != "new@x.com" {
		t.Errorf("email = %q, want new@x.com", updated.Email)
	}
}

func TestUserService_UpdateField_PasswordIsHashed(t *testing.T) {
	mockRepo := &mockUserRepository{}
	svc := NewUserService(mockRepo, nil)
	user := resolvedUser()

	updated, err := svc.UpdateField(context.Background(), user, "password", "newsecret")
	if err != nil {
		t.Fatalf("UpdateField(password): %v", err)
	}

	if len(mockRepo.updateCalls) != 1 {
		t.Fatalf("update calls = %d, want 1", len(mockRepo.updateCalls))
	}
	call := mockRepo.updateCalls[0]
	if call.Column != "password_hash" {
		t.Errorf("column = %q, want password_hash", call.Column)
	}

	stored, ok := call.Value.(string)
	if !ok || stored == "newsecret" {
		t.Fatalf("stored value = %#v, want a hash", call.Value)
	}
	if err := credential.Verify("newsecret", stored); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
	if updated.PasswordHash != stored {
		t.Error("in-memory user not updated with the stored hash")
	}
}

func TestUserService_UpdateField_StoreFailureLeavesUserUntouched(t *testing.T) {
	mockRepo := &mockUserRepository{
		updateColumnFn: func(ctx context.Context, user *model.User, column string, value interface{}) error {
			return model.ErrUpdateConflict
		},
	}
	svc := NewUserService(mockRepo, nil)
	user := resolvedUser()
	before := *user

	_, err := svc.UpdateField(context.Background(), user, "display_name", "Mallory")
	if !errors.Is(err, model.ErrUpdateConflict) {
		t.Fatalf("err = %v, want ErrUpdateConflict", err)
	}
	if user.DisplayName != before.DisplayName {
		t.Error("in-memory user mutated despite store failure")
	}
}

func TestUserService_UpdateField_PublishesEvent(t *testing.T) {
	pub := &mockPublisher{}
	svc := NewUserService(&mockUserRepository{}, pub)

	if _, err := svc.UpdateField(context.Background(), resolvedUser(), "display_name", "Alice"); err != nil {
		t.Fatalf("UpdateField: %v", err)
	}

	if len(pub.events) != 1 {
		t.Fatalf("events = %d, want 1", len(pub.events))
	}
	if pub.events[0].Type != queue.EventProfileUpdated || pub.events[0].Field != "display_name" {
		t.Errorf("event = %+v, want profile_updated/display_name", pub.events[0])
	}
}

// =============================================================================
// LOGIN / ADMIN TESTS
// =============================================================================

func TestUserService_Login(t *testing.T) {
	hash, err := credential.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	stored := resolvedUser()
	stored.PasswordHash = hash

	mockRepo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			if email == stored.Email {
				return stored, nil
			}
			return nil, model.ErrUserNotFound
		},
	}
	svc := NewUserService(mockRepo, nil)

	user, err := svc.Login(context.Background(), stored.Email, "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Token != stored.Token {
		t.Error("login must return the stored bearer token")
	}

	// Wrong password and unknown email are indistinguishable.
	if _, err := svc.Login(context.Background(), stored.Email, "wrong"); !errors.Is(err, model.ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@x.com", "secret123"); !errors.Is(err, model.ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
}

func TestUserService_IsAdmin(t *testing.T) {
	admin := resolvedUser()
	admin.IsAdmin = true

	mockRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*model.User, error) {
			if id == admin.UserID {
				return admin, nil
			}
			return nil, model.ErrUserNotFound
		},
	}
	svc := NewUserService(mockRepo, nil)

	isAdmin, err := svc.IsAdmin(context.Background(), admin.UserID)
	if err != nil || !isAdmin {
		t.Errorf("IsAdmin = %v, %v, want true, nil", isAdmin, err)
	}

	if _, err := svc.IsAdmin(context.Background(), uuid.New()); !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("unknown id err = %v, want ErrUserNotFound", err)
	}
}
