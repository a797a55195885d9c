package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// StatusCodes is the fixed set of presence codes a user may set.
// 0 = offline, 1 = online, 2 = away, 3 = do not disturb.
var StatusCodes = map[int16]bool{0: true, 1: true, 2: true, 3: true}

// User is a fully resolved user record. Every persisted field is populated;
// callers obtain one through UserService.Resolve and must never construct
// one by hand from a lookup key (use UserKey for that).
type User struct {
	UserID          uuid.UUID      `db:"user_id" json:"user_id"`
	Token           uuid.UUID      `db:"token" json:"-"` // bearer credential, never serialized
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	Username        string         `db:"username" json:"username"`
	Email           string         `db:"email" json:"email"`
	PasswordHash    string         `db:"password_hash" json:"-"`
	DisplayName     string         `db:"display_name" json:"display_name"`
	Friends         FriendsMap     `db:"friends" json:"-"`
	Badges          pq.StringArray `db:"badges" json:"badges"`
	Status          int16          `db:"status" json:"status"`
	BannerColor     *string        `db:"banner_color" json:"banner_color"`
	BackgroundColor *string        `db:"background_color" json:"background_color"`
	IsAdmin         bool           `db:"is_admin" json:"is_admin"`
	Description     *string        `db:"description" json:"description"`
}

// UserKey identifies a user by exactly one natural key. The zero value is
// invalid and resolves to ErrNoLookupKey. Keeping the key separate from User
// makes "resolve before mutate/aggregate" checkable at the type level.
type UserKey struct {
	userID uuid.UUID
	token  uuid.UUID
	email  string
}

func KeyFromID(id uuid.UUID) UserKey       { return UserKey{userID: id} }
func KeyFromToken(token uuid.UUID) UserKey { return UserKey{token: token} }
func KeyFromEmail(email string) UserKey    { return UserKey{email: email} }

// UserID returns the user_id key, or uuid.Nil if this key is not ID-based.
func (k UserKey) UserID() uuid.UUID { return k.userID }

// Token returns the token key, or uuid.Nil if this key is not token-based.
func (k UserKey) Token() uuid.UUID { return k.token }

// Email returns the email key, or "" if this key is not email-based.
func (k UserKey) Email() string { return k.email }

// FriendsMap maps a peer's user_id to a small relationship status code.
// Stored as a JSONB column.
type FriendsMap map[uuid.UUID]int16

// Value implements driver.Valuer for JSONB storage.
func (f FriendsMap) Value() (driver.Value, error) {
	if f == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal friends map: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner for JSONB storage.
func (f *FriendsMap) Scan(src interface{}) error {
	if src == nil {
		*f = FriendsMap{}
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported friends map source type %T", src)
	}
	if len(b) == 0 {
		*f = FriendsMap{}
		return nil
	}
	if err := json.Unmarshal(b, f); err != nil {
		return fmt.Errorf("unmarshal friends map: %w", err)
	}
	return nil
}

// PublicProfile is the subset of a user's record visible to anyone,
// used for /users/{id} responses and friend aggregation lookups.
type PublicProfile struct {
	UserID          uuid.UUID      `db:"user_id" json:"user_id"`
	Username        string         `db:"username" json:"username"`
	DisplayName     string         `db:"display_name" json:"display_name"`
	Badges          pq.StringArray `db:"badges" json:"badges"`
	Status          int16          `db:"status" json:"status"`
	BannerColor     *string        `db:"banner_color" json:"banner_color"`
	BackgroundColor *string        `db:"background_color" json:"background_color"`
}

// Friend is an on-demand projection of a peer's public profile plus the
// relationship status from the owner's friends map. It is never persisted
// and is rebuilt on every aggregation call.
type Friend struct {
	FriendStatus    int16          `json:"friend_status"`
	UserID          uuid.UUID      `json:"user_id"`
	Username        string         `json:"username"`
	Badges          pq.StringArray `json:"badges"`
	DisplayName     string         `json:"display_name"`
	BannerColor     *string        `json:"banner_color"`
	BackgroundColor *string        `json:"background_color"`
	Status          int16          `json:"status"`
}

// AuditEntry is a row in the append-only audit log written by the worker.
type AuditEntry struct {
	ID         int64     `db:"id"`
	UserID     uuid.UUID `db:"user_id"`
	Action     string    `db:"action"`
	Field      *string   `db:"field"`
	OccurredAt time.Time `db:"occurred_at"`
}

var (
	// ErrUserNotFound is returned when no row matches the lookup key.
	// Handlers surface it without saying which key failed.
	ErrUserNotFound = errors.New("user not found")

	// ErrNoLookupKey is returned when resolution is attempted with a zero UserKey.
	ErrNoLookupKey = errors.New("no lookup key provided")

	// ErrUnauthenticated is returned when a mutating operation is attempted
	// on a user that was not resolved through a bearer token.
	ErrUnauthenticated = errors.New("missing bearer token")

	// ErrFieldNotAllowed is returned when an update names a field outside the allow-list.
	ErrFieldNotAllowed = errors.New("field not allowed")

	// ErrInvalidStatus is returned when a status update is outside the fixed code set.
	ErrInvalidStatus = errors.New("invalid status code")

	// ErrInvalidEmail is returned for malformed email values.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrUpdateConflict is returned when the conditional update matched no row.
	ErrUpdateConflict = errors.New("user row changed concurrently")

	// ErrMissingFields is returned when registration input has an empty field.
	ErrMissingFields = errors.New("username, email and password are required")

	// ErrCredentialsTooShort is returned when username or password is under 3 characters.
	ErrCredentialsTooShort = errors.New("username or password is too short")

	// ErrUserExists is returned when the username or email is already taken.
	ErrUserExists = errors.New("username or email already used")

	// ErrInvalidCredentials is returned on login failure without revealing
	// whether the email exists or the password mismatched.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
