package user

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound means no user matched the lookup.
	ErrNotFound = errors.New("user not found")

	// ErrUniqueViolation means the directory rejected a write because it
	// would duplicate an email, username, or provider identity. The
	// directory's constraints are the authority; callers react to this,
	// they never pre-check.
	ErrUniqueViolation = errors.New("unique constraint violation")
)

// NewUser carries the fields for a first-time account creation.
// Provider/ProviderUserID, when set, record the external identity the
// account was created from, atomically with the user row.
type NewUser struct {
	Email        string
	Username     string
	PasswordHash string
	AvatarURL    string
	DeviceToken  string

	Provider       string
	ProviderUserID string
}

// Update is a partial mutation; nil fields are left untouched.
type Update struct {
	DeviceToken *string
	PushEnabled *bool
	AvatarURL   *string
	Bio         *string
	Locale      *string
	Timezone    *string
	LastLogin   *time.Time
}

// Directory is the authoritative persistent store of user records.
type Directory interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByProviderID(ctx context.Context, provider, providerUserID string) (*User, error)
	Create(ctx context.Context, n NewUser) (*User, error)
	Update(ctx context.Context, id string, u Update) error

	// AddIdentity links an external identity to an existing user.
	AddIdentity(ctx context.Context, userID, provider, providerUserID string) error
}
