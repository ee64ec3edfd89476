// Package dirfake provides an in-memory user.Directory for tests. It
// enforces the same uniqueness rules as the Postgres directory so
// create-or-bind races behave like production.
package dirfake

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"identity-service/internal/user"
)

type Directory struct {
	mu    sync.Mutex
	users map[string]*user.User // by id

	// UpdateErr, when set, makes every Update fail with it.
	UpdateErr error
	// FindErr, when set, makes every lookup fail with it.
	FindErr error
	// CreateErr, when set, makes every Create fail with it.
	CreateErr error

	// BeforeCreate runs at the start of every Create, before the
	// uniqueness check. Tests use it to lose a creation race on purpose.
	BeforeCreate func()

	CreateCalls int
	UpdateCalls int
}

func New() *Directory {
	return &Directory{users: make(map[string]*user.User)}
}

// Add seeds a user directly, filling directory defaults.
func (d *Directory) Add(u user.User) *user.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.insert(u)
}

func (d *Directory) insert(u user.User) *user.User {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Locale == "" {
		u.Locale = "en"
	}
	if u.Timezone == "" {
		u.Timezone = "UTC"
	}
	if u.ProviderIDs == nil {
		u.ProviderIDs = map[string]string{}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.UpdatedAt = u.CreatedAt
	stored := u
	d.users[u.ID] = &stored
	return clone(&stored)
}

// Count reports the number of stored users.
func (d *Directory) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.users)
}

// Get returns the stored record by id, nil if absent.
func (d *Directory) Get(id string) *user.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return nil
	}
	return clone(u)
}

func (d *Directory) FindByID(_ context.Context, id string) (*user.User, error) {
	if d.FindErr != nil {
		return nil, d.FindErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.users[id]; ok {
		return clone(u), nil
	}
	return nil, user.ErrNotFound
}

func (d *Directory) FindByEmail(_ context.Context, email string) (*user.User, error) {
	if d.FindErr != nil {
		return nil, d.FindErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if strings.EqualFold(u.Email, email) {
			return clone(u), nil
		}
	}
	return nil, user.ErrNotFound
}

func (d *Directory) FindByProviderID(_ context.Context, provider, providerUserID string) (*user.User, error) {
	if d.FindErr != nil {
		return nil, d.FindErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	// An identity row always has both columns set; an empty subject
	// matches nothing, same as the SQL lookup.
	if providerUserID == "" {
		return nil, user.ErrNotFound
	}
	for _, u := range d.users {
		if u.ProviderIDs[provider] == providerUserID {
			return clone(u), nil
		}
	}
	return nil, user.ErrNotFound
}

func (d *Directory) Create(_ context.Context, n user.NewUser) (*user.User, error) {
	if d.BeforeCreate != nil {
		d.BeforeCreate()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.CreateCalls++

	if d.CreateErr != nil {
		return nil, d.CreateErr
	}

	for _, u := range d.users {
		if strings.EqualFold(u.Email, n.Email) {
			return nil, fmt.Errorf("%w: users_email_lower_unique", user.ErrUniqueViolation)
		}
		if strings.EqualFold(u.Username, n.Username) {
			return nil, fmt.Errorf("%w: users_username_lower_unique", user.ErrUniqueViolation)
		}
		if n.Provider != "" && n.ProviderUserID != "" && u.ProviderIDs[n.Provider] == n.ProviderUserID {
			return nil, fmt.Errorf("%w: identities_provider_unique", user.ErrUniqueViolation)
		}
	}

	created := user.User{
		Email:        n.Email,
		Username:     n.Username,
		PasswordHash: n.PasswordHash,
		AvatarURL:    n.AvatarURL,
		DeviceToken:  n.DeviceToken,
		PushEnabled:  true,
		IsActive:     true,
	}
	if n.Provider != "" && n.ProviderUserID != "" {
		created.ProviderIDs = map[string]string{n.Provider: n.ProviderUserID}
	}
	return d.insert(created), nil
}

func (d *Directory) Update(_ context.Context, id string, u user.Update) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.UpdateCalls++

	if d.UpdateErr != nil {
		return d.UpdateErr
	}

	stored, ok := d.users[id]
	if !ok {
		return user.ErrNotFound
	}

	if u.DeviceToken != nil {
		stored.DeviceToken = *u.DeviceToken
	}
	if u.PushEnabled != nil {
		stored.PushEnabled = *u.PushEnabled
	}
	if u.AvatarURL != nil {
		stored.AvatarURL = *u.AvatarURL
	}
	if u.Bio != nil {
		stored.Bio = *u.Bio
	}
	if u.Locale != nil {
		stored.Locale = *u.Locale
	}
	if u.Timezone != nil {
		stored.Timezone = *u.Timezone
	}
	if u.LastLogin != nil {
		t := *u.LastLogin
		stored.LastLogin = &t
	}
	stored.UpdatedAt = time.Now()
	return nil
}

func (d *Directory) AddIdentity(_ context.Context, userID, provider, providerUserID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, u := range d.users {
		if providerUserID != "" && u.ProviderIDs[provider] == providerUserID {
			return fmt.Errorf("%w: identities_provider_unique", user.ErrUniqueViolation)
		}
	}

	stored, ok := d.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	if stored.ProviderIDs == nil {
		stored.ProviderIDs = map[string]string{}
	}
	stored.ProviderIDs[provider] = providerUserID
	return nil
}

func clone(u *user.User) *user.User {
	c := *u
	c.ProviderIDs = make(map[string]string, len(u.ProviderIDs))
	for k, v := range u.ProviderIDs {
		c.ProviderIDs[k] = v
	}
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	return &c
}
