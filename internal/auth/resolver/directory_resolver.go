package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"identity-service/internal/auth"
	"identity-service/internal/logger"
	"identity-service/internal/user"
	"identity-service/internal/utils"
)

// DirectoryResolver resolves claims against the user directory. The
// directory's uniqueness constraints are the correctness arbiter for
// concurrent first-logins: creation is attempted optimistically and a
// rejection triggers a re-read instead of assuming single-writer
// execution.
type DirectoryResolver struct {
	dir user.Directory
}

func NewDirectoryResolver(dir user.Directory) *DirectoryResolver {
	return &DirectoryResolver{dir: dir}
}

func (r *DirectoryResolver) Resolve(
	ctx context.Context,
	claim *auth.Claim,
) (*user.User, bool, error) {

	if claim == nil {
		return nil, false, errors.New("claim is nil")
	}

	// 1. Provider identity lookup.
	if claim.Subject != "" {
		u, err := r.dir.FindByProviderID(ctx, string(claim.Provider), claim.Subject)
		if err == nil {
			r.touch(ctx, u, claim.DeviceToken)
			return u, false, nil
		}
		if !errors.Is(err, user.ErrNotFound) {
			return nil, false, fmt.Errorf("%w: %v", auth.ErrDirectoryUnavailable, err)
		}
	}

	// 2. Email-based binding: existing account, new provider.
	u, err := r.dir.FindByEmail(ctx, claim.Email)
	if err == nil {
		if claim.Subject != "" {
			if err := r.dir.AddIdentity(ctx, u.ID, string(claim.Provider), claim.Subject); err != nil {
				// A concurrent login already linked the same identity.
				if !errors.Is(err, user.ErrUniqueViolation) {
					return nil, false, fmt.Errorf("%w: %v", auth.ErrDirectoryUnavailable, err)
				}
			}
		}
		r.touch(ctx, u, claim.DeviceToken)
		return u, false, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, false, fmt.Errorf("%w: %v", auth.ErrDirectoryUnavailable, err)
	}

	// 3. First login for this identity: create the account.
	created, err := r.dir.Create(ctx, user.NewUser{
		Email:          claim.Email,
		Username:       defaultUsername(claim),
		PasswordHash:   "", // third-party-only account
		AvatarURL:      claim.Picture,
		DeviceToken:    claim.DeviceToken,
		Provider:       string(claim.Provider),
		ProviderUserID: claim.Subject,
	})
	if err == nil {
		logger.Info("user created", map[string]any{
			"user_id":  created.ID,
			"provider": string(claim.Provider),
		})
		return created, true, nil
	}

	if !errors.Is(err, user.ErrUniqueViolation) {
		return nil, false, fmt.Errorf("%w: %v", auth.ErrDirectoryUnavailable, err)
	}

	// The directory rejected the write: a concurrent first-login for the
	// same identity won the race, or the defaulted username collided.
	return r.recoverConflict(ctx, claim)
}

// recoverConflict re-reads after a rejected creation so concurrent
// first-logins converge to the single account that won.
func (r *DirectoryResolver) recoverConflict(
	ctx context.Context,
	claim *auth.Claim,
) (*user.User, bool, error) {

	if claim.Subject != "" {
		u, err := r.dir.FindByProviderID(ctx, string(claim.Provider), claim.Subject)
		if err == nil {
			r.touch(ctx, u, claim.DeviceToken)
			return u, false, nil
		}
		if !errors.Is(err, user.ErrNotFound) {
			return nil, false, fmt.Errorf("%w: %v", auth.ErrDirectoryUnavailable, err)
		}
	}

	u, err := r.dir.FindByEmail(ctx, claim.Email)
	if err == nil {
		r.touch(ctx, u, claim.DeviceToken)
		return u, false, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, false, fmt.Errorf("%w: %v", auth.ErrDirectoryUnavailable, err)
	}

	// Neither the identity nor the email exists, so the rejection came
	// from the defaulted username. One create with a randomized username
	// either takes it or loses a genuine race.
	created, err := r.dir.Create(ctx, user.NewUser{
		Email:          claim.Email,
		Username:       suffixedUsername(claim),
		AvatarURL:      claim.Picture,
		DeviceToken:    claim.DeviceToken,
		Provider:       string(claim.Provider),
		ProviderUserID: claim.Subject,
	})
	if err == nil {
		logger.Info("user created", map[string]any{
			"user_id":  created.ID,
			"provider": string(claim.Provider),
		})
		return created, true, nil
	}
	if errors.Is(err, user.ErrUniqueViolation) {
		return nil, false, fmt.Errorf("%w: %v", auth.ErrAccountConflict, err)
	}
	return nil, false, fmt.Errorf("%w: %v", auth.ErrDirectoryUnavailable, err)
}

// touch applies the non-critical login side effects: last_login always,
// device_token when the request carried one. Failure is reported and
// swallowed; it never aborts session issuance.
func (r *DirectoryResolver) touch(ctx context.Context, u *user.User, deviceToken string) {
	now := time.Now()
	update := user.Update{LastLogin: &now}

	if deviceToken != "" && deviceToken != u.DeviceToken {
		update.DeviceToken = &deviceToken
	}

	if err := r.dir.Update(ctx, u.ID, update); err != nil {
		logger.Warn("login touch failed", map[string]any{
			"user_id": u.ID,
			"error":   err.Error(),
		})
		return
	}

	if update.DeviceToken != nil {
		u.DeviceToken = deviceToken
	}
	u.LastLogin = &now
}

func defaultUsername(claim *auth.Claim) string {
	if name := strings.TrimSpace(claim.Name); name != "" {
		return strings.ToLower(strings.ReplaceAll(name, " ", ""))
	}
	local, _, found := strings.Cut(claim.Email, "@")
	if found && local != "" {
		return strings.ToLower(local)
	}
	return strings.ToLower(claim.Email)
}

func suffixedUsername(claim *auth.Claim) string {
	return defaultUsername(claim) + "-" + utils.RandomString(4)
}
