package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"identity-service/internal/auth"
	"identity-service/internal/auth/credentials"
	"identity-service/internal/auth/resolver"
	"identity-service/internal/logger"
	"identity-service/internal/session"
	"identity-service/internal/user"
)

// bcrypt hash of an unguessable throwaway value, compared against on the
// unknown-email path so both failure branches cost one hash check.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AssertionVerifier is the slice of the provider dispatcher the service
// needs; it keeps the login flows testable without live providers.
type AssertionVerifier interface {
	Verify(ctx context.Context, p auth.Provider, assertion string) (*auth.Claim, error)
}

// Token is the issued session credential returned to the transport
// layer regardless of which login path produced it.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// ProfileUpdate carries the caller-editable profile fields; nil means
// leave unchanged.
type ProfileUpdate struct {
	Bio         *string
	Locale      *string
	Timezone    *string
	DeviceToken *string
	PushEnabled *bool
}

// Service orchestrates the login flows: verify a credential, resolve the
// user, issue a session token. It never retries and never discloses
// which verification step failed.
type Service struct {
	dir              user.Directory
	verifier         AssertionVerifier
	resolver         resolver.Resolver
	issuer           *session.Issuer
	providerTimeout  time.Duration
	directoryTimeout time.Duration
}

func New(
	dir user.Directory,
	verifier AssertionVerifier,
	res resolver.Resolver,
	issuer *session.Issuer,
	providerTimeout time.Duration,
	directoryTimeout time.Duration,
) *Service {
	return &Service{
		dir:              dir,
		verifier:         verifier,
		resolver:         res,
		issuer:           issuer,
		providerTimeout:  providerTimeout,
		directoryTimeout: directoryTimeout,
	}
}

// boundCtx caps the directory work of one operation. Request contexts
// carry no deadline of their own, so a hung directory would otherwise
// hold the request open indefinitely.
func (s *Service) boundCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.directoryTimeout)
}

// LoginLocal authenticates an email/password pair. An unknown email and
// a wrong password produce the same error and roughly the same work, so
// the caller cannot probe which emails have accounts.
func (s *Service) LoginLocal(
	ctx context.Context,
	email string,
	password string,
	deviceToken string,
) (*Token, error) {

	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	u, err := s.dir.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			_ = credentials.VerifyPassword(dummyHash, password)
			return nil, auth.ErrInvalidCredential
		}
		return nil, fmt.Errorf("%w: %v", auth.ErrDirectoryUnavailable, err)
	}

	// Accounts created from a provider claim have no hash and no
	// password login; deactivated accounts refuse the same way.
	if u.PasswordHash == "" || !u.IsActive {
		_ = credentials.VerifyPassword(dummyHash, password)
		return nil, auth.ErrInvalidCredential
	}

	if err := credentials.VerifyPassword(u.PasswordHash, password); err != nil {
		return nil, auth.ErrInvalidCredential
	}

	s.touch(ctx, u, deviceToken)

	return s.issue(u)
}

// LoginWithProvider verifies a third-party assertion and resolves it to
// a user, creating the account on a first login. An existing account
// that needs no secondary update still gets a fresh session.
func (s *Service) LoginWithProvider(
	ctx context.Context,
	p auth.Provider,
	assertion string,
	deviceToken string,
) (*Token, error) {

	verifyCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()

	claim, err := s.verifier.Verify(verifyCtx, p, assertion)
	if err != nil {
		logger.Warn("assertion verification failed", map[string]any{
			"provider": string(p),
			"error":    err.Error(),
		})
		return nil, err
	}
	claim.DeviceToken = deviceToken

	return s.LoginWithClaim(ctx, claim)
}

// LoginWithClaim resolves an already verified claim and issues a
// session. The browser OAuth flow enters here after its code exchange.
func (s *Service) LoginWithClaim(ctx context.Context, claim *auth.Claim) (*Token, error) {
	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	u, created, err := s.resolver.Resolve(ctx, claim)
	if err != nil {
		return nil, err
	}

	logger.Info("provider login resolved", map[string]any{
		"provider": string(claim.Provider),
		"user_id":  u.ID,
		"created":  created,
	})

	return s.issue(u)
}

// Register creates a password-backed account and logs it in.
func (s *Service) Register(
	ctx context.Context,
	email string,
	username string,
	password string,
) (*Token, error) {

	hash, err := credentials.HashPassword(password)
	if err != nil {
		// A policy rejection, not an authentication failure; the caller
		// chose the password and may be told what is wrong with it.
		return nil, err
	}

	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	u, err := s.dir.Create(ctx, user.NewUser{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, user.ErrUniqueViolation) {
			return nil, fmt.Errorf("%w: %v", auth.ErrAccountConflict, err)
		}
		return nil, fmt.Errorf("%w: %v", auth.ErrDirectoryUnavailable, err)
	}

	logger.Info("user registered", map[string]any{
		"user_id": u.ID,
	})

	return s.issue(u)
}

// GetProfile returns the directory record for an authenticated user.
func (s *Service) GetProfile(ctx context.Context, userID string) (*user.User, error) {
	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	u, err := s.dir.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", auth.ErrDirectoryUnavailable, err)
	}
	return u, nil
}

// UpdateProfile applies caller-editable fields and returns the updated
// record.
func (s *Service) UpdateProfile(
	ctx context.Context,
	userID string,
	p ProfileUpdate,
) (*user.User, error) {

	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	err := s.dir.Update(ctx, userID, user.Update{
		Bio:         p.Bio,
		Locale:      p.Locale,
		Timezone:    p.Timezone,
		DeviceToken: p.DeviceToken,
		PushEnabled: p.PushEnabled,
	})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", auth.ErrDirectoryUnavailable, err)
	}

	return s.GetProfile(ctx, userID)
}

func (s *Service) issue(u *user.User) (*Token, error) {
	signed, expiresAt, err := s.issuer.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Token{
		AccessToken: signed,
		ExpiresAt:   expiresAt,
	}, nil
}

// touch mirrors the resolver's best-effort login side effects for the
// local path, which never goes through the resolver.
func (s *Service) touch(ctx context.Context, u *user.User, deviceToken string) {
	now := time.Now()
	update := user.Update{LastLogin: &now}

	if deviceToken != "" && deviceToken != u.DeviceToken {
		update.DeviceToken = &deviceToken
	}

	if err := s.dir.Update(ctx, u.ID, update); err != nil {
		logger.Warn("login touch failed", map[string]any{
			"user_id": u.ID,
			"error":   err.Error(),
		})
	}
}
