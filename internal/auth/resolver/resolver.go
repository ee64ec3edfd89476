package resolver

import (
	"context"

	"identity-service/internal/auth"
	"identity-service/internal/user"
)

// Resolver determines which directory user a verified claim belongs to,
// creating the account on a first login. It is the ONLY place where
// claim-to-user mapping logic lives. The returned flag reports whether
// the account was created by this call; it exists for audit only.
type Resolver interface {
	Resolve(
		ctx context.Context,
		claim *auth.Claim,
	) (u *user.User, created bool, err error)
}
