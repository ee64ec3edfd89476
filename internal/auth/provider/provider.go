package provider

import (
	"context"
	"fmt"

	"identity-service/internal/auth"
)

// AssertionVerifier verifies one provider's signed assertion and returns
// a normalized claim. Implementations return identity facts only and
// must not perform user creation, linking, or session management.
type AssertionVerifier interface {
	VerifyAssertion(ctx context.Context, assertion string) (*auth.Claim, error)
}

// Verifier dispatches assertion verification over the closed provider
// set. There is no runtime registration; an unhandled provider is a
// programming error surfaced as such.
type Verifier struct {
	apple  AssertionVerifier
	google AssertionVerifier
}

func NewVerifier(apple, google AssertionVerifier) *Verifier {
	return &Verifier{
		apple:  apple,
		google: google,
	}
}

func (v *Verifier) Verify(
	ctx context.Context,
	p auth.Provider,
	assertion string,
) (*auth.Claim, error) {
	switch p {
	case auth.ProviderApple:
		return v.apple.VerifyAssertion(ctx, assertion)
	case auth.ProviderGoogle:
		return v.google.VerifyAssertion(ctx, assertion)
	case auth.ProviderLocal:
		return nil, fmt.Errorf("local credentials carry no assertion")
	default:
		return nil, fmt.Errorf("unknown provider: %s", p)
	}
}
