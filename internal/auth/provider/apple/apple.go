package apple

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"identity-service/internal/auth"
	"identity-service/internal/logger"

	"github.com/coreos/go-oidc/v3/oidc"
)

const issuerURL = "https://appleid.apple.com"

// Verifier validates Sign in with Apple identity tokens. The client
// obtains the token on-device and posts it to us; no code exchange
// happens server-side.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// New initializes the Apple verifier using OIDC discovery. clientID is
// the registered bundle identifier the token audience must equal.
func New(ctx context.Context, clientID string) (*Verifier, error) {
	if clientID == "" {
		return nil, errors.New("apple client id missing")
	}

	oidcProvider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to init apple oidc provider: %w", err)
	}

	return &Verifier{
		verifier: oidcProvider.Verifier(&oidc.Config{
			ClientID: clientID,
		}),
	}, nil
}

func (v *Verifier) VerifyAssertion(
	ctx context.Context,
	assertion string,
) (*auth.Claim, error) {

	idToken, err := v.verifier.Verify(ctx, assertion)
	if err != nil {
		return nil, classifyVerifyError(err)
	}

	var claims struct {
		Subject string `json:"sub"`
		Email   string `json:"email"`
	}

	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: apple claims parse: %v", auth.ErrInvalidCredential, err)
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: apple token missing required claims", auth.ErrInvalidCredential)
	}

	logger.Info("apple identity token verified", map[string]any{
		"issuer":      idToken.Issuer,
		"audience":    idToken.Audience,
		"expiry_unix": idToken.Expiry.Unix(),
	})

	// Email may be a private relay address; the directory treats it
	// like any other email.
	return &auth.Claim{
		Provider: auth.ProviderApple,
		Subject:  claims.Subject,
		Email:    claims.Email,
	}, nil
}

// classifyVerifyError separates "the token is bad" from "we could not
// reach Apple's signing keys". Only the latter may be reported as a
// provider outage.
func classifyVerifyError(err error) error {
	var expired *oidc.TokenExpiredError
	if errors.As(err, &expired) {
		return fmt.Errorf("%w: %v", auth.ErrExpiredAssertion, err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", auth.ErrProviderUnreachable, err)
	}

	return fmt.Errorf("%w: %v", auth.ErrInvalidCredential, err)
}
