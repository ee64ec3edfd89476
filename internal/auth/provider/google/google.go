package google

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"identity-service/internal/auth"
	"identity-service/internal/logger"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const issuerURL = "https://accounts.google.com"

// Verifier validates Google ID tokens. Mobile clients post the token
// directly; the browser flow obtains one through ExchangeCode first.
// Both paths converge on the same verification.
type Verifier struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
}

func New(
	ctx context.Context,
	clientID string,
	clientSecret string,
	redirectURL string,
) (*Verifier, error) {

	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("google oauth config missing required fields")
	}

	oidcProvider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to init google oidc provider: %w", err)
	}

	verifier := oidcProvider.Verifier(&oidc.Config{
		ClientID: clientID,
	})

	oauthCfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     oidcProvider.Endpoint(),
		Scopes: []string{
			oidc.ScopeOpenID,
			"profile",
			"email",
		},
	}

	return &Verifier{
		oauthConfig: oauthCfg,
		verifier:    verifier,
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
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}

	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: google claims parse: %v", auth.ErrInvalidCredential, err)
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: google token missing required claims", auth.ErrInvalidCredential)
	}

	logger.Info("google identity token verified", map[string]any{
		"issuer":      idToken.Issuer,
		"audience":    idToken.Audience,
		"expiry_unix": idToken.Expiry.Unix(),
	})

	return &auth.Claim{
		Provider: auth.ProviderGoogle,
		Subject:  claims.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
		Picture:  claims.Picture,
	}, nil
}

// AuthCodeURL builds the browser authorization URL with PKCE parameters.
func (v *Verifier) AuthCodeURL(state string, codeChallenge string) string {
	return v.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// ExchangeCode exchanges the authorization code for an ID token and
// verifies it the same way the direct path does.
func (v *Verifier) ExchangeCode(
	ctx context.Context,
	code string,
	codeVerifier string,
) (*auth.Claim, error) {

	token, err := v.oauthConfig.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: google token exchange: %v", auth.ErrProviderUnreachable, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%w: google did not return id_token", auth.ErrInvalidCredential)
	}

	return v.VerifyAssertion(ctx, rawIDToken)
}

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
