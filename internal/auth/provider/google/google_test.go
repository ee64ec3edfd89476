package google

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/stretchr/testify/assert"

	"identity-service/internal/auth"
)

func TestClassifyVerifyError(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{
			name: "expired token",
			in:   &oidc.TokenExpiredError{Expiry: time.Now().Add(-time.Hour)},
			want: auth.ErrExpiredAssertion,
		},
		{
			name: "wrapped expired token",
			in:   fmt.Errorf("verify: %w", &oidc.TokenExpiredError{}),
			want: auth.ErrExpiredAssertion,
		},
		{
			name: "jwks fetch failure",
			in: &url.Error{
				Op:  "Get",
				URL: "https://www.googleapis.com/oauth2/v3/certs",
				Err: errors.New("dial tcp: i/o timeout"),
			},
			want: auth.ErrProviderUnreachable,
		},
		{
			name: "deadline exceeded",
			in:   context.DeadlineExceeded,
			want: auth.ErrProviderUnreachable,
		},
		{
			name: "malformed token",
			in:   errors.New("malformed jwt: oidc: malformed jwt payload"),
			want: auth.ErrInvalidCredential,
		},
		{
			name: "wrong issuer",
			in:   errors.New(`id token issued by a different provider`),
			want: auth.ErrInvalidCredential,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyVerifyError(tc.in), tc.want)
		})
	}
}
