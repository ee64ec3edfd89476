package apple

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
			name: "key fetch failure",
			in: &url.Error{
				Op:  "Get",
				URL: "https://appleid.apple.com/auth/keys",
				Err: errors.New("connection refused"),
			},
			want: auth.ErrProviderUnreachable,
		},
		{
			name: "deadline exceeded",
			in:   context.DeadlineExceeded,
			want: auth.ErrProviderUnreachable,
		},
		{
			name: "bad signature",
			in:   errors.New("failed to verify signature"),
			want: auth.ErrInvalidCredential,
		},
		{
			name: "wrong audience",
			in:   errors.New(`expected audience "com.example.app"`),
			want: auth.ErrInvalidCredential,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyVerifyError(tc.in), tc.want)
		})
	}
}

// An expired-but-well-signed token must never be mistaken for a
// provider outage: the caller retries an outage, not an expiry.
func TestClassifyVerifyErrorExpiryBeatsOutage(t *testing.T) {
	got := classifyVerifyError(&oidc.TokenExpiredError{Expiry: time.Now().Add(-time.Minute)})

	assert.ErrorIs(t, got, auth.ErrExpiredAssertion)
	assert.NotErrorIs(t, got, auth.ErrProviderUnreachable)
	assert.NotErrorIs(t, got, auth.ErrInvalidCredential)
}
