package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identity-service/internal/auth"
)

type stubVerifier struct {
	claim *auth.Claim
}

func (s *stubVerifier) VerifyAssertion(context.Context, string) (*auth.Claim, error) {
	return s.claim, nil
}

func TestVerifierDispatch(t *testing.T) {
	appleClaim := &auth.Claim{Provider: auth.ProviderApple, Subject: "a"}
	googleClaim := &auth.Claim{Provider: auth.ProviderGoogle, Subject: "g"}

	v := NewVerifier(&stubVerifier{claim: appleClaim}, &stubVerifier{claim: googleClaim})

	got, err := v.Verify(context.Background(), auth.ProviderApple, "raw")
	require.NoError(t, err)
	assert.Equal(t, appleClaim, got)

	got, err = v.Verify(context.Background(), auth.ProviderGoogle, "raw")
	require.NoError(t, err)
	assert.Equal(t, googleClaim, got)
}

func TestVerifierRejectsNonAssertionProviders(t *testing.T) {
	v := NewVerifier(&stubVerifier{}, &stubVerifier{})

	_, err := v.Verify(context.Background(), auth.ProviderLocal, "raw")
	assert.Error(t, err)

	_, err = v.Verify(context.Background(), "github", "raw")
	assert.Error(t, err)
}
