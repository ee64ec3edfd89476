package dirfake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identity-service/internal/user"
)

// The Postgres directory only writes an identity row when both the
// provider and the subject are set, so two accounts without a provider
// subject never collide on the identity constraint.
func TestCreateWithoutProviderSubjectDoesNotCollide(t *testing.T) {
	d := New()

	first, err := d.Create(context.Background(), user.NewUser{
		Email:    "a@x.com",
		Username: "alice",
		Provider: "apple",
	})
	require.NoError(t, err)
	assert.Empty(t, first.ProviderIDs)

	_, err = d.Create(context.Background(), user.NewUser{
		Email:    "b@x.com",
		Username: "bob",
		Provider: "apple",
	})
	assert.NoError(t, err)
}

func TestFindByProviderIDIgnoresEmptySubject(t *testing.T) {
	d := New()
	d.Add(user.User{Email: "a@x.com", Username: "alice"})

	_, err := d.FindByProviderID(context.Background(), "apple", "")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestCreateEnforcesEmailAndUsernameUniqueness(t *testing.T) {
	d := New()
	d.Add(user.User{Email: "a@x.com", Username: "alice"})

	_, err := d.Create(context.Background(), user.NewUser{
		Email:    "A@X.COM",
		Username: "other",
	})
	assert.ErrorIs(t, err, user.ErrUniqueViolation)

	_, err = d.Create(context.Background(), user.NewUser{
		Email:    "b@x.com",
		Username: "ALICE",
	})
	assert.ErrorIs(t, err, user.ErrUniqueViolation)
}
