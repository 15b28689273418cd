package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/warebase/warebase/internal/authz"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", "warebase", "warebase-api", time.Hour)
	user := &User{ID: 42, Email: "buyer@example.com"}
	perms := []authz.PermissionClaim{
		{Method: "POST", Pattern: "/api/orders/{id}/cancel", OwnOnly: true},
	}

	signed, err := issuer.Issue(user, []string{RoleClient}, perms)
	require.NoError(t, err)

	ident, err := issuer.Parse(signed)
	require.NoError(t, err)
	require.Equal(t, int64(42), ident.UserID)
	require.Equal(t, "buyer@example.com", ident.Email)
	require.Equal(t, []string{RoleClient}, ident.Roles)
	require.Equal(t, perms, ident.Claims)
}

func TestTokenParseRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", "warebase", "warebase-api", time.Hour)
	other := NewTokenIssuer("secret-b", "warebase", "warebase-api", time.Hour)

	signed, err := issuer.Issue(&User{ID: 1, Email: "a@b.c"}, nil, nil)
	require.NoError(t, err)

	_, err = other.Parse(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenParseRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", "warebase", "warebase-api", -time.Minute)

	signed, err := issuer.Issue(&User{ID: 1, Email: "a@b.c"}, nil, nil)
	require.NoError(t, err)

	_, err = issuer.Parse(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenParseRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("secret", "warebase", "warebase-api", time.Hour)

	_, err := issuer.Parse("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
