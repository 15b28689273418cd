package authz

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClaimEncodeDecodeRoundTrip(t *testing.T) {
	c := PermissionClaim{Method: "GET", Pattern: "/api/orders/{id}", OwnOnly: true}

	decoded, err := DecodeClaim(c.Encode())
	require.NoError(t, err)
	require.Equal(t, c, decoded)
}

func TestDecodeClaimMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"GET",
		"GET:/api/orders",
		":/api/orders:true",
		"GET::true",
		"GET:/api/orders:maybe",
	} {
		_, err := DecodeClaim(raw)
		require.Error(t, err, "input %q", raw)
	}
}

func TestDecodeClaimsSkipsMalformed(t *testing.T) {
	claims := DecodeClaims([]string{
		"GET:/api/orders:false",
		"broken",
		"delete:/api/suppliers/{id}:true",
	})
	require.Len(t, claims, 2)
	require.Equal(t, "GET", claims[0].Method)
	require.Equal(t, "DELETE", claims[1].Method)
}

func TestMatchPattern(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/api/orders", "/api/orders", true},
		{"/api/orders", "/api/orders/", true},
		{"/api/orders/{id}", "/api/orders/42", true},
		{"/api/orders/{id}", "/api/orders", false},
		{"/api/orders/{id}", "/api/orders/42/items", false},
		{"/api/orders/{id}/status", "/api/orders/42/status", true},
		{"/api/orders/{id}/status", "/api/orders/42/cancel", false},
		{"/api/{entity}/{id}", "/api/products/9", true},
		{"/api/orders", "/api/products", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, MatchPattern(tc.pattern, tc.path),
			"pattern %q path %q", tc.pattern, tc.path)
	}
}

func TestMatchDecision(t *testing.T) {
	claims := []PermissionClaim{
		{Method: "GET", Pattern: "/api/orders/{id}", OwnOnly: true},
		{Method: "POST", Pattern: "/api/orders/{id}/cancel", OwnOnly: true},
		{Method: "GET", Pattern: "/api/orders/{id}", OwnOnly: false},
	}

	d := Match(claims, http.MethodGet, "/api/orders/7")
	require.True(t, d.Granted)
	// Two claims match GET; the unrestricted one wins.
	require.False(t, d.OwnOnly)

	d = Match(claims, http.MethodPost, "/api/orders/7/cancel")
	require.True(t, d.Granted)
	require.True(t, d.OwnOnly)

	d = Match(claims, http.MethodDelete, "/api/orders/7")
	require.False(t, d.Granted)
	require.False(t, d.OwnOnly)
}

func TestClaimsFromGrants(t *testing.T) {
	claims := ClaimsFromGrants([]EffectiveGrant{
		{Action: ActionCancelOrder, Method: "post", Endpoint: "/api/orders/{id}/cancel", OwnOnly: true},
		{Action: "NoRoute", Method: "", Endpoint: ""},
	})
	require.Len(t, claims, 1)
	require.Equal(t, "POST", claims[0].Method)
	require.Equal(t, "/api/orders/{id}/cancel", claims[0].Pattern)
	require.True(t, claims[0].OwnOnly)
}

func TestManagementGrantsCoverGuardedRoutes(t *testing.T) {
	// A management grant guards a whole route group, so its token claims
	// must cover every route the database-mode guard would allow.
	claims := ClaimsFromGrants([]EffectiveGrant{
		{Action: ActionManageUsers, Method: "PUT", Endpoint: "/api/users/{id}/roles"},
		{Action: ActionManageProducts, Method: "POST", Endpoint: "/api/products"},
	})

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/users"},
		{http.MethodGet, "/api/users/7"},
		{http.MethodPut, "/api/users/7/roles"},
		{http.MethodGet, "/api/roles"},
		{http.MethodPut, "/api/roles/2/permissions"},
		{http.MethodPost, "/api/products"},
		{http.MethodPut, "/api/products/9"},
		{http.MethodDelete, "/api/products/9"},
		{http.MethodPost, "/api/suppliers"},
	} {
		require.True(t, Match(claims, tc.method, tc.path).Granted,
			"%s %s should be granted", tc.method, tc.path)
	}

	// Routes outside the guarded groups stay denied.
	require.False(t, Match(claims, http.MethodDelete, "/api/suppliers/5").Granted)
	require.False(t, Match(claims, http.MethodPost, "/api/orders").Granted)
}
