package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/warebase/warebase/internal/authz"
)

// ErrInvalidToken indicates a missing, expired or otherwise unusable token.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenClaims is the JWT payload carried by issued tokens. Permissions is
// only populated in claims mode, each entry in the encoded
// "METHOD:/pattern:ownOnly" form.
type TokenClaims struct {
	jwt.RegisteredClaims
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"perms,omitempty"`
}

// TokenIssuer signs and parses bearer tokens.
type TokenIssuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

// NewTokenIssuer constructs a TokenIssuer.
func NewTokenIssuer(secret, issuer, audience string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
	}
}

// Issue signs a token for the user. Permission claims are embedded as-is;
// revocation of permission changes therefore waits for token expiry.
func (t *TokenIssuer) Issue(user *User, roles []string, perms []authz.PermissionClaim) (string, error) {
	now := time.Now().UTC()
	encoded := make([]string, 0, len(perms))
	for _, p := range perms {
		encoded = append(encoded, p.Encode())
	}

	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Email:       user.Email,
		Roles:       roles,
		Permissions: encoded,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a signed token and returns the caller identity.
func (t *TokenIssuer) Parse(raw string) (authz.Identity, error) {
	var claims TokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return authz.Identity{}, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return authz.Identity{}, ErrInvalidToken
	}

	return authz.Identity{
		UserID: userID,
		Email:  claims.Email,
		Roles:  claims.Roles,
		Claims: authz.DecodeClaims(claims.Permissions),
	}, nil
}
