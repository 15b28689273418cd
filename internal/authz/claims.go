package authz

import (
	"fmt"
	"strconv"
	"strings"
)

// PermissionClaim is a permission embedded into a token, encoded as
// "METHOD:/endpoint/pattern:ownOnly". Pattern segments wrapped in braces
// match any single path segment.
type PermissionClaim struct {
	Method  string
	Pattern string
	OwnOnly bool
}

// Encode renders the claim in its wire form.
func (c PermissionClaim) Encode() string {
	return c.Method + ":" + c.Pattern + ":" + strconv.FormatBool(c.OwnOnly)
}

// DecodeClaim parses the wire form of a permission claim.
func DecodeClaim(raw string) (PermissionClaim, error) {
	first := strings.Index(raw, ":")
	last := strings.LastIndex(raw, ":")
	if first < 0 || first == last {
		return PermissionClaim{}, fmt.Errorf("authz: malformed permission claim %q", raw)
	}

	method := raw[:first]
	pattern := raw[first+1 : last]
	if method == "" || pattern == "" {
		return PermissionClaim{}, fmt.Errorf("authz: malformed permission claim %q", raw)
	}
	ownOnly, err := strconv.ParseBool(raw[last+1:])
	if err != nil {
		return PermissionClaim{}, fmt.Errorf("authz: malformed permission claim %q: %w", raw, err)
	}

	return PermissionClaim{
		Method:  strings.ToUpper(method),
		Pattern: pattern,
		OwnOnly: ownOnly,
	}, nil
}

// DecodeClaims parses a list of encoded claims, skipping malformed entries.
// A malformed claim grants nothing, so dropping it is the fail-closed choice.
func DecodeClaims(raw []string) []PermissionClaim {
	claims := make([]PermissionClaim, 0, len(raw))
	for _, r := range raw {
		c, err := DecodeClaim(r)
		if err != nil {
			continue
		}
		claims = append(claims, c)
	}
	return claims
}

// MatchPattern reports whether path matches the endpoint pattern. Both are
// split on '/'; literal segments must match exactly while "{name}" segments
// match exactly one non-empty segment. No regex translation is involved, so
// a malformed pattern cannot change matching semantics.
func MatchPattern(pattern, path string) bool {
	patSegs := splitPath(pattern)
	pathSegs := splitPath(path)
	if len(patSegs) != len(pathSegs) {
		return false
	}
	for i, ps := range patSegs {
		if len(ps) >= 2 && strings.HasPrefix(ps, "{") && strings.HasSuffix(ps, "}") {
			if pathSegs[i] == "" {
				return false
			}
			continue
		}
		if ps != pathSegs[i] {
			return false
		}
	}
	return true
}

// Match resolves a request (method, path) against a claim set. The decision
// mirrors the database resolution: granted when any claim matches, own-only
// when every matching claim is own-only, and false for a vacuous match.
func Match(claims []PermissionClaim, method, path string) Decision {
	method = strings.ToUpper(method)
	granted := false
	ownOnly := true
	for _, c := range claims {
		if c.Method != method || !MatchPattern(c.Pattern, path) {
			continue
		}
		granted = true
		if !c.OwnOnly {
			ownOnly = false
		}
	}
	if !granted {
		return Decision{}
	}
	return Decision{Granted: true, OwnOnly: ownOnly}
}

// managementRoutes lists every route a management grant unlocks at the
// router level. These actions guard whole route groups, so a token claim
// per guarded route is required for claims-mode decisions to agree with
// database-mode decisions. Actions resolved inside services keep their
// single canonical route from the permission row.
var managementRoutes = map[string][]PermissionClaim{
	ActionManageUsers: {
		{Method: "GET", Pattern: "/api/users"},
		{Method: "GET", Pattern: "/api/users/{id}"},
		{Method: "PUT", Pattern: "/api/users/{id}"},
		{Method: "DELETE", Pattern: "/api/users/{id}"},
		{Method: "PUT", Pattern: "/api/users/{id}/roles"},
		{Method: "GET", Pattern: "/api/roles"},
		{Method: "POST", Pattern: "/api/roles"},
		{Method: "GET", Pattern: "/api/roles/permissions"},
		{Method: "GET", Pattern: "/api/roles/{id}"},
		{Method: "PUT", Pattern: "/api/roles/{id}"},
		{Method: "DELETE", Pattern: "/api/roles/{id}"},
		{Method: "PUT", Pattern: "/api/roles/{id}/permissions"},
	},
	ActionManageProducts: {
		{Method: "POST", Pattern: "/api/products"},
		{Method: "PUT", Pattern: "/api/products/{id}"},
		{Method: "DELETE", Pattern: "/api/products/{id}"},
		{Method: "POST", Pattern: "/api/suppliers"},
	},
}

// ClaimsFromGrants converts resolved grants into token claims. Management
// grants expand to one claim per guarded route; other grants carry the
// method and endpoint stored on the permission row.
func ClaimsFromGrants(grants []EffectiveGrant) []PermissionClaim {
	claims := make([]PermissionClaim, 0, len(grants))
	for _, g := range grants {
		if routes, ok := managementRoutes[g.Action]; ok {
			for _, rt := range routes {
				claims = append(claims, PermissionClaim{
					Method:  rt.Method,
					Pattern: rt.Pattern,
					OwnOnly: g.OwnOnly,
				})
			}
			continue
		}
		if g.Method == "" || g.Endpoint == "" {
			continue
		}
		claims = append(claims, PermissionClaim{
			Method:  strings.ToUpper(g.Method),
			Pattern: g.Endpoint,
			OwnOnly: g.OwnOnly,
		})
	}
	return claims
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}
