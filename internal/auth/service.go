package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/secure/precis"

	"github.com/warebase/warebase/internal/authz"
	"github.com/warebase/warebase/internal/platform/httpx"
)

const uniqueViolation = "23505"

// Service wraps authentication business rules: credential verification,
// account registration and token issuance.
type Service struct {
	repo       Repository
	authorizer *authz.Service
	tokens     *TokenIssuer
	embedPerms bool
}

// NewService constructs a new Service. When embedPerms is set, issued
// tokens carry the caller's resolved permission claims.
func NewService(repo Repository, authorizer *authz.Service, tokens *TokenIssuer, embedPerms bool) *Service {
	return &Service{
		repo:       repo,
		authorizer: authorizer,
		tokens:     tokens,
		embedPerms: embedPerms,
	}
}

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Name       string
	Lastname   string
	Email      string
	Password   string
	BirthDate  time.Time
	RoleID     int64
	SupplierID *int64
}

// Login verifies credentials and issues a signed token. Credential failures
// are reported as a validation error without revealing which field failed.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", fmt.Errorf("%w: invalid email or password", httpx.ErrValidation)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return "", fmt.Errorf("%w: invalid email or password", httpx.ErrValidation)
		}
		return "", fmt.Errorf("%w: login", httpx.ErrUnavailable)
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", fmt.Errorf("%w: invalid email or password", httpx.ErrValidation)
	}

	roles, err := s.repo.RoleNames(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("%w: resolve roles", httpx.ErrUnavailable)
	}

	var perms []authz.PermissionClaim
	if s.embedPerms {
		grants, err := s.authorizer.EffectiveGrants(ctx, user.ID)
		if err != nil {
			return "", fmt.Errorf("%w: resolve permissions", httpx.ErrUnavailable)
		}
		perms = authz.ClaimsFromGrants(grants)
	}

	return s.tokens.Issue(user, roles, perms)
}

// Register creates a user account, assigns the requested role and, for
// supplier accounts, records the supplier association the ownership
// resolver derives from.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password must not be empty", httpx.ErrValidation)
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid email", httpx.ErrValidation)
	}

	roleName, err := s.repo.RoleName(ctx, in.RoleID)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown role", httpx.ErrValidation)
		}
		return nil, fmt.Errorf("%w: resolve role", httpx.ErrUnavailable)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user := User{
		Name:         strings.TrimSpace(in.Name),
		Lastname:     strings.TrimSpace(in.Lastname),
		Email:        email,
		PasswordHash: string(hash),
		BirthDate:    in.BirthDate,
	}

	id, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: user already exists", httpx.ErrDuplicate)
		}
		return nil, fmt.Errorf("%w: create user", httpx.ErrUnavailable)
	}
	user.ID = id

	if err := s.repo.AssignRole(ctx, id, in.RoleID); err != nil {
		return nil, fmt.Errorf("%w: assign role", httpx.ErrUnavailable)
	}

	if roleName == RoleSupplier && in.SupplierID != nil {
		if err := s.repo.AddSupplierUser(ctx, id, *in.SupplierID); err != nil {
			return nil, fmt.Errorf("%w: associate supplier", httpx.ErrUnavailable)
		}
	}

	return &user, nil
}

// normalizeEmail folds case and rejects confusable or control characters in
// the identifier before it reaches the store.
func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", errors.New("auth: malformed email")
	}
	return precis.UsernameCaseMapped.String(email)
}
