package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/warebase/warebase/internal/authz"
	"github.com/warebase/warebase/internal/platform/httpx"
)

type fakeAuthRepo struct {
	users     map[string]*User
	roles     map[int64]string
	userRoles map[int64][]string
	assigned  map[int64][]int64
	suppliers map[int64][]int64
	nextID    int64
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		users:     make(map[string]*User),
		roles:     map[int64]string{1: RoleAdmin, 2: RoleClient, 3: RoleSupplier},
		userRoles: make(map[int64][]string),
		assigned:  make(map[int64][]int64),
		suppliers: make(map[int64][]int64),
	}
}

func (f *fakeAuthRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return u, nil
}

func (f *fakeAuthRepo) CreateUser(ctx context.Context, user User) (int64, error) {
	f.nextID++
	user.ID = f.nextID
	f.users[user.Email] = &user
	return user.ID, nil
}

func (f *fakeAuthRepo) RoleNames(ctx context.Context, userID int64) ([]string, error) {
	return f.userRoles[userID], nil
}

func (f *fakeAuthRepo) RoleName(ctx context.Context, roleID int64) (string, error) {
	name, ok := f.roles[roleID]
	if !ok {
		return "", httpx.ErrNotFound
	}
	return name, nil
}

func (f *fakeAuthRepo) AssignRole(ctx context.Context, userID, roleID int64) error {
	f.assigned[userID] = append(f.assigned[userID], roleID)
	f.userRoles[userID] = append(f.userRoles[userID], f.roles[roleID])
	return nil
}

func (f *fakeAuthRepo) AddSupplierUser(ctx context.Context, userID, supplierID int64) error {
	f.suppliers[userID] = append(f.suppliers[userID], supplierID)
	return nil
}

type fakeAuthzRepo struct {
	grants []authz.EffectiveGrant
}

func (f *fakeAuthzRepo) PermissionsForUserAction(ctx context.Context, userID int64, action string) ([]authz.Grant, error) {
	return nil, nil
}

func (f *fakeAuthzRepo) EffectiveGrants(ctx context.Context, userID int64) ([]authz.EffectiveGrant, error) {
	return f.grants, nil
}

func (f *fakeAuthzRepo) OwnedSupplierIDs(ctx context.Context, userID int64) ([]int64, error) {
	return nil, nil
}

func newTestService(t *testing.T, repo Repository, embedPerms bool, grants []authz.EffectiveGrant) *Service {
	t.Helper()
	authorizer := authz.NewService(&fakeAuthzRepo{grants: grants}, nil)
	tokens := NewTokenIssuer("test-secret", "warebase", "warebase-api", time.Hour)
	return NewService(repo, authorizer, tokens, embedPerms)
}

func seedUser(t *testing.T, repo *fakeAuthRepo, email, password string, roles ...string) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	repo.nextID++
	u := &User{ID: repo.nextID, Email: email, PasswordHash: string(hash)}
	repo.users[email] = u
	repo.userRoles[u.ID] = roles
	return u
}

func TestLoginSuccess(t *testing.T) {
	repo := newFakeAuthRepo()
	seedUser(t, repo, "buyer@example.com", "hunter2secret", RoleClient)
	svc := newTestService(t, repo, false, nil)

	token, err := svc.Login(context.Background(), "buyer@example.com", "hunter2secret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	ident, err := NewTokenIssuer("test-secret", "warebase", "warebase-api", time.Hour).Parse(token)
	require.NoError(t, err)
	require.Equal(t, []string{RoleClient}, ident.Roles)
	require.Empty(t, ident.Claims)
}

func TestLoginNormalizesEmail(t *testing.T) {
	repo := newFakeAuthRepo()
	seedUser(t, repo, "buyer@example.com", "hunter2secret", RoleClient)
	svc := newTestService(t, repo, false, nil)

	_, err := svc.Login(context.Background(), "  Buyer@Example.COM ", "hunter2secret")
	require.NoError(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeAuthRepo()
	seedUser(t, repo, "buyer@example.com", "hunter2secret", RoleClient)
	svc := newTestService(t, repo, false, nil)

	_, err := svc.Login(context.Background(), "buyer@example.com", "wrong")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestLoginUnknownUserSameError(t *testing.T) {
	svc := newTestService(t, newFakeAuthRepo(), false, nil)

	_, err := svc.Login(context.Background(), "ghost@example.com", "whatever")
	// Unknown user and bad password must be indistinguishable.
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestLoginEmbedsPermissionClaims(t *testing.T) {
	repo := newFakeAuthRepo()
	seedUser(t, repo, "seller@example.com", "hunter2secret", RoleSupplier)
	grants := []authz.EffectiveGrant{
		{Action: authz.ActionUpdateOrderStatus, Method: "PUT", Endpoint: "/api/orders/{id}/status", OwnOnly: true},
	}
	svc := newTestService(t, repo, true, grants)

	token, err := svc.Login(context.Background(), "seller@example.com", "hunter2secret")
	require.NoError(t, err)

	ident, err := NewTokenIssuer("test-secret", "warebase", "warebase-api", time.Hour).Parse(token)
	require.NoError(t, err)
	require.Len(t, ident.Claims, 1)
	require.Equal(t, "PUT", ident.Claims[0].Method)
	require.True(t, ident.Claims[0].OwnOnly)
}

func TestRegisterClient(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := newTestService(t, repo, false, nil)

	user, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Ada",
		Lastname: "Lovelace",
		Email:    "Ada@Example.com",
		Password: "longenoughpw",
		RoleID:   2,
	})
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", user.Email)
	require.Equal(t, []int64{2}, repo.assigned[user.ID])
	require.Empty(t, repo.suppliers[user.ID])
}

func TestRegisterSupplierAssociates(t *testing.T) {
	repo := newFakeAuthRepo()
	svc := newTestService(t, repo, false, nil)
	supplierID := int64(9)

	user, err := svc.Register(context.Background(), RegisterInput{
		Name:       "Sam",
		Lastname:   "Seller",
		Email:      "sam@example.com",
		Password:   "longenoughpw",
		RoleID:     3,
		SupplierID: &supplierID,
	})
	require.NoError(t, err)
	require.Equal(t, []int64{9}, repo.suppliers[user.ID])
}

func TestRegisterRejectsEmptyPassword(t *testing.T) {
	svc := newTestService(t, newFakeAuthRepo(), false, nil)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "x@y.z", RoleID: 2})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := newTestService(t, newFakeAuthRepo(), false, nil)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email: "x@y.z", Password: "longenoughpw", RoleID: 99,
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}
