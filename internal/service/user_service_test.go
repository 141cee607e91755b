package service

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/domain"
	apperrors "github.com/spec-kit/task-service/pkg/util"
)

type userFixture struct {
	svc   *UserService
	users *fakeUserRepo
	roles *fakeRoleRepo
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	users := newFakeUserRepo()
	roles := newFakeRoleRepo()
	return &userFixture{
		svc:   NewUserService(users, roles, zap.NewNop(), bcrypt.MinCost),
		users: users,
		roles: roles,
	}
}

func (f *userFixture) seedRole(t *testing.T, name string) *domain.Role {
	t.Helper()
	role := &domain.Role{Name: name}
	if err := f.roles.Create(context.Background(), role); err != nil {
		t.Fatalf("seed role: %v", err)
	}
	return role
}

func (f *userFixture) seedUser(t *testing.T, email string, role *domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{
		Name:     "Seeded",
		Email:    email,
		RoleID:   role.ID,
		RoleName: role.Name,
		IsActive: true,
	}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestUserCreate(t *testing.T) {
	f := newUserFixture(t)
	role := f.seedRole(t, domain.RoleDeveloper)
	f.seedUser(t, "taken@x.com", role)

	tests := []struct {
		name     string
		identity domain.Identity
		input    UserCreateInput
		wantCode string
	}{
		{"non-admin forbidden", devIdentity, UserCreateInput{Email: "n@x.com", RoleID: role.ID}, "FORBIDDEN"},
		{"duplicate email", adminIdentity, UserCreateInput{Email: "taken@x.com", RoleID: role.ID}, "CONFLICT"},
		{"unknown role id", adminIdentity, UserCreateInput{Email: "n@x.com", RoleID: "missing"}, "VALIDATION_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.identity, tt.input)
			de := apperrors.ToDomainError(err)
			if de == nil || de.Code != tt.wantCode {
				t.Errorf("Create() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}

	user, err := f.svc.Create(context.Background(), adminIdentity, UserCreateInput{
		Name:     "New",
		Email:    "new@x.com",
		Password: "secret1",
		RoleID:   role.ID,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.RoleName != domain.RoleDeveloper || !user.IsActive {
		t.Errorf("created user = %+v, want active developer", user)
	}
	if err := auth.ComparePassword(user.PasswordHash, "secret1"); err != nil {
		t.Error("stored password hash does not verify")
	}
}

func TestUserGetOwnership(t *testing.T) {
	f := newUserFixture(t)
	role := f.seedRole(t, domain.RoleDeveloper)
	me := f.seedUser(t, "me@x.com", role)
	other := f.seedUser(t, "other@x.com", role)

	self := domain.Identity{Subject: me.ID, Email: me.Email, Role: me.RoleName}
	if _, err := f.svc.Get(context.Background(), self, me.ID); err != nil {
		t.Errorf("Get() own record error = %v", err)
	}
	if _, err := f.svc.Get(context.Background(), adminIdentity, other.ID); err != nil {
		t.Errorf("Get() as admin error = %v", err)
	}

	_, err := f.svc.Get(context.Background(), self, other.ID)
	de := apperrors.ToDomainError(err)
	if de == nil || de.Code != "FORBIDDEN" {
		t.Errorf("Get() foreign record error = %v, want FORBIDDEN", err)
	}
}

func TestUserUpdate(t *testing.T) {
	f := newUserFixture(t)
	devRole := f.seedRole(t, domain.RoleDeveloper)
	mgrRole := f.seedRole(t, domain.RoleManager)
	target := f.seedUser(t, "target@x.com", devRole)

	name := "Renamed"
	password := "newsecret"
	updated, err := f.svc.Update(context.Background(), adminIdentity, target.ID, UserUpdateInput{
		Name:     &name,
		Password: &password,
		RoleID:   &mgrRole.ID,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "Renamed" || updated.RoleName != domain.RoleManager {
		t.Errorf("updated user = %+v, want renamed manager", updated)
	}
	if err := auth.ComparePassword(updated.PasswordHash, "newsecret"); err != nil {
		t.Error("new password hash does not verify")
	}

	// A non-admin may only touch their own record.
	_, err = f.svc.Update(context.Background(), devIdentity, target.ID, UserUpdateInput{Name: &name})
	de := apperrors.ToDomainError(err)
	if de == nil || de.Code != "FORBIDDEN" {
		t.Errorf("Update() foreign record error = %v, want FORBIDDEN", err)
	}

	badRole := "missing"
	_, err = f.svc.Update(context.Background(), adminIdentity, target.ID, UserUpdateInput{RoleID: &badRole})
	de = apperrors.ToDomainError(err)
	if de == nil || de.Code != "VALIDATION_FAILED" {
		t.Errorf("Update() unknown role error = %v, want VALIDATION_FAILED", err)
	}
}

func TestUserListAndDelete(t *testing.T) {
	f := newUserFixture(t)
	role := f.seedRole(t, domain.RoleDeveloper)
	target := f.seedUser(t, "target@x.com", role)

	if _, err := f.svc.List(context.Background(), devIdentity); apperrors.ToDomainError(err).Code != "FORBIDDEN" {
		t.Errorf("List() as developer error = %v, want FORBIDDEN", err)
	}
	users, err := f.svc.List(context.Background(), adminIdentity)
	if err != nil || len(users) != 1 {
		t.Errorf("List() = %d users, err %v; want 1, nil", len(users), err)
	}

	if err := f.svc.Delete(context.Background(), devIdentity, target.ID); apperrors.ToDomainError(err).Code != "FORBIDDEN" {
		t.Errorf("Delete() as developer error = %v, want FORBIDDEN", err)
	}
	if err := f.svc.Delete(context.Background(), adminIdentity, target.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := f.svc.Delete(context.Background(), adminIdentity, target.ID); apperrors.ToDomainError(err).Code != "NOT_FOUND" {
		t.Errorf("Delete() missing user error = %v, want NOT_FOUND", err)
	}
}

func TestRoleServiceCRUD(t *testing.T) {
	roles := newFakeRoleRepo()
	svc := NewRoleService(roles, zap.NewNop())
	ctx := context.Background()

	role, err := svc.Create(ctx, adminIdentity, "Auditor", "read-only reviewer")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := svc.Create(ctx, adminIdentity, "Auditor", ""); apperrors.ToDomainError(err).Code != "CONFLICT" {
		t.Errorf("duplicate Create() error = %v, want CONFLICT", err)
	}
	if _, err := svc.Create(ctx, devIdentity, "Hacker", ""); apperrors.ToDomainError(err).Code != "FORBIDDEN" {
		t.Errorf("Create() as developer error = %v, want FORBIDDEN", err)
	}

	name := "Reviewer"
	updated, err := svc.Update(ctx, adminIdentity, role.ID, &name, nil)
	if err != nil || updated.Name != "Reviewer" {
		t.Errorf("Update() = %+v, err %v; want renamed role", updated, err)
	}

	if err := svc.Delete(ctx, adminIdentity, role.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(ctx, role.ID); apperrors.ToDomainError(err).Code != "NOT_FOUND" {
		t.Errorf("Get() after delete error = %v, want NOT_FOUND", err)
	}
}
