package identity_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/phrazzld/keystone-api/internal/domain"
	"github.com/phrazzld/keystone-api/internal/identity"
	"github.com/phrazzld/keystone-api/internal/platform/gormstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	users   *identity.UserManager
	roles   *identity.RoleManager
	factory *identity.ClaimsFactory
}

func setup(t *testing.T, opts identity.Options) fixture {
	t.Helper()
	c, err := gormstore.OpenSecurityContext("Data Source="+filepath.Join(t.TempDir(), "security.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	_, err = c.EnsureCreated(context.Background())
	require.NoError(t, err)

	users := identity.NewUserManager(c.Users(), c.Roles(), identity.NewBcryptHasher(bcrypt.MinCost), opts, nil)
	return fixture{
		users:   users,
		roles:   identity.NewRoleManager(c.Roles(), nil),
		factory: identity.NewClaimsFactory(users),
	}
}

func mustUser(t *testing.T, name, email string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(name, email)
	require.NoError(t, err)
	return u
}

func TestPasswordValidator(t *testing.T) {
	host := identity.DefaultOptions().Password
	strict := identity.PasswordOptions{
		RequiredLength:         8,
		RequiredUniqueChars:    4,
		RequireDigit:           true,
		RequireLowercase:       true,
		RequireUppercase:       true,
		RequireNonAlphanumeric: true,
	}

	tests := []struct {
		name      string
		opts      identity.PasswordOptions
		password  string
		wantCodes []string
	}{
		{"host accepts six lowercase", host, "abcdef", nil},
		{"host accepts repeated character", host, "aaaaaa", nil},
		{"host rejects five", host, "abcde", []string{identity.CodePasswordTooShort}},
		{"host rejects empty", host, "", []string{identity.CodePasswordTooShort}},
		{"strict accepts complex", strict, "Abcd3fg!", nil},
		{
			"strict reports every failure",
			strict,
			"aaaa",
			[]string{
				identity.CodePasswordTooShort,
				identity.CodePasswordRequiresNonAlphanumeric,
				identity.CodePasswordRequiresDigit,
				identity.CodePasswordRequiresUpper,
				identity.CodePasswordRequiresUniqueChars,
			},
		},
		{"too long for bcrypt", host, string(make([]byte, 73)), []string{identity.CodePasswordTooLong}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := identity.NewPasswordValidator(tc.opts).Validate(tc.password)
			if tc.wantCodes == nil {
				assert.NoError(t, err)
				return
			}
			result, ok := identity.AsResult(err)
			require.True(t, ok, "expected *identity.Result, got %v", err)
			assert.Equal(t, tc.wantCodes, result.Codes())
		})
	}
}

func TestUserManager_Create(t *testing.T) {
	ctx := context.Background()
	f := setup(t, identity.DefaultOptions())

	alice := mustUser(t, "alice", "alice@example.com")
	require.NoError(t, f.users.Create(ctx, alice, "abcdef"))
	assert.NotEmpty(t, alice.SecurityStamp)
	assert.NotEqual(t, "abcdef", alice.PasswordHash)

	t.Run("short password", func(t *testing.T) {
		err := f.users.Create(ctx, mustUser(t, "bob", "bob@example.com"), "abcde")
		assert.True(t, identity.HasFailure(err, identity.CodePasswordTooShort))
	})

	t.Run("duplicate email", func(t *testing.T) {
		err := f.users.Create(ctx, mustUser(t, "alice2", "ALICE@example.com"), "abcdef")
		assert.True(t, identity.HasFailure(err, identity.CodeDuplicateEmail))
	})

	t.Run("duplicate user name", func(t *testing.T) {
		err := f.users.Create(ctx, mustUser(t, "Alice", "other@example.com"), "abcdef")
		assert.True(t, identity.HasFailure(err, identity.CodeDuplicateUserName))
	})

	t.Run("disallowed characters", func(t *testing.T) {
		err := f.users.Create(ctx, mustUser(t, "bad name!", "bad@example.com"), "abcdef")
		assert.True(t, identity.HasFailure(err, identity.CodeInvalidUserName))
	})

	t.Run("invalid email", func(t *testing.T) {
		err := f.users.Create(ctx, mustUser(t, "carol", "not-an-email"), "abcdef")
		assert.True(t, identity.HasFailure(err, identity.CodeInvalidEmail))
	})

	t.Run("all failures reported together", func(t *testing.T) {
		err := f.users.Create(ctx, mustUser(t, "alice", "alice@example.com"), "abc")
		result, ok := identity.AsResult(err)
		require.True(t, ok)
		assert.ElementsMatch(t,
			[]string{identity.CodeDuplicateUserName, identity.CodeDuplicateEmail, identity.CodePasswordTooShort},
			result.Codes())
	})
}

func TestUserManager_DuplicateEmailAllowedWhenNotRequired(t *testing.T) {
	ctx := context.Background()
	opts := identity.DefaultOptions()
	opts.User.RequireUniqueEmail = false
	f := setup(t, opts)

	require.NoError(t, f.users.Create(ctx, mustUser(t, "one", "shared@example.com"), "abcdef"))
	require.NoError(t, f.users.Create(ctx, mustUser(t, "two", "shared@example.com"), "abcdef"))
}

func TestUserManager_AuthenticateAndChangePassword(t *testing.T) {
	ctx := context.Background()
	f := setup(t, identity.DefaultOptions())

	u := mustUser(t, "dave", "dave@example.com")
	require.NoError(t, f.users.Create(ctx, u, "abcdef"))

	got, err := f.users.Authenticate(ctx, "DAVE", "abcdef")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = f.users.Authenticate(ctx, "dave@example.com", "abcdef")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = f.users.Authenticate(ctx, "dave", "wrong!")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	_, err = f.users.Authenticate(ctx, "nobody", "abcdef")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	stamp := got.SecurityStamp
	err = f.users.ChangePassword(ctx, got, "wrong!", "ghijkl")
	assert.True(t, identity.HasFailure(err, identity.CodePasswordMismatch))

	require.NoError(t, f.users.ChangePassword(ctx, got, "abcdef", "ghijkl"))
	assert.NotEqual(t, stamp, got.SecurityStamp)

	_, err = f.users.Authenticate(ctx, "dave", "ghijkl")
	assert.NoError(t, err)
}

func TestUserManager_RolesRotateStamp(t *testing.T) {
	ctx := context.Background()
	f := setup(t, identity.DefaultOptions())

	_, err := f.roles.Create(ctx, "admin")
	require.NoError(t, err)
	_, err = f.roles.Create(ctx, "Admin")
	assert.True(t, identity.HasFailure(err, identity.CodeDuplicateRoleName))

	u := mustUser(t, "erin", "erin@example.com")
	require.NoError(t, f.users.Create(ctx, u, "abcdef"))
	stamp := u.SecurityStamp

	require.NoError(t, f.users.AddToRole(ctx, u, "ADMIN"))
	assert.NotEqual(t, stamp, u.SecurityStamp)

	in, err := f.users.IsInRole(ctx, u, "admin")
	require.NoError(t, err)
	assert.True(t, in)

	err = f.users.AddToRole(ctx, u, "admin")
	assert.True(t, identity.HasFailure(err, identity.CodeUserAlreadyInRole))

	err = f.users.AddToRole(ctx, u, "missing")
	assert.ErrorIs(t, err, identity.ErrRoleNotFound)

	require.NoError(t, f.users.RemoveFromRole(ctx, u, "admin"))
	err = f.users.RemoveFromRole(ctx, u, "admin")
	assert.True(t, identity.HasFailure(err, identity.CodeUserNotInRole))

	exists, err := f.roles.Exists(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = f.roles.Exists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestClaimsFactory(t *testing.T) {
	ctx := context.Background()
	f := setup(t, identity.DefaultOptions())

	_, err := f.roles.Create(ctx, "user")
	require.NoError(t, err)
	u := mustUser(t, "frank", "frank@example.com")
	require.NoError(t, f.users.Create(ctx, u, "abcdef"))
	require.NoError(t, f.users.AddToRole(ctx, u, "user"))
	require.NoError(t, f.users.AddClaim(ctx, u, domain.UserClaim{Type: "department", Value: "ops"}))

	p, err := f.factory.PrincipalForUserName(ctx, "FRANK", "Bearer")
	require.NoError(t, err)

	assert.True(t, p.IsAuthenticated())
	assert.Equal(t, u.ID, p.UserID)
	assert.Equal(t, []string{"user"}, p.Roles)
	assert.True(t, p.IsInRole("USER"))
	assert.False(t, p.IsInRole("admin"))
	assert.Equal(t, u.ID.String(), p.FindFirst(identity.ClaimNameIdentifier))
	assert.Equal(t, "frank", p.FindFirst(identity.ClaimName))
	assert.Equal(t, "frank@example.com", p.FindFirst(identity.ClaimEmail))
	assert.Equal(t, u.SecurityStamp, p.FindFirst(identity.ClaimSecurityStamp))
	assert.Equal(t, "ops", p.FindFirst("department"))
	assert.Contains(t, p.Claims, identity.Claim{Type: identity.ClaimRole, Value: "user"})

	_, err = f.factory.PrincipalForUserName(ctx, "", "Bearer")
	assert.ErrorIs(t, err, identity.ErrUserNotFound)
	_, err = f.factory.PrincipalForUserName(ctx, "ghost", "Bearer")
	assert.ErrorIs(t, err, identity.ErrUserNotFound)
}

func TestUserManager_CreateInRoles(t *testing.T) {
	ctx := context.Background()
	f := setup(t, identity.DefaultOptions())

	_, err := f.roles.Create(ctx, "user")
	require.NoError(t, err)

	u := mustUser(t, "judy", "judy@example.com")
	require.NoError(t, f.users.Create(ctx, u, "abcdef", "user"))

	roles, err := f.users.GetRoles(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, []string{"user"}, roles)

	t.Run("unknown role writes nothing", func(t *testing.T) {
		err := f.users.Create(ctx, mustUser(t, "kate", "kate@example.com"), "abcdef", "user", "missing")
		assert.ErrorIs(t, err, identity.ErrRoleNotFound)

		_, err = f.users.FindByName(ctx, "kate")
		assert.ErrorIs(t, err, identity.ErrUserNotFound)
	})
}
