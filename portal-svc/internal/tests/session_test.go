package tests

import (
	"context"
	"testing"
	"time"

	"manjok-portal/portal-svc/internal/domain"
	"manjok-portal/portal-svc/internal/session"
	"manjok-portal/portal-svc/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, subject string, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: subject}
	if !expiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestResolveRole(t *testing.T) {
	tests := []struct {
		path     string
		expected domain.Role
		found    bool
	}{
		{path: "/view/client", expected: domain.RoleClient, found: true},
		{path: "/view/owner/login", expected: domain.RoleOwner, found: true},
		{path: "/view/admin/tabs/users", expected: domain.RoleAdmin, found: true},
		{path: "/view/client/owner", expected: domain.RoleClient, found: true},
		{path: "/view/unknown", found: false},
		{path: "/", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			role, ok := session.ResolveRole(tt.path)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, role)
		})
	}
}

func TestStore_RequireSession(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		stored        func(t *testing.T) string
		expectedLogin bool
		expectedToken bool
	}{
		{
			name:          "no token",
			stored:        func(t *testing.T) string { return "" },
			expectedLogin: true,
		},
		{
			name:          "valid jwt",
			stored:        func(t *testing.T) string { return signedToken(t, "user-1", now.Add(time.Hour)) },
			expectedToken: true,
		},
		{
			name:          "expired jwt",
			stored:        func(t *testing.T) string { return signedToken(t, "user-1", now.Add(-time.Minute)) },
			expectedLogin: true,
		},
		{
			name:          "opaque token",
			stored:        func(t *testing.T) string { return "opaque-session-token" },
			expectedToken: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := storage.NewMemoryStore(0)
			store := session.NewStore(local, zerolog.Nop()).WithClock(func() time.Time { return now })

			if token := tt.stored(t); token != "" {
				require.NoError(t, store.SetToken(ctx, domain.RoleClient, token))
			}

			token, err := store.RequireSession(ctx, domain.RoleClient)
			if tt.expectedLogin {
				var loginErr *session.LoginRequiredError
				require.ErrorAs(t, err, &loginErr)
				assert.Equal(t, "/view/client/login", loginErr.LoginPath)
				_, ok, _ := local.Get(ctx, domain.RoleClient.TokenKey())
				assert.False(t, ok, "expired or missing token must not remain stored")
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, token)
		})
	}
}

func TestStore_TokensAreIsolatedPerRole(t *testing.T) {
	ctx := context.Background()
	store := session.NewStore(storage.NewMemoryStore(0), zerolog.Nop())

	require.NoError(t, store.SetToken(ctx, domain.RoleOwner, "owner-token"))

	_, err := store.RequireSession(ctx, domain.RoleClient)
	assert.Error(t, err)

	token, err := store.RequireSession(ctx, domain.RoleOwner)
	require.NoError(t, err)
	assert.Equal(t, "owner-token", token)

	require.NoError(t, store.ClearToken(ctx, domain.RoleOwner))
	_, ok, err := store.Token(ctx, domain.RoleOwner)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Identity(t *testing.T) {
	ctx := context.Background()
	store := session.NewStore(storage.NewMemoryStore(0), zerolog.Nop())

	require.NoError(t, store.SetToken(ctx, domain.RoleOwner, signedToken(t, "42", time.Now().Add(time.Hour))))
	id, err := store.Identity(ctx, domain.RoleOwner)
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	require.NoError(t, store.SetToken(ctx, domain.RoleClient, "opaque"))
	_, err = store.Identity(ctx, domain.RoleClient)
	assert.ErrorIs(t, err, session.ErrNoIdentity)
}

func TestStore_CustomerKeyIsStable(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemoryStore(0)
	store := session.NewStore(local, zerolog.Nop())

	first, err := store.CustomerKey(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := session.NewStore(local, zerolog.Nop()).CustomerKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
