package core

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perola.app/academy/internal/logger"
	"perola.app/academy/internal/metrics"
	"perola.app/academy/internal/store"
)

func newTestUserService(t *testing.T, admins ...string) *UserService {
	t.Helper()
	db, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserService(db, admins, time.Second, logger.Nop(), metrics.NewNop())
}

func TestSignupAndAuthenticate(t *testing.T) {
	svc := newTestUserService(t, "ops@perola.app")
	ctx := context.Background()

	u, err := svc.Signup(ctx, "  Ana@Perola.app ", "cultivada1")
	require.NoError(t, err)
	assert.Equal(t, "ana@perola.app", u.Email)
	assert.False(t, u.IsAdmin)
	assert.NotEqual(t, "cultivada1", u.PasswordHash)

	got, err := svc.Authenticate(ctx, "ANA@perola.app", "cultivada1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "ana@perola.app", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody@perola.app", "cultivada1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	admin, err := svc.Signup(ctx, "ops@perola.app", "cultivada2")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
}

func TestSignupRejects(t *testing.T) {
	svc := newTestUserService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "not-an-email", "cultivada1")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Signup(ctx, "ana@perola.app", "short")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Signup(ctx, "ana@perola.app", "cultivada1")
	require.NoError(t, err)
	_, err = svc.Signup(ctx, "ana@perola.app", "cultivada1")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestGetUser(t *testing.T) {
	svc := newTestUserService(t)
	ctx := context.Background()

	u, err := svc.Signup(ctx, "ana@perola.app", "cultivada1")
	require.NoError(t, err)

	got, err := svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	_, err = svc.GetUser(ctx, u.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)
}
