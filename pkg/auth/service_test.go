package auth

import (
	"context"
	"database/sql"
	"testing"

	"github.com/bookwormapp/bookworm/pkg/errcodes"
	"github.com/bookwormapp/bookworm/pkg/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestService_CreateUser(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, "test-secret")
	ctx := context.Background()

	t.Run("creates a user with a hashed password", func(t *testing.T) {
		user, err := svc.CreateUser(ctx, "reader", "reader@example.com", "correct horse battery")
		require.NoError(t, err)
		assert.NotZero(t, user.ID)
		assert.Equal(t, "reader", user.Username)
		assert.NotEqual(t, "correct horse battery", user.PasswordHash)
		assert.True(t, CheckPassword("correct horse battery", user.PasswordHash))
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, "reader", "other@example.com", "password123")
		require.Error(t, err)
		assert.ErrorIs(t, err, errcodes.Conflict("User"))
	})

	t.Run("duplicate email conflicts case-insensitively", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, "reader2", "READER@example.com", "password123")
		require.Error(t, err)
		assert.ErrorIs(t, err, errcodes.Conflict("User"))
	})
}

func TestService_Authenticate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, "test-secret")
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "reader", "reader@example.com", "correct horse battery")
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "reader", "correct horse battery")
		require.NoError(t, err)
		assert.Equal(t, "reader", user.Username)
	})

	t.Run("username is case-insensitive", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "READER", "correct horse battery")
		require.NoError(t, err)
		assert.Equal(t, "reader", user.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "reader", "wrong")
		require.Error(t, err)
		assert.ErrorIs(t, err, errcodes.Unauthorized("Invalid username or password"))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody", "whatever")
		require.Error(t, err)
		assert.ErrorIs(t, err, errcodes.Unauthorized("Invalid username or password"))
	})
}

func TestService_Tokens(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, "test-secret")
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "reader", "reader@example.com", "correct horse battery")
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		token, err := svc.GenerateToken(user)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, "reader", claims.Username)
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		otherSvc := NewService(db, "other-secret")
		token, err := otherSvc.GenerateToken(user)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		require.Error(t, err)
	})
}
