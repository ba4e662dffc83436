package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/webshell/internal/domain/auth"
	apperrors "github.com/target/webshell/internal/errors"
	"github.com/target/webshell/internal/testutil"
)

func TestRoleRepo_SetGetListDelete(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		clock := NewFixedTimeProvider(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
		repo := NewRoleRepoWithTimeProvider(db, clock)

		a, err := repo.Set(ctx, "user-a", domainauth.RoleTrainer)
		require.NoError(t, err)
		assert.Equal(t, domainauth.RoleTrainer, a.Role)
		assert.True(t, a.CreatedAt.Equal(clock.Now()))

		clock.AddTime(time.Hour)
		a, err = repo.Set(ctx, "user-a", domainauth.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, domainauth.RoleAdmin, a.Role)
		assert.True(t, a.UpdatedAt.After(a.CreatedAt))

		_, err = repo.Set(ctx, "user-b", domainauth.RoleTrainer)
		require.NoError(t, err)

		role, err := repo.Get(ctx, "user-a")
		require.NoError(t, err)
		assert.Equal(t, domainauth.RoleAdmin, role)

		role, err = repo.Get(ctx, "nobody")
		require.NoError(t, err)
		assert.Equal(t, domainauth.RoleNone, role)

		_, err = repo.Lookup(ctx, "nobody")
		assert.True(t, apperrors.IsNotFound(err))

		all, err := repo.List(ctx, domainauth.RoleNone, 10, 0)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "user-a", all[0].UserID)

		trainers, err := repo.List(ctx, domainauth.RoleTrainer, 10, 0)
		require.NoError(t, err)
		require.Len(t, trainers, 1)
		assert.Equal(t, "user-b", trainers[0].UserID)

		require.NoError(t, repo.Delete(ctx, "user-b"))
		err = repo.Delete(ctx, "user-b")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestRoleRepo_SetValidation(t *testing.T) {
	repo := NewRoleRepo(nil)

	_, err := repo.Set(context.Background(), "  ", domainauth.RoleAdmin)
	require.Error(t, err)
	assert.Equal(t, "user_id", apperrors.GetField(err))

	_, err = repo.Set(context.Background(), "user-a", domainauth.Role("owner"))
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "role", apperrors.GetField(err))
}

func TestRoleRepo_CheckConstraintMapsToValidation(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		_, err := db.ExecContext(context.Background(),
			`INSERT INTO user_roles (user_id, role) VALUES ('x', 'owner')`)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(apperrors.MapDBError(err)))
	})
}
