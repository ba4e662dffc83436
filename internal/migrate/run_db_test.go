package migrate_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/webshell/internal/migrate"
	"github.com/target/webshell/internal/testutil"
)

func TestRun_Idempotent(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()

		pending, err := migrate.Pending(ctx, db)
		require.NoError(t, err)
		assert.Empty(t, pending, "WithAutoDB already migrated")

		require.NoError(t, migrate.Run(ctx, db))

		var n int
		require.NoError(t, db.QueryRowContext(ctx, `SELECT count(*) FROM schema_migrations`).Scan(&n))
		all, err := migrate.Load()
		require.NoError(t, err)
		assert.Equal(t, len(all), n)
	})
}

func TestRun_ConcurrentCallers(t *testing.T) {
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		_, err := db.ExecContext(ctx, `DELETE FROM schema_migrations`)
		require.NoError(t, err)

		pending, err := migrate.Pending(ctx, db)
		require.NoError(t, err)
		require.NotEmpty(t, pending)

		var wg sync.WaitGroup
		errs := make([]error, 4)
		for i := range errs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = migrate.Run(ctx, db)
			}()
		}
		wg.Wait()
		for _, err := range errs {
			require.NoError(t, err)
		}

		pending, err = migrate.Pending(ctx, db)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}
