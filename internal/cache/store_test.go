package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	dbtestutil "github.com/charlesng35/taskflow/internal/database/testutil"
)

type steppingClock struct {
	now time.Time
}

func (c *steppingClock) Now() time.Time { return c.now }

func storesUnderTest(t *testing.T, clock *steppingClock) map[string]Store {
	t.Helper()

	db := dbtestutil.MustOpenTestDB(t, dbtestutil.WithAutoMigrate())
	dbStore := NewDatabaseStore(db)
	dbStore.now = clock.Now

	mem := NewMemoryStore()
	mem.clock = clock.Now

	return map[string]Store{"database": dbStore, "memory": mem}
}

func TestStoreIncrementUsesFixedWindow(t *testing.T) {
	clock := &steppingClock{now: time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)}

	for name, store := range storesUnderTest(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			start := clock.now

			count, ttl, err := store.IncrementWithTTL(ctx, "login|1.2.3.4", time.Minute)
			require.NoError(t, err)
			require.Equal(t, int64(1), count)
			require.Equal(t, time.Minute, ttl)

			clock.now = start.Add(20 * time.Second)
			count, ttl, err = store.IncrementWithTTL(ctx, "login|1.2.3.4", time.Minute)
			require.NoError(t, err)
			require.Equal(t, int64(2), count)
			require.Equal(t, 40*time.Second, ttl, "window must not slide on each hit")

			clock.now = start.Add(time.Minute)
			count, _, err = store.IncrementWithTTL(ctx, "login|1.2.3.4", time.Minute)
			require.NoError(t, err)
			require.Equal(t, int64(1), count)

			clock.now = start
		})
	}
}

func TestStorePurgeExpired(t *testing.T) {
	clock := &steppingClock{now: time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)}

	for name, store := range storesUnderTest(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			start := clock.now

			_, _, err := store.IncrementWithTTL(ctx, "short", time.Second)
			require.NoError(t, err)
			_, _, err = store.IncrementWithTTL(ctx, "long", time.Hour)
			require.NoError(t, err)

			clock.now = start.Add(time.Minute)
			removed, err := store.PurgeExpired(ctx)
			require.NoError(t, err)
			require.Equal(t, int64(1), removed)

			count, _, err := store.IncrementWithTTL(ctx, "long", time.Hour)
			require.NoError(t, err)
			require.Equal(t, int64(2), count)

			clock.now = start
		})
	}
}

func TestNilDatabaseStore(t *testing.T) {
	require.Nil(t, NewDatabaseStore(nil))

	var store *DatabaseStore
	_, _, err := store.IncrementWithTTL(context.Background(), "k", time.Second)
	require.Error(t, err)
	_, err = store.PurgeExpired(context.Background())
	require.Error(t, err)
}
