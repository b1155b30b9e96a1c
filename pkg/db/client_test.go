package db

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	client, err := NewSQLite(context.Background(), dsn, nil)
	require.NoError(t, err)
	require.NoError(t, client.DB().AutoMigrate(&models.Snapshot{}))
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewSQLiteRequiresPath(t *testing.T) {
	_, err := NewSQLite(context.Background(), "", nil)
	require.Error(t, err)
}

func TestPingAndDialect(t *testing.T) {
	client := newTestClient(t)
	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, DialectSQLite, client.Dialect())
}

func TestSnapshotRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	repo := NewSnapshotRepository(client.DB())
	tick := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return tick }

	_, err := repo.Get(ctx, persist.KeyCart)
	require.True(t, errors.Is(err, persist.ErrNotFound))

	require.NoError(t, repo.Set(ctx, persist.KeyCart, `[{"id":"1-none-none"}]`))
	tick = tick.Add(time.Minute)
	require.NoError(t, repo.Set(ctx, persist.KeyCart, `[]`))

	got, err := repo.Get(ctx, persist.KeyCart)
	require.NoError(t, err)
	assert.Equal(t, `[]`, got)

	var rows []models.Snapshot
	require.NoError(t, client.DB().Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].UpdatedAt.Equal(tick))
}

func TestSnapshotRepositoryKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	repo := NewSnapshotRepository(newTestClient(t).DB())

	require.NoError(t, repo.Set(ctx, persist.KeyCart, `["cart"]`))
	require.NoError(t, repo.Set(ctx, persist.KeyWishlist, `["wish"]`))
	require.NoError(t, repo.Remove(ctx, persist.KeyCart))
	require.NoError(t, repo.Remove(ctx, "never-written"))

	_, err := repo.Get(ctx, persist.KeyCart)
	assert.ErrorIs(t, err, persist.ErrNotFound)
	got, err := repo.Get(ctx, persist.KeyWishlist)
	require.NoError(t, err)
	assert.Equal(t, `["wish"]`, got)
}
