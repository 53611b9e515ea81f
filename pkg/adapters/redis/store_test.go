package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/stagehand/pkg/adapters/redis"
	"github.com/aretw0/stagehand/pkg/domain"
	"github.com/aretw0/stagehand/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisSessionStore_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunSessionStoreContract(t, redis.NewSessionStore(client))
}

func TestRedisMetadataStore_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunMetadataStoreContract(t, redis.NewMetadataStore(client))
}

func TestRedisSessionStore_TTL(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewSessionStore(client, redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, 1, domain.NewSession()))
	_, err := store.Load(ctx, 1)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRedisMetadataStore_ExpiresWithRecord(t *testing.T) {
	mr, client := setup(t)
	now := time.Unix(1_700_000_000, 0)
	store := redis.NewMetadataStore(client, redis.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	meta := domain.MetadataFromSnapshot(domain.NewSnapshot("a", 1, []byte(`{}`)), now.Add(-30*time.Second), time.Minute)
	require.NoError(t, store.Put(ctx, 5, 10, meta))

	assert.InDelta(t, 30.0, mr.TTL("stagehand:meta:5:10").Seconds(), 1.0, "remaining lifetime, not the full TTL")

	mr.FastForward(31 * time.Second)
	_, err := store.Get(ctx, 5, 10)
	assert.ErrorIs(t, err, domain.ErrMetadataNotFound)
}

func TestRedisMetadataStore_ZeroTTLNeverExpires(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewMetadataStore(client)
	ctx := context.Background()

	meta := domain.MetadataFromSnapshot(domain.NewSnapshot("a", 1, []byte(`{}`)), time.Now(), 0)
	require.NoError(t, store.Put(ctx, 5, 11, meta))

	assert.Zero(t, mr.TTL("stagehand:meta:5:11"))
	_, err := store.Get(ctx, 5, 11)
	assert.NoError(t, err)
}

func TestRedisStores_Prefix(t *testing.T) {
	mr, client := setup(t)
	ctx := context.Background()

	sessions := redis.NewSessionStore(client, redis.WithPrefix("custom:app:"))
	require.NoError(t, sessions.Save(ctx, 42, domain.NewSession()))
	assert.True(t, mr.Exists("custom:app:session:42"), "Expected key with custom prefix to exist")

	metadata := redis.NewMetadataStore(client, redis.WithPrefix("custom:app:"))
	meta := domain.MetadataFromSnapshot(domain.NewSnapshot("a", 1, []byte(`{}`)), time.Now(), time.Hour)
	require.NoError(t, metadata.Put(ctx, 42, 7, meta))
	assert.True(t, mr.Exists("custom:app:meta:42:7"))
}

func TestRedisStores_ServerDown(t *testing.T) {
	mr, client := setup(t)
	mr.Close()
	ctx := context.Background()

	_, err := redis.NewSessionStore(client).Load(ctx, 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound, "outages are not reported as absence")
}
