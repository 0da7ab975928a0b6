package presence

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"texcollab/internal/document/model"
)

func redisIntegrationClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping redis integration test")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis at %s unavailable: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisRegistryIntegration(t *testing.T) {
	client := redisIntegrationClient(t)
	clock := &fakeClock{t: time.Now()}
	reg := NewRedisRegistry(client, DefaultTTL)
	reg.now = clock.now

	ctx := context.Background()
	docID := "it-" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), redisKeyPrefix+docID) })

	_, err := reg.Heartbeat(ctx, docID, model.PresenceEntry{UserID: "alice", DisplayName: "Alice"})
	require.NoError(t, err)
	clock.advance(20 * time.Second)
	active, err := reg.Heartbeat(ctx, docID, model.PresenceEntry{UserID: "bob", DisplayName: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, userIDs(active))

	clock.advance(15 * time.Second)
	active, err = reg.Active(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, userIDs(active))

	fields, err := client.HKeys(ctx, redisKeyPrefix+docID).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, fields, "stale field should be evicted on read")
}

func TestRedisRegistryKeepsEntryRewrittenAfterStaleRead(t *testing.T) {
	client := redisIntegrationClient(t)
	clock := &fakeClock{t: time.Now()}
	reg := NewRedisRegistry(client, DefaultTTL)
	reg.now = clock.now

	ctx := context.Background()
	docID := "it-" + uuid.NewString()
	key := redisKeyPrefix + docID
	t.Cleanup(func() { client.Del(context.Background(), key) })

	_, err := reg.Heartbeat(ctx, docID, model.PresenceEntry{UserID: "alice", DisplayName: "Alice"})
	require.NoError(t, err)
	clock.advance(40 * time.Second)

	snapshot, err := client.HGetAll(ctx, key).Result()
	require.NoError(t, err)
	_, err = reg.Heartbeat(ctx, docID, model.PresenceEntry{UserID: "alice", DisplayName: "Alice"})
	require.NoError(t, err)

	assert.Empty(t, reg.filter(ctx, key, snapshot))
	active, err := reg.Active(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, userIDs(active))
}
