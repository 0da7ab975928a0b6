package presence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"texcollab/internal/document/model"
	"texcollab/pkg/logger"
)

const redisKeyPrefix = "latex_presence:"

type redisEntry struct {
	Name     string `json:"name"`
	LastSeen int64  `json:"last_seen_ms"`
}

// RedisRegistry stores one hash per document (userID -> entry). Each
// heartbeat pushes the key expiry out by the TTL so abandoned documents clean
// themselves up; individual stale fields are removed on read, but only if
// nobody rewrote them in the meantime.
type RedisRegistry struct {
	client redis.UniversalClient
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisRegistry(client redis.UniversalClient, ttl time.Duration) *RedisRegistry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisRegistry{client: client, ttl: ttl, now: time.Now}
}

func (r *RedisRegistry) Heartbeat(ctx context.Context, docID string, entry model.PresenceEntry) ([]model.PresenceEntry, error) {
	key := redisKeyPrefix + docID
	raw, err := json.Marshal(redisEntry{Name: entry.DisplayName, LastSeen: r.now().UnixMilli()})
	if err != nil {
		return nil, err
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, entry.UserID, raw)
	pipe.Expire(ctx, key, r.ttl)
	all := pipe.HGetAll(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Sugar.Errorf("Failed to record presence of %s on doc %s: %v", entry.UserID, docID, err)
		return nil, err
	}
	return r.filter(ctx, key, all.Val()), nil
}

func (r *RedisRegistry) Active(ctx context.Context, docID string) ([]model.PresenceEntry, error) {
	key := redisKeyPrefix + docID
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		logger.Sugar.Errorf("Failed to read presence for doc %s: %v", docID, err)
		return nil, err
	}
	return r.filter(ctx, key, fields), nil
}

// evictUnchanged deletes each field only while it still holds the value that
// was judged stale, so a heartbeat landing between read and delete survives.
var evictUnchanged = redis.NewScript(`
local removed = 0
for i = 1, #ARGV, 2 do
	if redis.call("HGET", KEYS[1], ARGV[i]) == ARGV[i + 1] then
		removed = removed + redis.call("HDEL", KEYS[1], ARGV[i])
	end
end
return removed
`)

func (r *RedisRegistry) filter(ctx context.Context, key string, fields map[string]string) []model.PresenceEntry {
	active, stale := partition(fields, r.now(), r.ttl)
	if len(stale) > 0 {
		args := make([]any, 0, 2*len(stale))
		for userID, raw := range stale {
			args = append(args, userID, raw)
		}
		if err := evictUnchanged.Run(ctx, r.client, []string{key}, args...).Err(); err != nil {
			logger.Sugar.Warnf("Failed to evict %d stale presence entries from %s: %v", len(stale), key, err)
		}
	}
	return active
}

// partition splits a hash snapshot into sorted live entries and the raw
// values of stale or unreadable fields.
func partition(fields map[string]string, now time.Time, ttl time.Duration) ([]model.PresenceEntry, map[string]string) {
	active := make([]model.PresenceEntry, 0, len(fields))
	stale := map[string]string{}
	for userID, raw := range fields {
		var stored redisEntry
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			stale[userID] = raw
			continue
		}
		entry := model.PresenceEntry{
			UserID:      userID,
			DisplayName: stored.Name,
			LastSeenAt:  time.UnixMilli(stored.LastSeen),
		}
		if !isLive(entry, now, ttl) {
			stale[userID] = raw
			continue
		}
		active = append(active, entry)
	}
	sortEntries(active)
	return active, stale
}
