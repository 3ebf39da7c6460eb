package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"urec/internal/occupancy/models"
	"urec/pkg/sentinel"
)

// Redis key prefix for per-area occupancy hashes.
const occupancyKeyPrefix = "occupancy:area:"

// Lua scripts run atomically on the redis server, which gives the same
// per-key serialization the per-entry mutex gives the memory store: the
// read, clamp and write cannot interleave with another caller's.
var (
	applyScript = redis.NewScript(`
local count = tonumber(redis.call('HGET', KEYS[1], 'current_count') or '0')
local seq = tonumber(redis.call('HGET', KEYS[1], 'update_sequence') or '0')
local clamped = 0
count = count + tonumber(ARGV[1])
if count < 0 then
  count = 0
  clamped = 1
end
seq = seq + 1
redis.call('HSET', KEYS[1], 'current_count', count, 'update_sequence', seq, 'last_updated', ARGV[2])
return {count, seq, clamped}
`)

	setScript = redis.NewScript(`
local value = tonumber(ARGV[1])
local clamped = 0
if value < 0 then
  value = 0
  clamped = 1
end
local seq = tonumber(redis.call('HGET', KEYS[1], 'update_sequence') or '0') + 1
redis.call('HSET', KEYS[1], 'current_count', value, 'update_sequence', seq, 'last_updated', ARGV[2])
return {value, seq, clamped}
`)

	initScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  redis.call('HSET', KEYS[1], 'current_count', 0, 'update_sequence', 0, 'last_updated', ARGV[1])
end
return 1
`)
)

// RedisStore implements CounterStore on a shared redis instance so multiple
// service replicas observe one consistent count per area.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a redis-backed counter store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Init(ctx context.Context, areaID string, now time.Time) error {
	err := initScript.Run(ctx, s.client, []string{occupancyKey(areaID)}, now.UTC().Format(time.RFC3339Nano)).Err()
	if err != nil {
		return fmt.Errorf("init occupancy state: %w", err)
	}
	return nil
}

func (s *RedisStore) ApplyDelta(ctx context.Context, areaID string, delta int, now time.Time) (*models.State, error) {
	res, err := applyScript.Run(ctx, s.client,
		[]string{occupancyKey(areaID)},
		delta, now.UTC().Format(time.RFC3339Nano),
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("apply delta: %w", err)
	}
	return redisMutationState(areaID, res, now)
}

func (s *RedisStore) SetCount(ctx context.Context, areaID string, value int, now time.Time) (*models.State, error) {
	res, err := setScript.Run(ctx, s.client,
		[]string{occupancyKey(areaID)},
		value, now.UTC().Format(time.RFC3339Nano),
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("set count: %w", err)
	}
	return redisMutationState(areaID, res, now)
}

func (s *RedisStore) Get(ctx context.Context, areaID string) (*models.State, error) {
	fields, err := s.client.HGetAll(ctx, occupancyKey(areaID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get occupancy state: %w", err)
	}
	if len(fields) == 0 {
		return nil, sentinel.ErrNotFound
	}

	state := &models.State{AreaID: areaID}
	if state.CurrentCount, err = strconv.Atoi(fields["current_count"]); err != nil {
		return nil, fmt.Errorf("parse current_count: %w", err)
	}
	if state.UpdateSequence, err = strconv.ParseInt(fields["update_sequence"], 10, 64); err != nil {
		return nil, fmt.Errorf("parse update_sequence: %w", err)
	}
	if state.LastUpdated, err = time.Parse(time.RFC3339Nano, fields["last_updated"]); err != nil {
		return nil, fmt.Errorf("parse last_updated: %w", err)
	}
	return state, nil
}

func occupancyKey(areaID string) string {
	return occupancyKeyPrefix + areaID
}

func redisMutationState(areaID string, res []any, now time.Time) (*models.State, error) {
	if len(res) != 3 {
		return nil, fmt.Errorf("unexpected script reply length %d", len(res))
	}
	count, ok1 := res[0].(int64)
	seq, ok2 := res[1].(int64)
	clamped, ok3 := res[2].(int64)
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("unexpected script reply types %T %T %T", res[0], res[1], res[2])
	}
	return &models.State{
		AreaID:         areaID,
		CurrentCount:   int(count),
		UpdateSequence: seq,
		LastUpdated:    now.UTC(),
		Clamped:        clamped == 1,
	}, nil
}
