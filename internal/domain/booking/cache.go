package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"qurux/internal/domain/slot"
)

// RedisAvailabilityCache stores occupied labels as a JSON array under
// availability:<salonID>:<YYYY-MM-DD> next to a generation counter under
// availability:gen:<salonID>:<YYYY-MM-DD>.
type RedisAvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// generationTTL only has to outlive the slowest availability read.
const generationTTL = 24 * time.Hour

// storeIfCurrent sets KEYS[2] only while KEYS[1] still holds ARGV[1].
var storeIfCurrent = redis.NewScript(`
local current = redis.call('GET', KEYS[1]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

func NewRedisAvailabilityCache(client *redis.Client, ttl time.Duration) *RedisAvailabilityCache {
	return &RedisAvailabilityCache{client: client, ttl: ttl}
}

func availabilityKey(salonID string, day time.Time) string {
	return fmt.Sprintf("availability:%s:%s", salonID, slot.DayKey(day))
}

func generationKey(salonID string, day time.Time) string {
	return fmt.Sprintf("availability:gen:%s:%s", salonID, slot.DayKey(day))
}

func (c *RedisAvailabilityCache) Get(ctx context.Context, salonID string, day time.Time) ([]string, bool, error) {
	data, err := c.client.Get(ctx, availabilityKey(salonID, day)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, false, err
	}
	return labels, true, nil
}

func (c *RedisAvailabilityCache) Generation(ctx context.Context, salonID string, day time.Time) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(salonID, day)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Set is a no-op when the day was invalidated after generation was read.
func (c *RedisAvailabilityCache) Set(ctx context.Context, salonID string, day time.Time, generation int64, labels []string) error {
	if labels == nil {
		labels = []string{}
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return err
	}
	keys := []string{generationKey(salonID, day), availabilityKey(salonID, day)}
	return storeIfCurrent.Run(ctx, c.client, keys, strconv.FormatInt(generation, 10), data, c.ttl.Milliseconds()).Err()
}

func (c *RedisAvailabilityCache) Invalidate(ctx context.Context, salonID string, day time.Time) error {
	genKey := generationKey(salonID, day)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, availabilityKey(salonID, day))
		return nil
	})
	return err
}

type noopCache struct{}

func (noopCache) Get(context.Context, string, time.Time) ([]string, bool, error) {
	return nil, false, nil
}
func (noopCache) Generation(context.Context, string, time.Time) (int64, error) { return 0, nil }
func (noopCache) Set(context.Context, string, time.Time, int64, []string) error { return nil }
func (noopCache) Invalidate(context.Context, string, time.Time) error { return nil }
