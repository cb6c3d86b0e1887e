package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qurux/internal/domain/catalog"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RedisAvailabilityCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisAvailabilityCache(client, ttl), mr
}

func TestRedisAvailabilityCache_RoundTrip(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, testSalonID, christmas)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, testSalonID, christmas, 0, nil))
	labels, ok, err := cache.Get(ctx, testSalonID, christmas)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, labels)

	key := "availability:" + testSalonID + ":2025-12-25"
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.Get(ctx, testSalonID, christmas)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisAvailabilityCache_SetSkippedAfterInvalidate(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	key := "availability:" + testSalonID + ":2025-12-25"

	gen, err := cache.Generation(ctx, testSalonID, christmas)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	require.NoError(t, cache.Invalidate(ctx, testSalonID, christmas))
	require.NoError(t, cache.Set(ctx, testSalonID, christmas, gen, []string{}))
	assert.False(t, mr.Exists(key), "snapshot from before the invalidation must not be stored")

	gen, err = cache.Generation(ctx, testSalonID, christmas)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
	require.NoError(t, cache.Set(ctx, testSalonID, christmas, gen, []string{"10:00 AM"}))
	labels, ok, err := cache.Get(ctx, testSalonID, christmas)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"10:00 AM"}, labels)
	assert.Equal(t, time.Minute, mr.TTL(key))
}

// admitDuringRead books a slot right after the availability read returns and
// before the service writes the snapshot to the cache.
type admitDuringRead struct {
	*Repository
	admit func()
	once  sync.Once
}

func (r *admitDuringRead) OccupiedTimeSlots(ctx context.Context, salonID string, from, to time.Time) ([]string, error) {
	slots, err := r.Repository.OccupiedTimeSlots(ctx, salonID, from, to)
	r.once.Do(r.admit)
	return slots, err
}

func TestService_AvailabilityCacheAdmissionDuringRead(t *testing.T) {
	env := newTestEnv(t)
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	repo := &admitDuringRead{Repository: env.repo}
	svc := NewService(Deps{
		Bookings: repo,
		Catalog:  catalog.NewRepository(env.db),
		Cache:    cache,
		Log:      zerolog.Nop(),
		Now:      func() time.Time { return env.now },
	})
	repo.admit = func() {
		_, err := svc.Create(ctx, customer(testCustomer), hennaRequest("10:00 AM"))
		require.NoError(t, err)
	}

	occupied, err := svc.Availability(ctx, testSalonID, "2025-12-25")
	require.NoError(t, err)
	assert.Empty(t, occupied)

	occupied, err = svc.Availability(ctx, testSalonID, "2025-12-25")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00 AM"}, occupied)
}

func TestService_AvailabilityCacheInvalidation(t *testing.T) {
	env := newTestEnv(t)
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	svc := NewService(Deps{
		Bookings: env.repo,
		Catalog:  catalog.NewRepository(env.db),
		Cache:    cache,
		Log:      zerolog.Nop(),
		Now:      func() time.Time { return env.now },
	})
	key := "availability:" + testSalonID + ":2025-12-25"

	occupied, err := svc.Availability(ctx, testSalonID, "2025-12-25")
	require.NoError(t, err)
	assert.Empty(t, occupied)
	assert.True(t, mr.Exists(key))

	b, err := svc.Create(ctx, customer(testCustomer), hennaRequest("10:00 AM"))
	require.NoError(t, err)
	assert.False(t, mr.Exists(key))

	occupied, err = svc.Availability(ctx, testSalonID, "2025-12-25")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00 AM"}, occupied)

	_, err = svc.Cancel(ctx, customer(testCustomer), b.ID)
	require.NoError(t, err)
	assert.False(t, mr.Exists(key))

	occupied, err = svc.Availability(ctx, testSalonID, "2025-12-25")
	require.NoError(t, err)
	assert.Empty(t, occupied)
}

func TestService_AvailabilityCacheDownFallsBack(t *testing.T) {
	env := newTestEnv(t)
	cache, mr := newTestCache(t, time.Minute)
	mr.Close()

	svc := NewService(Deps{
		Bookings: env.repo,
		Catalog:  catalog.NewRepository(env.db),
		Cache:    cache,
		Log:      zerolog.Nop(),
	})
	ctx := context.Background()

	_, err := svc.Create(ctx, customer(testCustomer), hennaRequest("10:00 AM"))
	require.NoError(t, err)

	occupied, err := svc.Availability(ctx, testSalonID, "2025-12-25")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00 AM"}, occupied)
}
