package compliance

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propertyline/leadflow/pkg/config"
	"github.com/propertyline/leadflow/pkg/models"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStoreFromClient(rdb), mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	rec, err := store.Get(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, testPhone, rec.Phone)
	assert.False(t, rec.OptedOut)
	assert.Zero(t, rec.DailyCount)

	rec.DailyCount = 2
	rec.DailyDate = "2026-03-10"
	rec.MonthlyCount = 7
	rec.MonthlyMonth = "2026-03"
	rec.LastSentAt = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	require.NoError(t, store.Put(ctx, rec))

	got, err := store.Get(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, 2, got.DailyCount)
	assert.Equal(t, "2026-03-10", got.DailyDate)
	assert.Equal(t, 7, got.MonthlyCount)
	assert.True(t, got.LastSentAt.Equal(rec.LastSentAt))
}

func TestRedisStore_OptOutTTL(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	rec := &Record{
		Phone:        testPhone,
		OptedOut:     true,
		OptOutReason: models.OptOutStopKeyword,
		OptOutAt:     time.Now(),
	}
	require.NoError(t, store.Put(ctx, rec))

	ttl := mr.TTL(optOutKeyPrefix + testPhone)
	assert.Equal(t, OptOutRetention, ttl)

	got, err := store.Get(ctx, testPhone)
	require.NoError(t, err)
	assert.True(t, got.OptedOut)
	assert.Equal(t, models.OptOutStopKeyword, got.OptOutReason)
}

func TestRedisStore_OptOutSurvivesCounterExpiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	rec := &Record{
		Phone:        testPhone,
		OptedOut:     true,
		OptOutReason: models.OptOutUserRequest,
		OptOutAt:     time.Now(),
		DailyCount:   3,
		DailyDate:    "2026-03-10",
	}
	require.NoError(t, store.Put(ctx, rec))

	// Counter keys expire long before the opt-out does.
	mr.FastForward(counterRetention + time.Hour)

	got, err := store.Get(ctx, testPhone)
	require.NoError(t, err)
	assert.True(t, got.OptedOut, "opt-out must outlive counter expiry")
	assert.Zero(t, got.DailyCount, "expired counters read as zero")
}

func TestGate_WithRedisStore(t *testing.T) {
	store, _ := newRedisStore(t)
	gate := NewGate(config.DefaultComplianceConfig(), store, NewMemoryAudit(),
		WithClock(func() time.Time {
			return time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
		}),
		WithLocation(time.UTC))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, gate.RecordSend(ctx, testPhone, "msg", true))
	}
	res, err := gate.ValidateSend(ctx, testPhone, "msg")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, DenyDailyLimit, res.Reason)
}
