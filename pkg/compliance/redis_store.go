package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/propertyline/leadflow/pkg/models"
)

// Key layout. Opt-outs and counters live under separate keys so they can
// expire on separate schedules: an opt-out must outlive any counter period.
const (
	optOutKeyPrefix   = "compliance:optout:"
	countersKeyPrefix = "compliance:counters:"

	// counterRetention comfortably covers a full monthly period plus slack;
	// stale counters are lazily reset by the Gate anyway.
	counterRetention = 62 * 24 * time.Hour
)

// optOutRecord is the durable slice of a Record that must survive restarts.
type optOutRecord struct {
	OptedOut     bool      `json:"opted_out"`
	OptOutReason string    `json:"opt_out_reason,omitempty"`
	OptOutAt     time.Time `json:"opt_out_at,omitzero"`
}

// counterRecord is the rolling-counter slice of a Record.
type counterRecord struct {
	DailyCount   int       `json:"daily_count"`
	DailyDate    string    `json:"daily_date,omitempty"`
	MonthlyCount int       `json:"monthly_count"`
	MonthlyMonth string    `json:"monthly_month,omitempty"`
	LastSentAt   time.Time `json:"last_sent_at,omitzero"`
}

// RedisStore mirrors compliance records to Redis. Opt-outs are written with
// a two-year TTL. Losing a counter key only makes the gate temporarily
// over-permissive until the next send repopulates it.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a Redis-backed store and verifies connectivity.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

// NewRedisStoreFromClient wraps an existing client (used by tests with miniredis).
func NewRedisStoreFromClient(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Get assembles a record from the opt-out and counter keys.
func (s *RedisStore) Get(ctx context.Context, phone string) (*Record, error) {
	rec := &Record{Phone: phone}

	data, err := s.rdb.Get(ctx, optOutKeyPrefix+phone).Bytes()
	switch {
	case err == nil:
		var oo optOutRecord
		if err := json.Unmarshal(data, &oo); err != nil {
			return nil, fmt.Errorf("corrupt opt-out record for %s: %w", phone, err)
		}
		rec.OptedOut = oo.OptedOut
		rec.OptOutReason = models.OptOutReason(oo.OptOutReason)
		rec.OptOutAt = oo.OptOutAt
	case errors.Is(err, redis.Nil):
		// no opt-out recorded
	default:
		return nil, fmt.Errorf("redis get opt-out failed: %w", err)
	}

	data, err = s.rdb.Get(ctx, countersKeyPrefix+phone).Bytes()
	switch {
	case err == nil:
		var c counterRecord
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("corrupt counter record for %s: %w", phone, err)
		}
		rec.DailyCount = c.DailyCount
		rec.DailyDate = c.DailyDate
		rec.MonthlyCount = c.MonthlyCount
		rec.MonthlyMonth = c.MonthlyMonth
		rec.LastSentAt = c.LastSentAt
	case errors.Is(err, redis.Nil):
		// no counters yet
	default:
		return nil, fmt.Errorf("redis get counters failed: %w", err)
	}

	return rec, nil
}

// Put writes both slices of the record. The opt-out key is only written
// when an opt-out is set, and always with the retention TTL.
func (s *RedisStore) Put(ctx context.Context, rec *Record) error {
	if rec.OptedOut {
		oo := optOutRecord{
			OptedOut:     true,
			OptOutReason: string(rec.OptOutReason),
			OptOutAt:     rec.OptOutAt,
		}
		data, err := json.Marshal(oo)
		if err != nil {
			return fmt.Errorf("marshal opt-out record: %w", err)
		}
		if err := s.rdb.Set(ctx, optOutKeyPrefix+rec.Phone, data, OptOutRetention).Err(); err != nil {
			return fmt.Errorf("redis set opt-out failed: %w", err)
		}
	}

	c := counterRecord{
		DailyCount:   rec.DailyCount,
		DailyDate:    rec.DailyDate,
		MonthlyCount: rec.MonthlyCount,
		MonthlyMonth: rec.MonthlyMonth,
		LastSentAt:   rec.LastSentAt,
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal counter record: %w", err)
	}
	if err := s.rdb.Set(ctx, countersKeyPrefix+rec.Phone, data, counterRetention).Err(); err != nil {
		return fmt.Errorf("redis set counters failed: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
