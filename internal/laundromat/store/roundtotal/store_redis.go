package roundtotal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"launder/internal/laundromat/models"
	"launder/pkg/platform/sentinel"
)

// commitScript performs the compare-and-commit server side so replicas
// sharing one Redis can never both accept past the threshold. The record
// is pushed in the same step, pre-encoded in both its accepted (ARGV[3])
// and busted (ARGV[4]) forms.
var commitScript = redis.NewScript(`
local total = tonumber(redis.call('GET', KEYS[1]) or '0')
local amount = tonumber(ARGV[1])
if total + amount > tonumber(ARGV[2]) then
  redis.call('RPUSH', KEYS[2], ARGV[4])
  return {total, 0}
end
redis.call('RPUSH', KEYS[2], ARGV[3])
return {redis.call('INCRBY', KEYS[1], amount), 1}
`)

// closeScript drains the round: whichever replica narrates sees every
// record, and a commit racing the close lands wholly in one round.
var closeScript = redis.NewScript(`
local records = redis.call('LRANGE', KEYS[2], 0, -1)
redis.call('DEL', KEYS[1], KEYS[2])
local day = redis.call('INCR', KEYS[3])
return {day, records}
`)

type RedisStore struct {
	client  *redis.Client
	total   string
	records string
	day     string
}

func NewRedis(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client:  client,
		total:   prefix + ":round:total",
		records: prefix + ":round:records",
		day:     prefix + ":round:day",
	}
}

func (s *RedisStore) Commit(ctx context.Context, rec models.Record, amount, threshold int64) (int64, bool, error) {
	rec.Busted = false
	accepted, err := json.Marshal(rec)
	if err != nil {
		return 0, false, fmt.Errorf("encode round record: %w", err)
	}
	rec.Busted = true
	busted, err := json.Marshal(rec)
	if err != nil {
		return 0, false, fmt.Errorf("encode round record: %w", err)
	}

	res, err := commitScript.Run(ctx, s.client, []string{s.total, s.records},
		amount, threshold, accepted, busted).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("commit round total: %w: %w", sentinel.ErrUnavailable, err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("commit round total: unexpected reply %v", res)
	}
	return res[0], res[1] == 1, nil
}

func (s *RedisStore) Append(ctx context.Context, rec models.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode round record: %w", err)
	}
	if err := s.client.RPush(ctx, s.records, raw).Err(); err != nil {
		return fmt.Errorf("append round record: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Close(ctx context.Context) (int, []models.Record, error) {
	res, err := closeScript.Run(ctx, s.client, []string{s.total, s.records, s.day}).Slice()
	if err != nil {
		return 0, nil, fmt.Errorf("close round: %w: %w", sentinel.ErrUnavailable, err)
	}
	if len(res) != 2 {
		return 0, nil, fmt.Errorf("close round: unexpected reply %v", res)
	}
	day, ok := res[0].(int64)
	if !ok {
		return 0, nil, fmt.Errorf("close round: unexpected day %v", res[0])
	}
	raw, _ := res[1].([]any)
	records := make([]models.Record, 0, len(raw))
	for _, item := range raw {
		str, ok := item.(string)
		if !ok {
			return 0, nil, fmt.Errorf("close round: unexpected record %v", item)
		}
		var rec models.Record
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			return 0, nil, fmt.Errorf("decode round record: %w", err)
		}
		records = append(records, rec)
	}
	return int(day), records, nil
}

func (s *RedisStore) Total(ctx context.Context) (int64, error) {
	total, err := s.client.Get(ctx, s.total).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read round total: %w: %w", sentinel.ErrUnavailable, err)
	}
	return total, nil
}

func (s *RedisStore) Reset(ctx context.Context) error {
	if err := s.client.Del(ctx, s.total, s.records, s.day).Err(); err != nil {
		return fmt.Errorf("reset round: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}
