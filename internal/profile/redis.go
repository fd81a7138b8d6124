package profile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps profiles and game history in Redis so identity survives
// restarts and can be shared across machines. Keys carry no TTL: a player
// identity only goes away when explicitly deleted.
type RedisStore struct{ rdb *redis.Client }

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

// NewRedisStoreURL parses a redis:// URL and verifies the connection.
func NewRedisStoreURL(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }

func (s *RedisStore) keyProfile(nickname string) string { return "rush:profile:" + normalize(nickname) }
func (s *RedisStore) keyHistory(playerID string) string { return "rush:history:" + playerID }

func (s *RedisStore) Load(ctx context.Context, nickname string) (*Profile, error) {
	raw, err := s.rdb.Get(ctx, s.keyProfile(nickname)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *RedisStore) Save(ctx context.Context, p *Profile) error {
	cp := *p
	cp.UpdatedAt = time.Now()
	raw, err := json.Marshal(&cp)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.keyProfile(p.Nickname), raw, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, nickname string) error {
	return s.rdb.Del(ctx, s.keyProfile(nickname)).Err()
}

func (s *RedisStore) AppendHistory(ctx context.Context, playerID string, rec GameRecord) error {
	raw, err := json.Marshal(&rec)
	if err != nil {
		return err
	}
	key := s.keyHistory(playerID)
	if err := s.rdb.LPush(ctx, key, raw).Err(); err != nil {
		return err
	}
	return s.rdb.LTrim(ctx, key, 0, historyCap-1).Err()
}

func (s *RedisStore) History(ctx context.Context, playerID string, n int) ([]GameRecord, error) {
	if n <= 0 || n > historyCap {
		n = historyCap
	}
	rows, err := s.rdb.LRange(ctx, s.keyHistory(playerID), 0, int64(n)-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]GameRecord, 0, len(rows))
	for _, row := range rows {
		var rec GameRecord
		if err := json.Unmarshal([]byte(row), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
