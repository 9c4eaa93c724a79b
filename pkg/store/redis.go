package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/flowbuilder/pkg/graph"
	"github.com/matzehuels/flowbuilder/pkg/observability"
)

// DefaultRedisPrefix namespaces draft keys.
const DefaultRedisPrefix = "flowbuilder:"

// RedisStore keeps each draft as a JSON string under <prefix>draft:<id>
// and indexes ids in a sorted set scored by update time.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	owned  bool
	now    func() time.Time
}

// NewRedisStore connects to Redis and pings it.
func NewRedisStore(ctx context.Context, cfg Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, storageErr("connect to redis for", cfg.Addr, err)
	}
	s := NewRedisStoreFromClient(client, cfg.Prefix)
	s.owned = true
	return s, nil
}

// NewRedisStoreFromClient wraps an existing client. Close leaves the
// client open.
func NewRedisStoreFromClient(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) draftKey(id string) string { return fmt.Sprintf("%sdraft:%s", s.prefix, id) }
func (s *RedisStore) indexKey() string          { return s.prefix + "drafts" }

func (s *RedisStore) Save(ctx context.Context, id string, p graph.Payload) (err error) {
	if err := checkID(id); err != nil {
		return err
	}
	data, err := graph.MarshalPayload(p)
	if err != nil {
		return storageErr("encode", id, err)
	}
	defer func() { observability.Store().OnSave(ctx, string(BackendRedis), id, len(data), err) }()

	score := float64(s.now().UnixMilli())
	err = RetryWithBackoff(ctx, func() error {
		pipe := s.client.TxPipeline()
		pipe.Set(ctx, s.draftKey(id), data, 0)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: score, Member: id})
		_, err := pipe.Exec(ctx)
		return retryNetwork(err)
	})
	return storageErr("save", id, err)
}

func (s *RedisStore) Load(ctx context.Context, id string) (p graph.Payload, err error) {
	if err := checkID(id); err != nil {
		return graph.Payload{}, err
	}
	defer func() { observability.Store().OnLoad(ctx, string(BackendRedis), id, err) }()

	var data []byte
	err = RetryWithBackoff(ctx, func() error {
		var err error
		data, err = s.client.Get(ctx, s.draftKey(id)).Bytes()
		return retryNetwork(err)
	})
	if errors.Is(err, redis.Nil) {
		return graph.Payload{}, notFound(id)
	}
	if err != nil {
		return graph.Payload{}, storageErr("load", id, err)
	}
	p, err = graph.UnmarshalPayload(data)
	if err != nil {
		return graph.Payload{}, storageErr("decode", id, err)
	}
	return p, nil
}

func (s *RedisStore) List(ctx context.Context) ([]Info, error) {
	members, err := s.client.ZRevRangeWithScores(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, storageErr("list", s.indexKey(), err)
	}
	if len(members) == 0 {
		return []Info{}, nil
	}

	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = s.draftKey(m.Member.(string))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, storageErr("list", s.indexKey(), err)
	}

	out := make([]Info, 0, len(members))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a value
			continue
		}
		p, err := graph.UnmarshalPayload([]byte(raw))
		if err != nil {
			continue
		}
		id := members[i].Member.(string)
		out = append(out, newInfo(id, p, time.UnixMilli(int64(members[i].Score))))
	}
	sortInfos(out)
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.draftKey(id))
	pipe.ZRem(ctx, s.indexKey(), id)
	_, err := pipe.Exec(ctx)
	return storageErr("delete", id, err)
}

func (s *RedisStore) Close() error {
	if s.owned {
		return s.client.Close()
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
