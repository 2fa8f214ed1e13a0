package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LJTian/topicfeed/internal/collector"
	"github.com/LJTian/topicfeed/internal/logger"
)

const DefaultTTL = 5 * time.Minute

// Batch 某个分类最近一次采集的结果，只用于 API 读取，不会回灌到采集流程
type Batch struct {
	RunID       string            `json:"run_id"`
	CollectedAt time.Time         `json:"collected_at"`
	Topics      []collector.Topic `json:"topics"`
}

// Store 基于 Redis 的短期缓存。nil Store 的所有方法都是空操作
type Store struct {
	Redis *redis.Client
	TTL   time.Duration
}

// NewStore addr 为空时返回 nil，表示禁用缓存
func NewStore(addr string, ttl time.Duration) *Store {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warnf("redis ping failed: %v", err)
	}

	return NewStoreWithClient(rdb, ttl)
}

func NewStoreWithClient(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{Redis: rdb, TTL: ttl}
}

func batchKey(slug string) string {
	return fmt.Sprintf("topics:batch:%s", slug)
}

// SaveBatch 覆盖写入分类的最新结果
func (s *Store) SaveBatch(ctx context.Context, slug string, b Batch) error {
	if s == nil || s.Redis == nil {
		return nil
	}
	if b.Topics == nil {
		b.Topics = []collector.Topic{}
	}
	bs, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode batch %s: %w", slug, err)
	}
	if err := s.Redis.Set(ctx, batchKey(slug), bs, s.TTL).Err(); err != nil {
		return fmt.Errorf("save batch %s: %w", slug, err)
	}
	return nil
}

// LoadBatch 未命中时 ok 为 false 且 err 为 nil
func (s *Store) LoadBatch(ctx context.Context, slug string) (Batch, bool, error) {
	if s == nil || s.Redis == nil {
		return Batch{}, false, nil
	}
	bs, err := s.Redis.Get(ctx, batchKey(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Batch{}, false, nil
	}
	if err != nil {
		return Batch{}, false, fmt.Errorf("load batch %s: %w", slug, err)
	}

	var b Batch
	if err := json.Unmarshal(bs, &b); err != nil {
		return Batch{}, false, fmt.Errorf("decode batch %s: %w", slug, err)
	}
	return b, true, nil
}

// Invalidate 删除分类缓存
func (s *Store) Invalidate(ctx context.Context, slug string) error {
	if s == nil || s.Redis == nil {
		return nil
	}
	return s.Redis.Del(ctx, batchKey(slug)).Err()
}

func (s *Store) Close() error {
	if s == nil || s.Redis == nil {
		return nil
	}
	return s.Redis.Close()
}
