package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore はRedisを使用した失効ストア。
// 全サービスから低レイテンシで到達できる共有インフラとして運用する。
type RedisStore struct {
	client *redis.Client
}

// Open はRedis接続を開き、疎通を確認する。
// redisURLは接続URLを指定する（例: "redis://localhost:6379/0"）。
func Open(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// NewRedisStore はRedisStoreを生成する。
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Revoke はトークンをttlの間だけ失効として記録する。
// RedisのEXPIREにより寿命到達時にエントリは自動削除される。
func (s *RedisStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		// 残存有効期間のないトークンはブロック不要
		return nil
	}
	if err := s.client.Set(ctx, entryKey(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to record revocation: %w", err)
	}
	return nil
}

// IsRevoked はトークンが失効済みかどうかを返す。
func (s *RedisStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	err := s.client.Get(ctx, entryKey(token)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up revocation: %w", err)
	}
	return true, nil
}

// compile-time interface check
var _ Store = (*RedisStore)(nil)
