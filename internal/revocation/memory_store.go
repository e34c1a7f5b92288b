package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore はプロセス内メモリ上の失効ストア。
// テストおよびローカル開発用。複数サービス間では共有されないため、
// 本番ではRedisStoreを使用すること。
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time // key → 失効エントリの満了時刻
	now     func() time.Time
}

// NewMemoryStore はMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// SetClock はテスト用に時計を差し替える。
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Revoke はトークンをttlの間だけ失効として記録する。
func (s *MemoryStore) Revoke(_ context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entryKey(token)] = s.now().Add(ttl)
	return nil
}

// IsRevoked はトークンが失効済みかどうかを返す。
// 満了済みエントリは参照時に遅延削除する。
func (s *MemoryStore) IsRevoked(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entryKey(token)
	expiresAt, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	if !s.now().Before(expiresAt) {
		delete(s.entries, key)
		return false, nil
	}
	return true, nil
}

// Len は現在保持している失効エントリ数を返す。テスト用。
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// compile-time interface check
var _ Store = (*MemoryStore)(nil)
