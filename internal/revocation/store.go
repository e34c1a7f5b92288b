// Package revocation はトークンの失効記録を提供する。
// 署名上はまだ有効なトークンを、自然な期限より前にネットワーク全体で
// 拒否するための共有キーバリューストア。
package revocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// keyPrefix は失効エントリの名前空間。
const keyPrefix = "blacklist:"

// Store は失効記録のインターフェース。
// エントリの寿命は失効時点のトークン残存有効期間と等しくなければならない。
// トークンより長生きすると無制限に増殖し、短命だと失効済みトークンが復活する。
type Store interface {
	// Revoke はトークンをttlの間だけ失効として記録する。
	// 同一トークンへの重複呼び出しは冪等。ttlが0以下の場合は何もしない。
	Revoke(ctx context.Context, token string, ttl time.Duration) error

	// IsRevoked はトークンが失効済みかどうかを返す。
	// ストアに到達できない場合はエラーを返す。呼び出し側は
	// fail-closedポリシーにより拒否として扱うこと。
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// entryKey はトークンから失効エントリのキーを導出する。
// 生トークンをストアに保存しないよう、ハッシュをキーにする。
func entryKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return keyPrefix + hex.EncodeToString(sum[:])
}
