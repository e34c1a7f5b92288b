// Package token はセッショントークンの発行と検証を提供する。
// 全サービスが共有シークレットで独立に検証できるよう、
// 発行・検証ともI/Oを伴わない純粋な暗号操作として実装する。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/ichiba/internal/model"
)

var (
	// ErrSignatureInvalid は署名が一致しない、または形式が不正なトークンを示す。
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrExpired は署名は正しいが有効期限を過ぎたトークンを示す。
	ErrExpired = errors.New("token expired")
)

// Claims はトークンに埋め込むクレームを表す。
// subject-id、表示名、役割、発行時刻、有効期限を含む。発行後は不変。
type Claims struct {
	FullName string     `json:"fullName"`
	Role     model.Role `json:"role"`
	jwt.RegisteredClaims
}

// RemainingTTL は指定時刻からみたトークンの残り有効時間を返す。
// 期限切れの場合は0を返す。失効エントリの寿命算出に使用する。
func (c *Claims) RemainingTTL(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	remaining := c.ExpiresAt.Time.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Issuer はHMAC署名付きセッショントークンを発行・検証する。
// 状態を持たず、共有シークレットと時計のみに依存する。
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer はIssuerを生成する。
func NewIssuer(secret string) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Issue は指定ユーザーのクレームを埋め込んだ署名付きトークンを発行する。
// 有効期限は現在時刻 + ttl の絶対時刻として埋め込む。
func (i *Issuer) Issue(subjectID, fullName string, role model.Role, ttl time.Duration) (string, error) {
	now := i.now()
	claims := &Claims{
		FullName: fullName,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークンの署名と有効期限を検証し、埋め込まれたクレームを返す。
// 署名不一致・形式不正はErrSignatureInvalid、期限切れはErrExpiredを返す。
// データベース参照は行わない。
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrSignatureInvalid
	}
	if !parsed.Valid {
		return nil, ErrSignatureInvalid
	}
	return claims, nil
}
