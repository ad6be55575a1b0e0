package config

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo はアクセストークンから読み取れた情報。
// ゲートウェイは署名鍵を持たないため、署名は検証していない。
type TokenInfo struct {
	// IsJWT はトークンがJWTとして解釈できたかどうか。
	IsJWT bool
	// Subject はトークンの利用者ID（user_idまたはsub）。
	Subject string
	// Role はトークンに含まれるロール。
	Role string
	// ExpiresAt は有効期限。期限が無い場合はゼロ値。
	ExpiresAt time.Time
}

// Expired はnow時点でトークンの有効期限が切れているかを返す。
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// TokenInfo はアクセストークンを検証なしでパースして中身を返す。
// JWTでないトークンはIsJWTがfalseになるだけでエラーにはしない。
func (u Upstream) TokenInfo() TokenInfo {
	if u.Token == "" {
		return TokenInfo{}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(u.Token, claims); err != nil {
		return TokenInfo{}
	}

	info := TokenInfo{IsJWT: true}
	if v, ok := claims["user_id"].(string); ok {
		info.Subject = v
	} else if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if v, ok := claims["role"].(string); ok {
		info.Role = v
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info
}
