package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	userKeyPrefix    = "user:%d"
	profileKeyPrefix = "profile:%s"
	revokedKeyPrefix = "revoked:%s"
)

const (
	// UserTTL caps how long a deleted or changed account can still
	// authenticate through the identity cache.
	UserTTL    = 5 * time.Minute
	ProfileTTL = 2 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(userKeyPrefix, userID)
}

func ProfileKey(username string) string {
	return fmt.Sprintf(profileKeyPrefix, username)
}

func revokedKey(jti string) string {
	return fmt.Sprintf(revokedKeyPrefix, jti)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateProfile(ctx context.Context, username string) {
	Invalidate(ctx, ProfileKey(username))
}

// RevokeToken marks a token's JTI as revoked until its natural expiry.
// Best-effort: without Redis, logout degrades to client-side token discard.
func RevokeToken(ctx context.Context, jti string, ttl time.Duration) {
	if client == nil || jti == "" || ttl <= 0 {
		return
	}
	client.Set(ctx, revokedKey(jti), "1", ttl)
}

// IsTokenRevoked reports whether a token's JTI has been revoked.
func IsTokenRevoked(ctx context.Context, jti string) bool {
	if client == nil || jti == "" {
		return false
	}
	n, err := client.Exists(ctx, revokedKey(jti)).Result()
	return err == nil && n > 0
}
