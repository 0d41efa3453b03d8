package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ViewTube/model"

	"github.com/go-redis/redis/v8"
)

// profileTTL bounds staleness of cached projections; every profile mutation
// also invalidates explicitly.
const profileTTL = 15 * time.Minute

// userProfileKey builds the Redis key for a user's cached projection.
func userProfileKey(userID int64) string {
	return fmt.Sprintf("user:profile:%d", userID)
}

// CacheUserProfile stores a sanitized user projection. Only PublicUser ever
// goes into the cache, so secrets cannot leak through it.
func CacheUserProfile(ctx context.Context, user *model.PublicUser) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user profile: %w", err)
	}
	if err := RedisClient.Set(ctx, userProfileKey(user.ID), data, profileTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache user profile: %w", err)
	}
	return nil
}

// GetCachedUserProfile returns the cached projection, or (nil, nil) on a miss.
func GetCachedUserProfile(ctx context.Context, userID int64) (*model.PublicUser, error) {
	if RedisClient == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}
	data, err := RedisClient.Get(ctx, userProfileKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached user profile: %w", err)
	}
	var user model.PublicUser
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached user profile: %w", err)
	}
	return &user, nil
}

// InvalidateUserProfile drops the cached projection for a user.
func InvalidateUserProfile(ctx context.Context, userID int64) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	if err := RedisClient.Del(ctx, userProfileKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate user profile: %w", err)
	}
	return nil
}
