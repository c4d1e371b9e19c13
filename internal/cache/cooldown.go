// Package cache keeps short-lived state in Redis: per-user cooldowns and cached AI output.
package cache

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cooldown scopes and their windows
const (
	ScopeBlogCreate  = "blog_create"
	ScopeBlogEdit    = "blog_edit"
	ScopeComment     = "comment"
	ScopeProfileEdit = "profile_edit"
	ScopeAI          = "ai"

	BlogCreateCooldown  = 10 * time.Minute
	BlogEditCooldown    = 2 * time.Minute
	CommentCooldown     = 5 * time.Minute
	ProfileEditCooldown = 24 * time.Hour
	AICooldown          = 60 * time.Second
)

// Cooldown rate limits actions per user with a Redis key that expires after the window
type Cooldown struct {
	client redis.Cmdable
	prefix string
	log    zerolog.Logger
}

func NewCooldown(client redis.Cmdable, log zerolog.Logger) *Cooldown {
	return &Cooldown{client: client, prefix: "lumina:cooldown", log: log}
}

func (c *Cooldown) key(scope string, userID uint) string {
	return c.prefix + ":" + scope + ":" + strconv.FormatUint(uint64(userID), 10)
}

// Acquire starts the cooldown window for the user. When the window is already running it
// returns false and the time left. Redis errors are logged and the action is allowed.
func (c *Cooldown) Acquire(ctx context.Context, scope string, userID uint, ttl time.Duration) (bool, time.Duration, error) {
	key := c.key(scope, userID)
	ok, err := c.client.SetNX(ctx, key, time.Now().Unix(), ttl).Result()
	if err != nil {
		c.log.Warn().Err(err).Str("scope", scope).Uint("user_id", userID).Msg("cooldown unavailable, allowing action")
		return true, 0, err
	}
	if ok {
		return true, 0, nil
	}

	left, err := c.client.PTTL(ctx, key).Result()
	if err != nil || left <= 0 {
		left = ttl
	}
	return false, left, nil
}

// Release ends the window early, used when the guarded action failed
func (c *Cooldown) Release(ctx context.Context, scope string, userID uint) {
	if err := c.client.Del(ctx, c.key(scope, userID)).Err(); err != nil {
		c.log.Warn().Err(err).Str("scope", scope).Uint("user_id", userID).Msg("failed to release cooldown")
	}
}

// WaitMessage tells the user how long to wait before trying the action again
func WaitMessage(left time.Duration, action string) string {
	switch {
	case left < time.Minute:
		secs := int(math.Ceil(left.Seconds()))
		if secs < 1 {
			secs = 1
		}
		return fmt.Sprintf("Please wait %d seconds before %s again.", secs, action)
	case left < time.Hour:
		return fmt.Sprintf("Please wait %d minutes before %s again.", int(math.Ceil(left.Minutes())), action)
	default:
		return fmt.Sprintf("Please wait %d hours before %s again.", int(math.Ceil(left.Hours())), action)
	}
}
