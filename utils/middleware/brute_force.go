package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/d-valsamis/student-portal/utils/response"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// AttemptStore is the counter/lock storage behind brute force protection.
// *cache.RedisCache implements it.
type AttemptStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	IncrementWithExpiry(ctx context.Context, key string, expiration time.Duration) (int64, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// attemptWindow is how long failed attempts are remembered.
const attemptWindow = 15 * time.Minute

// BruteForceProtection locks out an IP per login endpoint after repeated failures.
// A nil *BruteForceProtection is valid and does nothing.
type BruteForceProtection struct {
	store AttemptStore
}

// NewBruteForceProtection creates a new brute force protection instance
func NewBruteForceProtection(store AttemptStore) *BruteForceProtection {
	return &BruteForceProtection{
		store: store,
	}
}

func attemptKey(scope, ip string) string {
	return fmt.Sprintf("brute_force:%s:attempts:%s", scope, ip)
}

func lockKey(scope, ip string) string {
	return fmt.Sprintf("brute_force:%s:lock:%s", scope, ip)
}

// LockoutFor returns the lock duration after the given number of failures.
func LockoutFor(attempts int64) time.Duration {
	switch {
	case attempts >= 25:
		return 24 * time.Hour
	case attempts >= 10:
		return time.Hour
	case attempts >= 5:
		return 2 * time.Minute
	}
	return 0
}

// CheckLocked rejects requests from a locked-out IP with 429.
// If the store is unreachable the request is let through.
func (b *BruteForceProtection) CheckLocked(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if b == nil {
			return c.Next()
		}

		ctx := c.UserContext()
		key := lockKey(scope, c.IP())

		locked, err := b.store.Exists(ctx, key)
		if err != nil {
			log.Warnf("brute force check unavailable: %v", err)
			return c.Next()
		}

		if locked {
			ttl, _ := b.store.TTL(ctx, key)
			retryAfter := int(ttl.Seconds())
			if retryAfter <= 0 {
				retryAfter = 60
			}

			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", retryAfter))
			return response.TooManyRequests(c, fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
		}

		return c.Next()
	}
}

// RecordFailedAttempt counts a failure and applies progressive lockouts
func (b *BruteForceProtection) RecordFailedAttempt(ctx context.Context, scope, ip string) {
	if b == nil {
		return
	}

	attempts, err := b.store.IncrementWithExpiry(ctx, attemptKey(scope, ip), attemptWindow)
	if err != nil {
		log.Warnf("failed to record login attempt: %v", err)
		return
	}

	if lock := LockoutFor(attempts); lock > 0 {
		if err := b.store.Set(ctx, lockKey(scope, ip), "locked", lock); err != nil {
			log.Warnf("failed to apply lockout: %v", err)
		}
	}
}

// RecordSuccessfulAttempt clears failed attempts on successful login
func (b *BruteForceProtection) RecordSuccessfulAttempt(ctx context.Context, scope, ip string) {
	if b == nil {
		return
	}

	if err := b.store.Delete(ctx, attemptKey(scope, ip), lockKey(scope, ip)); err != nil {
		log.Warnf("failed to clear login attempts: %v", err)
	}
}
