package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPRateLimiter caps OTP issuance per email inside a rolling window,
// backed by a Redis counter with a TTL. It sits in front of the per-record
// resend cooldown as coarse abuse protection.
// Key format: otp_rate:<email>
type OTPRateLimiter struct {
	client *redis.Client
	window time.Duration
	max    int
}

func NewOTPRateLimiter(client *redis.Client, window time.Duration, max int) *OTPRateLimiter {
	return &OTPRateLimiter{client: client, window: window, max: max}
}

// Allow increments the window counter and reports whether this request is
// within the allowance. The counter expires with the window, so denial is
// always temporary.
func (l *OTPRateLimiter) Allow(ctx context.Context, email string) (bool, error) {
	key := l.key(email)

	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("otp rate incr: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("otp rate expire: %w", err)
		}
	}
	return n <= int64(l.max), nil
}

func (l *OTPRateLimiter) key(email string) string {
	return fmt.Sprintf("otp_rate:%s", email)
}
