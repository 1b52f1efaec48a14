package ratelimit

import (
	"warden/internal/application/modmail/usecases"
	sharedConfig "warden/internal/shared/config"
)

// DMFloodLimiter applies the modmail flood windows to applicant DMs.
type DMFloodLimiter struct {
	limiter RateLimiter
	config  RateLimitConfig
}

var _ usecases.FloodLimiter = (*DMFloodLimiter)(nil)

func NewDMFloodLimiter(limiter RateLimiter, cfg *sharedConfig.ModmailConfig) *DMFloodLimiter {
	return &DMFloodLimiter{
		limiter: limiter,
		config: RateLimitConfig{
			MessagesPerMinute: cfg.FloodMessagesPerMinute,
			MessagesPerHour:   cfg.FloodMessagesPerHour,
		},
	}
}

func (l *DMFloodLimiter) Allow(key string) (bool, error) {
	return l.limiter.Allow("modmail:dm:"+key, l.config)
}
