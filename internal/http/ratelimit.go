package http

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// SignInLimiter locks out a client after repeated authentication failures
// for the same account. Accounts are keyed by a hash of the identifier so the
// identifier itself is never retained.
type SignInLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptRecord

	maxFailures int
	window      time.Duration
	lockout     time.Duration
	now         func() time.Time
}

type attemptRecord struct {
	count        int
	firstFailure time.Time
	lockedUntil  time.Time
}

// SignInLimitConfig configures a SignInLimiter. Zero values take defaults.
type SignInLimitConfig struct {
	MaxFailures int           // failures before lockout (default: 5)
	Window      time.Duration // window for counting failures (default: 15m)
	Lockout     time.Duration // lockout length (default: 30m)
}

func NewSignInLimiter(cfg SignInLimitConfig) *SignInLimiter {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.Lockout <= 0 {
		cfg.Lockout = 30 * time.Minute
	}
	return &SignInLimiter{
		attempts:    make(map[string]*attemptRecord),
		maxFailures: cfg.MaxFailures,
		window:      cfg.Window,
		lockout:     cfg.Lockout,
		now:         time.Now,
	}
}

func limiterKey(ip, identifier string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(identifier))))
	return ip + ":" + hex.EncodeToString(sum[:8])
}

// Allow reports whether a sync may be attempted, and if not, for how long
// the client stays locked out.
func (l *SignInLimiter) Allow(ip, identifier string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.attempts[limiterKey(ip, identifier)]
	if !ok {
		return true, 0
	}
	now := l.now()
	if now.Before(record.lockedUntil) {
		return false, record.lockedUntil.Sub(now)
	}
	return true, 0
}

// RecordFailure counts an authentication failure and reports whether it
// triggered a lockout.
func (l *SignInLimiter) RecordFailure(ip, identifier string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	key := limiterKey(ip, identifier)
	record, ok := l.attempts[key]
	if !ok || now.Sub(record.firstFailure) > l.window {
		record = &attemptRecord{firstFailure: now}
		l.attempts[key] = record
	}

	record.count++
	if record.count >= l.maxFailures {
		record.lockedUntil = now.Add(l.lockout)
		return true, l.lockout
	}
	return false, 0
}

// RecordSuccess forgets the failures of a client/account pair.
func (l *SignInLimiter) RecordSuccess(ip, identifier string) {
	l.mu.Lock()
	delete(l.attempts, limiterKey(ip, identifier))
	l.mu.Unlock()
}

// prune drops records whose window and lockout have both expired.
// The caller holds l.mu.
func (l *SignInLimiter) prune(now time.Time) {
	for key, record := range l.attempts {
		if now.Sub(record.firstFailure) > l.window && !now.Before(record.lockedUntil) {
			delete(l.attempts, key)
		}
	}
}
