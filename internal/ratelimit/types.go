package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Config holds the effective rate limit policy.
type Config struct {
	Enabled       bool
	Points        int
	Duration      time.Duration
	BlockDuration time.Duration
}

// Record is the per-identity counter persisted in the shared store.
// Timestamps are unix milliseconds.
type Record struct {
	Count        int   `json:"count"`
	ResetAt      int64 `json:"resetAt"`
	BlockedUntil int64 `json:"blockedUntil,omitempty"`
}

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Reset      time.Time
	RetryAfter time.Duration
}

// Store tracks per-identity request counts with expiry.
type Store interface {
	// Take records one request for the identity and decides admission.
	Take(ctx context.Context, identity string, cfg Config, now time.Time) (Result, error)
}

// ErrCorruptRecord indicates the stored record could not be decoded.
// Callers treat it like any other store failure and admit the request.
var ErrCorruptRecord = errors.New("ratelimit: corrupt stored record")
