package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements the fixed-window counter with cooldown over a
// process-local map. It backs deployments without a shared store and
// the test suite; limits are then per-process, not cross-instance.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Take records one request for the identity and decides admission.
func (s *MemoryStore) Take(_ context.Context, identity string, cfg Config, now time.Time) (Result, error) {
	if s == nil || identity == "" {
		return Result{Allowed: true, Limit: cfg.Points, Remaining: cfg.Points}, nil
	}

	nowMS := now.UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.records[identity]
	if record != nil && record.ResetAt <= nowMS && record.BlockedUntil <= nowMS {
		// The shared store would have expired this key already.
		delete(s.records, identity)
		record = nil
	}

	switch {
	case record != nil && record.BlockedUntil > nowMS:
		return rejection(record, cfg, nowMS), nil
	case record == nil || record.ResetAt <= nowMS:
		record = &Record{Count: 1, ResetAt: nowMS + cfg.Duration.Milliseconds()}
		s.records[identity] = record
	default:
		record.Count++
		if record.Count > cfg.Points {
			record.BlockedUntil = nowMS + cfg.BlockDuration.Milliseconds()
			return rejection(record, cfg, nowMS), nil
		}
	}

	return admission(record, cfg), nil
}

// admission builds the Result for an admitted request.
func admission(record *Record, cfg Config) Result {
	remaining := cfg.Points - record.Count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   true,
		Limit:     cfg.Points,
		Remaining: remaining,
		Reset:     time.UnixMilli(record.ResetAt).UTC(),
	}
}

// rejection builds the Result for a blocked request.
func rejection(record *Record, cfg Config, nowMS int64) Result {
	return Result{
		Allowed:    false,
		Limit:      cfg.Points,
		Remaining:  0,
		Reset:      time.UnixMilli(record.ResetAt).UTC(),
		RetryAfter: time.Duration(record.BlockedUntil-nowMS) * time.Millisecond,
	}
}
