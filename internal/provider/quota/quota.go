// SPDX-License-Identifier: MIT

// Package quota tracks provider-private upstream call volume against a
// hard monthly budget. This is not part of the cache's public contract —
// providers own their own usage accounting, so each provider that needs it
// holds its own Tracker over the same remote store the cache writes to.
package quota

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/JacobDahan/occam-api/internal/apperr"
	"github.com/JacobDahan/occam-api/internal/cache"
)

// warnThreshold is the fraction of the monthly quota past which CheckQuota
// logs a warning instead of silently allowing the call through.
const warnThreshold = 0.8

// Tracker counts upstream calls per month and per day as plain counters in
// the remote store, independent of the cache's JSON-typed Get/SetInBackground
// path: quota keys are not cache entries, they are usage counters with their
// own TTLs.
type Tracker struct {
	store        cache.Store
	logger       zerolog.Logger
	monthlyLimit int
}

// NewTracker builds a quota Tracker backed by store. monthlyLimit of 0
// disables enforcement: CheckQuota always passes and RecordCall only
// tracks counters.
func NewTracker(store cache.Store, logger zerolog.Logger, monthlyLimit int) *Tracker {
	return &Tracker{store: store, logger: logger, monthlyLimit: monthlyLimit}
}

// CheckQuota reads this month's call count and rejects the call before it
// reaches the upstream once the count has already hit monthlyLimit. A
// warning is logged at 80% usage so an operator sees it coming. Callers
// must invoke this before making the upstream request and RecordCall only
// after the request succeeds.
func (t *Tracker) CheckQuota(ctx context.Context) error {
	if t.monthlyLimit <= 0 {
		return nil
	}

	count := t.currentMonthCount(ctx)
	if count >= t.monthlyLimit {
		t.logger.Error().
			Int("monthly_count", count).
			Int("monthly_quota", t.monthlyLimit).
			Msg("monthly API quota exceeded")
		return apperr.ExternalAPI("API quota exceeded for this month")
	}

	if float64(count)/float64(t.monthlyLimit) > warnThreshold {
		t.logger.Warn().
			Int("monthly_count", count).
			Int("monthly_quota", t.monthlyLimit).
			Int("remaining", t.monthlyLimit-count).
			Msg("API quota at 80%")
	}

	return nil
}

// RecordCall increments this month's and today's counters after a
// successful upstream call. It never returns an error: once a call has
// already gone through, failing to record it is not worth failing the
// request over.
func (t *Tracker) RecordCall(ctx context.Context) {
	now := time.Now().UTC()
	monthKey := "api_usage:" + now.Format("2006-01")
	dayKey := "api_usage:daily:" + now.Format("2006-01-02")

	t.increment(ctx, monthKey, 32*24*time.Hour)
	t.increment(ctx, dayKey, 7*24*time.Hour)
}

func (t *Tracker) currentMonthCount(ctx context.Context) int {
	monthKey := "api_usage:" + time.Now().UTC().Format("2006-01")
	raw, err := t.store.Get(ctx, monthKey)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0
	}
	return n
}

func (t *Tracker) increment(ctx context.Context, key string, ttl time.Duration) int {
	current := 0
	if raw, err := t.store.Get(ctx, key); err == nil {
		if n, err := strconv.Atoi(string(raw)); err == nil {
			current = n
		}
	}
	current++

	if err := t.store.SetEX(ctx, key, []byte(strconv.Itoa(current)), ttl); err != nil {
		t.logger.Warn().Err(err).Str("key", key).Msg("quota counter write failed")
	}
	return current
}
