// SPDX-License-Identifier: MIT

// Package provider defines the StreamingProvider capability and its default
// parallel batch-fetch behavior. Concrete providers live in subpackages
// (directimdb, proxiedid).
package provider

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/JacobDahan/occam-api/internal/apperr"
	"github.com/JacobDahan/occam-api/internal/model"
)

// StreamingProvider is the capability every upstream streaming-metadata
// source implements: free-text search, single-title availability, and
// batched availability. It reports a static name for logging.
type StreamingProvider interface {
	Name() string
	SearchTitles(ctx context.Context, query string) ([]model.Title, error)
	FetchAvailability(ctx context.Context, id model.TitleID) (model.StreamingAvailability, error)
	FetchAvailabilityBatch(ctx context.Context, ids []model.TitleID) ([]model.StreamingAvailability, error)
}

// DefaultFetchAvailabilityBatch spawns one worker per id against p via
// FetchAvailabilityBatchParallel, logs each per-title failure, and
// tolerates partial failure: only when every id fails does it surface an
// error. Providers with no bulk endpoint of their own implement
// FetchAvailabilityBatch by delegating straight to this helper.
func DefaultFetchAvailabilityBatch(ctx context.Context, p StreamingProvider, ids []model.TitleID, logger zerolog.Logger) ([]model.StreamingAvailability, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	results, errs := FetchAvailabilityBatchParallel(ctx, p, ids)

	failures := 0
	successes := make([]model.StreamingAvailability, 0, len(ids))
	for i, err := range errs {
		if err != nil {
			failures++
			logger.Warn().Err(err).Str("provider", p.Name()).Msg("availability fetch failed for one title")
			continue
		}
		successes = append(successes, results[i])
	}

	if failures == len(ids) {
		return nil, apperr.ExternalAPI("Failed to fetch any availability data")
	}
	return successes, nil
}

// FetchAvailabilityBatchParallel is the low-level parallel map over
// FetchAvailability. Most callers want DefaultFetchAvailabilityBatch, which
// wraps this with failure aggregation; it is exposed separately for
// providers/tests that need the raw per-index results and errors.
func FetchAvailabilityBatchParallel(ctx context.Context, p StreamingProvider, ids []model.TitleID) ([]model.StreamingAvailability, []error) {
	results := make([]model.StreamingAvailability, len(ids))
	errs := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			avail, err := p.FetchAvailability(gctx, id)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = avail
			return nil
		})
	}
	_ = g.Wait()

	return results, errs
}
