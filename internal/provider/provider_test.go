// SPDX-License-Identifier: MIT

package provider

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/JacobDahan/occam-api/internal/apperr"
	"github.com/JacobDahan/occam-api/internal/model"
)

// fakeProvider is a minimal StreamingProvider double for exercising the
// errgroup fan-out in FetchAvailabilityBatchParallel without a real
// upstream. failOn names the Imdb ids that should fail.
type fakeProvider struct {
	calls  int64
	failOn map[string]bool
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) SearchTitles(_ context.Context, _ string) ([]model.Title, error) {
	return nil, nil
}

func (f *fakeProvider) FetchAvailability(_ context.Context, id model.TitleID) (model.StreamingAvailability, error) {
	atomic.AddInt64(&f.calls, 1)
	time.Sleep(time.Millisecond)
	if f.failOn[id.Imdb] {
		return model.StreamingAvailability{}, apperr.ExternalAPI("upstream failed for %s", id.Imdb)
	}
	return model.StreamingAvailability{ID: id}, nil
}

func (f *fakeProvider) FetchAvailabilityBatch(ctx context.Context, ids []model.TitleID) ([]model.StreamingAvailability, error) {
	return DefaultFetchAvailabilityBatch(ctx, f, ids, zerolog.Nop())
}

func TestFetchAvailabilityBatchParallel_NoGoroutineLeak(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := &fakeProvider{}
	ids := []model.TitleID{model.Imdb("tt0111161"), model.Imdb("tt0068646"), model.Imdb("tt0071562")}

	results, errs := FetchAvailabilityBatchParallel(context.Background(), p, ids)

	require.Len(t, results, len(ids))
	require.Len(t, errs, len(ids))
	for i, err := range errs {
		assert.NoError(t, err)
		assert.Equal(t, ids[i], results[i].ID)
	}
	assert.EqualValues(t, len(ids), atomic.LoadInt64(&p.calls))
}

func TestFetchAvailabilityBatchParallel_PartialFailureIsolated(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := &fakeProvider{failOn: map[string]bool{"tt0068646": true}}
	ids := []model.TitleID{model.Imdb("tt0111161"), model.Imdb("tt0068646"), model.Imdb("tt0071562")}

	results, errs := FetchAvailabilityBatchParallel(context.Background(), p, ids)

	require.Len(t, errs, len(ids))
	assert.NoError(t, errs[0])
	assert.Error(t, errs[1])
	assert.NoError(t, errs[2])
	assert.Equal(t, ids[0], results[0].ID)
	assert.Equal(t, ids[2], results[2].ID)
}

func TestDefaultFetchAvailabilityBatch_ToleratesPartialFailure(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := &fakeProvider{failOn: map[string]bool{"tt0068646": true}}
	ids := []model.TitleID{model.Imdb("tt0111161"), model.Imdb("tt0068646"), model.Imdb("tt0071562")}

	out, err := p.FetchAvailabilityBatch(context.Background(), ids)

	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestDefaultFetchAvailabilityBatch_AllFailuresReturnError(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := &fakeProvider{failOn: map[string]bool{"tt0111161": true, "tt0068646": true}}
	ids := []model.TitleID{model.Imdb("tt0111161"), model.Imdb("tt0068646")}

	out, err := p.FetchAvailabilityBatch(context.Background(), ids)

	require.Error(t, err)
	assert.Nil(t, out)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindExternalAPI, appErr.Kind)
}

func TestDefaultFetchAvailabilityBatch_EmptyInput(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p := &fakeProvider{}
	out, err := p.FetchAvailabilityBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, out)
}
