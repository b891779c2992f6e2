package scheduler

import (
	"context"
	"errors"
	"testing"

	"travel-crm/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNormalizer reports a queue of pending rows drained batch by batch
type fakeNormalizer struct {
	pending int
	err     error
	calls   int
	limits  []int32
}

func (f *fakeNormalizer) NormalizeMissing(ctx context.Context, limit int32) (int, error) {
	f.calls++
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return 0, f.err
	}
	n := f.pending
	if n > int(limit) {
		n = int(limit)
	}
	f.pending -= n
	return n, nil
}

func TestRunNormalizeNow_DrainsInBatches(t *testing.T) {
	customers := &fakeNormalizer{pending: 25}
	bookings := &fakeNormalizer{pending: 3}
	s := NewScheduler(config.JobsConfig{NormalizeBatchSize: 10},
		Target{Name: "partner_customers", Normalizer: customers},
		Target{Name: "bookings", Normalizer: bookings},
	)

	updated, err := s.RunNormalizeNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"partner_customers": 25, "bookings": 3}, updated)
	assert.Equal(t, 3, customers.calls)
	assert.Equal(t, 1, bookings.calls)
	assert.Equal(t, []int32{10, 10, 10}, customers.limits)
}

func TestRunNormalizeNow_BoundedBatches(t *testing.T) {
	backlog := &fakeNormalizer{pending: 1000}
	s := NewScheduler(config.JobsConfig{NormalizeBatchSize: 10}, Target{Name: "bookings", Normalizer: backlog})

	updated, err := s.RunNormalizeNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, maxBatchesPerRun, backlog.calls)
	assert.Equal(t, maxBatchesPerRun*10, updated["bookings"])
}

func TestRunNormalizeNow_StopsOnError(t *testing.T) {
	failing := &fakeNormalizer{err: errors.New("relation does not exist")}
	untouched := &fakeNormalizer{pending: 5}
	s := NewScheduler(config.JobsConfig{},
		Target{Name: "partner_customers", Normalizer: failing},
		Target{Name: "bookings", Normalizer: untouched},
	)

	_, err := s.RunNormalizeNow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "partner_customers")
	assert.Equal(t, 0, untouched.calls)
}

func TestRunNormalizeNow_CancelledContext(t *testing.T) {
	n := &fakeNormalizer{pending: 5}
	s := NewScheduler(config.JobsConfig{}, Target{Name: "bookings", Normalizer: n})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.RunNormalizeNow(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, n.calls)
}

func TestNewScheduler_Defaults(t *testing.T) {
	s := NewScheduler(config.JobsConfig{})
	assert.Equal(t, config.DefaultNormalizeCron, s.spec)
	assert.Equal(t, int32(config.DefaultNormalizeBatchSize), s.batchSize)
}

func TestStart_RegistersJob(t *testing.T) {
	s := NewScheduler(config.JobsConfig{NormalizeCron: "@every 1h"})
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Len(t, s.GetScheduledJobs(), 1)
}

func TestStart_InvalidSpec(t *testing.T) {
	s := NewScheduler(config.JobsConfig{NormalizeCron: "not a schedule"})
	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), NormalizeJobName)
}
