package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	err   error
	calls atomic.Int32
}

func (j *countingJob) Run() error {
	j.calls.Add(1)
	return j.err
}

func (j *countingJob) Name() string { return j.name }

func TestAddJob(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "cleanup"}

	require.NoError(t, s.AddJob(Daily, job))

	err := s.AddJob(Daily, job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already scheduled")

	err = s.AddJob("not a schedule", &countingJob{name: "other"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to add job other")
}

func TestStartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob(Daily, &countingJob{name: "cleanup"}))

	assert.True(t, s.NextRun("cleanup").IsZero())

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())

	next := s.NextRun("cleanup")
	require.False(t, next.IsZero())
	assert.Equal(t, 3, next.UTC().Hour())
	assert.Equal(t, 0, next.UTC().Minute())
	assert.True(t, next.After(time.Now()))

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestNextRun_UnknownJob(t *testing.T) {
	assert.True(t, New(zerolog.Nop()).NextRun("missing").IsZero())
}

func TestRunNow(t *testing.T) {
	s := New(zerolog.Nop())
	ok := &countingJob{name: "ok"}
	failing := &countingJob{name: "failing", err: errors.New("disk full")}

	require.NoError(t, s.AddJob(Daily, ok))
	require.NoError(t, s.AddJob(Daily, failing))

	require.NoError(t, s.RunNow("ok"))
	assert.Equal(t, int32(1), ok.calls.Load())

	err := s.RunNow("failing")
	assert.EqualError(t, err, "disk full")
	assert.Equal(t, int32(1), failing.calls.Load())

	assert.Error(t, s.RunNow("missing"))
}
