package utils

import (
	"errors"
	"testing"

	"ipo-wizard/src/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs int
	err  error
}

func (j *countingJob) Name() string { return "counting" }
func (j *countingJob) Run() error {
	j.runs++
	return j.err
}

func TestSchedulerAddJob(t *testing.T) {
	s := NewScheduler(logger.NewNopLogger("Scheduler"))

	require.NoError(t, s.AddJob("@every 1m", &countingJob{}))
	require.NoError(t, s.AddJob(DefaultRetentionSchedule, &countingJob{}))
	assert.Error(t, s.AddJob("every now and then", &countingJob{}))
	assert.Len(t, s.cron.Entries(), 2)
}

func TestSchedulerRunNow(t *testing.T) {
	s := NewScheduler(logger.NewNopLogger("Scheduler"))
	job := &countingJob{err: errors.New("boom")}

	assert.EqualError(t, s.RunNow(job), "boom")
	assert.Equal(t, 1, job.runs)

	s.Start()
	s.Stop()
}
