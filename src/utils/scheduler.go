package utils

import (
	"ipo-wizard/src/logger"

	"github.com/robfig/cron/v3"
)

// Job is a named maintenance task run on a cron schedule.
type Job interface {
	Run() error
	Name() string
}

// -----------------------------------------------------------------------------

// Scheduler runs the maintenance jobs (session sweep, draft retention).
type Scheduler struct {
	cron   *cron.Cron
	Logger *logger.Logger
}

func NewScheduler(l *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		Logger: l,
	}
}

// -----------------------------------------------------------------------------

// AddJob registers job under a standard cron spec or a descriptor such as "@every 1m".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.RunNow(job); err != nil {
			s.Logger.Error("Job %s failed: %v", job.Name(), err)
		}
	})
	if err != nil {
		return err
	}

	s.Logger.Info("Job %s registered (%s)", job.Name(), schedule)
	return nil
}

// -----------------------------------------------------------------------------

func (s *Scheduler) RunNow(job Job) error {
	s.Logger.Debug("Running job %s", job.Name())
	return job.Run()
}

// -----------------------------------------------------------------------------

func (s *Scheduler) Start() {
	s.cron.Start()
	s.Logger.Info("Scheduler started with %d jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.Logger.Info("Scheduler stopped")
}
