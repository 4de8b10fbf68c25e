// Package scheduler runs the digest cycle on a cron schedule.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/feedhound/marketnews/internal/logger"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context)

type Scheduler struct {
	cron *cron.Cron
	job  Job
}

// New wires a job onto a cron spec, e.g. "0 */2 * * *".
func New(spec string, job Job) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{cron: c, job: job}

	if _, err := c.AddFunc(spec, func() {
		s.RunOnce(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Logger.Info("scheduler started")
}

// Stop halts scheduling; a running job finishes on its own.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	logger.Logger.Info("scheduler stopped")
}

// RunOnce executes the job immediately, outside the schedule.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.job(ctx)
}
