// Package jobs runs the periodic maintenance the engine does not
// self-schedule: the bonus expiry sweep.
package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"bonus_service/internal/bonus"
)

type Scheduler struct {
	cron   *cron.Cron
	engine *bonus.Engine
}

func NewScheduler(engine *bonus.Engine) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		engine: engine,
	}
}

// Start registers the expiry sweep on the given cron schedule and starts
// the scheduler.
func (s *Scheduler) Start(ctx context.Context, sweepSchedule string) error {
	_, err := s.cron.AddFunc(sweepSchedule, func() {
		count, err := s.engine.ProcessExpiredBonuses(ctx)
		if err != nil {
			log.WithError(err).Error("expiry sweep failed")
			return
		}
		if count > 0 {
			log.WithField("count", count).Info("expiry sweep done")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.WithField("schedule", sweepSchedule).Info("scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("scheduler stopped")
}
