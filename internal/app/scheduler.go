package service

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/314yush/caporslap/internal/domain/period"
	"github.com/314yush/caporslap/pkg/logger"
)

// scheduler drives automatic finalization: shortly after each weekly
// rollover it freezes the week that just ended. Manual finalization via
// the API remains available and is idempotent with the scheduled run.
type scheduler struct {
	cron *cron.Cron
	svc  *Service
}

func newScheduler(svc *Service, spec string) (*scheduler, error) {
	s := &scheduler{
		cron: cron.New(),
		svc:  svc,
	}
	if _, err := s.cron.AddFunc(spec, s.finalizePreviousWeek); err != nil {
		return nil, fmt.Errorf("invalid finalize schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *scheduler) start() {
	s.cron.Start()
}

func (s *scheduler) stop() {
	<-s.cron.Stop().Done()
}

func (s *scheduler) finalizePreviousWeek() {
	ctx := context.Background()
	periodID := period.PreviousWeekly(s.svc.clock())
	if _, err := s.svc.FinalizePeriod(ctx, periodID); err != nil {
		s.svc.logger.Error(ctx, "scheduled finalization failed",
			logger.String("period", periodID),
			logger.Error(err),
		)
	}
}
