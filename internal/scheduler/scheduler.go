// Package scheduler runs the periodic housekeeping jobs of the service.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/unclebandit/wa-router/internal/logging"
)

// DedupePruneInterval is how often expired message ids are dropped.
const DedupePruneInterval = time.Minute

type Scheduler struct {
	s      gocron.Scheduler
	logger *zap.Logger
}

func New(logger *zap.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(logging.NewGocronLogger(logger)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{s: s, logger: logger.Named("scheduler")}, nil
}

// Every runs job at a fixed interval. Overlapping runs are skipped.
func (s *Scheduler) Every(name string, interval time.Duration, job func()) error {
	_, err := s.s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(job),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		s.logger.Error("failed to add job", zap.String("name", name), zap.Error(err))
		return fmt.Errorf("failed to schedule job %q: %w", name, err)
	}
	s.logger.Info("job scheduled", zap.String("name", name), zap.Duration("interval", interval))
	return nil
}

func (s *Scheduler) Start() {
	s.s.Start()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() error {
	if err := s.s.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	return nil
}

// Pruner is implemented by service.Deduper.
type Pruner interface {
	Prune() int
}

// SchedulePrune registers the job that expires remembered message ids.
func (s *Scheduler) SchedulePrune(p Pruner, interval time.Duration) error {
	if interval <= 0 {
		interval = DedupePruneInterval
	}
	return s.Every("dedupe-prune", interval, func() {
		if n := p.Prune(); n > 0 {
			s.logger.Debug("pruned message ids", zap.Int("count", n))
		}
	})
}
