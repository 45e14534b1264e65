// Package scheduler runs the periodic sweeps on a cron schedule.
package scheduler

import (
	"context"
	"time"

	"scholarfund-backend/internal/infrastructure/metrics"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const defaultJobTimeout = time.Minute

// Job returns how many records it touched.
type Job struct {
	Name string
	Run  func(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron    *cron.Cron
	log     zerolog.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

func New(log zerolog.Logger, m *metrics.Metrics) *Scheduler {
	cl := cronLogger{log: log}
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		log:     log,
		metrics: m,
		timeout: defaultJobTimeout,
	}
}

// Add registers j under a standard cron spec or a descriptor such as "@every 5m".
func (s *Scheduler) Add(spec string, j Job) error {
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background(), j) }); err != nil {
		return err
	}
	s.log.Info().Str("job", j.Name).Str("schedule", spec).Msg("job scheduled")
	return nil
}

// RunOnce executes j immediately with the per-job timeout.
func (s *Scheduler) RunOnce(ctx context.Context, j Job) int64 {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	n, err := j.Run(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("job", j.Name).Msg("job failed")
		return 0
	}
	s.metrics.Swept(j.Name, n)
	ev := s.log.Debug()
	if n > 0 {
		ev = s.log.Info()
	}
	ev.Str("job", j.Name).Int64("affected", n).Dur("took", time.Since(start)).Msg("job finished")
	return n
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

type cronLogger struct{ log zerolog.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
