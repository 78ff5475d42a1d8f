package users

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/robfig/cron/v3"

	"github.com/memtensor/userapi/pkg/interfaces"
	"github.com/memtensor/userapi/pkg/metrics"
)

// CleanupScheduler periodically deletes invalid tokens and tokens older than maxAge
type CleanupScheduler struct {
	repository *Repository
	schedule   string
	maxAge     time.Duration
	logger     interfaces.Logger
	metrics    interfaces.Metrics
	now        func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewCleanupScheduler creates a scheduler; nothing runs until Start
func NewCleanupScheduler(repository *Repository, schedule string, maxAge time.Duration, log interfaces.Logger) *CleanupScheduler {
	return &CleanupScheduler{
		repository: repository,
		schedule:   schedule,
		maxAge:     maxAge,
		logger:     log,
		metrics:    metrics.NewNoOpMetrics(),
		now:        time.Now,
	}
}

// WithMetrics sets the collector for sweep results
func (s *CleanupScheduler) WithMetrics(m interfaces.Metrics) *CleanupScheduler {
	if m != nil {
		s.metrics = m
	}
	return s
}

// Start registers the sweep on the cron schedule (server-local time) and starts it
func (s *CleanupScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return errors.New("cleanup scheduler already started")
	}

	c := cron.New(
		cron.WithLogger(cronLogger{s.logger}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{s.logger}), cron.Recover(cronLogger{s.logger})),
	)
	if _, err := c.AddFunc(s.schedule, func() {
		_, _ = s.RunOnce(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", s.schedule, err)
	}

	c.Start()
	s.cron = c

	s.logger.Info("Token cleanup scheduled", map[string]interface{}{
		"schedule": s.schedule,
		"max_age":  s.maxAge.String(),
	})
	return nil
}

// Stop halts the schedule and waits for a running sweep until ctx is done
func (s *CleanupScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs a single sweep and returns the number of deleted rows
func (s *CleanupScheduler) RunOnce(ctx context.Context) (int64, error) {
	s.logger.Info("Running scheduled token cleanup...")

	cutoff := s.now().Add(-s.maxAge)
	var deleted int64

	err := retry.Do(
		func() error {
			n, err := s.repository.DeleteStaleTokens(ctx, cutoff)
			if err != nil {
				return err
			}
			deleted = n
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.metrics.Counter("token_cleanup_retries_total", 1, nil)
		}),
		retry.Context(ctx),
	)
	if err != nil {
		s.metrics.Counter("token_cleanup_failures_total", 1, nil)
		s.logger.Error("Token cleanup failed", err)
		return 0, err
	}

	s.metrics.Counter("token_cleanup_runs_total", 1, nil)
	s.metrics.Gauge("token_cleanup_last_deleted", float64(deleted), nil)
	s.logger.Info("Token cleanup complete.", map[string]interface{}{"deleted": deleted})
	return deleted, nil
}

// cronLogger routes cron's internal logging through the service logger
type cronLogger struct {
	logger interfaces.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, kvFields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, err, kvFields(keysAndValues))
}

func kvFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
