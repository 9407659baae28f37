package service

import (
	"context"
	"time"

	"github.com/chemtrack/chemtrack-backend/pkg/logger"
)

// ExpiryScheduler runs the expiry scan periodically
type ExpiryScheduler struct {
	scanner  *ExpiryScanner
	interval time.Duration
	logger   *logger.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewExpiryScheduler creates a new expiry scheduler
func NewExpiryScheduler(scanner *ExpiryScanner, interval time.Duration, log *logger.Logger) *ExpiryScheduler {
	return &ExpiryScheduler{
		scanner:  scanner,
		interval: interval,
		logger:   log.WithComponent("expiry-scheduler"),
	}
}

// Start starts the scheduler in a background goroutine.
// The first scan runs immediately.
func (s *ExpiryScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.logger.Info().Dur("interval", s.interval).Msg("expiry scheduler started")

		s.runScanCycle(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("expiry scheduler stopped")
				return
			case <-ticker.C:
				s.runScanCycle(ctx)
			}
		}
	}()
}

// Stop stops the scheduler goroutine and waits for a running scan to finish
func (s *ExpiryScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

func (s *ExpiryScheduler) runScanCycle(ctx context.Context) {
	start := time.Now()

	found, err := s.scanner.Scan(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("expiry scan failed")
		return
	}

	s.logger.Info().
		Dur("duration", time.Since(start)).
		Int("batch_count", found).
		Msg("expiry scan cycle completed")
}
