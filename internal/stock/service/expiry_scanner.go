package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chemtrack/chemtrack-backend/internal/stock/domain"
	"github.com/chemtrack/chemtrack-backend/pkg/logger"
)

// ExpiryScanner looks for in-stock batches that are expired or about to
// expire. A batch is announced when it is first found and again only when its
// expiry class changes.
type ExpiryScanner struct {
	batches   BatchSource
	publisher EventPublisher
	now       Clock
	logger    *logger.Logger

	mu       sync.Mutex
	notified map[string]domain.ExpiryClass // batch id -> class last announced
}

// NewExpiryScanner creates a new expiry scanner
func NewExpiryScanner(batches BatchSource, publisher EventPublisher, log *logger.Logger) *ExpiryScanner {
	return &ExpiryScanner{
		batches:   batches,
		publisher: publisher,
		now:       time.Now,
		logger:    log.WithComponent("expiry-scanner"),
		notified:  make(map[string]domain.ExpiryClass),
	}
}

// WithClock replaces the scanner clock
func (s *ExpiryScanner) WithClock(now Clock) *ExpiryScanner {
	s.now = now
	return s
}

// Scan returns how many expired or near-expiry batches it found and publishes
// an event for those not yet announced with their current class
func (s *ExpiryScanner) Scan(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	until := now.AddDate(0, 0, domain.NearExpiryWindowDays)

	batches, err := s.batches.ListExpiring(ctx, until)
	if err != nil {
		return 0, fmt.Errorf("expiry scan: list expiring batches: %w", err)
	}

	found, published := 0, 0
	seen := make(map[string]domain.ExpiryClass, len(batches))
	for _, b := range batches {
		view := domain.NewBatchView(b.Batch, now)
		if view.ExpiryStatus != domain.ExpiryExpired && view.ExpiryStatus != domain.ExpiryNearExpiry {
			continue
		}
		found++
		seen[b.ID] = view.ExpiryStatus
		if s.notified[b.ID] == view.ExpiryStatus {
			continue
		}
		if s.publisher != nil {
			s.publisher.PublishBatchExpiring(ctx, b.ProductName, view)
			published++
		}
	}

	// Batches that left the scan (consumed, deactivated, deleted) are forgotten
	s.notified = seen

	s.logger.Debug().Int("found", found).Int("published", published).Msg("expiry scan finished")
	return found, nil
}
