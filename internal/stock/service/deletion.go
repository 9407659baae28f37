package service

import (
	"context"

	"github.com/chemtrack/chemtrack-backend/internal/stock/domain"
	"github.com/chemtrack/chemtrack-backend/pkg/errors"
	"github.com/chemtrack/chemtrack-backend/pkg/httputil"
)

// CheckDeletable decides whether the product can be deleted. Sales references
// are checked before delivery references.
func (s *StockService) CheckDeletable(ctx context.Context, productID string) (*domain.DeletionCheck, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.checkDeletable(ctx, productID)
}

func (s *StockService) checkDeletable(ctx context.Context, productID string) (*domain.DeletionCheck, error) {
	reason, err := s.refs.FindBlockingReference(ctx, productID)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		return domain.Blocked(productID, reason), nil
	}

	refs, err := s.batches.ListRefsByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(refs) > 0 {
		return domain.CascadeRequired(productID, refs), nil
	}

	return domain.Safe(productID), nil
}

// DeleteProduct deletes the product if the check allows it. A blocked product
// is never touched. A product with batches is only removed when confirmed is
// set; the cascade then deletes exactly the batches the check listed, or
// fails with Conflict if they changed in between.
func (s *StockService) DeleteProduct(ctx context.Context, productID string, confirmed bool) (*domain.DeletionResult, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	check, err := s.checkDeletable(ctx, productID)
	if err != nil {
		return nil, err
	}

	log := s.logger.With().Str("product_id", productID).Logger()

	switch {
	case check.Disposition == domain.DispositionBlocked:
		log.Info().Str("reason", string(check.Reason)).Msg("product deletion blocked")
		return &domain.DeletionResult{Outcome: domain.OutcomeBlocked, Check: check}, nil
	case check.Disposition == domain.DispositionCascadeRequired && !confirmed:
		return &domain.DeletionResult{Outcome: domain.OutcomeAborted, Check: check}, nil
	}

	report, err := s.cascade.DeleteProduct(ctx, productID, check.BatchIDs())
	if err != nil {
		if errors.Is(err, errors.ErrPartialCascadeFailure) {
			log.Error().Err(err).
				Strs("batch_ids", check.BatchIDs()).
				Msg("cascade delete left partial changes, manual reconciliation required")
		}
		return nil, err
	}

	deletedBy := httputil.GetUserID(ctx)
	log.Info().
		Int("batch_count", len(report.BatchIDs)).
		Str("deleted_by", deletedBy).
		Msg("product deleted")

	if s.publisher != nil {
		s.publisher.PublishProductDeleted(ctx, product, report, deletedBy)
	}

	return &domain.DeletionResult{Outcome: domain.OutcomeDeleted, Check: check, Report: report}, nil
}
