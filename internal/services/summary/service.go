package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kattabharath12/tax-1040/internal/common"
	"github.com/kattabharath12/tax-1040/internal/entity"
	"github.com/kattabharath12/tax-1040/internal/form1040"
	"github.com/kattabharath12/tax-1040/internal/repository"
)

// Service builds Form 1040 summaries for a requester's returns.
type Service struct {
	returnRepo repository.TaxReturnRepository
	builder    *form1040.Builder
	logger     *slog.Logger
}

// NewService creates a new summary service.
func NewService(returnRepo repository.TaxReturnRepository, logger *slog.Logger) *Service {
	return &Service{
		returnRepo: returnRepo,
		builder:    form1040.NewBuilder(logger),
		logger:     logger,
	}
}

// BuildSummary loads the return with its income and dependents and builds the summary.
func (s *Service) BuildSummary(ctx context.Context, returnID, userID uuid.UUID) (*entity.TaxReturnSummary, error) {
	tr, err := s.returnRepo.GetForOwner(ctx, returnID, userID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NotFoundError(fmt.Sprintf("tax return %s not found", returnID), err)
	}
	if err != nil {
		return nil, common.PersistenceError("failed to load tax return", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries, err := s.returnRepo.ListIncome(gctx, returnID)
		tr.IncomeEntries = entries
		return err
	})
	g.Go(func() error {
		deps, err := s.returnRepo.ListDependents(gctx, returnID)
		tr.Dependents = deps
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, common.PersistenceError("failed to load return details", err)
	}

	sum := s.builder.Build(tr)
	s.logger.Info("summary.build.ok", "tax_return_id", returnID, "entries", len(tr.IncomeEntries),
		"dependents", len(tr.Dependents))
	return &sum, nil
}

// Validate builds the summary and reports which required fields are missing.
func (s *Service) Validate(ctx context.Context, returnID, userID uuid.UUID) (*entity.TaxReturnSummary, entity.Completeness, error) {
	sum, err := s.BuildSummary(ctx, returnID, userID)
	if err != nil {
		return nil, entity.Completeness{}, err
	}
	c := form1040.ValidateCompleteness(sum)
	if !c.IsValid {
		s.logger.Info("summary.validate.incomplete", "tax_return_id", returnID, "missing", c.MissingFields)
	}
	return sum, c, nil
}
