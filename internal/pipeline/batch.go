package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kattabharath12/tax-1040/constants"
	"github.com/kattabharath12/tax-1040/internal/common"
)

// Outcome is the per-document result of a batch run.
type Outcome struct {
	DocumentID uuid.UUID `json:"documentId"`
	Result     *Result   `json:"result,omitempty"`
	Skipped    bool      `json:"skipped,omitempty"`
	Code       string    `json:"code,omitempty"`
	Error      string    `json:"error,omitempty"`
}

type BatchResult struct {
	TaxReturnID uuid.UUID `json:"taxReturnId"`
	Processed   int       `json:"processed"`
	Failed      int       `json:"failed"`
	Skipped     int       `json:"skipped"`
	Outcomes    []Outcome `json:"outcomes"`
}

// ProcessReturn runs every document of the return that is not yet COMPLETED.
// Documents run concurrently; one failure does not stop the others.
func (p *Processor) ProcessReturn(ctx context.Context, returnID, userID uuid.UUID) (*BatchResult, error) {
	if p.deps.Returns == nil {
		return nil, common.ConfigurationError("return lookup is not wired")
	}
	if _, err := p.deps.Returns.GetForOwner(ctx, returnID, userID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFoundError(fmt.Sprintf("tax return %s not found", returnID), err)
		}
		return nil, common.PersistenceError("failed to load tax return", err)
	}
	if !p.Configured() {
		return nil, common.ConfigurationError("document processing service is not configured")
	}

	docs, err := p.deps.Documents.ListByReturn(ctx, returnID)
	if err != nil {
		return nil, common.PersistenceError("failed to list documents", err)
	}

	out := &BatchResult{TaxReturnID: returnID, Outcomes: make([]Outcome, len(docs))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for i, doc := range docs {
		out.Outcomes[i].DocumentID = doc.ID
		if doc.Status == constants.StatusCompleted {
			out.Outcomes[i].Skipped = true
			continue
		}
		i, doc := i, doc
		g.Go(func() error {
			res, err := p.Process(gctx, doc.ID, userID)
			if err != nil {
				out.Outcomes[i].Code = common.CodeOf(err)
				out.Outcomes[i].Error = err.Error()
				return nil
			}
			out.Outcomes[i].Result = res
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range out.Outcomes {
		switch {
		case o.Result != nil:
			out.Processed++
		case o.Skipped:
			out.Skipped++
		default:
			out.Failed++
		}
	}
	p.logger.Info("pipeline.batch.done", "tax_return_id", returnID,
		"processed", out.Processed, "failed", out.Failed, "skipped", out.Skipped)
	return out, nil
}
