package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kattabharath12/tax-1040/constants"
	"github.com/kattabharath12/tax-1040/internal/common"
	"github.com/kattabharath12/tax-1040/internal/entity"
	"github.com/kattabharath12/tax-1040/internal/llm"
	"github.com/kattabharath12/tax-1040/internal/preflight"
	"github.com/kattabharath12/tax-1040/internal/storage"
)

// StatusCompleted is the status reported by a successful run.
const StatusCompleted = "completed"

// DocumentStore is the slice of the document repository the pipeline drives.
type DocumentStore interface {
	GetForOwner(ctx context.Context, docID, userID uuid.UUID) (*entity.Document, error)
	ListByReturn(ctx context.Context, returnID uuid.UUID) ([]*entity.Document, error)
	BeginProcessing(ctx context.Context, docID uuid.UUID) error
	ExpireStale(ctx context.Context, docID uuid.UUID, lease time.Duration) (bool, error)
	Reset(ctx context.Context, docID uuid.UUID) (bool, error)
	Complete(ctx context.Context, docID uuid.UUID, rec *entity.ExtractedRecord) error
	Fail(ctx context.Context, docID uuid.UUID, message string) error
}

type UserDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type ReturnOwnership interface {
	GetForOwner(ctx context.Context, returnID, userID uuid.UUID) (*entity.TaxReturn, error)
}

// Preflighter inspects document bytes before extraction.
type Preflighter interface {
	Inspect(ctx context.Context, mimeType string, data []byte) (preflight.Info, error)
}

// Deps are the collaborators of a Processor. A nil Extractor means the
// extraction service is not configured. Preflight is optional.
type Deps struct {
	Documents DocumentStore
	Users     UserDirectory
	Returns   ReturnOwnership
	Files     storage.FileStore
	Extractor llm.Extractor
	Preflight Preflighter
}

type Config struct {
	DefaultConfidence float64
	PreviewLength     int
	ExtractTimeout    time.Duration
	Concurrency       int
	FailWriteTimeout  time.Duration
	// LeaseTimeout is how long a PROCESSING document may go untouched before
	// another run may take it over. It must outlast ExtractTimeout.
	LeaseTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.DefaultConfidence <= 0 {
		c.DefaultConfidence = 0.8
	}
	if c.PreviewLength <= 0 {
		c.PreviewLength = 500
	}
	if c.ExtractTimeout <= 0 {
		c.ExtractTimeout = 90 * time.Second
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.FailWriteTimeout <= 0 {
		c.FailWriteTimeout = 5 * time.Second
	}
	if floor := c.ExtractTimeout + c.FailWriteTimeout; c.LeaseTimeout < floor {
		c.LeaseTimeout = floor + time.Minute
	}
	return c
}

// Result is what a successful run reports to the caller.
type Result struct {
	Status           string                     `json:"status"`
	DocumentID       uuid.UUID                  `json:"documentId"`
	Category         constants.DocumentCategory `json:"category"`
	Confidence       float64                    `json:"confidence"`
	ExtractedFields  map[string]string          `json:"extractedFields"`
	OCRTextPreview   string                     `json:"ocrTextPreview"`
	ProcessingMethod string                     `json:"processingMethod"`
}

// Processor drives a document through PENDING -> PROCESSING -> COMPLETED|FAILED.
type Processor struct {
	deps     Deps
	cfg      Config
	logger   *slog.Logger
	inflight sync.Map
}

func NewProcessor(deps Deps, cfg Config, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{deps: deps, cfg: cfg.withDefaults(), logger: logger}
}

// Configured reports whether an extraction backend is wired.
func (p *Processor) Configured() bool {
	return p.deps.Extractor != nil
}

// Process runs one extraction for the document. A COMPLETED or FAILED
// document is restarted from PENDING and its record replaced.
func (p *Processor) Process(ctx context.Context, docID, userID uuid.UUID) (*Result, error) {
	doc, err := p.authorize(ctx, docID, userID)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, doc)
}

// Reprocess is Process restricted to documents that already started a run.
// A PROCESSING document is only taken over once its lease has gone stale.
func (p *Processor) Reprocess(ctx context.Context, docID, userID uuid.UUID) (*Result, error) {
	doc, err := p.authorize(ctx, docID, userID)
	if err != nil {
		return nil, err
	}
	if doc.Status == constants.StatusPending {
		return nil, common.InvalidArgumentErrorf("document %s is %s; only documents that were processed before can be reprocessed", docID, doc.Status)
	}
	p.logger.Info("pipeline.reprocess", "document_id", docID, "previous_status", doc.Status)
	return p.run(ctx, doc)
}

// authorize resolves the requester and the document and checks the service
// is configured. Nothing is mutated here.
func (p *Processor) authorize(ctx context.Context, docID, userID uuid.UUID) (*entity.Document, error) {
	ok, err := p.deps.Users.Exists(ctx, userID)
	if err != nil {
		return nil, common.PersistenceError("failed to look up user", err)
	}
	if !ok {
		p.logger.Warn("pipeline.unauthorized", "user_id", userID)
		return nil, common.AuthorizationError("unknown user")
	}

	doc, err := p.deps.Documents.GetForOwner(ctx, docID, userID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NotFoundError(fmt.Sprintf("document %s not found", docID), err)
	}
	if err != nil {
		return nil, common.PersistenceError("failed to load document", err)
	}

	if !p.Configured() {
		p.logger.Error("pipeline.not_configured", "document_id", docID)
		return nil, common.ConfigurationError("document processing service is not configured")
	}
	return doc, nil
}

func (p *Processor) run(ctx context.Context, doc *entity.Document) (*Result, error) {
	if _, busy := p.inflight.LoadOrStore(doc.ID, struct{}{}); busy {
		return nil, common.AlreadyProcessingError(fmt.Sprintf("document %s is already processing", doc.ID))
	}
	defer p.inflight.Delete(doc.ID)

	// once PROCESSING begins the run completes or fails; caller cancellation is ignored
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	log := p.logger.With("document_id", doc.ID, "category", doc.Category)
	log.Info("pipeline.process.start", "status", doc.Status, "file", doc.FileName)

	status := doc.Status
	if status == constants.StatusProcessing {
		if err := transition(status, constants.StatusFailed); err != nil {
			return nil, err
		}
		expired, err := p.deps.Documents.ExpireStale(ctx, doc.ID, p.cfg.LeaseTimeout)
		if err != nil {
			return nil, common.PersistenceError("failed to check processing lease", err)
		}
		if !expired {
			return nil, common.AlreadyProcessingError(fmt.Sprintf("document %s is already processing", doc.ID))
		}
		log.Warn("pipeline.lease.expired", "lease", p.cfg.LeaseTimeout)
		status = constants.StatusFailed
	}
	if status.IsTerminal() {
		if err := transition(status, constants.StatusPending); err != nil {
			return nil, err
		}
		if _, err := p.deps.Documents.Reset(ctx, doc.ID); err != nil {
			return nil, common.PersistenceError("failed to reset document", err)
		}
		status = constants.StatusPending
	}
	if err := transition(status, constants.StatusProcessing); err != nil {
		return nil, err
	}
	if err := p.deps.Documents.BeginProcessing(ctx, doc.ID); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, common.AlreadyProcessingError(fmt.Sprintf("document %s is already processing", doc.ID))
		}
		return nil, common.PersistenceError("failed to mark document processing", err)
	}

	rec, err := p.extract(ctx, doc, log)
	if err != nil {
		return nil, p.fail(ctx, doc.ID, err, log)
	}
	if err := p.deps.Documents.Complete(ctx, doc.ID, rec); err != nil {
		return nil, p.fail(ctx, doc.ID, common.PersistenceError("failed to store extracted record", err), log)
	}

	log.Info("pipeline.process.ok",
		"confidence", rec.Confidence,
		"fields", len(rec.Fields),
		"method", rec.ProcessingMethod,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &Result{
		Status:           StatusCompleted,
		DocumentID:       doc.ID,
		Category:         doc.Category,
		Confidence:       rec.Confidence,
		ExtractedFields:  rec.Fields,
		OCRTextPreview:   Preview(rec.OCRText, p.cfg.PreviewLength),
		ProcessingMethod: rec.ProcessingMethod,
	}, nil
}

// transition rejects a status change the document state machine does not allow.
func transition(from, to constants.ProcessingStatus) error {
	if !constants.CanTransition(from, to) {
		return common.InvalidArgumentErrorf("document cannot move from %s to %s", from, to)
	}
	return nil
}

func (p *Processor) extract(ctx context.Context, doc *entity.Document, log *slog.Logger) (*entity.ExtractedRecord, error) {
	data, err := p.deps.Files.Read(ctx, doc.FilePath)
	if err != nil {
		return nil, common.FileAccessError(fmt.Sprintf("cannot read %s", doc.FileName), err)
	}
	mimeType := llm.MimeTypeFor(doc.FileName)
	if p.deps.Preflight != nil {
		info, err := p.deps.Preflight.Inspect(ctx, mimeType, data)
		if err != nil {
			return nil, common.FileAccessError(fmt.Sprintf("cannot use %s", doc.FileName), err)
		}
		log.Debug("pipeline.preflight.ok", "mime", info.MimeType, "pages", info.Pages)
	}

	prompt := llm.BuildPrompt(doc.Category)
	callCtx, cancel := context.WithTimeout(ctx, p.cfg.ExtractTimeout)
	raw, err := p.deps.Extractor.Extract(callCtx, llm.ExtractRequest{
		FileName: doc.FileName,
		MimeType: mimeType,
		Data:     data,
		Prompt:   prompt,
	})
	cancel()
	if err != nil {
		return nil, classifyExtractError(err)
	}

	parsed, err := llm.ParseExtraction(raw.Content, prompt, p.cfg.DefaultConfidence, log)
	if err != nil {
		return nil, common.MalformedResponseError("extraction response is not usable", err)
	}
	return &entity.ExtractedRecord{
		DocumentType:     doc.Category,
		OCRText:          parsed.OCRText,
		Fields:           parsed.Fields,
		Confidence:       parsed.Confidence,
		ProcessingMethod: raw.Method,
	}, nil
}

// fail marks the document FAILED. A failure to do so is attached to cause as
// a secondary error; cause is always what the caller sees.
func (p *Processor) fail(ctx context.Context, docID uuid.UUID, cause error, log *slog.Logger) error {
	log.Error("pipeline.failed", "code", common.CodeOf(cause), "err", cause)

	failCtx, cancel := context.WithTimeout(ctx, p.cfg.FailWriteTimeout)
	defer cancel()
	if err := p.deps.Documents.Fail(failCtx, docID, failureMessage(cause)); err != nil {
		log.Error("pipeline.failed.record", "err", err, "cause", cause)
		return common.WithSecondary(cause, err)
	}
	return cause
}

func classifyExtractError(err error) error {
	switch {
	case errors.Is(err, llm.ErrEmptyResponse), errors.Is(err, llm.ErrInvalidJSON):
		return common.MalformedResponseError("extraction service returned an unusable payload", err)
	case errors.Is(err, context.DeadlineExceeded):
		return common.TransportFailure("extraction service timed out", err)
	default:
		return common.TransportFailure("extraction service request failed", err)
	}
}

func failureMessage(err error) string {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr.Code + ": " + appErr.Message
	}
	return err.Error()
}

// Preview returns the first n runes of text, with "..." appended when cut.
func Preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
