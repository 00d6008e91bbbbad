package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kattabharath12/tax-1040/internal/common"
	"github.com/kattabharath12/tax-1040/internal/pipeline"
)

// ErrQueueClosed is returned by Enqueue once Shutdown has started.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job asks for one document to be run through the extraction pipeline.
type Job struct {
	DocumentID  uuid.UUID
	UserID      uuid.UUID
	Reprocess   bool
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Processor is the part of pipeline.Processor the workers need.
type Processor interface {
	Process(ctx context.Context, docID, userID uuid.UUID) (*pipeline.Result, error)
	Reprocess(ctx context.Context, docID, userID uuid.UUID) (*pipeline.Result, error)
}

type ProcessorQueue struct {
	proc    Processor
	logger  *slog.Logger
	workers int
	timeout time.Duration
	onDone  func(Job, *pipeline.Result, error)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

// WithLookupTimeout bounds the context handed to the processor. Only the
// user and ownership lookups honour it: once a document is PROCESSING the run
// is detached and bounded by pipeline.Config.ExtractTimeout instead.
func WithLookupTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithOnDone registers a callback invoked by the worker after every job.
func WithOnDone(fn func(Job, *pipeline.Result, error)) Option {
	return func(q *ProcessorQueue) { q.onDone = fn }
}

func NewProcessorQueue(proc Processor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 30 * time.Second,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("queue.worker.started", "worker_id", workerID)
				for job := range q.ch {
					q.run(workerID, job)
				}
				q.logger.Info("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	ctx = common.WithUserID(ctx, job.UserID.String())
	if job.TraceID != "" {
		ctx = common.WithRequestID(ctx, job.TraceID)
	}

	var (
		res *pipeline.Result
		err error
	)
	if job.Reprocess {
		res, err = q.proc.Reprocess(ctx, job.DocumentID, job.UserID)
	} else {
		res, err = q.proc.Process(ctx, job.DocumentID, job.UserID)
	}
	if err != nil {
		q.logger.Error("queue.job.failed", "worker_id", workerID, "document_id", job.DocumentID,
			"code", common.CodeOf(err), "waited_ms", time.Since(job.SubmittedAt).Milliseconds(), "err", err)
	} else {
		q.logger.Info("queue.job.done", "worker_id", workerID, "document_id", job.DocumentID,
			"category", res.Category)
	}
	if q.onDone != nil {
		q.onDone(job, res, err)
	}
}

// Enqueue blocks while the buffer is full until ctx is done.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "document_id", job.DocumentID)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Info("queue.enqueued", "document_id", job.DocumentID, "reprocess", job.Reprocess)
		return nil
	default:
	}
	q.logger.Warn("queue.full", "document_id", job.DocumentID)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.drained")
	}
}
