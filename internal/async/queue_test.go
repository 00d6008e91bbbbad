package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kattabharath12/tax-1040/internal/common"
	"github.com/kattabharath12/tax-1040/internal/pipeline"
)

type recordingProcessor struct {
	mu          sync.Mutex
	processed   []uuid.UUID
	reprocessed []uuid.UUID
	users       []string
	deadlines   []time.Time
	fail        map[uuid.UUID]error
}

func (p *recordingProcessor) Process(ctx context.Context, docID, userID uuid.UUID) (*pipeline.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed = append(p.processed, docID)
	uid := common.UserIDFromContext(ctx)
	p.users = append(p.users, uid)
	if d, ok := ctx.Deadline(); ok {
		p.deadlines = append(p.deadlines, d)
	}
	if err := p.fail[docID]; err != nil {
		return nil, err
	}
	return &pipeline.Result{Status: pipeline.StatusCompleted, DocumentID: docID}, nil
}

func (p *recordingProcessor) Reprocess(_ context.Context, docID, _ uuid.UUID) (*pipeline.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reprocessed = append(p.reprocessed, docID)
	return &pipeline.Result{Status: pipeline.StatusCompleted, DocumentID: docID}, nil
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestQueueDrainsJobs(t *testing.T) {
	boom := common.TransportFailure("down", nil)
	bad := uuid.New()
	proc := &recordingProcessor{fail: map[uuid.UUID]error{bad: boom}}

	var (
		mu     sync.Mutex
		failed int
	)
	q := NewProcessorQueue(proc, quietLogger(), WithWorkers(3), WithQueueSize(2),
		WithOnDone(func(_ Job, _ *pipeline.Result, err error) {
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}))

	userID := uuid.New()
	ctx := context.Background()
	for i := 0; i < 9; i++ {
		if err := q.Enqueue(ctx, Job{DocumentID: uuid.New(), UserID: userID}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	if err := q.Enqueue(ctx, Job{DocumentID: bad, UserID: userID}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, Job{DocumentID: uuid.New(), UserID: userID, Reprocess: true}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	q.Shutdown(sctx)

	if len(proc.processed) != 10 || len(proc.reprocessed) != 1 {
		t.Fatalf("processed=%d reprocessed=%d", len(proc.processed), len(proc.reprocessed))
	}
	if failed != 1 {
		t.Fatalf("failed = %d, want 1", failed)
	}
	for _, u := range proc.users {
		if u != userID.String() {
			t.Fatalf("worker context user = %q", u)
		}
	}
}

func TestEnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&recordingProcessor{}, quietLogger(), WithWorkers(1))
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Job{DocumentID: uuid.New()})
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v, want ErrQueueClosed", err)
	}
}

func TestLookupTimeoutBoundsProcessorContext(t *testing.T) {
	proc := &recordingProcessor{}
	q := NewProcessorQueue(proc, quietLogger(), WithWorkers(1), WithLookupTimeout(time.Second))
	start := time.Now()
	if err := q.Enqueue(context.Background(), Job{DocumentID: uuid.New(), UserID: uuid.New()}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(sctx)

	if len(proc.deadlines) != 1 {
		t.Fatalf("deadlines = %d, want 1", len(proc.deadlines))
	}
	if d := proc.deadlines[0]; d.Before(start) || d.After(time.Now().Add(time.Second)) {
		t.Fatalf("deadline %s outside the lookup window", d)
	}
}
