package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/phrazzld/smartmark/internal/domain"
	"golang.org/x/sync/errgroup"
)

// QueueConfig holds configuration for the enrichment queue.
type QueueConfig struct {
	// ConcurrentLimit is the largest batch claimed by one drain pass.
	ConcurrentLimit int

	// Cooldown is the pause between drain passes.
	Cooldown time.Duration

	// StuckAge is how long a bookmark may stay processing without being
	// queued before the stuck monitor re-enqueues it.
	StuckAge time.Duration

	// StuckCheckInterval is how often the stuck monitor runs.
	// Zero disables the monitor.
	StuckCheckInterval time.Duration
}

// DefaultQueueConfig returns a QueueConfig with reasonable defaults.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		ConcurrentLimit:    3,
		Cooldown:           time.Second,
		StuckAge:           10 * time.Minute,
		StuckCheckInterval: 5 * time.Minute,
	}
}

// Status is a snapshot of the queue.
type Status struct {
	Pending    []string `json:"pending"`
	InFlight   []string `json:"inFlight"`
	Generation uint64   `json:"generation"`
	Draining   bool     `json:"draining"`
}

// Queue is the in-memory enrichment queue. Its state lives only for the
// process lifetime; Recover rebuilds it from the store.
type Queue struct {
	store     BookmarkStore
	processor Processor
	config    QueueConfig
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	pending    []string
	reserved   map[string]bool
	inFlight   map[string]bool
	draining   bool
	generation uint64
	timer      *time.Timer
	stopped    bool
}

// NewQueue creates a Queue. Jobs run on a context that Stop cancels.
func NewQueue(store BookmarkStore, processor Processor, config QueueConfig, logger *slog.Logger) (*Queue, error) {
	if store == nil || processor == nil {
		return nil, fmt.Errorf("%w: store and processor are required", ErrNilDependency)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.ConcurrentLimit <= 0 {
		config.ConcurrentLimit = DefaultQueueConfig().ConcurrentLimit
	}
	if config.Cooldown < 0 {
		config.Cooldown = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		store:     store,
		processor: processor,
		config:    config,
		logger:    logger.With("component", "task_queue"),
		ctx:       ctx,
		cancel:    cancel,
		reserved:  make(map[string]bool),
		inFlight:  make(map[string]bool),
	}, nil
}

// queuedLocked reports whether id is pending, in flight or being admitted.
func (q *Queue) queuedLocked(id string) bool {
	return q.reserved[id] || q.inFlight[id] || slices.Contains(q.pending, id)
}

// Enqueue admits id for enrichment and reports whether it was newly admitted.
// A bookmark that is already pending, in flight, or stored as processing is
// not admitted again. Admission marks the stored bookmark processing and
// clears its previous error.
func (q *Queue) Enqueue(ctx context.Context, id string) (bool, error) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return false, ErrQueueStopped
	}
	if q.queuedLocked(id) {
		q.mu.Unlock()
		q.logger.DebugContext(ctx, "bookmark already queued", "bookmark_id", id)
		return false, nil
	}
	q.reserved[id] = true
	q.mu.Unlock()

	_, err := q.store.UpdateBookmark(ctx, id, func(b *domain.Bookmark) error {
		if !b.IsBookmark() {
			return ErrNotBookmark
		}
		if b.AIStatus == domain.AIStatusProcessing {
			return errAlreadyProcessing
		}
		return b.SetAIStatus(domain.AIStatusProcessing, "")
	})

	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.reserved, id)

	if errors.Is(err, errAlreadyProcessing) {
		q.logger.DebugContext(ctx, "bookmark already processing", "bookmark_id", id)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("admitting bookmark %s: %w", id, err)
	}
	if q.stopped {
		return false, ErrQueueStopped
	}

	q.pending = append(q.pending, id)
	q.logger.InfoContext(ctx, "bookmark queued for enrichment",
		"bookmark_id", id,
		"pending", len(q.pending),
	)
	q.startDrainLocked()
	return true, nil
}

// startDrainLocked begins a new drain chain unless one is active or a
// continuation is already scheduled.
func (q *Queue) startDrainLocked() {
	if q.draining || q.timer != nil || q.stopped || len(q.pending) == 0 {
		return
	}
	q.generation++
	q.runBatchLocked(q.generation)
}

// runBatchLocked claims up to ConcurrentLimit pending IDs and runs them.
func (q *Queue) runBatchLocked(gen uint64) {
	n := min(q.config.ConcurrentLimit, len(q.pending))
	batch := slices.Clone(q.pending[:n])
	q.pending = slices.Delete(q.pending, 0, n)
	for _, id := range batch {
		q.inFlight[id] = true
	}
	q.draining = true

	q.wg.Add(1)
	go q.runBatch(gen, batch)
}

func (q *Queue) runBatch(gen uint64, batch []string) {
	defer q.wg.Done()

	q.logger.Debug("draining enrichment batch", "generation", gen, "batch", batch)

	var g errgroup.Group
	for _, id := range batch {
		g.Go(func() error {
			q.runJob(id)
			return nil
		})
	}
	_ = g.Wait()

	q.mu.Lock()
	defer q.mu.Unlock()

	for _, id := range batch {
		delete(q.inFlight, id)
	}
	q.draining = false

	if q.stopped || len(q.pending) == 0 {
		return
	}
	if gen != q.generation {
		// A Reset happened while the batch ran; work admitted since then
		// starts its own chain.
		q.startDrainLocked()
		return
	}
	q.scheduleLocked(gen)
}

// scheduleLocked runs the next pass of chain gen after the cooldown. The
// continuation does nothing if the generation moved on in the meantime.
func (q *Queue) scheduleLocked(gen uint64) {
	var timer *time.Timer
	timer = time.AfterFunc(q.config.Cooldown, func() {
		q.mu.Lock()
		defer q.mu.Unlock()

		// A stale callback must not clear the timer of a newer chain.
		if q.timer != timer {
			return
		}
		q.timer = nil
		if q.stopped || gen != q.generation || q.draining || len(q.pending) == 0 {
			return
		}
		q.runBatchLocked(gen)
	})
	q.timer = timer
}

func (q *Queue) runJob(id string) {
	ctx := q.ctx
	start := time.Now()
	logger := q.logger.With("bookmark_id", id)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("enrichment job panicked", "panic", r)
			q.markFailed(ctx, id, fmt.Sprintf("internal error: %v", r))
		}
		recordJob(ctx, time.Since(start))
	}()

	logger.Debug("enrichment job started")
	q.processor.Process(ctx, id)
	logger.Debug("enrichment job finished", "duration_ms", time.Since(start).Milliseconds())
}

func (q *Queue) markFailed(ctx context.Context, id, msg string) {
	_, err := q.store.UpdateBookmark(ctx, id, func(b *domain.Bookmark) error {
		return b.SetAIStatus(domain.AIStatusFailed, msg)
	})
	if err != nil {
		q.logger.ErrorContext(ctx, "failed to record job failure", "bookmark_id", id, "error", err)
	}
}

// Recover re-enqueues every bookmark left pending or processing, for example
// by a previous process that exited mid-job. Each is reset to pending and
// enqueued once. It returns the number admitted.
func (q *Queue) Recover(ctx context.Context) (int, error) {
	return q.requeue(ctx, "startup", func(b *domain.Bookmark) bool {
		return b.NeedsEnrichment()
	})
}

// RecoverStuck re-enqueues bookmarks stored as processing for longer than
// age that the queue does not know about.
func (q *Queue) RecoverStuck(ctx context.Context, age time.Duration) (int, error) {
	cutoff := time.Now().Add(-age)
	return q.requeue(ctx, "stuck", func(b *domain.Bookmark) bool {
		return b.IsBookmark() &&
			b.AIStatus == domain.AIStatusProcessing &&
			b.LastModified.Before(cutoff)
	})
}

func (q *Queue) requeue(ctx context.Context, reason string, match func(b *domain.Bookmark) bool) (int, error) {
	q.mu.Lock()
	known := make(map[string]bool, len(q.pending)+len(q.inFlight)+len(q.reserved))
	for _, id := range q.pending {
		known[id] = true
	}
	for id := range q.inFlight {
		known[id] = true
	}
	for id := range q.reserved {
		known[id] = true
	}
	q.mu.Unlock()

	reset, err := q.store.UpdateBookmarks(ctx, func(items []*domain.Bookmark) []string {
		var ids []string
		for _, b := range items {
			if known[b.ID] || !match(b) {
				continue
			}
			if b.SetAIStatus(domain.AIStatusPending, "") == nil {
				ids = append(ids, b.ID)
			}
		}
		return ids
	})
	if err != nil {
		return 0, fmt.Errorf("resetting %s bookmarks: %w", reason, err)
	}

	if len(reset) > 0 {
		q.logger.InfoContext(ctx, "recovering unfinished enrichment", "reason", reason, "count", len(reset))
	}

	admitted := 0
	for _, b := range reset {
		ok, err := q.Enqueue(ctx, b.ID)
		if err != nil {
			q.logger.ErrorContext(ctx, "failed to requeue bookmark",
				"reason", reason,
				"bookmark_id", b.ID,
				"error", err,
			)
			continue
		}
		if ok {
			admitted++
		}
	}
	return admitted, nil
}

// Start recovers unfinished work and starts the stuck monitor.
func (q *Queue) Start(ctx context.Context) error {
	if _, err := q.Recover(ctx); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	if q.config.StuckCheckInterval > 0 && q.config.StuckAge > 0 {
		q.wg.Add(1)
		go q.stuckMonitor()
	}
	return nil
}

func (q *Queue) stuckMonitor() {
	defer q.wg.Done()

	ticker := time.NewTicker(q.config.StuckCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			if _, err := q.RecoverStuck(q.ctx, q.config.StuckAge); err != nil {
				q.logger.Error("failed to check for stuck tasks", "error", err)
			}
		}
	}
}

// Reset drops pending work and invalidates any scheduled continuation.
// Jobs already in flight run to completion. Dropped bookmarks stay
// processing in the store until the stuck monitor or Recover picks them up.
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.generation++
	q.pending = nil
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.logger.Info("task queue reset", "generation", q.generation)
}

// Stop rejects new work, cancels running jobs and waits for them to return.
// Interrupted bookmarks stay processing and are recovered on next start.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
}

// Status returns a snapshot of the queue state.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()

	inFlight := make([]string, 0, len(q.inFlight))
	for id := range q.inFlight {
		inFlight = append(inFlight, id)
	}
	slices.Sort(inFlight)

	return Status{
		Pending:    slices.Clone(q.pending),
		InFlight:   inFlight,
		Generation: q.generation,
		Draining:   q.draining,
	}
}

// Contains reports whether id is pending or in flight.
func (q *Queue) Contains(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.queuedLocked(id)
}
