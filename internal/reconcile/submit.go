package reconcile

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nestegg-app/nestegg/internal/domain"
	"github.com/nestegg-app/nestegg/internal/infra/observability"
)

// ─── Submission Coordinator ─────────────────────────────────────────────────
// Applies a batch of changed rows to the data service with bounded
// concurrency and per-item retry, then triggers a full refresh.
//
// Workers pull items from a shared atomic cursor rather than a static
// partition, so fast and slow items self-balance. No ordering is guaranteed
// between items; progress counts are monotonic; the refresh happens-after
// all workers drain.

// Config controls the submission coordinator.
type Config struct {
	Width      int             // worker pool width (default: 3)
	MaxRetries int             // retries after the first failure (default: 2)
	Backoff    []time.Duration // delay before retry n (default: 300ms, 600ms)
}

// DefaultConfig returns the standard submission policy.
func DefaultConfig() Config {
	return Config{
		Width:      3,
		MaxRetries: 2,
		Backoff:    []time.Duration{300 * time.Millisecond, 600 * time.Millisecond},
	}
}

// Coordinator submits changed-row batches through a DataService.
type Coordinator struct {
	svc domain.DataService
	cfg Config

	mu         sync.Mutex
	submitting bool
	failed     map[string]domain.ChangedRow // retained until retried or cleared
	aborted    atomic.Bool
}

// NewCoordinator creates a coordinator with the given policy. Zero config
// fields fall back to defaults.
func NewCoordinator(svc domain.DataService, cfg Config) *Coordinator {
	def := DefaultConfig()
	if cfg.Width <= 0 {
		cfg.Width = def.Width
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.Backoff == nil {
		cfg.Backoff = def.Backoff
	}
	return &Coordinator{
		svc:    svc,
		cfg:    cfg,
		failed: make(map[string]domain.ChangedRow),
	}
}

// Submit applies the batch and returns the aggregated result. An empty batch
// is an immediate no-op success. Progress is reported after every item
// completes (success or final failure); pass nil to skip reporting.
//
// Items that fail after retries are retained in the failed set for
// RetryFailed. The refresh runs once after all workers drain, only when at
// least one item succeeded; a refresh failure is logged, never propagated.
func (c *Coordinator) Submit(ctx context.Context, batch []domain.ChangedRow, progress func(domain.Progress)) (domain.BatchResult, error) {
	if c.svc == nil {
		return domain.BatchResult{}, domain.ErrNoService
	}
	if len(batch) == 0 {
		return domain.BatchResult{}, nil
	}

	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return domain.BatchResult{}, domain.ErrSubmitting
	}
	c.submitting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()
	c.aborted.Store(false)
	defer observability.TimeBatch()()

	total := len(batch)
	results := make([]domain.SubmissionResult, total)
	var cursor atomic.Int64

	// The completed count is incremented under the same mutex that
	// serializes the callback, so reported Current values never regress.
	var progressMu sync.Mutex
	completed := 0
	report := func() {
		if progress == nil {
			return
		}
		progressMu.Lock()
		completed++
		progress(domain.Progress{Current: completed, Total: total})
		progressMu.Unlock()
	}

	width := c.cfg.Width
	if width > total {
		width = total
	}

	var wg sync.WaitGroup
	for w := 0; w < width; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if c.aborted.Load() {
					return
				}
				i := int(cursor.Add(1)) - 1
				if i >= total {
					return
				}
				results[i] = c.submitOne(ctx, batch[i])
				report()
			}
		}()
	}
	wg.Wait()

	res := domain.BatchResult{Results: results}
	c.mu.Lock()
	for i, r := range results {
		switch {
		case r.Success:
			res.SuccessCount++
			delete(c.failed, r.Key)
			observability.SubmissionsTotal.WithLabelValues("success").Inc()
		case r.Key != "":
			res.FailedCount++
			c.failed[r.Key] = batch[i]
			observability.SubmissionsTotal.WithLabelValues("failed").Inc()
		default:
			observability.SubmissionsTotal.WithLabelValues("skipped").Inc()
		}
	}
	c.mu.Unlock()
	res.FailedKeys = c.FailedKeys()

	if res.SuccessCount > 0 {
		if err := c.svc.RefreshAll(ctx); err != nil {
			log.Printf("[submit] refresh after batch failed: %v", err)
		}
	}

	log.Printf("[submit] batch done: %d ok, %d failed of %d", res.SuccessCount, res.FailedCount, total)
	return res, nil
}

// RetryFailed resubmits only the retained failed rows through the same
// pipeline.
func (c *Coordinator) RetryFailed(ctx context.Context, progress func(domain.Progress)) (domain.BatchResult, error) {
	c.mu.Lock()
	batch := make([]domain.ChangedRow, 0, len(c.failed))
	for _, cr := range c.failed {
		batch = append(batch, cr)
	}
	c.mu.Unlock()

	sort.Slice(batch, func(i, j int) bool { return batch[i].Key < batch[j].Key })
	return c.Submit(ctx, batch, progress)
}

// FailedKeys returns the keys of rows that failed after retries, sorted.
// They remain until a retry succeeds or ClearFailed is called.
func (c *Coordinator) FailedKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.failed))
	for k := range c.failed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ClearFailed drops the retained failed set.
func (c *Coordinator) ClearFailed() {
	c.mu.Lock()
	c.failed = make(map[string]domain.ChangedRow)
	c.mu.Unlock()
}

// Abort stops workers from pulling new items after their current item
// finishes. Cooperative only: in-flight requests always complete.
func (c *Coordinator) Abort() {
	c.aborted.Store(true)
}

// ─── Per-item pipeline ──────────────────────────────────────────────────────

// submitOne runs one item through validate → dispatch → retry.
// Retries apply only to transient failures: a 4xx-class error is terminal
// and is never retried.
func (c *Coordinator) submitOne(ctx context.Context, item domain.ChangedRow) domain.SubmissionResult {
	if err := validate(item); err != nil {
		return domain.SubmissionResult{Key: item.Key, Error: err.Error()}
	}

	var lastErr error
	attempts := 1 + c.cfg.MaxRetries
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			observability.SubmissionRetries.Inc()
			var delay time.Duration
			if n := len(c.cfg.Backoff); n > 0 {
				delay = c.cfg.Backoff[n-1]
				if attempt-1 < n {
					delay = c.cfg.Backoff[attempt-1]
				}
			}
			select {
			case <-ctx.Done():
				return domain.SubmissionResult{Key: item.Key, Error: ctx.Err().Error()}
			case <-time.After(delay):
			}
		}

		observability.InFlight.Inc()
		lastErr = c.dispatch(ctx, item)
		observability.InFlight.Dec()
		if lastErr == nil {
			return domain.SubmissionResult{Key: item.Key, Success: true}
		}
		if !domain.IsTransient(lastErr) {
			break
		}
		log.Printf("[submit] %s attempt %d/%d failed: %v", item.Key, attempt+1, attempts, lastErr)
	}
	return domain.SubmissionResult{Key: item.Key, Error: lastErr.Error()}
}

// dispatch routes the item to the update operation for its kind. A cash
// update that fails falls back once to the generic other-asset path: a cash
// position without a dedicated endpoint is treated as a generic asset.
func (c *Coordinator) dispatch(ctx context.Context, item domain.ChangedRow) error {
	switch item.Kind {
	case domain.KindCash:
		if err := c.svc.UpdateCashPosition(ctx, item.ID, item.NewValue); err != nil {
			return c.svc.UpdateOtherAsset(ctx, item.ID, item.NewValue)
		}
		return nil
	case domain.KindLiability:
		return c.svc.UpdateLiability(ctx, item.ID, item.NewValue)
	case domain.KindOther:
		return c.svc.UpdateOtherAsset(ctx, item.ID, item.NewValue)
	case domain.KindSecurity, domain.KindCrypto, domain.KindMetal:
		return c.svc.UpdatePosition(ctx, item.ID, item.NewValue, item.Kind)
	default:
		return &domain.ValidationError{Key: item.Key, Reason: fmt.Sprintf("unknown kind %q", item.Kind)}
	}
}

// validate applies basic shape checks before any request is attempted.
func validate(item domain.ChangedRow) error {
	switch {
	case item.ID == "":
		return &domain.ValidationError{Key: item.Key, Reason: "missing id"}
	case !item.Kind.Valid():
		return &domain.ValidationError{Key: item.Key, Reason: fmt.Sprintf("unknown kind %q", item.Kind)}
	case math.IsNaN(item.NewValue) || math.IsInf(item.NewValue, 0):
		return &domain.ValidationError{Key: item.Key, Reason: "value is not finite"}
	}
	return nil
}
