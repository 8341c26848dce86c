package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"delivery_costs_backend/internal/costing"
	"delivery_costs_backend/internal/models"
	"delivery_costs_backend/internal/repositories"
	"delivery_costs_backend/pkg/utils"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrRecalculationInProgress is returned while another run with a different filter
	// holds the tenant. The caller may retry later.
	ErrRecalculationInProgress = errors.New("a recalculation is already in progress for this tenant")
	ErrRecalculationNotFound   = errors.New("recalculation run not found")
	ErrInvalidRecalculation    = errors.New("invalid recalculation request")
)

// Recalculation triggers recorded on each run.
const (
	TriggerManual      = "manual"
	TriggerRuleCreated = "rule_created"
	TriggerRuleUpdated = "rule_updated"
	TriggerCLI         = "cli"
)

// lockRetryInterval is how often a queued run retries the tenant lock held by another process.
const lockRetryInterval = 5 * time.Second

// RecalculationRequest selects the tenant orders a run recomputes.
type RecalculationRequest struct {
	TenantID int64
	Filter   models.RecalculationFilter
	Trigger  string
	// QueueWhenBusy defers the run until the tenant is free instead of joining or
	// rejecting it. Rule changes set it: a running batch keeps the rules it loaded at start.
	QueueWhenBusy bool
}

// RecalculateOrdersRequest is the body of a manual recalculation. Dates are inclusive YYYY-MM-DD.
type RecalculateOrdersRequest struct {
	StoreID  *int64  `json:"store_id"`
	Provider *string `json:"provider"`
	DateFrom string  `json:"date_from"`
	DateTo   string  `json:"date_to"`
	OrderIDs []int64 `json:"order_ids"`
}

// Filter converts the request into a run filter. date_to becomes an exclusive bound.
func (r RecalculateOrdersRequest) Filter() (models.RecalculationFilter, error) {
	from, err := utils.ParseDate(r.DateFrom)
	if err != nil {
		return models.RecalculationFilter{}, fmt.Errorf("%w: %v", ErrInvalidRecalculation, err)
	}
	to, err := utils.ParseDate(r.DateTo)
	if err != nil {
		return models.RecalculationFilter{}, fmt.Errorf("%w: %v", ErrInvalidRecalculation, err)
	}
	if to != nil {
		next := to.AddDate(0, 0, 1)
		to = &next
	}
	filter := models.RecalculationFilter{StoreID: r.StoreID, DateFrom: from, DateTo: to, OrderIDs: r.OrderIDs}
	if r.Provider != nil {
		filter.Provider = utils.NewNullString(*r.Provider)
	}
	return filter, nil
}

// RecalculationStarter starts background runs; the rule service depends only on this.
type RecalculationStarter interface {
	StartRecalculation(req RecalculationRequest) (*models.RecalculationProgress, error)
}

// RecalculationService re-drives the cost pipeline over historical orders.
type RecalculationService interface {
	RecalculationStarter
	RunRecalculation(ctx context.Context, req RecalculationRequest) (*models.RecalculationProgress, error)
	GetProgress(tenantID int64, runID string) (*models.RecalculationProgress, error)
	Shutdown(ctx context.Context) error
}

type recalculationService struct {
	orderRepo  repositories.OrderRepository
	calculator CostingService
	locker     repositories.TenantLocker
	store      *progressStore
	workers    int
	lockRetry  time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	now     func() time.Time
}

// NewRecalculationService creates the orchestrator. The locker keeps runs of one tenant
// exclusive across processes. workers bounds how many orders are costed at once;
// retention is how long finished runs stay pollable.
func NewRecalculationService(or repositories.OrderRepository, calculator CostingService, locker repositories.TenantLocker, workers int, retention time.Duration) RecalculationService {
	if workers < 1 {
		workers = 1
	}
	if retention <= 0 {
		retention = time.Hour
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &recalculationService{
		orderRepo:  or,
		calculator: calculator,
		locker:     locker,
		store:      newProgressStore(retention),
		workers:    workers,
		lockRetry:  lockRetryInterval,
		baseCtx:    ctx,
		cancel:     cancel,
		now:        time.Now,
	}
}

func validateRecalculation(req RecalculationRequest) error {
	if req.TenantID <= 0 {
		return fmt.Errorf("%w: tenant is required", ErrInvalidRecalculation)
	}
	f := req.Filter
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		return fmt.Errorf("%w: date_to is before date_from", ErrInvalidRecalculation)
	}
	return nil
}

// StartRecalculation takes the tenant lock synchronously and runs the batch in the
// background. The returned progress is never terminal unless the run was coalesced into
// one that has already finished.
func (s *recalculationService) StartRecalculation(req RecalculationRequest) (*models.RecalculationProgress, error) {
	if err := validateRecalculation(req); err != nil {
		return nil, err
	}
	if s.baseCtx.Err() != nil {
		return nil, fmt.Errorf("%w: service is shutting down", ErrRecalculationInProgress)
	}

	tracker, outcome, err := s.store.begin(req)
	if err != nil {
		return nil, err
	}
	switch outcome {
	case runCoalesced:
		progress := tracker.snapshot()
		progress.Coalesced = true
		return &progress, nil
	case runQueued:
		progress := tracker.snapshot()
		progress.Queued = true
		return &progress, nil
	}

	unlock, err := s.locker.TryLock(s.baseCtx, req.TenantID)
	if err != nil {
		if errors.Is(err, repositories.ErrLockNotAcquired) && req.QueueWhenBusy {
			tracker.setMessage("waiting for another process to finish recalculating this tenant")
			progress := tracker.snapshot()
			progress.Queued = true
			s.launch(tracker, nil)
			return &progress, nil
		}
		s.launch(s.store.discard(tracker), nil)
		return nil, tenantLockError(err)
	}

	progress := tracker.snapshot()
	s.launch(tracker, unlock)
	return &progress, nil
}

// RunRecalculation runs the batch on the caller's goroutine and returns the terminal progress.
// An identical run already in flight is waited for instead of started again.
func (s *recalculationService) RunRecalculation(ctx context.Context, req RecalculationRequest) (*models.RecalculationProgress, error) {
	if err := validateRecalculation(req); err != nil {
		return nil, err
	}
	tracker, outcome, err := s.store.begin(req)
	if err != nil {
		return nil, err
	}
	if outcome != runStarted {
		select {
		case <-tracker.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		progress := tracker.snapshot()
		progress.Coalesced = outcome == runCoalesced
		progress.Queued = outcome == runQueued
		return &progress, nil
	}

	unlock, err := s.locker.TryLock(ctx, req.TenantID)
	if err != nil {
		s.launch(s.store.discard(tracker), nil)
		return nil, tenantLockError(err)
	}
	s.execute(ctx, tracker, unlock)
	progress := tracker.snapshot()
	return &progress, nil
}

func tenantLockError(err error) error {
	if errors.Is(err, repositories.ErrLockNotAcquired) {
		return fmt.Errorf("%w: another process is recalculating this tenant", ErrRecalculationInProgress)
	}
	return fmt.Errorf("locking tenant for recalculation: %w", err)
}

// launch runs tracker in the background. A nil unlock makes the run wait for the tenant lock first.
func (s *recalculationService) launch(tracker *runTracker, unlock func() error) {
	if tracker == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(s.baseCtx, tracker, unlock)
	}()
}

// waitForTenantLock polls the tenant lock until it is free or ctx ends.
func (s *recalculationService) waitForTenantLock(ctx context.Context, tenantID int64) (func() error, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		unlock, err := s.locker.TryLock(ctx, tenantID)
		if err == nil {
			return unlock, nil
		}
		if !errors.Is(err, repositories.ErrLockNotAcquired) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.lockRetry):
		}
	}
}

func (s *recalculationService) GetProgress(tenantID int64, runID string) (*models.RecalculationProgress, error) {
	tracker, ok := s.store.get(runID)
	if !ok || tracker.tenantID != tenantID {
		return nil, ErrRecalculationNotFound
	}
	progress := tracker.snapshot()
	return &progress, nil
}

// Shutdown cancels running batches; they stop between orders. It waits for them to
// record their final state or for ctx to expire.
func (s *recalculationService) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// execute runs one batch while holding the tenant lock, then starts the tenant's queued
// follow-up run if there is one.
func (s *recalculationService) execute(ctx context.Context, tracker *runTracker, unlock func() error) {
	defer func() { s.launch(s.store.release(tracker), nil) }()

	fields := map[string]interface{}{"run_id": tracker.runID, "tenant_id": tracker.tenantID, "trigger": tracker.trigger}

	if unlock == nil {
		var err error
		unlock, err = s.waitForTenantLock(ctx, tracker.tenantID)
		if err != nil {
			msg := fmt.Sprintf("could not lock tenant: %v", err)
			if ctx.Err() != nil {
				msg = "recalculation cancelled before start"
			}
			utils.LogWarn("Recalculation did not start", fields, map[string]interface{}{"error": err.Error()})
			tracker.finish(s.now(), models.RecalculationError, msg)
			return
		}
	}
	defer func() {
		if err := unlock(); err != nil {
			utils.LogError(err, "Failed to release tenant lock", fields)
		}
	}()

	ids, err := s.orderRepo.ListOrderIDs(tracker.tenantID, tracker.filter)
	if err != nil {
		utils.LogError(err, "Recalculation could not load orders", fields)
		tracker.finish(s.now(), models.RecalculationError, fmt.Sprintf("could not load orders: %v", err))
		return
	}
	snapshot, err := s.calculator.LoadSnapshot(tracker.tenantID)
	if err != nil {
		utils.LogError(err, "Recalculation could not load rules and catalog", fields)
		tracker.finish(s.now(), models.RecalculationError, fmt.Sprintf("could not load rules and catalog: %v", err))
		return
	}

	tracker.start(s.now(), len(ids))
	utils.LogInfo("Recalculation started", fields, map[string]interface{}{"orders": len(ids), "workers": s.workers})

	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		orderID := id
		g.Go(func() error {
			s.recalculateOrder(snapshot, tracker, orderID)
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		msg := fmt.Sprintf("recalculation cancelled: %d of %d orders not attempted", tracker.unattempted(), len(ids))
		if tracker.failed.Load() > 0 {
			msg += "; failed: " + tracker.describeFailures()
		}
		tracker.finish(s.now(), models.RecalculationError, msg)
		utils.LogWarn("Recalculation cancelled", fields, map[string]interface{}{"not_attempted": tracker.unattempted()})
		return
	}

	tracker.finish(s.now(), models.RecalculationCompleted, tracker.completionMessage())
	utils.LogInfo("Recalculation finished", fields, map[string]interface{}{
		"processed": tracker.processed.Load(),
		"failed":    tracker.failed.Load(),
	})
}

// recalculateOrder isolates one order: an error or panic is recorded and the batch goes on.
func (s *recalculationService) recalculateOrder(snapshot *CostingSnapshot, tracker *runTracker, orderID int64) {
	defer func() {
		if r := recover(); r != nil {
			failure := &costing.OrderCalculationFailure{OrderID: orderID, Err: fmt.Errorf("panic: %v", r)}
			utils.LogError(failure, "Order recalculation panicked", map[string]interface{}{"run_id": tracker.runID, "order_id": orderID})
			tracker.recordFailure(orderID)
		}
	}()

	if _, err := s.calculator.CalculateWithSnapshot(snapshot, orderID); err != nil {
		failure := &costing.OrderCalculationFailure{OrderID: orderID, Err: err}
		utils.LogError(failure, "Order recalculation failed", map[string]interface{}{
			"run_id":    tracker.runID,
			"tenant_id": tracker.tenantID,
			"order_id":  orderID,
		})
		tracker.recordFailure(orderID)
		return
	}
	tracker.recordSuccess()
}
