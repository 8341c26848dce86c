package services

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"delivery_costs_backend/internal/models"

	"github.com/google/uuid"
)

// maxListedFailures caps how many failed order ids the completion message names.
const maxListedFailures = 20

// runTracker is the live state of one recalculation run. Workers only touch the atomic
// counters and the failure list.
type runTracker struct {
	runID     string
	tenantID  int64
	trigger   string
	filter    models.RecalculationFilter
	filterKey string

	total     atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64

	mu          sync.Mutex
	status      models.RecalculationStatus
	failedIDs   []int64
	startedAt   *time.Time
	completedAt *time.Time
	message     string

	done chan struct{}
}

func newRunTracker(tenantID int64, trigger string, filter models.RecalculationFilter) *runTracker {
	return &runTracker{
		runID:     uuid.NewString(),
		tenantID:  tenantID,
		trigger:   trigger,
		filter:    filter,
		filterKey: recalculationFilterKey(filter),
		status:    models.RecalculationIdle,
		message:   "queued",
		done:      make(chan struct{}),
	}
}

func (t *runTracker) start(now time.Time, total int) {
	t.total.Store(int64(total))
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = models.RecalculationProcessing
	t.startedAt = &now
	t.message = fmt.Sprintf("recalculating %d orders", total)
}

func (t *runTracker) setMessage(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.status.IsTerminal() {
		t.message = message
	}
}

func (t *runTracker) recordSuccess() {
	t.processed.Add(1)
}

func (t *runTracker) recordFailure(orderID int64) {
	t.mu.Lock()
	t.failedIDs = append(t.failedIDs, orderID)
	t.mu.Unlock()
	t.failed.Add(1)
}

// finish moves the run to a terminal state exactly once.
func (t *runTracker) finish(now time.Time, status models.RecalculationStatus, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.IsTerminal() {
		return
	}
	t.status = status
	t.completedAt = &now
	if t.startedAt == nil {
		t.startedAt = &now
	}
	t.message = message
	close(t.done)
}

func (t *runTracker) completionMessage() string {
	total, processed, failed := t.total.Load(), t.processed.Load(), t.failed.Load()
	if failed == 0 {
		return fmt.Sprintf("recalculated %d of %d orders", processed, total)
	}
	return fmt.Sprintf("recalculated %d of %d orders; %d failed: %s", processed, total, failed, t.describeFailures())
}

func (t *runTracker) describeFailures() string {
	t.mu.Lock()
	ids := append([]int64(nil), t.failedIDs...)
	t.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	listed := ids
	if len(listed) > maxListedFailures {
		listed = listed[:maxListedFailures]
	}
	parts := make([]string, 0, len(listed))
	for _, id := range listed {
		parts = append(parts, fmt.Sprintf("order %d", id))
	}
	text := strings.Join(parts, ", ")
	if extra := len(ids) - len(listed); extra > 0 {
		text += fmt.Sprintf(" and %d more", extra)
	}
	return text
}

func (t *runTracker) unattempted() int64 {
	return t.total.Load() - t.processed.Load() - t.failed.Load()
}

func (t *runTracker) snapshot() models.RecalculationProgress {
	total, processed, failed := t.total.Load(), t.processed.Load(), t.failed.Load()

	t.mu.Lock()
	defer t.mu.Unlock()
	progress := models.RecalculationProgress{
		RunID:       t.runID,
		TenantID:    t.tenantID,
		Status:      t.status,
		Trigger:     t.trigger,
		Total:       int(total),
		Processed:   int(processed),
		Failed:      int(failed),
		StartedAt:   t.startedAt,
		CompletedAt: t.completedAt,
		Message:     t.message,
	}
	if len(t.failedIDs) > 0 {
		progress.FailedOrderIDs = append([]int64(nil), t.failedIDs...)
		sort.Slice(progress.FailedOrderIDs, func(i, j int) bool { return progress.FailedOrderIDs[i] < progress.FailedOrderIDs[j] })
	}
	switch {
	case total > 0:
		progress.Percentage = math.Round(float64(processed+failed)/float64(total)*10000) / 100
	case t.status == models.RecalculationCompleted:
		progress.Percentage = 100
	}
	return progress
}

// beginOutcome tells the caller what begin did with a request.
type beginOutcome int

const (
	runStarted beginOutcome = iota
	runCoalesced
	runQueued
)

// progressStore keeps one active run per tenant, at most one queued follow-up run per
// tenant and the recent history of runs.
type progressStore struct {
	mu        sync.Mutex
	active    map[int64]*runTracker  // by tenant
	pending   map[int64]*runTracker  // by tenant, started when the active run ends
	runs      map[string]*runTracker // by run id
	retention time.Duration
	now       func() time.Time
}

func newProgressStore(retention time.Duration) *progressStore {
	return &progressStore{
		active:    map[int64]*runTracker{},
		pending:   map[int64]*runTracker{},
		runs:      map[string]*runTracker{},
		retention: retention,
		now:       time.Now,
	}
}

// begin registers a run for the tenant. When a run is already active:
//   - a QueueWhenBusy request becomes (or joins) the tenant's follow-up run;
//   - an identical filter returns the active run with runCoalesced;
//   - any other filter fails with ErrRecalculationInProgress.
func (s *progressStore) begin(req RecalculationRequest) (*runTracker, beginOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()

	running, busy := s.active[req.TenantID]
	if !busy {
		tracker := newRunTracker(req.TenantID, req.Trigger, req.Filter)
		s.active[req.TenantID] = tracker
		s.runs[tracker.runID] = tracker
		return tracker, runStarted, nil
	}

	if req.QueueWhenBusy {
		if next, ok := s.pending[req.TenantID]; ok {
			next.widen(req.Filter)
			return next, runQueued, nil
		}
		next := newRunTracker(req.TenantID, req.Trigger, req.Filter)
		next.message = fmt.Sprintf("queued behind run %s", running.runID)
		s.pending[req.TenantID] = next
		s.runs[next.runID] = next
		return next, runQueued, nil
	}

	if running.filterKey == recalculationFilterKey(req.Filter) {
		return running, runCoalesced, nil
	}
	return nil, runStarted, ErrRecalculationInProgress
}

// widen merges another filter into a queued run. Different filters fall back to every
// order of the tenant. Only called under the store lock before the run starts.
func (t *runTracker) widen(filter models.RecalculationFilter) {
	if recalculationFilterKey(filter) == t.filterKey {
		return
	}
	t.filter = models.RecalculationFilter{}
	t.filterKey = recalculationFilterKey(t.filter)
}

// release frees the tenant and promotes its queued follow-up run, which the caller
// must start.
func (s *progressStore) release(tracker *runTracker) *runTracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[tracker.tenantID] != tracker {
		return nil
	}
	delete(s.active, tracker.tenantID)
	next, ok := s.pending[tracker.tenantID]
	if !ok {
		return nil
	}
	delete(s.pending, tracker.tenantID)
	s.active[tracker.tenantID] = next
	return next
}

// discard forgets a run that never started, as if it had not been requested.
func (s *progressStore) discard(tracker *runTracker) *runTracker {
	next := s.release(tracker)
	s.mu.Lock()
	delete(s.runs, tracker.runID)
	s.mu.Unlock()
	return next
}

func (s *progressStore) get(runID string) (*runTracker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	tracker, ok := s.runs[runID]
	return tracker, ok
}

func (s *progressStore) pruneLocked() {
	cutoff := s.now().Add(-s.retention)
	for id, tracker := range s.runs {
		tracker.mu.Lock()
		expired := tracker.completedAt != nil && tracker.completedAt.Before(cutoff)
		tracker.mu.Unlock()
		if expired {
			delete(s.runs, id)
		}
	}
}

// recalculationFilterKey canonicalizes a filter so equal requests compare equal.
func recalculationFilterKey(filter models.RecalculationFilter) string {
	ids := append([]int64(nil), filter.OrderIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	filter.OrderIDs = ids
	if filter.DateFrom != nil {
		from := filter.DateFrom.UTC()
		filter.DateFrom = &from
	}
	if filter.DateTo != nil {
		to := filter.DateTo.UTC()
		filter.DateTo = &to
	}
	key, _ := json.Marshal(filter)
	return string(key)
}
