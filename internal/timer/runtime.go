// Package timer implements the per-timer countdown state machine and the
// per-recipe aggregator that owns one runtime per detected timer.
//
// Remaining time for a running timer is never decremented by ticks: it
// is always re-derived from the persisted absolute end timestamp, so
// delayed, throttled, or entirely suspended ticking self-corrects
// instead of drifting.
package timer

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/kbenzar/stovewatch/internal/domain"
	"github.com/kbenzar/stovewatch/internal/logger"
)

// Clock supplies the current time; injected for tests.
type Clock func() time.Time

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithStore sets the persistence store. A nil store (the default) makes
// the runtime memory-only.
func WithStore(store domain.KeyValueStore) RuntimeOption {
	return func(r *Runtime) { r.store = store }
}

// WithNotifier sets the completion notifier.
func WithNotifier(n domain.Notifier) RuntimeOption {
	return func(r *Runtime) { r.notifier = n }
}

// WithAlerter sets the audible completion alerter.
func WithAlerter(a domain.Alerter) RuntimeOption {
	return func(r *Runtime) { r.alerter = a }
}

// WithClock overrides the time source.
func WithClock(now Clock) RuntimeOption {
	return func(r *Runtime) { r.now = now }
}

// WithOnChange registers the host's state-change callback. It fires only
// when phase, isRunning, or isPaused actually differ from the last
// notified snapshot.
func WithOnChange(fn func(domain.StateChange)) RuntimeOption {
	return func(r *Runtime) { r.onChange = fn }
}

// WithKeyPrefix namespaces the persisted keys, typically "<recipeID>:".
func WithKeyPrefix(prefix string) RuntimeOption {
	return func(r *Runtime) { r.keyPrefix = prefix }
}

// Runtime is the live state machine controlling one countdown. It owns
// its persisted keys exclusively; no state is shared between timers.
type Runtime struct {
	id        string
	label     string
	total     time.Duration
	keyPrefix string

	store    domain.KeyValueStore
	notifier domain.Notifier
	alerter  domain.Alerter
	log      *logger.Logger
	now      Clock
	onChange func(domain.StateChange)

	mu        sync.Mutex
	phase     domain.Phase
	remaining time.Duration // authoritative only while Idle or Paused
	endAt     time.Time     // valid only while Running
	lastSent  *domain.StateChange
}

// NewRuntime creates a runtime for one timer and restores any persisted
// state before returning, so a reload reconstructs the same phase. The
// id does not need a live descriptor: persisted state may outlive an
// edited recipe.
func NewRuntime(ctx context.Context, id, label string, total time.Duration, log *logger.Logger, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		id:        id,
		label:     label,
		total:     total,
		log:       log,
		now:       time.Now,
		phase:     domain.PhaseIdle,
		remaining: total,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.restore(ctx)
	return r
}

// ID returns the timer id.
func (r *Runtime) ID() string { return r.id }

// Label returns the human-readable timer label.
func (r *Runtime) Label() string { return r.label }

// Total returns the fixed total duration.
func (r *Runtime) Total() time.Duration { return r.total }

// Phase returns the current phase.
func (r *Runtime) Phase() domain.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Remaining returns the current remaining time. While running it is
// derived from the end timestamp, never from tick counting.
func (r *Runtime) Remaining() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remainingLocked(r.now())
}

func (r *Runtime) remainingLocked(now time.Time) time.Duration {
	if r.phase == domain.PhaseRunning {
		secs := math.Round(r.endAt.Sub(now).Seconds())
		if secs < 0 {
			secs = 0
		}
		return time.Duration(secs) * time.Second
	}
	return r.remaining
}

func (r *Runtime) runningKey() string { return r.keyPrefix + "timer_" + r.id }
func (r *Runtime) pausedKey() string  { return r.keyPrefix + "timer_" + r.id + "_paused" }

// Start begins or resumes the countdown. Valid from Idle or Paused.
// Starting a completed (zero-remainder) timer is a restart: it resets to
// the full duration first.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.phase == domain.PhaseRunning {
		r.mu.Unlock()
		return domain.ErrInvalidTransition
	}
	if r.remaining <= 0 {
		r.remaining = r.total
	}
	now := r.now()
	r.endAt = now.Add(r.remaining)
	r.phase = domain.PhaseRunning

	rec := domain.RunningRecord{
		EndTimestamp:         r.endAt.UnixMilli(),
		TotalDurationSeconds: int(r.total.Seconds()),
	}
	r.persist(ctx, r.runningKey(), rec, r.remaining+time.Minute)
	r.deleteKey(ctx, r.pausedKey())
	r.mu.Unlock()

	r.log.Debug("timer %s started (remaining=%s)", r.id, r.remaining)
	r.emit()
	return nil
}

// Pause freezes the countdown. Valid only from Running.
func (r *Runtime) Pause(ctx context.Context) error {
	r.mu.Lock()
	if r.phase != domain.PhaseRunning {
		r.mu.Unlock()
		return domain.ErrInvalidTransition
	}
	now := r.now()
	r.remaining = r.remainingLocked(now)
	r.phase = domain.PhasePaused

	rec := domain.PausedRecord{
		RemainingSeconds: int(r.remaining.Seconds()),
		PausedAt:         now.UnixMilli(),
	}
	r.persist(ctx, r.pausedKey(), rec, 0)
	r.deleteKey(ctx, r.runningKey())
	r.mu.Unlock()

	r.log.Debug("timer %s paused (remaining=%s)", r.id, r.remaining)
	r.emit()
	return nil
}

// Reset returns the timer to Idle with the full duration and clears all
// persisted state. Valid from any phase.
func (r *Runtime) Reset(ctx context.Context) {
	r.mu.Lock()
	r.deleteKey(ctx, r.runningKey())
	r.deleteKey(ctx, r.pausedKey())
	r.remaining = r.total
	r.endAt = time.Time{}
	r.phase = domain.PhaseIdle
	r.mu.Unlock()

	r.log.Debug("timer %s reset", r.id)
	r.emit()
}

// Observe recomputes the timer's state from the clock, completing it
// exactly once when the remainder reaches zero, and returns the current
// snapshot. Safe to call at any frequency: correctness never depends on
// how often it runs.
func (r *Runtime) Observe(ctx context.Context) domain.StateChange {
	r.mu.Lock()
	completed := false
	if r.phase == domain.PhaseRunning && r.remainingLocked(r.now()) <= 0 {
		r.phase = domain.PhaseCompleted
		r.remaining = 0
		r.deleteKey(ctx, r.runningKey())
		completed = true
	}
	snap := r.snapshotLocked()
	r.mu.Unlock()

	if completed {
		r.log.Info("timer %s (%s) completed", r.id, r.label)
		r.fireCompletion(ctx)
	}
	r.emit()
	return snap
}

// fireCompletion attempts the completion side effects. Failures are
// logged and swallowed: they never affect the phase transition.
func (r *Runtime) fireCompletion(ctx context.Context) {
	if r.notifier != nil {
		if err := r.notifier.RequestPermission(ctx); err != nil {
			r.log.Debug("timer %s: notification permission: %v", r.id, err)
		}
		if err := r.notifier.Notify(ctx, r.label, "Timer finished"); err != nil {
			r.log.Warn("timer %s: notify: %v", r.id, err)
		}
	}
	if r.alerter != nil {
		if err := r.alerter.Alert(ctx); err != nil {
			r.log.Warn("timer %s: alert: %v", r.id, err)
		}
	}
}

// restore reconstructs the phase from persisted state. Paused state wins
// over running state; malformed or structurally impossible entries are
// deleted and the timer falls back to Idle. A timer that expired while
// unobserved completes silently: side effects are not replayed.
func (r *Runtime) restore(ctx context.Context) {
	if r.store == nil {
		return
	}

	if raw, ok := r.loadKey(ctx, r.pausedKey()); ok {
		var rec domain.PausedRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil || rec.RemainingSeconds < 0 {
			r.log.Warn("timer %s: discarding malformed paused entry", r.id)
			r.deleteKey(ctx, r.pausedKey())
			return
		}
		r.phase = domain.PhasePaused
		r.remaining = time.Duration(rec.RemainingSeconds) * time.Second
		r.log.Debug("timer %s restored paused (remaining=%s)", r.id, r.remaining)
		return
	}

	raw, ok := r.loadKey(ctx, r.runningKey())
	if !ok {
		return
	}
	var rec domain.RunningRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		r.log.Warn("timer %s: discarding malformed running entry", r.id)
		r.deleteKey(ctx, r.runningKey())
		return
	}

	endAt := time.UnixMilli(rec.EndTimestamp)
	delta := endAt.Sub(r.now())
	if delta > r.total {
		// Remaining time exceeding the total duration is structurally
		// impossible; treat the entry as foreign or corrupted.
		r.log.Warn("timer %s: discarding impossible running entry (delta=%s, total=%s)", r.id, delta, r.total)
		r.deleteKey(ctx, r.runningKey())
		return
	}
	if delta <= 0 {
		r.phase = domain.PhaseCompleted
		r.remaining = 0
		r.deleteKey(ctx, r.runningKey())
		r.log.Debug("timer %s expired while unobserved", r.id)
		return
	}

	r.phase = domain.PhaseRunning
	r.endAt = endAt
	r.log.Debug("timer %s resumed running (remaining=%s)", r.id, delta.Round(time.Second))
}

func (r *Runtime) snapshotLocked() domain.StateChange {
	snap := domain.StateChange{
		ID:               r.id,
		Phase:            r.phase,
		IsRunning:        r.phase == domain.PhaseRunning,
		IsPaused:         r.phase == domain.PhasePaused,
		RemainingSeconds: int(r.remainingLocked(r.now()).Seconds()),
		TotalSeconds:     int(r.total.Seconds()),
	}
	if snap.IsRunning {
		snap.EndsAt = r.endAt.UnixMilli()
	}
	return snap
}

// emit fires the state-change callback unless the observable state is
// unchanged from the last notification.
func (r *Runtime) emit() {
	if r.onChange == nil {
		return
	}
	r.mu.Lock()
	snap := r.snapshotLocked()
	last := r.lastSent
	if last != nil && last.Phase == snap.Phase &&
		last.IsRunning == snap.IsRunning && last.IsPaused == snap.IsPaused {
		r.mu.Unlock()
		return
	}
	r.lastSent = &snap
	r.mu.Unlock()
	r.onChange(snap)
}

// persist writes a JSON record under key. Store failures degrade to
// memory-only operation.
func (r *Runtime) persist(ctx context.Context, key string, record any, ttl time.Duration) {
	if r.store == nil {
		return
	}
	data, err := json.Marshal(record)
	if err != nil {
		r.log.Error("timer %s: marshaling %s: %v", r.id, key, err)
		return
	}
	if err := r.store.Set(ctx, key, string(data), ttl); err != nil {
		r.log.Warn("timer %s: persisting %s: %v", r.id, key, err)
	}
}

func (r *Runtime) loadKey(ctx context.Context, key string) (string, bool) {
	if r.store == nil {
		return "", false
	}
	val, ok, err := r.store.Get(ctx, key)
	if err != nil {
		r.log.Warn("timer %s: reading %s: %v", r.id, key, err)
		return "", false
	}
	return val, ok
}

func (r *Runtime) deleteKey(ctx context.Context, key string) {
	if r.store == nil {
		return
	}
	if err := r.store.Delete(ctx, key); err != nil {
		r.log.Warn("timer %s: deleting %s: %v", r.id, key, err)
	}
}
