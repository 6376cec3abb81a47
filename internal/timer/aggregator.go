package timer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kbenzar/stovewatch/internal/domain"
	"github.com/kbenzar/stovewatch/internal/logger"
)

// AggregatorOption configures the aggregator.
type AggregatorOption func(*Aggregator)

// WithTickInterval sets how often the background loop observes timers.
// The interval is purely a display/notification concern: remaining time
// is derived from absolute end timestamps regardless of tick frequency.
func WithTickInterval(d time.Duration) AggregatorOption {
	return func(a *Aggregator) { a.tickInterval = d }
}

// WithAggregatorStore sets the persistence store shared by the member
// runtimes and the summary record.
func WithAggregatorStore(store domain.KeyValueStore) AggregatorOption {
	return func(a *Aggregator) { a.store = store }
}

// WithAggregatorNotifier sets the completion notifier for all members.
func WithAggregatorNotifier(n domain.Notifier) AggregatorOption {
	return func(a *Aggregator) { a.notifier = n }
}

// WithAggregatorAlerter sets the audible alerter for all members.
func WithAggregatorAlerter(al domain.Alerter) AggregatorOption {
	return func(a *Aggregator) { a.alerter = al }
}

// WithAggregatorClock overrides the time source for all members.
func WithAggregatorClock(now Clock) AggregatorOption {
	return func(a *Aggregator) { a.now = now }
}

// WithAggregatorOnChange registers the host's state-change callback,
// shared by all members.
func WithAggregatorOnChange(fn func(domain.StateChange)) AggregatorOption {
	return func(a *Aggregator) { a.onChange = fn }
}

// Aggregator owns one Runtime per descriptor for a single recipe. Each
// member restores its own phase from persistence at construction;
// running members re-derive remaining time from their end timestamps,
// so time elapsed while nothing was mounted is absorbed, not lost.
type Aggregator struct {
	recipeID     string
	descriptors  map[string]domain.TimerDescriptor
	order        []string
	runtimes     map[string]*Runtime
	store        domain.KeyValueStore
	notifier     domain.Notifier
	alerter      domain.Alerter
	log          *logger.Logger
	now          Clock
	onChange     func(domain.StateChange)
	tickInterval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	lastSum domain.Summary
}

// NewAggregator builds runtimes for the given descriptors, restoring
// each from persistence. Keys are namespaced by recipe id.
func NewAggregator(ctx context.Context, recipeID string, descs []domain.TimerDescriptor, log *logger.Logger, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		recipeID:     recipeID,
		descriptors:  make(map[string]domain.TimerDescriptor, len(descs)),
		runtimes:     make(map[string]*Runtime, len(descs)),
		log:          log,
		now:          time.Now,
		tickInterval: 1 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}

	prefix := ""
	if recipeID != "" {
		prefix = recipeID + ":"
	}
	for _, d := range descs {
		if _, exists := a.runtimes[d.ID]; exists {
			continue
		}
		a.descriptors[d.ID] = d
		a.order = append(a.order, d.ID)
		a.runtimes[d.ID] = NewRuntime(ctx, d.ID, d.Label,
			time.Duration(d.DurationMinutes)*time.Minute, log,
			WithStore(a.store),
			WithNotifier(a.notifier),
			WithAlerter(a.alerter),
			WithClock(a.now),
			WithOnChange(a.onChange),
			WithKeyPrefix(prefix),
		)
	}

	log.Debug("aggregator for recipe %q holds %d timers", recipeID, len(a.order))
	return a
}

// Timers returns the member runtimes in detection order.
func (a *Aggregator) Timers() []*Runtime {
	out := make([]*Runtime, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.runtimes[id])
	}
	return out
}

// Timer returns the runtime for id.
func (a *Aggregator) Timer(id string) (*Runtime, bool) {
	rt, ok := a.runtimes[id]
	return rt, ok
}

// Descriptor returns the descriptor for id.
func (a *Aggregator) Descriptor(id string) (domain.TimerDescriptor, bool) {
	d, ok := a.descriptors[id]
	return d, ok
}

// ScrollTarget returns the context span of the timer's originating
// snippet, used by the host UI to correlate a timer with its source
// text. Metadata-derived timers have no target.
func (a *Aggregator) ScrollTarget(id string) (domain.Span, bool) {
	d, ok := a.descriptors[id]
	if !ok || d.ContextSpan.IsMetadata() {
		return domain.Span{}, false
	}
	return d.ContextSpan, true
}

// RunningCount returns the number of currently running timers.
func (a *Aggregator) RunningCount() int {
	n := 0
	for _, rt := range a.runtimes {
		if rt.Phase() == domain.PhaseRunning {
			n++
		}
	}
	return n
}

// CompletedCount returns the number of completed timers.
func (a *Aggregator) CompletedCount() int {
	n := 0
	for _, rt := range a.runtimes {
		if rt.Phase() == domain.PhaseCompleted {
			n++
		}
	}
	return n
}

// TickAll observes every member once and persists the summary when the
// aggregate counts changed. Returns the snapshots in detection order.
func (a *Aggregator) TickAll(ctx context.Context) []domain.StateChange {
	out := make([]domain.StateChange, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.runtimes[id].Observe(ctx))
	}
	a.persistSummary(ctx)
	return out
}

// Start begins the background observation loop. Non-blocking.
func (a *Aggregator) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		a.log.Warn("aggregator for recipe %q already running", a.recipeID)
		return
	}

	childCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.running = true

	go a.loop(childCtx)
	a.log.Info("aggregator started for recipe %q (tick=%s, timers=%d)", a.recipeID, a.tickInterval, len(a.order))
}

// Stop gracefully shuts down the background loop. Persisted end
// timestamps remain the sole source of truth for resumption.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return
	}
	a.cancel()
	a.running = false
	a.log.Info("aggregator stopped for recipe %q", a.recipeID)
}

func (a *Aggregator) loop(ctx context.Context) {
	ticker := time.NewTicker(a.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.TickAll(ctx)
		}
	}
}

func (a *Aggregator) summaryKey() string {
	if a.recipeID == "" {
		return "summary"
	}
	return a.recipeID + ":summary"
}

// persistSummary saves the aggregate counts under the recipe-scoped key.
// Skipped when unchanged since the last save.
func (a *Aggregator) persistSummary(ctx context.Context) {
	if a.store == nil {
		return
	}
	sum := domain.Summary{
		RunningCount:   a.RunningCount(),
		CompletedCount: a.CompletedCount(),
	}

	a.mu.Lock()
	unchanged := sum.RunningCount == a.lastSum.RunningCount &&
		sum.CompletedCount == a.lastSum.CompletedCount
	if !unchanged {
		a.lastSum = sum
	}
	a.mu.Unlock()
	if unchanged {
		return
	}

	sum.SavedAt = a.now().UnixMilli()
	data, err := json.Marshal(sum)
	if err != nil {
		a.log.Error("aggregator: marshaling summary: %v", err)
		return
	}
	if err := a.store.Set(ctx, a.summaryKey(), string(data), 0); err != nil {
		a.log.Warn("aggregator: persisting summary: %v", err)
	}
}
