package timer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/kbenzar/stovewatch/internal/domain"
	"github.com/kbenzar/stovewatch/internal/logger"
	"github.com/kbenzar/stovewatch/internal/storage"
)

func testLogger() *logger.Logger {
	return logger.New(logger.LevelOff, io.Discard)
}

// fakeClock is a mutable time source shared by a runtime and its test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type mockNotifier struct {
	notified  int
	lastTitle string
}

func (m *mockNotifier) RequestPermission(ctx context.Context) error { return nil }

func (m *mockNotifier) Notify(ctx context.Context, title, body string) error {
	m.notified++
	m.lastTitle = title
	return nil
}

type mockAlerter struct {
	alerts int
	err    error
}

func (m *mockAlerter) Alert(ctx context.Context) error {
	m.alerts++
	return m.err
}

func storeHas(t *testing.T, store *storage.MemoryStore, key string) bool {
	t.Helper()
	_, ok, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("store get %s: %v", key, err)
	}
	return ok
}

func TestStartPersistsRunningState(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(testLogger())
	clock := newFakeClock()

	rt := NewRuntime(ctx, "t1", "Simmer (20m)", 20*time.Minute, testLogger(),
		WithStore(store), WithClock(clock.Now), WithKeyPrefix("r1:"))

	if err := rt.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if rt.Phase() != domain.PhaseRunning {
		t.Fatalf("expected running, got %s", rt.Phase())
	}
	if !storeHas(t, store, "r1:timer_t1") {
		t.Error("running key missing after start")
	}
	if storeHas(t, store, "r1:timer_t1_paused") {
		t.Error("paused key should be cleared on start")
	}
}

func TestPauseThenRestore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(testLogger())
	clock := newFakeClock()

	rt := NewRuntime(ctx, "t1", "Bake (45m)", 45*time.Minute, testLogger(),
		WithStore(store), WithClock(clock.Now))
	if err := rt.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(10 * time.Minute)
	if err := rt.Pause(ctx); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if got := rt.Remaining(); got != 35*time.Minute {
		t.Fatalf("remaining after pause: expected 35m, got %s", got)
	}
	if storeHas(t, store, "timer_t1") {
		t.Error("running key should be cleared on pause")
	}

	// A fresh instance over the same store reconstructs the paused state.
	rt2 := NewRuntime(ctx, "t1", "Bake (45m)", 45*time.Minute, testLogger(),
		WithStore(store), WithClock(clock.Now))
	if rt2.Phase() != domain.PhasePaused {
		t.Fatalf("expected restored paused, got %s", rt2.Phase())
	}
	if got := rt2.Remaining(); got != 35*time.Minute {
		t.Fatalf("restored remaining: expected 35m, got %s", got)
	}
}

func TestRestoreRunningAbsorbsElapsedTime(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(testLogger())
	clock := newFakeClock()

	rt := NewRuntime(ctx, "t1", "Roast (2h)", 2*time.Hour, testLogger(),
		WithStore(store), WithClock(clock.Now))
	if err := rt.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	clock.Advance(30 * time.Minute)
	rt2 := NewRuntime(ctx, "t1", "Roast (2h)", 2*time.Hour, testLogger(),
		WithStore(store), WithClock(clock.Now))
	if rt2.Phase() != domain.PhaseRunning {
		t.Fatalf("expected restored running, got %s", rt2.Phase())
	}
	if got := rt2.Remaining(); got != 90*time.Minute {
		t.Fatalf("restored remaining: expected 90m, got %s", got)
	}
}

func TestRestoreExpiredCompletesSilently(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(testLogger())
	clock := newFakeClock()
	notif := &mockNotifier{}
	alert := &mockAlerter{}

	rt := NewRuntime(ctx, "t1", "Steam (10m)", 10*time.Minute, testLogger(),
		WithStore(store), WithClock(clock.Now))
	if err := rt.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	clock.Advance(25 * time.Minute)
	rt2 := NewRuntime(ctx, "t1", "Steam (10m)", 10*time.Minute, testLogger(),
		WithStore(store), WithClock(clock.Now), WithNotifier(notif), WithAlerter(alert))
	if rt2.Phase() != domain.PhaseCompleted {
		t.Fatalf("expected completed, got %s", rt2.Phase())
	}
	if got := rt2.Remaining(); got != 0 {
		t.Errorf("expected zero remaining, got %s", got)
	}
	if storeHas(t, store, "timer_t1") {
		t.Error("expired running key should be cleared")
	}
	// Completion while unobserved must not replay side effects.
	if notif.notified != 0 || alert.alerts != 0 {
		t.Errorf("side effects replayed on restore: notified=%d alerts=%d", notif.notified, alert.alerts)
	}
}

func TestRestoreDiscardsImpossibleEntry(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(testLogger())
	clock := newFakeClock()

	// End timestamp further out than the total duration allows.
	end := clock.Now().Add(3 * time.Hour).UnixMilli()
	if err := store.Set(ctx, "timer_t1", fmt.Sprintf(`{"endTimestamp":%d,"totalDurationSeconds":600}`, end), 0); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rt := NewRuntime(ctx, "t1", "Steam (10m)", 10*time.Minute, testLogger(),
		WithStore(store), WithClock(clock.Now))
	if rt.Phase() != domain.PhaseIdle {
		t.Fatalf("expected idle after discarding corrupt entry, got %s", rt.Phase())
	}
	if got := rt.Remaining(); got != 10*time.Minute {
		t.Errorf("expected full duration, got %s", got)
	}
	if storeHas(t, store, "timer_t1") {
		t.Error("corrupt entry should be deleted")
	}
}

func TestRestoreDiscardsMalformedEntries(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"garbage running", "timer_t1", "definitely not json"},
		{"garbage paused", "timer_t1_paused", "{broken"},
		{"negative paused remaining", "timer_t1_paused", `{"remainingSeconds":-5,"pausedAt":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStore(testLogger())
			if err := store.Set(ctx, tt.key, tt.value, 0); err != nil {
				t.Fatalf("seed: %v", err)
			}
			rt := NewRuntime(ctx, "t1", "Steam (10m)", 10*time.Minute, testLogger(),
				WithStore(store), WithClock(clock.Now))
			if rt.Phase() != domain.PhaseIdle {
				t.Fatalf("expected idle, got %s", rt.Phase())
			}
			if storeHas(t, store, tt.key) {
				t.Error("malformed entry should be deleted")
			}
		})
	}
}

func TestInvalidTransitions(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	rt := NewRuntime(ctx, "t1", "Grill (5m)", 5*time.Minute, testLogger(), WithClock(clock.Now))

	if err := rt.Pause(ctx); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("pause from idle: expected ErrInvalidTransition, got %v", err)
	}
	if err := rt.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := rt.Start(ctx); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("start while running: expected ErrInvalidTransition, got %v", err)
	}
}

func TestObserveCompletesExactlyOnce(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	notif := &mockNotifier{}
	alert := &mockAlerter{}

	rt := NewRuntime(ctx, "t1", "Boil (3m)", 3*time.Minute, testLogger(),
		WithClock(clock.Now), WithNotifier(notif), WithAlerter(alert))
	if err := rt.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	clock.Advance(time.Minute)
	snap := rt.Observe(ctx)
	if snap.Phase != domain.PhaseRunning || snap.RemainingSeconds != 120 {
		t.Fatalf("mid-flight snapshot: %+v", snap)
	}

	clock.Advance(5 * time.Minute)
	snap = rt.Observe(ctx)
	if snap.Phase != domain.PhaseCompleted || snap.RemainingSeconds != 0 {
		t.Fatalf("completion snapshot: %+v", snap)
	}
	rt.Observe(ctx)
	rt.Observe(ctx)
	if notif.notified != 1 {
		t.Errorf("expected exactly one notification, got %d", notif.notified)
	}
	if alert.alerts != 1 {
		t.Errorf("expected exactly one alert, got %d", alert.alerts)
	}
	if notif.lastTitle != "Boil (3m)" {
		t.Errorf("notification title: got %q", notif.lastTitle)
	}
}

func TestCompletionSurvivesAlerterFailure(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	alert := &mockAlerter{err: errors.New("audio device busy")}

	rt := NewRuntime(ctx, "t1", "Boil (1m)", time.Minute, testLogger(),
		WithClock(clock.Now), WithAlerter(alert))
	if err := rt.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(2 * time.Minute)
	if snap := rt.Observe(ctx); snap.Phase != domain.PhaseCompleted {
		t.Fatalf("alerter failure must not block completion: %+v", snap)
	}
}

func TestStartAfterCompletionRestarts(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	rt := NewRuntime(ctx, "t1", "Fry (4m)", 4*time.Minute, testLogger(), WithClock(clock.Now))

	if err := rt.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(10 * time.Minute)
	rt.Observe(ctx)
	if rt.Phase() != domain.PhaseCompleted {
		t.Fatalf("expected completed, got %s", rt.Phase())
	}

	if err := rt.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if rt.Phase() != domain.PhaseRunning {
		t.Fatalf("expected running after restart, got %s", rt.Phase())
	}
	if got := rt.Remaining(); got != 4*time.Minute {
		t.Fatalf("restart must reset to full duration, got %s", got)
	}
}

func TestResetClearsPersistedState(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(testLogger())
	clock := newFakeClock()

	rt := NewRuntime(ctx, "t1", "Rest (15m)", 15*time.Minute, testLogger(),
		WithStore(store), WithClock(clock.Now))
	if err := rt.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(5 * time.Minute)
	if err := rt.Pause(ctx); err != nil {
		t.Fatalf("pause: %v", err)
	}

	rt.Reset(ctx)
	if rt.Phase() != domain.PhaseIdle {
		t.Fatalf("expected idle, got %s", rt.Phase())
	}
	if got := rt.Remaining(); got != 15*time.Minute {
		t.Fatalf("expected full duration, got %s", got)
	}
	if storeHas(t, store, "timer_t1") || storeHas(t, store, "timer_t1_paused") {
		t.Error("reset should clear every persisted key")
	}
}

func TestRemainingDerivedFromClock(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	rt := NewRuntime(ctx, "t1", "Braise (1h)", time.Hour, testLogger(), WithClock(clock.Now))
	if err := rt.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	// No Observe calls in between: remaining tracks the clock, not ticks.
	clock.Advance(17 * time.Minute)
	if got := rt.Remaining(); got != 43*time.Minute {
		t.Fatalf("expected 43m, got %s", got)
	}
	clock.Advance(43 * time.Minute)
	if got := rt.Remaining(); got != 0 {
		t.Fatalf("expected 0, got %s", got)
	}
}

func TestNilStoreMemoryOnly(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	rt := NewRuntime(ctx, "t1", "Toast (2m)", 2*time.Minute, testLogger(), WithClock(clock.Now))

	if err := rt.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(30 * time.Second)
	if err := rt.Pause(ctx); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if got := rt.Remaining(); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}
	rt.Reset(ctx)
	if rt.Phase() != domain.PhaseIdle {
		t.Fatalf("expected idle, got %s", rt.Phase())
	}
}

func TestOnChangeSuppressesRepeats(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()

	var mu sync.Mutex
	var changes []domain.Phase
	onChange := func(sc domain.StateChange) {
		mu.Lock()
		changes = append(changes, sc.Phase)
		mu.Unlock()
	}

	rt := NewRuntime(ctx, "t1", "Simmer (10m)", 10*time.Minute, testLogger(),
		WithClock(clock.Now), WithOnChange(onChange))
	if err := rt.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Repeated observation of an unchanged running timer stays silent.
	clock.Advance(time.Minute)
	rt.Observe(ctx)
	clock.Advance(time.Minute)
	rt.Observe(ctx)

	clock.Advance(20 * time.Minute)
	rt.Observe(ctx)

	mu.Lock()
	defer mu.Unlock()
	want := []domain.Phase{domain.PhaseRunning, domain.PhaseCompleted}
	if len(changes) != len(want) {
		t.Fatalf("expected %v, got %v", want, changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, changes)
		}
	}
}
