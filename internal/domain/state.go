package domain

import "fmt"

// Phase is the lifecycle state of a timer runtime.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhasePaused
	PhaseCompleted
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhasePaused:
		return "paused"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the phase as its lowercase name.
func (p Phase) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON decodes a lowercase phase name.
func (p *Phase) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"idle"`:
		*p = PhaseIdle
	case `"running"`:
		*p = PhaseRunning
	case `"paused"`:
		*p = PhasePaused
	case `"completed"`:
		*p = PhaseCompleted
	default:
		return fmt.Errorf("unknown phase %s", data)
	}
	return nil
}

// StateChange is the event delivered to the host whenever a timer's
// observable state actually differs from the last notified snapshot.
type StateChange struct {
	ID               string `json:"id"`
	Phase            Phase  `json:"phase"`
	IsRunning        bool   `json:"isRunning"`
	IsPaused         bool   `json:"isPaused"`
	RemainingSeconds int    `json:"remainingTime"`
	TotalSeconds     int    `json:"totalDuration"`
	// EndsAt is the absolute completion instant in epoch milliseconds,
	// zero unless the timer is running.
	EndsAt int64 `json:"startTime,omitempty"`
}

// RunningRecord is the persisted form of a running timer. The absolute
// end timestamp is the sole source of truth for resumption; remaining
// time is always re-derived from it, never stored.
type RunningRecord struct {
	EndTimestamp         int64 `json:"endTimestamp"` // epoch milliseconds
	TotalDurationSeconds int   `json:"totalDurationSeconds"`
}

// PausedRecord is the persisted form of a paused timer.
type PausedRecord struct {
	RemainingSeconds int   `json:"remainingSeconds"`
	PausedAt         int64 `json:"pausedAt"` // epoch milliseconds
}

// Summary is the per-recipe aggregate persisted by the aggregator.
type Summary struct {
	RunningCount   int   `json:"runningCount"`
	CompletedCount int   `json:"completedCount"`
	SavedAt        int64 `json:"savedAt"` // epoch milliseconds
}
