// Package domain defines the core types and interfaces for stovewatch.
// All other packages depend on domain; domain depends on nothing.
package domain

import (
	"fmt"
	"strings"
)

// Span marks a half-open [Start, End) character range in the source text.
// Both fields are -1 when the descriptor comes from recipe metadata rather
// than body text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// MetadataSpan is the sentinel span for descriptors that have no position
// in the instruction text (e.g. a recipe-level cook-time field).
var MetadataSpan = Span{Start: -1, End: -1}

// IsMetadata reports whether the span is the metadata sentinel.
func (s Span) IsMetadata() bool {
	return s.Start < 0
}

// Intersects reports whether two spans share at least one character.
func (s Span) Intersects(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Duration bounds for actionable timers, in minutes. Anything outside
// this range (including unbounded terms like "overnight") never becomes
// a timer.
const (
	MinTimerMinutes = 1
	MaxTimerMinutes = 1440
)

// TimerDescriptor describes one detected timer opportunity in recipe text.
// Descriptors are immutable once produced by the extractor.
type TimerDescriptor struct {
	// ID is derived deterministically from source position, matched text
	// and duration, so re-parsing the same text reproduces the same ids
	// and persisted runtime state can be re-associated.
	ID string `json:"id"`
	// Label is a human-readable summary, e.g. "Simmer (20m)".
	Label string `json:"label"`
	// DurationMinutes is a positive integer in [1, 1440].
	DurationMinutes int `json:"durationMinutes"`
	// SourceText is the exact matched duration phrase.
	SourceText string `json:"sourceText"`
	// Context is a bounded snippet surrounding the match, used for
	// display and click-to-scroll linking.
	Context string `json:"context"`
	// CookingAction classifies the verb governing the duration.
	CookingAction CookingAction `json:"cookingAction"`
	// ContextSpan locates Context within the original text. MetadataSpan
	// when the descriptor originates from recipe metadata.
	ContextSpan Span `json:"contextSpan"`
	// MatchSpan locates the matched phrase within Context.
	MatchSpan Span `json:"matchSpanWithinContext"`
}

// CookingAction is the closed classification of the verb governing a
// detected duration.
type CookingAction int

const (
	ActionOther CookingAction = iota
	ActionBroil
	ActionBake
	ActionCook
	ActionSimmer
	ActionBoil
	ActionFry
	ActionSaute
	ActionRoast
	ActionGrill
	ActionSteam
	ActionBraise
	ActionToast
	ActionHeat
	ActionPrep
	ActionMarinate
	ActionRest
	ActionChill
	ActionRise
)

// String returns the lowercase name of the action.
func (a CookingAction) String() string {
	switch a {
	case ActionBroil:
		return "broil"
	case ActionBake:
		return "bake"
	case ActionCook:
		return "cook"
	case ActionSimmer:
		return "simmer"
	case ActionBoil:
		return "boil"
	case ActionFry:
		return "fry"
	case ActionSaute:
		return "saute"
	case ActionRoast:
		return "roast"
	case ActionGrill:
		return "grill"
	case ActionSteam:
		return "steam"
	case ActionBraise:
		return "braise"
	case ActionToast:
		return "toast"
	case ActionHeat:
		return "heat"
	case ActionPrep:
		return "prep"
	case ActionMarinate:
		return "marinate"
	case ActionRest:
		return "rest"
	case ActionChill:
		return "chill"
	case ActionRise:
		return "rise"
	default:
		return "other"
	}
}

// Title returns the action name as used in labels.
func (a CookingAction) Title() string {
	switch a {
	case ActionOther:
		return "Timer"
	case ActionSaute:
		return "Sauté"
	}
	s := a.String()
	return string(s[0]-'a'+'A') + s[1:]
}

// MarshalJSON encodes the action as its lowercase name.
func (a CookingAction) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON decodes a lowercase action name. Unknown names fall back
// to ActionOther rather than failing, so older clients keep working when
// the classification set grows.
func (a *CookingAction) UnmarshalJSON(data []byte) error {
	name := strings.Trim(string(data), `"`)
	for c := ActionOther; c <= ActionRise; c++ {
		if c.String() == name {
			*a = c
			return nil
		}
	}
	*a = ActionOther
	return nil
}

// FormatMinutes renders a duration in minutes as "Mm" or "Hh Mm".
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	h, m := minutes/60, minutes%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
