// Package extract finds cooking-duration expressions in free-form recipe
// text and turns each into a timer descriptor. Detection is pure and
// deterministic: the same text always yields the same descriptors with
// the same ids, so persisted runtime state survives re-parses.
package extract

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/kbenzar/stovewatch/internal/domain"
)

// Deduplication tolerances: two descriptors with the same duration and
// action are the same timer when their contexts are this close in
// length or position.
const (
	dedupeLenTolerance = 8
	dedupePosTolerance = 32
)

// Detect extracts timer descriptors from instruction text, ordered by
// position of first appearance. Empty text or no matches yield an empty
// list, never an error.
func Detect(text string) []domain.TimerDescriptor {
	return finalize(rawDescriptors(text))
}

// DetectRecipe runs detection over a recipe's joined instruction steps
// and appends a synthetic descriptor for positive cook-time metadata.
// The metadata descriptor is dropped when an instruction already carries
// the same duration.
func DetectRecipe(r domain.Recipe) []domain.TimerDescriptor {
	text := strings.Join(r.Steps, "\n")
	descs := rawDescriptors(text)
	if r.CookTimeMinutes >= domain.MinTimerMinutes && r.CookTimeMinutes <= domain.MaxTimerMinutes {
		descs = append(descs, metadataDescriptor(r.CookTimeMinutes))
	}
	return finalize(descs)
}

// rawDescriptors builds descriptors for every accepted, actionable match.
func rawDescriptors(text string) []domain.TimerDescriptor {
	var out []domain.TimerDescriptor
	for _, c := range scan(text) {
		if c.minutes == 0 {
			continue // recognized unbounded term, not actionable
		}
		ctx, ctxSpan, matchInCtx := contextWindow(text, c.span)
		action := classify(ctx)
		out = append(out, domain.TimerDescriptor{
			ID:              descriptorID(c.span.Start, c.text, c.minutes),
			Label:           fmt.Sprintf("%s (%s)", action.Title(), domain.FormatMinutes(c.minutes)),
			DurationMinutes: c.minutes,
			SourceText:      c.text,
			Context:         ctx,
			CookingAction:   action,
			ContextSpan:     ctxSpan,
			MatchSpan:       matchInCtx,
		})
	}
	return out
}

// metadataDescriptor synthesizes a descriptor from a recipe-level
// cook-time field. It has no position in the body text.
func metadataDescriptor(minutes int) domain.TimerDescriptor {
	src := fmt.Sprintf("%d minutes", minutes)
	return domain.TimerDescriptor{
		ID:              descriptorID(-1, src, minutes),
		Label:           fmt.Sprintf("%s (%s)", domain.ActionCook.Title(), domain.FormatMinutes(minutes)),
		DurationMinutes: minutes,
		SourceText:      src,
		Context:         "Recipe cook time: " + src,
		CookingAction:   domain.ActionCook,
		ContextSpan:     domain.MetadataSpan,
		MatchSpan:       domain.MetadataSpan,
	}
}

// descriptorID derives a stable id from source position, matched text
// and duration. Reproducible across re-parses of the same text.
func descriptorID(pos int, sourceText string, minutes int) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%s|%d", pos, sourceText, minutes)
	return fmt.Sprintf("t%016x", h.Sum64())
}

// finalize orders descriptors by first appearance (metadata first) and
// collapses duplicates.
func finalize(descs []domain.TimerDescriptor) []domain.TimerDescriptor {
	var meta, body []domain.TimerDescriptor
	for _, d := range descs {
		if d.ContextSpan.IsMetadata() {
			meta = append(meta, d)
		} else {
			body = append(body, d)
		}
	}

	// A metadata descriptor duplicates any body timer with the same
	// duration regardless of classification ("bake for 45 minutes" vs a
	// 45-minute cookTime field).
	kept := make([]domain.TimerDescriptor, 0, len(descs))
	for _, m := range meta {
		dup := false
		for _, b := range body {
			if b.DurationMinutes == m.DurationMinutes {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, m)
		}
	}

	sortByPosition(body)

	for _, d := range body {
		if isDuplicate(kept, d) {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

func sortByPosition(descs []domain.TimerDescriptor) {
	// Insertion sort keeps the battery's acceptance order stable for
	// equal positions; descriptor counts are small.
	for i := 1; i < len(descs); i++ {
		for j := i; j > 0 && less(descs[j], descs[j-1]); j-- {
			descs[j], descs[j-1] = descs[j-1], descs[j]
		}
	}
}

func less(a, b domain.TimerDescriptor) bool {
	if a.ContextSpan.Start != b.ContextSpan.Start {
		return a.ContextSpan.Start < b.ContextSpan.Start
	}
	return a.MatchSpan.Start < b.MatchSpan.Start
}

// isDuplicate reports whether d repeats an already-kept descriptor:
// same duration and action, with contexts close in length or position.
func isDuplicate(kept []domain.TimerDescriptor, d domain.TimerDescriptor) bool {
	for _, k := range kept {
		if k.ContextSpan.IsMetadata() {
			continue
		}
		if k.DurationMinutes != d.DurationMinutes || k.CookingAction != d.CookingAction {
			continue
		}
		if absInt(len(k.Context)-len(d.Context)) <= dedupeLenTolerance ||
			absInt(k.ContextSpan.Start-d.ContextSpan.Start) <= dedupePosTolerance {
			return true
		}
	}
	return false
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
