package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/kbenzar/stovewatch/internal/domain"
)

// candidate is a raw duration match before descriptor construction.
// minutes == 0 marks a recognized but non-actionable match (unbounded
// terms); it still occupies its span for overlap resolution but never
// becomes a timer.
type candidate struct {
	span    domain.Span
	text    string
	minutes int
}

// family is one duration-pattern matcher. resolve turns a regexp match
// into a duration in minutes; ok == false rejects the match outright.
type family struct {
	name    string
	re      *regexp.Regexp
	resolve func(text string, loc []int) (minutes int, ok bool)
}

// families is the ordered pattern battery. Overlap resolution is
// first-accepted-wins in this scan order, so specific families (ranges,
// fractions, clock) run before the hours matcher that would otherwise
// swallow the tail of "1-2 hours", and everything runs before the
// generic minutes-only matcher.
var families = []family{
	{
		// "20-30 minutes", "1–2 hours", "20 to 30 min" -> arithmetic mean
		name: "range",
		re:   regexp.MustCompile(`(?i)\b(\d+)\s*(?:-|–|—|to)\s*(\d+)\s*(minutes?|mins?|hours?|hrs?)\b`),
		resolve: func(text string, loc []int) (int, bool) {
			lo, err1 := strconv.Atoi(group(text, loc, 1))
			hi, err2 := strconv.Atoi(group(text, loc, 2))
			if err1 != nil || err2 != nil {
				return 0, false
			}
			mean := float64(lo+hi) / 2
			if isHourUnit(group(text, loc, 3)) {
				mean *= 60
			}
			return int(math.Round(mean)), true
		},
	},
	{
		// "½ hour", "1¼ hours", "¾ hour"
		name: "fraction",
		re:   regexp.MustCompile(`(?i)(?:\b(\d+)\s*)?([¼½¾⅓⅔⅛])\s*(?:of\s+)?(?:an?\s+)?(hours?|hrs?|minutes?|mins?)\b`),
		resolve: func(text string, loc []int) (int, bool) {
			whole := 0.0
			if g := group(text, loc, 1); g != "" {
				w, err := strconv.Atoi(g)
				if err != nil {
					return 0, false
				}
				whole = float64(w)
			}
			frac, ok := fractionValue(group(text, loc, 2))
			if !ok {
				return 0, false
			}
			value := whole + frac
			if isHourUnit(group(text, loc, 3)) {
				value *= 60
			}
			return int(math.Round(value)), true
		},
	},
	{
		// "1:30" read as hours:minutes, only with a contextual time cue
		name: "clock",
		re:   regexp.MustCompile(`\b(\d{1,2}):([0-5]\d)\b`),
		resolve: func(text string, loc []int) (int, bool) {
			if !clockCue(text, loc[0], loc[1]) {
				return 0, false
			}
			h, _ := strconv.Atoi(group(text, loc, 1))
			m, _ := strconv.Atoi(group(text, loc, 2))
			return h*60 + m, true
		},
	},
	{
		// "2 hours", "1 hour and 30 minutes", "1.5 hrs"
		name: "hours",
		re:   regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:hours?|hrs?)\b(?:\s*(?:and\s+)?(\d+)\s*(?:minutes?|mins?)\b)?`),
		resolve: func(text string, loc []int) (int, bool) {
			h, err := strconv.ParseFloat(group(text, loc, 1), 64)
			if err != nil {
				return 0, false
			}
			m := 0
			if g := group(text, loc, 2); g != "" {
				m, _ = strconv.Atoi(g)
			}
			return int(math.Round(h*60)) + m, true
		},
	},
	{
		name:    "hour and a half",
		re:      regexp.MustCompile(`(?i)\ban?\s+hour\s+and\s+a\s+half\b`),
		resolve: fixedMinutes(90),
	},
	{
		name:    "half hour",
		re:      regexp.MustCompile(`(?i)\bhalf\s+(?:an?\s+)?hour\b`),
		resolve: fixedMinutes(30),
	},
	{
		name:    "three quarters hour",
		re:      regexp.MustCompile(`(?i)\bthree[-\s]quarters\s+of\s+an?\s+hour\b`),
		resolve: fixedMinutes(45),
	},
	{
		name:    "quarter hour",
		re:      regexp.MustCompile(`(?i)\b(?:a\s+)?quarter\s+(?:of\s+)?(?:an?\s+)?hour\b`),
		resolve: fixedMinutes(15),
	},
	{
		name:    "an hour",
		re:      regexp.MustCompile(`(?i)\ban?\s+hour\b`),
		resolve: fixedMinutes(60),
	},
	{
		// "fifteen minutes", "two hours" via the fixed word table
		name: "spelled",
		re:   spelledRe,
		resolve: func(text string, loc []int) (int, bool) {
			n, ok := wordValue(group(text, loc, 1))
			if !ok {
				return 0, false
			}
			if isHourUnit(group(text, loc, 2)) {
				n *= 60
			}
			return n, true
		},
	},
	{
		// "30 minutes", "45 min"
		name: "minutes",
		re:   regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:minutes?|mins?)\b`),
		resolve: func(text string, loc []int) (int, bool) {
			m, err := strconv.ParseFloat(group(text, loc, 1), 64)
			if err != nil {
				return 0, false
			}
			return int(math.Round(m)), true
		},
	},
	{
		// Recognized but never actionable: resolves to 0 and is dropped
		// before descriptor creation.
		name:    "unbounded",
		re:      regexp.MustCompile(`(?i)\b(?:overnight|all\s+day|all\s+night)\b`),
		resolve: fixedMinutes(0),
	},
}

// group returns the text of submatch i, or "" when it did not participate.
func group(text string, loc []int, i int) string {
	if 2*i+1 >= len(loc) || loc[2*i] < 0 {
		return ""
	}
	return text[loc[2*i]:loc[2*i+1]]
}

func fixedMinutes(m int) func(string, []int) (int, bool) {
	return func(string, []int) (int, bool) { return m, true }
}

func isHourUnit(unit string) bool {
	u := strings.ToLower(unit)
	return strings.HasPrefix(u, "h")
}

// clockCue decides whether a bare "H:MM" is a duration rather than a
// time of day: it must follow a duration preposition or precede an hour
// word. "at 3:30" never qualifies.
func clockCue(text string, start, end int) bool {
	before := text[maxInt(0, start-12):start]
	if clockExcludeRe.MatchString(before) {
		return false
	}
	if clockBeforeRe.MatchString(before) {
		return true
	}
	after := text[end:minInt(len(text), end+10)]
	return clockAfterRe.MatchString(after)
}

var (
	clockBeforeRe  = regexp.MustCompile(`(?i)\b(?:for|about|another|around)\s*$`)
	clockAfterRe   = regexp.MustCompile(`(?i)^\s*(?:hours?|hrs?)\b`)
	clockExcludeRe = regexp.MustCompile(`(?i)\bat\s*$`)
)

// scan runs the ordered battery over the full text. Matches whose spans
// intersect an already-accepted match are discarded (first-accepted-wins).
func scan(text string) []candidate {
	var accepted []candidate
	for _, f := range families {
		for _, loc := range f.re.FindAllStringSubmatchIndex(text, -1) {
			minutes, ok := f.resolve(text, loc)
			if !ok {
				continue
			}
			// Zero marks a recognized unbounded term; everything else
			// must land inside the actionable range.
			if minutes != 0 && (minutes < domain.MinTimerMinutes || minutes > domain.MaxTimerMinutes) {
				continue
			}
			span := domain.Span{Start: loc[0], End: loc[1]}
			if intersectsAny(accepted, span) {
				continue
			}
			accepted = append(accepted, candidate{
				span:    span,
				text:    text[loc[0]:loc[1]],
				minutes: minutes,
			})
		}
	}
	return accepted
}

func intersectsAny(accepted []candidate, span domain.Span) bool {
	for _, c := range accepted {
		if c.span.Intersects(span) {
			return true
		}
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
