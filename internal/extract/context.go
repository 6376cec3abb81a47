package extract

import "github.com/kbenzar/stovewatch/internal/domain"

// Context windowing limits, in bytes. Boundary characters are ASCII so
// byte scanning is safe in UTF-8 text.
const (
	backwardLimit = 150
	forwardLimit  = 100
	maxContext    = 120
	verbLookback  = 40
)

const ellipsis = "…"

// Newlines separate instruction steps and delimit sentences the same way
// terminal punctuation does.
func isSentenceBoundary(c byte) bool {
	return c == '.' || c == '!' || c == '?' || c == '\n'
}

func isClauseBoundary(c byte) bool {
	return c == ',' || c == ';' || c == ':'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}

// contextWindow computes the display snippet around a match. Returns the
// capped snippet, its span in the original text, and the match span
// within the snippet.
func contextWindow(text string, m domain.Span) (string, domain.Span, domain.Span) {
	ctxStart := backwardBoundary(text, m.Start)
	ctxStart = extendToVerb(text, ctxStart)
	for ctxStart < m.Start && isSpace(text[ctxStart]) {
		ctxStart++
	}

	ctxEnd := forwardBoundary(text, m.End)

	ctx := text[ctxStart:ctxEnd]
	matchInCtx := domain.Span{Start: m.Start - ctxStart, End: m.End - ctxStart}
	ctxSpan := domain.Span{Start: ctxStart, End: ctxEnd}

	if len(ctx) <= maxContext {
		return ctx, ctxSpan, matchInCtx
	}
	return truncate(ctx, ctxSpan, matchInCtx)
}

// backwardBoundary finds the nearest sentence or clause boundary within
// backwardLimit bytes before pos, falling back to a word boundary.
func backwardBoundary(text string, pos int) int {
	limit := maxInt(0, pos-backwardLimit)
	for i := pos - 1; i >= limit; i-- {
		c := text[i]
		if isSentenceBoundary(c) || isClauseBoundary(c) {
			return i + 1
		}
	}
	if limit == 0 {
		return 0
	}
	// No boundary in range: break at the first word boundary past the limit.
	i := limit
	for i < pos && !isSpace(text[i]) {
		i++
	}
	if i < pos {
		return i + 1
	}
	return limit
}

// extendToVerb pulls the window start back to a cooking-action verb
// sitting just outside the naive boundary, so "Cook, stirring
// occasionally, for 20 minutes" keeps its governing verb instead of
// truncating at the comma. The extension only crosses clause boundaries;
// a sentence or step boundary ends the lookback, so a verb from the
// previous instruction cannot claim this duration.
func extendToVerb(text string, ctxStart int) int {
	if ctxStart == 0 {
		return 0
	}
	lb := maxInt(0, ctxStart-verbLookback)
	for i := ctxStart - 1; i >= lb; i-- {
		if isSentenceBoundary(text[i]) {
			lb = i + 1
			break
		}
	}
	locs := actionVerbRe.FindAllStringIndex(text[lb:ctxStart], -1)
	if len(locs) == 0 {
		return ctxStart
	}
	return lb + locs[len(locs)-1][0]
}

// forwardBoundary finds the nearest boundary within forwardLimit bytes
// after pos, including the boundary character itself.
func forwardBoundary(text string, pos int) int {
	limit := minInt(len(text), pos+forwardLimit)
	for i := pos; i < limit; i++ {
		c := text[i]
		if c == '\n' {
			return i
		}
		if isSentenceBoundary(c) || isClauseBoundary(c) {
			return i + 1
		}
	}
	if limit == len(text) {
		return limit
	}
	// Word-boundary fallback: last space before the limit.
	for i := limit; i > pos; i-- {
		if isSpace(text[i-1]) {
			return i - 1
		}
	}
	return limit
}

// truncate caps the snippet at ~maxContext bytes with ellipsis at a word
// boundary, preferring to trim the side away from the match. The
// returned context span covers only the retained region of the original
// text; the match span indexes into the returned string.
func truncate(ctx string, ctxSpan, matchInCtx domain.Span) (string, domain.Span, domain.Span) {
	budget := maxContext - len(ellipsis)

	if matchInCtx.End <= budget {
		// Trim the tail.
		cut := budget
		for cut > matchInCtx.End && !isSpace(ctx[cut-1]) {
			cut--
		}
		if cut <= matchInCtx.End {
			cut = matchInCtx.End
		} else {
			cut-- // drop the space itself
		}
		ctxSpan.End = ctxSpan.Start + cut
		return ctx[:cut] + ellipsis, ctxSpan, matchInCtx
	}

	// Match sits late: trim the front.
	cut := len(ctx) - budget
	for cut < matchInCtx.Start && !isSpace(ctx[cut]) {
		cut++
	}
	for cut < matchInCtx.Start && isSpace(ctx[cut]) {
		cut++
	}
	ctxSpan.Start += cut
	matchInCtx = domain.Span{
		Start: matchInCtx.Start - cut + len(ellipsis),
		End:   matchInCtx.End - cut + len(ellipsis),
	}
	return ellipsis + ctx[cut:], ctxSpan, matchInCtx
}
