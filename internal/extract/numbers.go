package extract

import (
	"regexp"
	"strings"
)

// wordNumbers is the fixed word -> number table for spelled-out
// quantities. Compound forms ("forty-five") are listed alongside their
// bases; the regexp alternation below tries them first.
var wordNumbers = map[string]int{
	"one":         1,
	"two":         2,
	"three":       3,
	"four":        4,
	"five":        5,
	"six":         6,
	"seven":       7,
	"eight":       8,
	"nine":        9,
	"ten":         10,
	"eleven":      11,
	"twelve":      12,
	"thirteen":    13,
	"fourteen":    14,
	"fifteen":     15,
	"sixteen":     16,
	"seventeen":   17,
	"eighteen":    18,
	"nineteen":    19,
	"twenty":      20,
	"twenty five": 25,
	"thirty":      30,
	"thirty five": 35,
	"forty":       40,
	"forty five":  45,
	"fifty":       50,
	"sixty":       60,
	"ninety":      90,
}

// spelledRe matches "<word number> minutes|hours". Compound alternatives
// precede their prefixes so "forty-five" is not read as "forty".
var spelledRe = regexp.MustCompile(`(?i)\b(twenty[-\s]five|thirty[-\s]five|forty[-\s]five|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|thirteen|fourteen|fifteen|sixteen|seventeen|eighteen|nineteen|twenty|thirty|forty|fifty|sixty|ninety)\s+(minutes?|mins?|hours?|hrs?)\b`)

// wordValue resolves a spelled-out quantity to its numeric value.
func wordValue(word string) (int, bool) {
	key := strings.ToLower(strings.ReplaceAll(word, "-", " "))
	n, ok := wordNumbers[key]
	return n, ok
}

// fractionValue resolves a unicode vulgar-fraction glyph.
func fractionValue(glyph string) (float64, bool) {
	switch glyph {
	case "¼":
		return 0.25, true
	case "½":
		return 0.5, true
	case "¾":
		return 0.75, true
	case "⅓":
		return 1.0 / 3.0, true
	case "⅔":
		return 2.0 / 3.0, true
	case "⅛":
		return 0.125, true
	default:
		return 0, false
	}
}
