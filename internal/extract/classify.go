package extract

import (
	"regexp"

	"github.com/kbenzar/stovewatch/internal/domain"
)

// actionRule pairs a verb pattern with its classification.
type actionRule struct {
	re     *regexp.Regexp
	action domain.CookingAction
}

// actionRules is tested in order against the context snippet; first
// match wins. Specific cooking methods come first; the generic cook/heat
// verbs run last because they are substrings of many other phrases.
var actionRules = []actionRule{
	{regexp.MustCompile(`(?i)\bbroil`), domain.ActionBroil},
	{regexp.MustCompile(`(?i)\bsimmer`), domain.ActionSimmer},
	{regexp.MustCompile(`(?i)\b(?:par)?boil`), domain.ActionBoil},
	{regexp.MustCompile(`(?i)\bbak(?:e|ing)`), domain.ActionBake},
	{regexp.MustCompile(`(?i)\b(?:stir[-\s])?fr(?:y|ying|ied|ies)`), domain.ActionFry},
	{regexp.MustCompile(`(?i)\bsaut(?:é|e)`), domain.ActionSaute},
	{regexp.MustCompile(`(?i)\broast`), domain.ActionRoast},
	{regexp.MustCompile(`(?i)\bgrill`), domain.ActionGrill},
	{regexp.MustCompile(`(?i)\bsteam`), domain.ActionSteam},
	{regexp.MustCompile(`(?i)\bbrais`), domain.ActionBraise},
	{regexp.MustCompile(`(?i)\btoast`), domain.ActionToast},
	{regexp.MustCompile(`(?i)\bmarinat`), domain.ActionMarinate},
	{regexp.MustCompile(`(?i)\b(?:rise|rising|proof)`), domain.ActionRise},
	{regexp.MustCompile(`(?i)\b(?:chill|refrigerat|freez)`), domain.ActionChill},
	{regexp.MustCompile(`(?i)\b(?:rest|stand|sit)\b`), domain.ActionRest},
	{regexp.MustCompile(`(?i)\b(?:prep\b|chop|dice|knead|whisk|soak)`), domain.ActionPrep},
	{regexp.MustCompile(`(?i)\bcook`), domain.ActionCook},
	{regexp.MustCompile(`(?i)\b(?:pre)?heat`), domain.ActionHeat},
}

// actionVerbRe matches any cooking-action verb; used by the context
// window back-extension.
var actionVerbRe = regexp.MustCompile(`(?i)\b(?:broil|simmer|boil|bak(?:e|ing)|fry|saut(?:é|e)|roast|grill|steam|brais|toast|marinat|rise|proof|chill|refrigerat|rest|cook|heat)`)

// classify picks the cooking action governing a duration by testing its
// context snippet. No match falls through to ActionOther.
func classify(context string) domain.CookingAction {
	for _, rule := range actionRules {
		if rule.re.MatchString(context) {
			return rule.action
		}
	}
	return domain.ActionOther
}
