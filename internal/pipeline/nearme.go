package pipeline

import "regexp"

// nearMePatterns is a reviewable, per-language regex table for detecting a
// language-agnostic "near me" query shape (Open Question decision recorded
// in DESIGN.md: adding a language means adding one array entry here, never
// touching detection logic).
var nearMePatterns = []*regexp.Regexp{
	// English: "near me", "close by", "nearby", "around here"
	regexp.MustCompile(`(?i)\bnear\s*me\b|\bnearby\b|\bclose\s*by\b|\baround\s*here\b`),
	// Hebrew: "ליד אותי", "קרוב אליי", "בסביבה"
	regexp.MustCompile(`ליד\s*אותי|קרוב\s*אלי|בסביבה`),
	// Spanish: "cerca de mi", "cerca mío", "cercano"
	regexp.MustCompile(`(?i)cerca\s*de\s*m[ií]|cerca\s*m[ií]o|cercan[oa]s?`),
}

// IsNearMeQuery reports whether query matches any configured "near me"
// pattern, regardless of which supported language it is written in.
func IsNearMeQuery(query string) bool {
	for _, re := range nearMePatterns {
		if re.MatchString(query) {
			return true
		}
	}
	return false
}
