package ats

import (
	"regexp"
	"strings"
)

// synonymTable maps lowercase keywords to alternate spellings commonly seen
// in resumes. Kept deliberately small; the separator variations below cover
// the mechanical cases.
var synonymTable = map[string][]string{
	"javascript": {"js", "ecmascript"},
	"typescript": {"ts"},
	"node.js":    {"nodejs", "node"},
	"react.js":   {"reactjs", "react"},
	"vue.js":     {"vuejs", "vue"},
	"kubernetes": {"k8s"},
	"postgresql": {"postgres"},
	"amazon web services": {"aws"},
	"google cloud platform": {"gcp"},
	"continuous integration": {"ci", "ci/cd"},
	"machine learning":       {"ml"},
	"artificial intelligence": {"ai"},
	"user experience":         {"ux"},
	"user interface":          {"ui"},
}

var separatorClass = regexp.MustCompile(`[\s\-.]+`)

// keywordVariations generates the lexical forms tried by the matcher: the
// keyword itself, its synonyms, and the spaced/hyphenated/concatenated
// renderings of any multi-part keyword.
func keywordVariations(keyword string) []string {
	seen := make(map[string]bool)
	var variations []string

	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		variations = append(variations, v)
	}

	add(keyword)

	lower := strings.ToLower(keyword)
	for _, syn := range synonymTable[lower] {
		add(syn)
	}

	if separatorClass.MatchString(lower) {
		parts := separatorClass.Split(lower, -1)
		add(strings.Join(parts, " "))
		add(strings.Join(parts, "-"))
		add(strings.Join(parts, ""))
	}

	return variations
}

// wholeWordMatch reports whether variation occurs in text delimited by
// non-alphanumeric characters. RE2 has no lookaround, so the boundaries are
// spelled out; plain \b misbreaks on keywords ending in symbols like "c++".
func wholeWordMatch(variation, text string) bool {
	pattern := `(^|[^a-z0-9])` + regexp.QuoteMeta(strings.ToLower(variation)) + `($|[^a-z0-9])`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// compoundMatch applies the compound-term rule: split the variation on
// spaces, hyphens, and dots, and require every part longer than 2
// characters to appear as a whole word. Short parts like "js" or "ci" are
// exempt because they over-match on their own.
func compoundMatch(variation, text string) bool {
	parts := separatorClass.Split(strings.ToLower(variation), -1)
	matchedAny := false
	for _, part := range parts {
		if len(part) <= 2 {
			continue
		}
		if !wholeWordMatch(part, text) {
			return false
		}
		matchedAny = true
	}
	return matchedAny
}

// isAcronym reports whether a keyword form should use the looser substring
// rule. Acronyms are short and all-uppercase in the source keyword, and
// carry low false-positive risk as substrings.
func isAcronym(variation string) bool {
	if len(variation) == 0 || len(variation) > 5 {
		return false
	}
	hasLetter := false
	for _, r := range variation {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

// KeywordMatches reports whether keyword (or any of its lexical variations)
// appears in the normalized resume text. Three tiers per variation: whole
// word, compound term, then acronym substring. First hit wins.
func KeywordMatches(keyword, normalizedText string) bool {
	if strings.TrimSpace(keyword) == "" || normalizedText == "" {
		return false
	}

	for _, variation := range keywordVariations(keyword) {
		if wholeWordMatch(variation, normalizedText) {
			return true
		}
		if separatorClass.MatchString(variation) && compoundMatch(variation, normalizedText) {
			return true
		}
		if isAcronym(variation) && strings.Contains(normalizedText, strings.ToLower(variation)) {
			return true
		}
	}
	return false
}
