package pipeline

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/dealhound/dealhound/internal/domain"
)

const (
	maxQueryTokens     = 3
	maxExpansionTokens = 3
)

type coreToken struct {
	text     string
	salience int
	re       *regexp.Regexp
}

// FilterPrecision keeps listings that match enough of the query's core
// tokens. In strict mode hits must be in the title; relaxed mode accepts
// one fewer title hit or enough hits across title+description. With no
// extractable core tokens the filter is a no-op.
//
// The staged strict -> relaxed -> unfiltered fallback is owned by the
// pipeline, not by this function.
func FilterPrecision(listings []domain.Listing, rawTerm string, expansion domain.ExpansionResult, strict bool) []domain.Listing {
	tokens := extractCoreTokens(rawTerm, expansion)
	if len(tokens) == 0 {
		return listings
	}

	need := len(tokens)
	if need > 2 {
		need = 2
	}

	kept := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		title := strings.ToLower(l.Title)
		desc := strings.ToLower(l.Description)

		if isExcluded(title + " " + desc) {
			continue
		}

		hitsTitle, hitsAnywhere := 0, 0
		for _, t := range tokens {
			inTitle := t.re.MatchString(title)
			if inTitle {
				hitsTitle++
			}
			if inTitle || t.re.MatchString(desc) {
				hitsAnywhere++
			}
		}

		var pass bool
		if strict {
			pass = hitsTitle >= need
		} else {
			relaxedNeed := need - 1
			if relaxedNeed < 1 {
				relaxedNeed = 1
			}
			pass = hitsTitle >= relaxedNeed || hitsAnywhere >= need
		}

		if pass {
			kept = append(kept, l)
		}
	}

	kept = applyModelNarrowing(kept, rawTerm)
	kept = applyRarityQualifiers(kept, rawTerm)

	return kept
}

func isExcluded(text string) bool {
	for _, re := range excludePatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// extractCoreTokens picks the most discriminative query tokens by
// salience, then adds single-word expansion terms. Zero-salience tokens
// never qualify, so generic queries leave the filter inert.
func extractCoreTokens(rawTerm string, expansion domain.ExpansionResult) []coreToken {
	var scored []coreToken
	for _, tok := range strings.Fields(strings.ToLower(rawTerm)) {
		tok = strings.Trim(tok, `,.!?;:"'()[]`)
		if tok == "" {
			continue
		}
		if s := salience(tok); s > 0 {
			scored = append(scored, coreToken{text: tok, salience: s, re: tokenRe(tok)})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].salience != scored[j].salience {
			return scored[i].salience > scored[j].salience
		}
		return len(scored[i].text) > len(scored[j].text)
	})
	if len(scored) > maxQueryTokens {
		scored = scored[:maxQueryTokens]
	}

	seen := make(map[string]bool, len(scored))
	for _, t := range scored {
		seen[t.text] = true
	}

	added := 0
	for _, term := range expansion.SearchTerms {
		if added >= maxExpansionTokens {
			break
		}
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" || strings.ContainsRune(term, ' ') || stopwords[term] || seen[term] {
			continue
		}
		seen[term] = true
		scored = append(scored, coreToken{text: term, salience: 1, re: tokenRe(term)})
		added++
	}

	return scored
}

func salience(tok string) int {
	score := 0
	if strings.ContainsFunc(tok, unicode.IsDigit) {
		score += 2
	}
	if strings.ContainsAny(tok, "-.") {
		score++
	}
	if len(tok) >= 4 && !stopwords[tok] {
		score++
	}
	if isAlnumMixed(tok) {
		score++
	}
	return score
}

// isAlnumMixed reports patterns like "ob1" or "mk2": letters and digits
// in one token.
func isAlnumMixed(tok string) bool {
	hasLetter := strings.ContainsFunc(tok, unicode.IsLetter)
	hasDigit := strings.ContainsFunc(tok, unicode.IsDigit)
	return hasLetter && hasDigit
}

var (
	tokenReMu    sync.Mutex
	tokenReCache = map[string]*regexp.Regexp{}
)

// tokenRe builds a matcher that treats hyphen, dot and space as
// interchangeable or absent between token segments: "ob-1" also matches
// "ob1", "ob.1" and "ob 1".
func tokenRe(tok string) *regexp.Regexp {
	tokenReMu.Lock()
	defer tokenReMu.Unlock()

	if re, ok := tokenReCache[tok]; ok {
		return re
	}

	segments := splitSegments(tok)
	quoted := make([]string, len(segments))
	for i, s := range segments {
		quoted[i] = regexp.QuoteMeta(s)
	}

	re := regexp.MustCompile(`\b` + strings.Join(quoted, `[\s.\-]?`) + `\b`)
	tokenReCache[tok] = re
	return re
}

// splitSegments breaks a token at separators and at letter/digit
// boundaries: "ob-1" and "ob1" both become ["ob", "1"].
func splitSegments(tok string) []string {
	var segments []string
	var cur []rune

	flush := func() {
		if len(cur) > 0 {
			segments = append(segments, string(cur))
			cur = nil
		}
	}

	for _, r := range tok {
		switch {
		case r == '-' || r == '.' || r == ' ':
			flush()
		case len(cur) > 0 && unicode.IsDigit(r) != unicode.IsDigit(cur[len(cur)-1]):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()

	if len(segments) == 0 {
		return []string{tok}
	}
	return segments
}

// applyModelNarrowing drops listings naming a sibling model of the
// queried one, unless they also name the target. Only fires when the
// query identifies both a known brand and one of its models.
func applyModelNarrowing(listings []domain.Listing, rawTerm string) []domain.Listing {
	query := strings.ToLower(rawTerm)

	for _, fam := range modelFamilies {
		if !tokenRe(fam.Brand).MatchString(query) {
			continue
		}

		target := ""
		for _, m := range fam.Models {
			if tokenRe(m).MatchString(query) {
				target = m
				break
			}
		}
		if target == "" {
			continue
		}

		targetRe := tokenRe(target)
		kept := listings[:0:0]
		for _, l := range listings {
			text := strings.ToLower(l.Title + " " + l.Description)
			if mentionsSibling(fam, target, text) && !targetRe.MatchString(text) {
				continue
			}
			kept = append(kept, l)
		}
		listings = kept
	}

	return listings
}

func mentionsSibling(fam modelFamily, target, text string) bool {
	for _, m := range fam.Models {
		if m == target {
			continue
		}
		if tokenRe(m).MatchString(text) {
			return true
		}
	}
	return false
}

// applyRarityQualifiers requires listings to carry an edition qualifier
// (or a synonym) when the query asks for one.
func applyRarityQualifiers(listings []domain.Listing, rawTerm string) []domain.Listing {
	query := strings.ToLower(rawTerm)

	for key, synonyms := range rarityQualifiers {
		if !queryMentionsAny(query, key, synonyms) {
			continue
		}

		kept := listings[:0:0]
		for _, l := range listings {
			text := strings.ToLower(l.Title + " " + l.Description)
			if mentionsAny(text, synonyms) {
				kept = append(kept, l)
			}
		}
		listings = kept
	}

	return listings
}

func queryMentionsAny(query, key string, synonyms []string) bool {
	if tokenRe(key).MatchString(query) {
		return true
	}
	return mentionsAny(query, synonyms)
}

func mentionsAny(text string, synonyms []string) bool {
	for _, s := range synonyms {
		if tokenRe(s).MatchString(text) {
			return true
		}
	}
	return false
}
