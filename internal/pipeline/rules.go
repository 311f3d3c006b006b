package pipeline

import "regexp"

// The rule tables below are data, not control flow: the filters iterate
// over them, so extending coverage means editing a table, not an
// algorithm.

// stopwords are excluded from core-token selection.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"this": true, "that": true, "your": true, "have": true, "will": true,
	"used": true, "sale": true, "cheap": true, "good": true, "great": true,
	"very": true, "nice": true, "best": true, "genuine": true, "original": true,
	"buy": true, "new": true,
}

// excludePatterns drop known false positives before relevance counting:
// accessories and ephemera that mention the product without being it.
var excludePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:owner'?s\s+)?(?:manual|instructions?|instruction\s+booklet)\b`),
	regexp.MustCompile(`(?i)\b(?:empty\s+)?box\s+only\b`),
	regexp.MustCompile(`(?i)\b(?:poster|sticker|decal|art\s+print|photo\s+print)\b`),
	regexp.MustCompile(`(?i)\b(?:spares?\s+(?:or|and)\s+repairs?|parts\s+only|for\s+parts|not\s+working|faulty)\b`),
	regexp.MustCompile(`(?i)\b(?:clip\s?art|wallpaper|screensaver)\b`),
}

// modelFamily narrows a query for one model of a known-confusable product
// line: listings naming a sibling model are dropped unless they also name
// the target.
type modelFamily struct {
	Brand  string
	Models []string
}

var modelFamilies = []modelFamily{
	{
		Brand: "strymon",
		Models: []string{
			"ob-1", "timeline", "bigsky", "bluesky", "deco", "el capistan",
			"flint", "iridium", "riverside", "sunset", "volante", "zuma", "ojai",
		},
	},
	{
		Brand: "boss",
		Models: []string{
			"ds-1", "sd-1", "bd-2", "od-3", "ce-2", "dd-3", "dd-7", "dd-8",
			"rc-5", "re-202",
		},
	},
	{
		Brand: "fender",
		Models: []string{
			"stratocaster", "telecaster", "jazzmaster", "jaguar", "mustang",
		},
	},
}

// rarityQualifiers: a query naming an edition qualifier only matches
// listings that carry the qualifier or one of its synonyms.
var rarityQualifiers = map[string][]string{
	"limited":     {"limited", "ltd"},
	"anniversary": {"anniversary", "anniv"},
	"signature":   {"signature", "sig"},
	"deluxe":      {"deluxe"},
	"reissue":     {"reissue", "ri"},
}

// ukLocationRe matches UK country and home-nation names in free-text
// listing locations.
var ukLocationRe = regexp.MustCompile(`(?i)\b(?:uk|united kingdom|great britain|britain|england|scotland|wales|northern ireland|gb)\b`)

// ukHostAllowlist: marketplaces that are UK-only or whose listings are
// already UK-scoped by the adapter's query.
var ukHostAllowlist = map[string]bool{
	"gumtree.com":          true,
	"ebay.co.uk":           true,
	"preloved.co.uk":       true,
	"cashconverters.co.uk": true,
	"shpock.com":           true,
}
