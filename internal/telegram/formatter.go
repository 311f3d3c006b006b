package telegram

import (
	"fmt"
	"html"
	"strings"

	"github.com/dealhound/dealhound/internal/domain"
)

const maxListingsShown = 10

// FormatSearchResult renders a search result as Telegram HTML.
func FormatSearchResult(result *domain.SearchResult) string {
	if len(result.Listings) == 0 {
		return "No listings found. Try a broader term, or drop --strict."
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "<b>Found %d listings</b>", len(result.Listings))
	if result.PrecisionMode == domain.PrecisionNone {
		sb.WriteString(" <i>(relevance filter bypassed, results may be noisy)</i>")
	}
	sb.WriteString("\n\n")

	shown := result.Listings
	if len(shown) > maxListingsShown {
		shown = shown[:maxListingsShown]
	}

	for i, l := range shown {
		price := l.PriceLabel
		if price == "" {
			price = "price unknown"
		}

		fmt.Fprintf(&sb, "%d. <a href=\"%s\">%s</a>\n   %s · %s",
			i+1,
			html.EscapeString(l.Link),
			html.EscapeString(l.Title),
			html.EscapeString(price),
			html.EscapeString(l.Source),
		)
		if l.Location != "" {
			fmt.Fprintf(&sb, " · %s", html.EscapeString(l.Location))
		}
		sb.WriteString("\n\n")
	}

	if len(result.Listings) > maxListingsShown {
		fmt.Fprintf(&sb, "…and %d more.\n", len(result.Listings)-maxListingsShown)
	}

	if len(result.Expansion.SearchTerms) > 1 {
		fmt.Fprintf(&sb, "<i>Also searched: %s</i>",
			html.EscapeString(strings.Join(result.Expansion.SearchTerms, ", ")))
	}

	return strings.TrimRight(sb.String(), "\n")
}

func FormatSourcesList(names []string) string {
	if len(names) == 0 {
		return "No sources are configured."
	}

	var sb strings.Builder
	sb.WriteString("<b>Available sources:</b>\n\n")
	for i, name := range names {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, html.EscapeString(name))
	}
	return sb.String()
}

// SplitMessage splits text at word boundaries without breaking HTML tags,
// for Telegram's message size limit.
func SplitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var messages []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			messages = append(messages, text)
			break
		}

		splitPoint := findSafeSplitPoint(text, maxLen)
		if splitPoint <= 0 || splitPoint > len(text) {
			splitPoint = maxLen
		}

		messages = append(messages, text[:splitPoint])
		text = text[splitPoint:]
	}

	return messages
}

func findSafeSplitPoint(text string, maxLen int) int {
	for i := maxLen - 1; i > maxLen/2; i-- {
		if i >= len(text) {
			continue
		}
		if isInsideHTMLTag(text, i) {
			continue
		}
		if text[i] == '\n' || text[i] == ' ' {
			return i + 1
		}
	}

	// inside a tag: move past its closing bracket, then to a break
	if maxLen < len(text) && isInsideHTMLTag(text, maxLen) {
		for i := maxLen; i < len(text); i++ {
			if text[i] == '>' {
				for j := i + 1; j < len(text) && j < i+50; j++ {
					if text[j] == '\n' || text[j] == ' ' {
						return j + 1
					}
				}
				return i + 1
			}
		}
	}

	for i := maxLen - 1; i > 0; i-- {
		if text[i] == ' ' || text[i] == '\n' {
			return i + 1
		}
	}

	return maxLen
}

func isInsideHTMLTag(text string, pos int) bool {
	if pos >= len(text) || pos < 0 {
		return false
	}
	for i := pos; i >= 0; i-- {
		if text[i] == '>' {
			return false
		}
		if text[i] == '<' {
			return true
		}
	}
	return false
}
