package ingest

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	tagRE        = regexp.MustCompile(`<[^>]*>`)
)

// CleanHTML reduces markup to plain text: scripts, styles and comments are
// dropped, tags stripped, entities decoded, and whitespace collapsed. The
// result never contains residual tag sequences, whatever the input looked
// like.
func CleanHTML(raw string) string {
	if raw == "" {
		return ""
	}

	text := raw
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err == nil {
		doc.Find("script, style, noscript, iframe, template").Remove()
		text = doc.Text()
	}

	// Belt and braces: the parser tolerates odd fragments, but any angle
	// bracket remnants still violate the stored-body invariant.
	text = tagRE.ReplaceAllString(text, " ")

	return strings.TrimSpace(whitespaceRE.ReplaceAllString(text, " "))
}

// Summarize builds a short summary from the first sentences of a cleaned
// body.
func Summarize(body string, sentences int) string {
	if body == "" {
		return ""
	}
	parts := strings.Split(body, ".")
	n := 0
	var kept []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kept = append(kept, p)
		n++
		if n == sentences {
			break
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, ". ") + "."
}

// Categorize assigns a coarse topic from keyword presence, in priority
// order: regulatory stories outrank market stories.
func Categorize(text string) string {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "regulation", "regulator", "lawsuit", "government", "senate", "congress", "securities and exchange"):
		return "Regulation"
	case containsAny(lower, "market", "price", "trading", "etf", "rally", "crash"):
		return "Market"
	case containsAny(lower, "blockchain", "protocol", "upgrade", "network", "mainnet", "smart contract"):
		return "Technology"
	default:
		return "General"
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
