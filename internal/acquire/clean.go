package acquire

import (
	"regexp"
	"strings"
)

// Markup-stripping patterns applied in order when cleaning fetched HTML.
var (
	scriptRe   = regexp.MustCompile(`(?is)<(script|style|noscript|svg)[^>]*>.*?</(script|style|noscript|svg)>`)
	navBlockRe = regexp.MustCompile(`(?is)<(nav|header|footer|aside|form)[^>]*>.*?</(nav|header|footer|aside|form)>`)
	commentRe  = regexp.MustCompile(`(?s)<!--.*?-->`)
	cellRe     = regexp.MustCompile(`(?i)</t[dh]>`)
	rowRe      = regexp.MustCompile(`(?i)</tr>`)
	listItemRe = regexp.MustCompile(`(?i)<li[^>]*>`)
	blockRe    = regexp.MustCompile(`(?i)</(p|div|h[1-6]|table|ul|ol|section|article)>|<br\s*/?>`)
	tagRe      = regexp.MustCompile(`<[^>]+>`)
	entityRe   = regexp.MustCompile(`&(nbsp|amp|lt|gt|quot|#\d+);`)
	mdLinkRe   = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	blankRe    = regexp.MustCompile(`\n{3,}`)
	spaceRe    = regexp.MustCompile(`[ \t]{2,}`)
)

var entities = map[string]string{
	"&nbsp;": " ", "&amp;": "&", "&lt;": "<", "&gt;": ">", "&quot;": `"`,
}

// boilerplateLines drops navigation and consent noise that survives tag
// stripping. Matched per line, case-insensitive.
var boilerplateLines = []string{
	"cookie", "accept all", "privacy policy", "terms of use",
	"sign in", "log in", "subscribe", "newsletter", "skip to main",
	"all rights reserved", "back to top", "share this",
}

// CleanHTML strips markup and boilerplate from a fetched page while
// preserving table cells (tab-separated) and list items, since tabular
// fleet-size data is a primary information source.
func CleanHTML(html string) string {
	text := scriptRe.ReplaceAllString(html, " ")
	text = navBlockRe.ReplaceAllString(text, " ")
	text = commentRe.ReplaceAllString(text, " ")

	// Keep table and list structure readable after tag removal.
	text = cellRe.ReplaceAllString(text, "\t")
	text = rowRe.ReplaceAllString(text, "\n")
	text = listItemRe.ReplaceAllString(text, "\n- ")
	text = blockRe.ReplaceAllString(text, "\n")

	text = tagRe.ReplaceAllString(text, "")
	text = entityRe.ReplaceAllStringFunc(text, func(e string) string {
		if r, ok := entities[e]; ok {
			return r
		}
		return " "
	})

	return normalizeLines(text)
}

// CleanMarkdown strips link targets and boilerplate from reader-style
// markdown output.
func CleanMarkdown(md string) string {
	text := mdLinkRe.ReplaceAllString(md, "$1")
	return normalizeLines(text)
}

func normalizeLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(spaceRe.ReplaceAllString(line, " "))
		if trimmed == "" {
			kept = append(kept, "")
			continue
		}
		if isBoilerplate(trimmed) {
			continue
		}
		kept = append(kept, trimmed)
	}
	out := strings.Join(kept, "\n")
	out = blankRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// isBoilerplate flags short navigation/consent lines. Long lines are
// kept even when they mention a noisy keyword, since real content can
// reference cookies or policies.
func isBoilerplate(line string) bool {
	if len(line) > 80 {
		return false
	}
	lower := strings.ToLower(line)
	for _, marker := range boilerplateLines {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
