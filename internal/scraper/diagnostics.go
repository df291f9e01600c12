package scraper

import (
	"context"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/mrlokans/notebooksync/internal/browser"
)

const snippetLimit = 1000

var textOnly = bluemonday.StrictPolicy()

// snippet reduces page markup to a short plain-text excerpt with all tags,
// attributes and scripts removed.
func snippet(markup string) string {
	text := strings.Join(strings.Fields(textOnly.Sanitize(markup)), " ")
	if r := []rune(text); len(r) > snippetLimit {
		return string(r[:snippetLimit])
	}
	return text
}

// pageSnippet captures the current page as a snippet, or "" if the page
// cannot be read.
func pageSnippet(ctx context.Context, s browser.Session) string {
	markup, err := s.HTML(ctx)
	if err != nil {
		return ""
	}
	return snippet(markup)
}
