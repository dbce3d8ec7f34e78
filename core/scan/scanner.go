// Package scan implements the Scanner interface. It decides whether a
// page's article content should come from an SSR payload embedded in
// the HTML instead of the rendered markup, reading the serialized data
// directly without executing any JavaScript.
//
// Detection runs in two phases. Phase one looks for known framework
// markers (the Next.js __NEXT_DATA__ script, the Modern.js
// window._ROUTER_DATA assignment) and navigates a fixed JSON path to
// the article body. Phase two falls back to scanning every large,
// JSON-shaped <script> body for one of the known richtext document
// shapes. A nil result means "no SSR content found", which is a normal
// negative outcome.
package scan

import (
	"html"
	"regexp"
	"strings"

	"github.com/kunal-varma/pagemark/core"
	"github.com/kunal-varma/pagemark/internal/logger"
)

// Detector is the default Scanner implementation.
type Detector struct{}

// New creates a Detector.
func New() *Detector {
	return &Detector{}
}

var reTitleTag = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)

// Detect tries the known-framework extractors first, then the generic
// script scan. Returns nil when the page has no usable SSR payload.
func (d *Detector) Detect(pageHTML string) *core.SSRContent {
	if strings.Contains(pageHTML, "__NEXT_DATA__") {
		if c := extractNextJS(pageHTML); c != nil {
			logger.Debug("ssr content found", "source", c.SourceType, "title", c.Title)
			return c
		}
	}
	if strings.Contains(pageHTML, "_ROUTER_DATA") {
		if c := extractModernJS(pageHTML); c != nil {
			logger.Debug("ssr content found", "source", c.SourceType, "title", c.Title)
			return c
		}
	}

	body := scanScriptsForRichtext(pageHTML)
	if body == "" {
		return nil
	}
	title := ""
	if m := reTitleTag.FindStringSubmatch(pageHTML); m != nil {
		title = strings.TrimSpace(m[1])
	}
	logger.Debug("ssr content found", "source", "json_fallback", "title", title)
	return &core.SSRContent{
		Title:      title,
		Body:       wrapDocument(title, body),
		SourceType: "json_fallback",
	}
}

// wrapDocument turns a recovered body fragment into a minimal page so
// the downstream converter sees the title as an H1.
func wrapDocument(title, body string) string {
	return `<!DOCTYPE html><html><head><meta charset="utf-8"><title>` +
		html.EscapeString(title) + `</title></head><body><h1>` +
		html.EscapeString(title) + "</h1>\n" + body + "</body></html>"
}
