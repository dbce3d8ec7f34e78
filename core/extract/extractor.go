// Package extract implements the Extractor interface.
// It isolates the main content from a full HTML page by:
//  1. Applying a docs-framework preset when one matches (or is forced)
//  2. Removing noise elements (nav, footer, scripts, sidebars)
//  3. Falling back to the best content container (<article>, <main>, <body>)
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kunal-varma/pagemark/internal/logger"
)

// noiseSelectors are HTML elements removed before extraction.
// These contribute no meaningful content to the page text. Images and
// figures stay in so the converter can turn them into Markdown.
var noiseSelectors = []string{
	"script", "style", "noscript",
	"nav", "footer", "header", "aside",
	"iframe", "svg", "canvas",
	"form", "button", "input", "select", "textarea",
	".sidebar", ".menu", ".navigation", ".ads", ".advertisement",
}

var reCollapseWS = regexp.MustCompile(`\s+`)

// HTMLExtractor strips noise from HTML and returns the main content fragment.
type HTMLExtractor struct {
	// preset forces a docs-framework preset; empty means auto-detect.
	preset string
}

// New creates an HTMLExtractor that auto-detects docs frameworks.
func New() *HTMLExtractor {
	return &HTMLExtractor{}
}

// NewWithPreset creates an HTMLExtractor bound to a named docs-framework
// preset. An unknown name falls back to auto-detection.
func NewWithPreset(name string) *HTMLExtractor {
	return &HTMLExtractor{preset: strings.ToLower(strings.TrimSpace(name))}
}

// Extract takes raw HTML and returns a cleaned HTML fragment containing
// only the main content.
func (e *HTMLExtractor) Extract(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	preset := e.resolvePreset(html)
	if preset != nil {
		if fragment := extractWithPreset(doc, preset); fragment != "" {
			return fragment, nil
		}
		logger.Debug("preset found nothing, falling back", "preset", preset.Name)
	}

	// Remove noise elements first (operates on the whole document).
	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	// Find the best content container in priority order. <article> is the
	// most specific, then <main>, then <body>. When a tag appears more than
	// once, keep the one with the most text.
	var content *goquery.Selection
	for _, tag := range []string{"article", "main", "body"} {
		sel := doc.Find(tag)
		if sel.Length() == 0 {
			continue
		}
		best := sel.First()
		if sel.Length() > 1 {
			bestLen := -1
			sel.Each(func(_ int, s *goquery.Selection) {
				if n := len(strings.TrimSpace(s.Text())); n > bestLen {
					bestLen = n
					best = s
				}
			})
		}
		content = best
		break
	}

	if content == nil {
		return "", fmt.Errorf("no content container found in HTML")
	}

	result, err := goquery.OuterHtml(content)
	if err != nil {
		return "", fmt.Errorf("serializing content: %w", err)
	}

	return result, nil
}

func (e *HTMLExtractor) resolvePreset(html string) *Preset {
	if e.preset != "" {
		if p, ok := presets[e.preset]; ok {
			return p
		}
		logger.Warn("unknown docs preset, auto-detecting instead", "preset", e.preset)
	}
	name, score := DetectFramework(html)
	if name == "" {
		return nil
	}
	logger.Debug("detected docs framework", "framework", name, "score", score)
	return presets[name]
}

// extractWithPreset removes the preset's excluded selectors and pulls out
// the first matching target container. Returns "" when no target matches.
func extractWithPreset(doc *goquery.Document, p *Preset) string {
	for _, sel := range p.ExcludeSelectors {
		doc.Find(sel).Remove()
	}
	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	for _, id := range p.TargetIDs {
		sel := doc.Find("#" + id)
		if sel.Length() > 0 {
			if html, err := goquery.OuterHtml(sel.First()); err == nil {
				return html
			}
		}
	}
	for _, class := range p.TargetClasses {
		sel := doc.Find("." + class)
		if sel.Length() > 0 {
			if html, err := goquery.OuterHtml(sel.First()); err == nil {
				return html
			}
		}
	}
	return ""
}

// Title returns the page title, preferring <title> and falling back to the
// first <h1>. Whitespace is collapsed. Returns "" when neither exists.
func Title(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	if t := cleanText(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return cleanText(doc.Find("h1").First().Text())
}

func cleanText(s string) string {
	return strings.TrimSpace(reCollapseWS.ReplaceAllString(s, " "))
}
