// Package render — JSON renderer.
// Builds the structured JSON output from Markdown and page metadata.
// Parses the Markdown to extract structural information (headings, links,
// code blocks, tables, lists) without inferring any business-specific fields.
package render

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kunal-varma/pagemark/core"
)

// JSONRenderer produces structured JSON output from Markdown.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render converts Markdown and metadata into the structured JSON document.
func (r *JSONRenderer) Render(markdown string, meta core.PageMetadata) ([]byte, error) {
	headings := extractHeadings(markdown)

	page := core.PageJSON{
		Metadata: meta,
		Content: core.PageContent{
			Text:     stripMarkdown(markdown),
			Markdown: markdown,
			Sections: buildSections(markdown, headings),
		},
		Structure: core.PageStructure{
			Headings:   headings,
			Links:      extractLinks(markdown),
			CodeBlocks: strings.Count(markdown, "```") / 2,
			Tables:     len(tableSepRegex.FindAllString(markdown, -1)),
			Lists:      len(listItemRegex.FindAllString(markdown, -1)),
		},
	}

	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}

// --- Markdown parsing helpers ---

var (
	headingRegex = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)
	linkRegex    = regexp.MustCompile(`\[([^\]]*)\]\(([^)]+)\)`)
	// tableSepRegex matches table separator rows (| --- | --- |),
	// one per table.
	tableSepRegex = regexp.MustCompile(`(?m)^\|[-:| ]+\|$`)
	listItemRegex = regexp.MustCompile(`(?m)^[\s]*[-*]\s|^[\s]*\d+\.\s`)
)

func extractHeadings(md string) []core.Heading {
	matches := headingRegex.FindAllStringSubmatch(md, -1)
	headings := make([]core.Heading, 0, len(matches))
	for _, m := range matches {
		headings = append(headings, core.Heading{
			Level: len(m[1]),
			Text:  strings.TrimSpace(m[2]),
		})
	}
	return headings
}

func extractLinks(md string) []core.Link {
	matches := linkRegex.FindAllStringSubmatch(md, -1)
	links := make([]core.Link, 0, len(matches))
	for _, m := range matches {
		links = append(links, core.Link{
			Text: m[1],
			Href: m[2],
		})
	}
	return links
}

// buildSections splits the Markdown into heading-delimited sections.
func buildSections(md string, headings []core.Heading) []core.Section {
	if len(headings) == 0 {
		return nil
	}

	lines := strings.Split(md, "\n")
	sections := make([]core.Section, 0, len(headings))
	headingIdx := 0

	var current *core.Section
	var body []string

	flush := func() {
		if current != nil {
			current.Text = strings.TrimSpace(strings.Join(body, "\n"))
			sections = append(sections, *current)
		}
	}

	for _, line := range lines {
		if headingRegex.MatchString(line) && headingIdx < len(headings) {
			flush()
			current = &core.Section{
				Heading: headings[headingIdx].Text,
				Level:   headings[headingIdx].Level,
			}
			body = nil
			headingIdx++
		} else if current != nil {
			body = append(body, line)
		}
	}
	flush()

	return sections
}

var (
	emphasisRegex   = regexp.MustCompile(`\*{1,3}([^*]+)\*{1,3}`)
	inlineCodeRegex = regexp.MustCompile("`([^`]+)`")
	blankRunRegex   = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes common Markdown formatting to produce plain text.
func stripMarkdown(md string) string {
	text := headingRegex.ReplaceAllString(md, "$2")
	text = emphasisRegex.ReplaceAllString(text, "$1")
	text = linkRegex.ReplaceAllString(text, "$1")
	text = strings.ReplaceAll(text, "```", "")
	text = inlineCodeRegex.ReplaceAllString(text, "$1")
	text = blankRunRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
