// Package render — PDF renderer.
// Converts Markdown into a styled PDF using gofpdf.
// Handles headings (variable font sizes), paragraphs, code blocks, lists,
// blockquotes, and table rows (rendered as monospace text).
package render

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/kunal-varma/pagemark/core"
)

// PDFRenderer renders Markdown content as a PDF document.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

var numberedItemRegex = regexp.MustCompile(`^\d+\.\s`)

// Render converts Markdown into PDF bytes.
func (r *PDFRenderer) Render(markdown string, meta core.PageMetadata) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// Title from metadata.
	if meta.Title != "" {
		pdf.SetFont("Helvetica", "B", 18)
		pdf.MultiCell(0, 8, meta.Title, "", "L", false)
		pdf.Ln(4)
	}

	// Source URL.
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.MultiCell(0, 5, "Source: "+meta.URL, "", "L", false)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)

	lines := strings.Split(markdown, "\n")
	inCodeBlock := false

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		// Toggle code block state.
		if strings.HasPrefix(trimmed, "```") {
			inCodeBlock = !inCodeBlock
			pdf.Ln(2)
			continue
		}

		if inCodeBlock {
			pdf.SetFont("Courier", "", 9)
			pdf.SetFillColor(245, 245, 245)
			pdf.MultiCell(0, 4.5, line, "", "L", true)
			continue
		}

		// Empty lines become vertical spacing.
		if trimmed == "" {
			pdf.Ln(3)
			continue
		}

		// Headings.
		if strings.HasPrefix(line, "#") {
			level := 0
			for _, ch := range line {
				if ch == '#' {
					level++
				} else {
					break
				}
			}
			text := strings.TrimSpace(strings.TrimLeft(line, "# "))
			renderHeading(pdf, text, level)
			continue
		}

		// Table rows keep their pipes and render in monospace so columns
		// stay roughly aligned.
		if strings.HasPrefix(trimmed, "|") {
			pdf.SetFont("Courier", "", 8)
			pdf.MultiCell(0, 4.5, strings.ReplaceAll(trimmed, "<br>", " "), "", "L", false)
			continue
		}

		// Blockquotes.
		if strings.HasPrefix(trimmed, "> ") {
			pdf.SetFont("Helvetica", "I", 10)
			pdf.SetTextColor(90, 90, 90)
			pdf.MultiCell(0, 5, cleanInlineMarkdown(strings.TrimPrefix(trimmed, "> ")), "", "L", false)
			pdf.SetTextColor(0, 0, 0)
			continue
		}

		// Bullet list items.
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			pdf.SetFont("Helvetica", "", 10)
			text := "• " + cleanInlineMarkdown(strings.TrimSpace(trimmed[2:]))
			pdf.MultiCell(0, 5, text, "", "L", false)
			continue
		}

		// Numbered list items.
		if numberedItemRegex.MatchString(trimmed) {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, cleanInlineMarkdown(trimmed), "", "L", false)
			continue
		}

		// Regular paragraph text.
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, cleanInlineMarkdown(line), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

// renderHeading sets the font size based on heading level and writes text.
func renderHeading(pdf *gofpdf.Fpdf, text string, level int) {
	sizes := map[int]float64{1: 18, 2: 15, 3: 13, 4: 12, 5: 11, 6: 10}
	size, ok := sizes[level]
	if !ok {
		size = 10
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", size)
	pdf.MultiCell(0, size*0.6, cleanInlineMarkdown(text), "", "L", false)
	pdf.Ln(2)
}

var (
	italicRegex     = regexp.MustCompile(`(?:^|\s)\*([^*]+)\*(?:\s|$)`)
	inlineTickRegex = regexp.MustCompile("`([^`]+)`")
	mdLinkRegex     = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]+\)`)
)

// cleanInlineMarkdown strips inline Markdown formatting for PDF rendering.
func cleanInlineMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "__", "")
	text = italicRegex.ReplaceAllString(text, " $1 ")
	text = inlineTickRegex.ReplaceAllString(text, "$1")
	// Links and images collapse to their text/alt.
	text = mdLinkRegex.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
