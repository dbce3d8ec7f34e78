// Package render provides output renderers for the PageMark pipeline.
// This file implements the Markdown renderer, which prepends YAML
// frontmatter (title, source URL, fetch date) to the converted document.
package render

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kunal-varma/pagemark/core"
)

// MarkdownRenderer writes Markdown with a YAML frontmatter header.
type MarkdownRenderer struct {
	// NoFrontmatter suppresses the YAML header (raw passthrough).
	NoFrontmatter bool
}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// frontmatter is the YAML header written at the top of Markdown output.
type frontmatter struct {
	Title   string `yaml:"title,omitempty"`
	Source  string `yaml:"source"`
	Fetched string `yaml:"fetched,omitempty"`
}

// Render returns the Markdown prefixed with YAML frontmatter.
func (r *MarkdownRenderer) Render(markdown string, meta core.PageMetadata) ([]byte, error) {
	if r.NoFrontmatter {
		return []byte(markdown), nil
	}

	fm := frontmatter{
		Title:   meta.Title,
		Source:  meta.URL,
		Fetched: meta.FetchedAt,
	}
	header, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n\n")
	buf.WriteString(markdown)
	return buf.Bytes(), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}
