// Package core defines the pipeline interfaces for PageMark.
// Each stage of the pipeline is a clean, testable interface.
package core

import "context"

// FetchResult holds the raw HTML and response metadata from a fetch.
type FetchResult struct {
	URL        string
	StatusCode int
	HTML       string
}

// PageMetadata holds metadata extracted from the page and URL.
type PageMetadata struct {
	URL       string `json:"url"`
	Domain    string `json:"domain"`
	Path      string `json:"path"`
	Title     string `json:"title"`
	Language  string `json:"language"`
	FetchedAt string `json:"fetched_at"` // ISO8601
}

// SSRContent is article content recovered from a server-side-rendering
// payload embedded in the page, without executing any JavaScript.
type SSRContent struct {
	Title      string
	Body       string
	SourceType string // "nextjs" | "modernjs" | "json_fallback"
	// IsMarkdown reports whether Body is already Markdown. When true the
	// HTML conversion step is skipped entirely.
	IsMarkdown bool
}

// Section represents a heading-delimited section of content.
type Section struct {
	Heading string `json:"heading"`
	Level   int    `json:"level"`
	Text    string `json:"text"`
}

// Heading represents a single heading found in the content.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Link represents a hyperlink found in the content.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// PageContent holds the text and structured content of a page.
type PageContent struct {
	Text     string    `json:"text"`
	Markdown string    `json:"markdown"`
	Sections []Section `json:"sections"`
}

// PageStructure holds structural metadata parsed from the content.
type PageStructure struct {
	Headings   []Heading `json:"headings"`
	Links      []Link    `json:"links"`
	CodeBlocks int       `json:"code_blocks"`
	Tables     int       `json:"tables"`
	Lists      int       `json:"lists"`
}

// PageJSON is the complete JSON output for a single page.
type PageJSON struct {
	Metadata  PageMetadata  `json:"metadata"`
	Content   PageContent   `json:"content"`
	Structure PageStructure `json:"structure"`
}

// Fetcher retrieves raw HTML (or asset bytes) from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// Extractor pulls the main content fragment from raw HTML, stripping noise.
type Extractor interface {
	Extract(html string) (string, error)
}

// Converter turns an HTML fragment into Markdown (the canonical format).
// Implementations must tolerate arbitrarily malformed input and always
// return some result rather than an error on bad markup.
type Converter interface {
	Convert(htmlFragment string) (string, error)
}

// Scanner decides whether a page's content should be sourced from an
// embedded SSR payload instead of the rendered HTML. A nil result is the
// normal negative outcome, not a failure.
type Scanner interface {
	Detect(pageHTML string) *SSRContent
}

// Renderer converts Markdown (and metadata) into a final output format.
type Renderer interface {
	Render(markdown string, meta PageMetadata) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".md", ".pdf").
	Extension() string
}
