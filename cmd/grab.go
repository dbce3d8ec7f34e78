// Package cmd — grab command.
// This is the main command that orchestrates the pipeline:
// fetch → SSR scan → extract → convert → images → render → write.
//
// It handles flag validation, renderer selection, and the --all mode.
package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"github.com/spf13/cobra"

	"github.com/kunal-varma/pagemark/core"
	"github.com/kunal-varma/pagemark/core/convert"
	"github.com/kunal-varma/pagemark/core/extract"
	"github.com/kunal-varma/pagemark/core/fetch"
	"github.com/kunal-varma/pagemark/core/images"
	"github.com/kunal-varma/pagemark/core/output"
	"github.com/kunal-varma/pagemark/core/render"
	"github.com/kunal-varma/pagemark/core/scan"
	"github.com/kunal-varma/pagemark/crawl"
	"github.com/kunal-varma/pagemark/internal/logger"
)

// Flag variables.
var (
	flagAll            bool
	flagPDF            bool
	flagMarkdown       bool
	flagJSON           bool
	flagKeepTableHTML  bool
	flagDownloadImages bool
	flagPreset         string
	flagOutputDir      string
)

var grabCmd = &cobra.Command{
	Use:   "grab <url>",
	Short: "Grab a URL and convert it to the specified output format",
	Long: `Grab fetches a webpage, recovers the article content (from the rendered
HTML or from an embedded SSR payload), converts it to Markdown, and writes
the specified output format (Markdown, PDF, or JSON).

Examples:
  pagemark grab https://example.com/post --markdown
  pagemark grab https://example.com/post --markdown --download-images
  pagemark grab https://docs.example.com --markdown --preset docusaurus
  pagemark grab https://example.com --json --output_dir ./out
  pagemark grab https://example.com --all --pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runGrab,
}

func init() {
	rootCmd.AddCommand(grabCmd)

	// Mode flags.
	grabCmd.Flags().BoolVar(&flagAll, "all", false, "Convert all discovered sub-pages")

	// Output format flags (mutually exclusive).
	grabCmd.Flags().BoolVar(&flagPDF, "pdf", false, "Output PDF")
	grabCmd.Flags().BoolVar(&flagMarkdown, "markdown", false, "Output Markdown")
	grabCmd.Flags().BoolVar(&flagJSON, "json", false, "Output structured JSON")

	// Conversion options.
	grabCmd.Flags().BoolVar(&flagKeepTableHTML, "keep-table-html", false,
		"Preserve tables with colspan/rowspan as raw HTML instead of pipe tables")
	grabCmd.Flags().BoolVar(&flagDownloadImages, "download-images", false,
		"Download referenced images into a local assets directory")
	grabCmd.Flags().StringVar(&flagPreset, "preset", "",
		"Docs framework preset (e.g. docusaurus, mkdocs); default: auto-detect")

	// Output directory.
	grabCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: current directory)")
}

func runGrab(cmd *cobra.Command, args []string) error {
	rawURL := args[0]

	if err := validateFlags(); err != nil {
		return err
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid URL: %s (must include scheme, e.g. https://example.com)", rawURL)
	}

	renderer, err := selectRenderer()
	if err != nil {
		return err
	}

	// Initialize pipeline components.
	fetcher := fetch.New()
	var extractor core.Extractor
	if flagPreset != "" {
		extractor = extract.NewWithPreset(flagPreset)
	} else {
		extractor = extract.New()
	}
	scanner := scan.New()

	writer, err := output.New(flagOutputDir)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}

	ctx := context.Background()

	if flagAll {
		return runAll(ctx, rawURL, fetcher, extractor, scanner, renderer, writer)
	}

	data, _, err := processURL(ctx, rawURL, fetcher, extractor, scanner, renderer, writer)
	if err != nil {
		return err
	}
	path, err := writer.WriteSingle(rawURL, data, renderer.Extension())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Written: %s\n", path)
	return nil
}

// runAll discovers all internal pages and processes each through the pipeline.
func runAll(
	ctx context.Context,
	rawURL string,
	fetcher *fetch.HTTPFetcher,
	extractor core.Extractor,
	scanner core.Scanner,
	renderer core.Renderer,
	writer *output.Writer,
) error {
	fmt.Fprintf(os.Stdout, "Discovering pages from %s...\n", rawURL)

	urls, err := crawl.DiscoverAll(ctx, rawURL, fetcher)
	if err != nil {
		return fmt.Errorf("discovering pages: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Found %d pages to process\n", len(urls))

	var errCount int
	for i, pageURL := range urls {
		fmt.Fprintf(os.Stdout, "[%d/%d] Processing %s\n", i+1, len(urls), pageURL)

		data, _, err := processURL(ctx, pageURL, fetcher, extractor, scanner, renderer, writer)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  ✗ Error: %v\n", err)
			errCount++
			continue
		}

		path, err := writer.WriteAll(pageURL, data, renderer.Extension())
		if err != nil {
			fmt.Fprintf(os.Stderr, "  ✗ Write error: %v\n", err)
			errCount++
			continue
		}
		fmt.Fprintf(os.Stdout, "  ✓ Written: %s\n", path)
	}

	if errCount > 0 {
		fmt.Fprintf(os.Stderr, "\n%d/%d pages failed\n", errCount, len(urls))
	}
	return nil
}

// processURL runs a single URL through the full pipeline and returns the
// rendered output bytes.
func processURL(
	ctx context.Context,
	rawURL string,
	fetcher *fetch.HTTPFetcher,
	extractor core.Extractor,
	scanner core.Scanner,
	renderer core.Renderer,
	writer *output.Writer,
) ([]byte, core.PageMetadata, error) {
	// 1. Fetch
	result, err := fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, core.PageMetadata{}, fmt.Errorf("fetch: %w", err)
	}

	// 2. SSR scan: pages rendered client-side often embed the real article
	// in a JSON payload that beats the rendered DOM.
	title := ""
	markdown := ""
	if ssr := scanner.Detect(result.HTML); ssr != nil {
		logger.Info("using SSR payload", "source", ssr.SourceType)
		title = ssr.Title
		if ssr.IsMarkdown {
			markdown = ssr.Body
		} else {
			markdown, err = convert.New(convertOptions(result.URL)).Convert(ssr.Body)
			if err != nil {
				return nil, core.PageMetadata{}, fmt.Errorf("convert: %w", err)
			}
		}
	} else {
		// 3. Extract main content and convert.
		title = extract.Title(result.HTML)
		content, err := extractor.Extract(result.HTML)
		if err != nil {
			return nil, core.PageMetadata{}, fmt.Errorf("extract: %w", err)
		}
		markdown, err = convert.New(convertOptions(result.URL)).Convert(content)
		if err != nil {
			return nil, core.PageMetadata{}, fmt.Errorf("convert: %w", err)
		}
	}

	// A leading H1 repeating the page title is dropped; the title lives in
	// the output metadata instead.
	markdown = convert.StripDuplicateH1(markdown, title)

	// 4. Images
	if flagDownloadImages {
		urls := images.CollectURLs(markdown, result.URL)
		if len(urls) > 0 {
			urlToLocal, err := images.Download(ctx, fetcher, urls, writer.AssetsDir(rawURL), writer.OutputDir)
			if err != nil {
				return nil, core.PageMetadata{}, fmt.Errorf("downloading images: %w", err)
			}
			markdown = images.Rewrite(markdown, urlToLocal)
			logger.Info("downloaded images", "count", len(urlToLocal))
		}
	}

	meta := buildMetadata(result.URL, result.HTML, title)

	// 5. Render to output format
	data, err := renderer.Render(markdown, meta)
	if err != nil {
		return nil, core.PageMetadata{}, fmt.Errorf("render: %w", err)
	}

	return data, meta, nil
}

func convertOptions(baseURL string) convert.Options {
	return convert.Options{
		BaseURL:       baseURL,
		KeepTableHTML: flagKeepTableHTML,
	}
}

var reHTMLLang = regexp.MustCompile(`<html[^>]*\blang=["']([^"']+)["']`)

// buildMetadata constructs PageMetadata from the URL and raw HTML.
func buildMetadata(rawURL string, html string, title string) core.PageMetadata {
	parsed, _ := url.Parse(rawURL)

	if title == "" {
		title = extract.Title(html)
	}
	lang := "en"
	if m := reHTMLLang.FindStringSubmatch(html); m != nil {
		lang = m[1]
	}

	return core.PageMetadata{
		URL:       rawURL,
		Domain:    parsed.Host,
		Path:      parsed.Path,
		Title:     title,
		Language:  lang,
		FetchedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// validateFlags checks that exactly one output format is chosen.
func validateFlags() error {
	formatCount := 0
	if flagPDF {
		formatCount++
	}
	if flagMarkdown {
		formatCount++
	}
	if flagJSON {
		formatCount++
	}

	if formatCount == 0 {
		return fmt.Errorf("exactly one output format is required: --pdf, --markdown, or --json")
	}
	if formatCount > 1 {
		return fmt.Errorf("only one output format allowed per run (got %d)", formatCount)
	}

	return nil
}

// selectRenderer creates the appropriate Renderer based on flags.
func selectRenderer() (core.Renderer, error) {
	switch {
	case flagMarkdown:
		return render.NewMarkdownRenderer(), nil
	case flagJSON:
		return render.NewJSONRenderer(), nil
	case flagPDF:
		return render.NewPDFRenderer(), nil
	default:
		return nil, fmt.Errorf("no output format selected")
	}
}
