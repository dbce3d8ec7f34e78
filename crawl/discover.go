// Package crawl provides URL discovery and crawling for --all mode.
// It discovers internal pages via sitemap.xml and link extraction,
// keeping crawling logic separate from the conversion pipeline.
package crawl

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kunal-varma/pagemark/core"
	"github.com/kunal-varma/pagemark/internal/logger"
)

// maxPages bounds discovery to avoid runaway crawls.
const maxPages = 100

// sitemapURL holds a URL from a sitemap.xml.
type sitemapURL struct {
	Loc string `xml:"loc"`
}

// sitemapIndex is the root element of a sitemap.xml.
type sitemapIndex struct {
	URLs []sitemapURL `xml:"url"`
}

// DiscoverAll finds all internal URLs to process starting from baseURL.
// It first tries sitemap.xml, then falls back to link crawling.
// The baseURL itself is always included.
func DiscoverAll(ctx context.Context, baseURL string, fetcher core.Fetcher) ([]string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	domain := parsed.Host

	// Try sitemap first.
	sitemapURLStr := fmt.Sprintf("%s://%s/sitemap.xml", parsed.Scheme, domain)
	urls, err := discoverFromSitemap(ctx, sitemapURLStr, domain, fetcher)
	if err == nil && len(urls) > 0 {
		logger.Debug("discovered URLs from sitemap", "count", len(urls))
		return urls, nil
	}

	// Fall back to BFS link crawling.
	return discoverFromLinks(ctx, baseURL, domain, fetcher)
}

// discoverFromSitemap fetches and parses sitemap.xml for internal URLs.
func discoverFromSitemap(ctx context.Context, sitemapURL string, domain string, fetcher core.Fetcher) ([]string, error) {
	result, err := fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	var sitemap sitemapIndex
	if err := xml.Unmarshal([]byte(result.HTML), &sitemap); err != nil {
		return nil, err
	}

	// Queue dedupes sitemap entries that normalize to the same URL.
	queue := NewQueue(maxPages)
	for _, u := range sitemap.URLs {
		if IsSameDomain(u.Loc, domain) && !IsStaticAsset(u.Loc) {
			queue.Add(u.Loc)
		}
	}
	return queue.All(), nil
}

// discoverFromLinks performs BFS crawling to find internal links.
func discoverFromLinks(ctx context.Context, startURL string, domain string, fetcher core.Fetcher) ([]string, error) {
	queue := NewQueue(maxPages)
	queue.Add(startURL)

	for queue.HasNext() {
		currentURL := queue.Next()

		result, err := fetcher.Fetch(ctx, currentURL)
		if err != nil {
			logger.Debug("skipping unreachable page", "url", currentURL, "error", err)
			continue
		}

		links, err := extractLinks(result.HTML, currentURL)
		if err != nil {
			continue
		}

		for _, link := range links {
			if IsSameDomain(link, domain) && !IsStaticAsset(link) {
				queue.Add(link)
			}
		}
	}

	return queue.All(), nil
}

// extractLinks extracts all href values from <a> tags, resolving relative URLs.
func extractLinks(html string, baseURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	base, _ := url.Parse(baseURL)
	var links []string

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" {
			return
		}

		resolved := resolveURL(href, base)
		if resolved != "" {
			links = append(links, resolved)
		}
	})

	return links, nil
}

// resolveURL resolves a potentially relative URL against a base.
func resolveURL(href string, base *url.URL) string {
	// Skip mailto, javascript, etc.
	if strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "#") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(parsed)
	// Strip fragments.
	resolved.Fragment = ""
	return resolved.String()
}
