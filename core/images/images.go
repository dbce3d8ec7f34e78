// Package images downloads the images referenced by a Markdown document
// into a local assets directory and rewrites the references to point at
// the downloaded copies.
package images

import (
	"bytes"
	"context"
	"crypto/sha1"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kunal-varma/pagemark/internal/logger"
)

// BytesFetcher downloads a binary resource. *fetch.HTTPFetcher satisfies it.
type BytesFetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, string, error)
}

var (
	reMarkdownImage = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	reHTMLImageSrc  = regexp.MustCompile(`(?i)(<img\b[^>]*\bsrc=["'])([^"']+)(["'])`)
	reSizeHint      = regexp.MustCompile(`\s*=\d*x\d*\s*$`)
)

// CollectURLs returns the absolute image URLs referenced by the Markdown,
// in document order, deduplicated. Relative URLs resolve against baseURL.
// Size hints (=986x) and "title" parts after the URL are stripped; data:
// URIs and probable icons are skipped.
func CollectURLs(markdown, baseURL string) []string {
	base, _ := url.Parse(baseURL)

	seen := make(map[string]bool)
	var urls []string
	add := func(raw string) {
		u := cleanImageURL(raw)
		if u == "" || strings.HasPrefix(u, "data:") {
			return
		}
		if base != nil {
			if ref, err := url.Parse(u); err == nil {
				u = base.ResolveReference(ref).String()
			}
		}
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return
		}
		if isProbableIcon(u) || seen[u] {
			return
		}
		seen[u] = true
		urls = append(urls, u)
	}

	for _, m := range reMarkdownImage.FindAllStringSubmatch(markdown, -1) {
		add(m[2])
	}
	for _, m := range reHTMLImageSrc.FindAllStringSubmatch(markdown, -1) {
		add(m[2])
	}
	return urls
}

// cleanImageURL strips the optional "title" part and trailing size hints
// from the inside of a Markdown image reference.
func cleanImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	// ![alt](url "title") keeps only the url token.
	if i := strings.IndexAny(raw, " \t"); i >= 0 {
		rest := strings.TrimSpace(raw[i:])
		if strings.HasPrefix(rest, `"`) || strings.HasPrefix(rest, "'") || strings.HasPrefix(rest, "=") {
			raw = raw[:i]
		}
	}
	return reSizeHint.ReplaceAllString(raw, "")
}

func isProbableIcon(u string) bool {
	low := strings.ToLower(u)
	return strings.Contains(low, "favicon") ||
		strings.Contains(low, "/icon/") ||
		strings.HasSuffix(low, ".ico") ||
		strings.Contains(low, "pinned-octocat") ||
		strings.Contains(low, "/apple-touch-icon")
}

// Download fetches every URL into assetsDir and returns the mapping from
// original URL to the path relative to mdDir (the directory the Markdown
// file will live in). Failures are logged and skipped.
func Download(ctx context.Context, fetcher BytesFetcher, urls []string, assetsDir, mdDir string) (map[string]string, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(assetsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating assets dir: %w", err)
	}

	urlToLocal := make(map[string]string)
	for idx, imgURL := range urls {
		data, contentType, err := fetcher.FetchBytes(ctx, imgURL)
		if err != nil {
			logger.Warn("image download failed, skipping", "url", imgURL, "error", err)
			continue
		}

		filename := localFilename(idx+1, imgURL, contentType, data)
		filename = capPathLength(assetsDir, filename)
		localPath := filepath.Join(assetsDir, filename)
		if err := os.WriteFile(localPath, data, 0o644); err != nil {
			logger.Warn("image save failed, skipping", "url", imgURL, "error", err)
			continue
		}

		rel, err := filepath.Rel(mdDir, localPath)
		if err != nil {
			rel = localPath
		}
		urlToLocal[imgURL] = filepath.ToSlash(rel)
	}
	return urlToLocal, nil
}

var knownImageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".svg": true, ".avif": true, ".bmp": true, ".ico": true,
}

// localFilename derives a stable on-disk name: a 1-based index prefix plus
// the sanitized basename from the URL path. When the URL carries no usable
// extension, the Content-Type and then the file magic decide it.
func localFilename(idx int, imgURL, contentType string, data []byte) string {
	base := "image"
	if u, err := url.Parse(imgURL); err == nil {
		if b := path.Base(strings.TrimRight(u.Path, "/")); b != "" && b != "." && b != "/" {
			if decoded, err := url.PathUnescape(b); err == nil {
				base = decoded
			} else {
				base = b
			}
		}
	}

	ext := strings.ToLower(path.Ext(base))
	root := strings.TrimSuffix(base, path.Ext(base))
	if !knownImageExts[ext] {
		if detected := extFromContentType(contentType); detected != "" {
			ext = detected
		} else if detected := sniffExt(data); detected != "" {
			ext = detected
		} else if ext == "" {
			ext = ".bin"
		}
	}
	return fmt.Sprintf("%02d-%s%s", idx, sanitizeFilenamePart(root), ext)
}

var (
	reUnsafeFilename = regexp.MustCompile(`[^\w.\-]+`)
	reDashRun        = regexp.MustCompile(`-{2,}`)
)

func sanitizeFilenamePart(s string) string {
	s = reUnsafeFilename.ReplaceAllString(strings.TrimSpace(s), "-")
	s = reDashRun.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "untitled"
	}
	return s
}

// capPathLength truncates over-long filenames, keeping a short hash suffix
// so distinct names stay distinct.
func capPathLength(baseDir, filename string) string {
	const maxTotal = 250
	abs, err := filepath.Abs(filepath.Join(baseDir, filename))
	if err != nil || len(abs) <= maxTotal {
		return filename
	}
	ext := path.Ext(filename)
	root := strings.TrimSuffix(filename, ext)
	overflow := len(abs) - maxTotal
	keep := len(root) - overflow - 8
	if keep < 10 {
		keep = 10
	}
	if keep > len(root) {
		keep = len(root)
	}
	sum := sha1.Sum([]byte(filename))
	return fmt.Sprintf("%s-%x%s", root[:keep], sum[:3], ext)
}

func extFromContentType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch ct {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	case "image/bmp":
		return ".bmp"
	case "image/x-icon", "image/vnd.microsoft.icon":
		return ".ico"
	case "image/avif":
		return ".avif"
	}
	return ""
}

// sniffExt recognizes common image formats by their magic bytes.
func sniffExt(data []byte) string {
	switch {
	case len(data) >= 8 && bytes.Equal(data[:8], []byte("\x89PNG\r\n\x1a\n")):
		return ".png"
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xff, 0xd8, 0xff}):
		return ".jpg"
	case len(data) >= 6 && (bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a"))):
		return ".gif"
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return ".webp"
	}
	head := bytes.TrimSpace(data)
	if len(head) > 512 {
		head = head[:512]
	}
	if bytes.HasPrefix(head, []byte("<svg")) || bytes.Contains(head[:min(len(head), 100)], []byte("<svg")) {
		return ".svg"
	}
	return ""
}

// Rewrite replaces image URLs in the Markdown with their local paths.
// References without a mapping are left untouched.
func Rewrite(markdown string, urlToLocal map[string]string) string {
	if markdown == "" || len(urlToLocal) == 0 {
		return markdown
	}

	lookup := func(raw string) string {
		u := cleanImageURL(raw)
		if local, ok := urlToLocal[u]; ok {
			return local
		}
		if decoded, err := url.QueryUnescape(u); err == nil && decoded != u {
			if local, ok := urlToLocal[decoded]; ok {
				return local
			}
		}
		return ""
	}

	out := reMarkdownImage.ReplaceAllStringFunc(markdown, func(m string) string {
		parts := reMarkdownImage.FindStringSubmatch(m)
		if local := lookup(parts[2]); local != "" {
			return fmt.Sprintf("![%s](%s)", parts[1], local)
		}
		return m
	})
	out = reHTMLImageSrc.ReplaceAllStringFunc(out, func(m string) string {
		parts := reHTMLImageSrc.FindStringSubmatch(m)
		if local := lookup(parts[2]); local != "" {
			return parts[1] + local + parts[3]
		}
		return m
	})
	return out
}
