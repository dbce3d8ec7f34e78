// Modern.js extractor: documents arrive as window._ROUTER_DATA = {...}
// with the body under loaderData.*.curDoc. MDContent is already
// Markdown (conversion is skipped downstream); otherwise the Content
// field holds Quill Delta sections.
package scan

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kunal-varma/pagemark/core"
	"github.com/kunal-varma/pagemark/core/richtext"
)

var reRouterData = regexp.MustCompile(`window\._ROUTER_DATA\s*=\s*`)

func extractModernJS(pageHTML string) *core.SSRContent {
	m := reRouterData.FindStringIndex(pageHTML)
	if m == nil {
		return nil
	}
	jsonStr := extractJSONObject(pageHTML, m[1])
	if jsonStr == "" || !gjson.Valid(jsonStr) {
		return nil
	}

	loader := gjson.Get(jsonStr, "loaderData")
	if !loader.IsObject() {
		return nil
	}
	var curDoc gjson.Result
	loader.ForEach(func(_, value gjson.Result) bool {
		if doc := value.Get("curDoc"); doc.IsObject() {
			curDoc = doc
			return false
		}
		return true
	})
	if !curDoc.IsObject() {
		return nil
	}

	title := curDoc.Get("Title").String()
	if title == "" {
		title = curDoc.Get("title").String()
	}

	if md := curDoc.Get("MDContent").String(); len(strings.TrimSpace(md)) > 50 {
		return &core.SSRContent{
			Title:      title,
			Body:       CleanModernMarkdown(md),
			SourceType: "modernjs",
			IsMarkdown: true,
		}
	}

	if content := curDoc.Get("Content").String(); content != "" {
		if body := quillContentToHTML(content); body != "" {
			return &core.SSRContent{
				Title:      title,
				Body:       wrapDocument(title, body),
				SourceType: "modernjs",
			}
		}
	}
	return nil
}

// quillContentToHTML flattens the Content field's keyed Quill Delta
// sections (in key order) into one HTML body.
func quillContentToHTML(contentRaw string) string {
	var content map[string]any
	if err := json.Unmarshal([]byte(contentRaw), &content); err != nil {
		return ""
	}
	data, ok := content["data"].(map[string]any)
	if !ok {
		return ""
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var allOps []any
	for _, k := range keys {
		if section, ok := data[k].(map[string]any); ok {
			if ops, ok := section["ops"].([]any); ok {
				allOps = append(allOps, ops...)
			}
		}
	}
	if len(allOps) == 0 {
		return ""
	}

	body := richtext.ConvertQuillOps(allOps)
	if len(strings.TrimSpace(body)) < 50 {
		return ""
	}
	return body
}

var (
	reRenderMdTail = regexp.MustCompile("(?s)\\n\\s*`?\\}?\\s*>\\s*</RenderMd>.*$")
	reAdmonition   = regexp.MustCompile(`(?m)^:::(\w+)\s*$`)
	reAdmonitionNL = regexp.MustCompile(`(?m)^:::\s*$`)
	reAnchorSpan   = regexp.MustCompile(`<span\s+id="[^"]*"\s*>\s*</span>`)
	reImgSizeHint  = regexp.MustCompile(`(!\[[^\]]*\]\([^)]+?)\s+=\d+x\d*\s*(\))`)
)

// CleanModernMarkdown strips framework residue from an MDContent body:
// trailing RenderMd fragments, ::: admonition fences (rewritten as
// bold blockquote labels), empty anchor spans, and =WxH size hints
// glued to image links.
func CleanModernMarkdown(md string) string {
	md = reRenderMdTail.ReplaceAllString(md, "")
	md = reAdmonition.ReplaceAllString(md, "> **${1}**:")
	md = reAdmonitionNL.ReplaceAllString(md, "")
	md = reAnchorSpan.ReplaceAllString(md, "")
	md = reImgSizeHint.ReplaceAllString(md, "${1}${2}")
	return strings.TrimSpace(md)
}
