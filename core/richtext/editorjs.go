// Editor.js blocks carry data.text / data.items values that are
// already HTML strings with inline formatting (<b>, <a>, ...).
// Escaping them would display markup source; passing them through
// verbatim would be an injection vector. They are sanitized instead:
// formatting tags survive, dangerous elements and event attributes do
// not. Code block content is the exception and is always escaped.
package richtext

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// inlinePolicy keeps safe formatting markup and standard link targets;
// bluemonday drops script/style subtrees, on* handlers and
// javascript: URLs.
var inlinePolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em", "u", "s", "del", "code",
		"mark", "sup", "sub", "br", "span")
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	return p
}()

// SanitizeInlineHTML cleans an inline HTML string from an untrusted
// richtext payload without double-escaping it.
func SanitizeInlineHTML(s string) string {
	if s == "" {
		return ""
	}
	return inlinePolicy.Sanitize(s)
}

// ConvertEditorBlocks converts an Editor.js blocks array to HTML.
func ConvertEditorBlocks(blocks []any) string {
	var b strings.Builder
	for _, bv := range blocks {
		block, ok := bv.(map[string]any)
		if !ok {
			continue
		}
		btype, _ := block["type"].(string)
		data, _ := block["data"].(map[string]any)
		if data == nil {
			data = map[string]any{}
		}
		dataText, _ := data["text"].(string)

		switch btype {
		case "paragraph", "p":
			b.WriteString("<p>" + SanitizeInlineHTML(dataText) + "</p>\n")
		case "header", "heading":
			level := clampLevel(toInt(data["level"], 2))
			fmt.Fprintf(&b, "<h%d>%s</h%d>\n", level, SanitizeInlineHTML(dataText), level)
		case "list":
			b.WriteString(editorListHTML(data))
		case "code":
			code, _ := data["code"].(string)
			b.WriteString("<pre><code>" + html.EscapeString(code) + "</code></pre>\n")
		case "quote":
			b.WriteString("<blockquote>" + SanitizeInlineHTML(dataText) + "</blockquote>\n")
		case "image":
			src := ""
			if file, ok := data["file"].(map[string]any); ok {
				src, _ = file["url"].(string)
			}
			if src == "" {
				src, _ = data["url"].(string)
			}
			caption, _ := data["caption"].(string)
			b.WriteString("<img src=\"" + html.EscapeString(src) + "\" alt=\"" + html.EscapeString(caption) + "\">\n")
		case "delimiter", "divider":
			b.WriteString("<hr>\n")
		case "table":
			content, _ := data["content"].([]any)
			if len(content) == 0 {
				continue
			}
			b.WriteString("<table>\n")
			for _, rv := range content {
				row, ok := rv.([]any)
				if !ok {
					continue
				}
				b.WriteString("<tr>")
				for _, cv := range row {
					cell, _ := cv.(string)
					b.WriteString("<td>" + SanitizeInlineHTML(cell) + "</td>")
				}
				b.WriteString("</tr>\n")
			}
			b.WriteString("</table>\n")
		default:
			// Unknown block: salvage data.text if present.
			if dataText != "" {
				b.WriteString("<p>" + SanitizeInlineHTML(dataText) + "</p>\n")
			}
		}
	}
	return b.String()
}

// editorListHTML renders an Editor.js list block; data.style picks
// ordered vs unordered, items may be strings or {content: ...} objects.
func editorListHTML(data map[string]any) string {
	style, _ := data["style"].(string)
	items, _ := data["items"].([]any)

	var b strings.Builder
	for _, iv := range items {
		switch item := iv.(type) {
		case string:
			b.WriteString("<li>" + SanitizeInlineHTML(item) + "</li>\n")
		case map[string]any:
			content, _ := item["content"].(string)
			b.WriteString("<li>" + SanitizeInlineHTML(content) + "</li>\n")
		default:
			b.WriteString("<li></li>\n")
		}
	}

	tag := "ul"
	if style == "ordered" {
		tag = "ol"
	}
	return "<" + tag + ">\n" + b.String() + "</" + tag + ">\n"
}

// convertEditorListNode handles a "list" node met inside a generic
// richtext tree rather than a top-level blocks array.
func convertEditorListNode(n map[string]any) string {
	if data, ok := n["data"].(map[string]any); ok {
		return editorListHTML(data)
	}
	return editorListHTML(map[string]any{})
}
