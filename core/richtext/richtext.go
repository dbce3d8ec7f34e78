// Package richtext converts the document-tree JSON of the common
// richtext frameworks (ProseMirror/Tiptap, Slate, Lexical, Editor.js,
// Quill Delta) into HTML, which is then fed to the regular Markdown
// converter. The frameworks share one semantic vocabulary — paragraphs,
// headings, lists, code, tables — and differ only in key names and mark
// encodings, so conversion is a synonym table plus a unified mark
// resolver. Unknown node kinds fall back to emitting their children;
// content is never dropped wholesale.
package richtext

import (
	"fmt"
	"html"
	"strings"
)

type kind int

const (
	kindUnknown kind = iota
	kindDoc
	kindParagraph
	kindHeading
	kindBulletList
	kindOrderedList
	kindListItem
	kindCodeBlock
	kindBlockquote
	kindImage
	kindTable
	kindTableRow
	kindTableCell
	kindTableHeader
	kindHardBreak
	kindRule
	kindTaskList
	kindTaskItem
	kindCallout
)

// kindNames maps every known framework spelling to its semantic kind.
var kindNames = map[string]kind{
	"doc": kindDoc, "root": kindDoc, "document": kindDoc,

	"paragraph": kindParagraph, "p": kindParagraph,

	"heading": kindHeading, "header": kindHeading,

	"bulletList": kindBulletList, "bullet_list": kindBulletList,
	"bulleted-list": kindBulletList, "unordered-list": kindBulletList,

	"orderedList": kindOrderedList, "ordered_list": kindOrderedList,
	"ordered-list": kindOrderedList, "numbered-list": kindOrderedList,

	"listItem": kindListItem, "list-item": kindListItem,
	"list_item": kindListItem, "listitem": kindListItem,

	"codeBlock": kindCodeBlock, "code-block": kindCodeBlock,
	"code_block": kindCodeBlock, "code": kindCodeBlock,

	"blockquote": kindBlockquote, "block-quote": kindBlockquote,
	"block_quote": kindBlockquote, "quote": kindBlockquote,

	"image": kindImage, "img": kindImage,

	"table": kindTable,

	"tableRow": kindTableRow, "table-row": kindTableRow,
	"table_row": kindTableRow, "tablerow": kindTableRow,

	"tableCell": kindTableCell, "table-cell": kindTableCell,
	"table_cell": kindTableCell, "tablecell": kindTableCell,

	"tableHeader": kindTableHeader, "table-header": kindTableHeader,
	"table_header": kindTableHeader, "tableheader": kindTableHeader,

	"hardBreak": kindHardBreak, "hard_break": kindHardBreak,
	"linebreak": kindHardBreak,

	"horizontalRule": kindRule, "horizontal_rule": kindRule,
	"horizontalrule": kindRule, "delimiter": kindRule, "divider": kindRule,

	"taskList": kindTaskList, "task_list": kindTaskList,
	"task-list": kindTaskList, "check-list": kindTaskList,

	"taskItem": kindTaskItem, "task-item": kindTaskItem,
	"task_item": kindTaskItem, "check-list-item": kindTaskItem,

	"highlightBlock": kindCallout, "callout": kindCallout,
	"alert": kindCallout, "admonition": kindCallout,
	"warning": kindCallout, "info": kindCallout, "tip": kindCallout,
}

// ToHTML converts a decoded richtext JSON value to HTML. It accepts a
// node object, a node list, or a bare text value, and never fails on
// unexpected shapes.
func ToHTML(node any) string {
	switch n := node.(type) {
	case nil:
		return ""
	case []any:
		var b strings.Builder
		for _, c := range n {
			b.WriteString(ToHTML(c))
		}
		return b.String()
	case map[string]any:
		return convertObject(n)
	case string:
		return html.EscapeString(n)
	case bool:
		if n {
			return "true"
		}
		return ""
	case float64:
		if n == 0 {
			return ""
		}
		return html.EscapeString(fmt.Sprint(n))
	default:
		return ""
	}
}

func convertObject(n map[string]any) string {
	// Editor.js top-level shape: {"blocks": [...]} with no "type".
	if blocks, ok := n["blocks"].([]any); ok {
		if _, hasType := n["type"]; !hasType {
			return ConvertEditorBlocks(blocks)
		}
	}

	nodeType, _ := n["type"].(string)
	children := childList(n)
	text, _ := n["text"].(string)

	// Text leaves: explicit type, or a bare Slate leaf (text, no type).
	if nodeType == "text" || (text != "" && nodeType == "") {
		return applyMarks(text, n)
	}

	var b strings.Builder
	for _, c := range children {
		b.WriteString(ToHTML(c))
	}
	inner := b.String()

	switch kindNames[nodeType] {
	case kindDoc:
		return inner
	case kindParagraph:
		if inner == "" {
			inner = dataText(n)
		}
		return "<p>" + inner + "</p>\n"
	case kindHeading:
		if inner == "" {
			inner = dataText(n)
		}
		level := headingLevel(n)
		return fmt.Sprintf("<h%d>%s</h%d>\n", level, inner, level)
	case kindBulletList:
		return "<ul>\n" + inner + "</ul>\n"
	case kindOrderedList:
		if start := attrInt(n, "start", 1); start != 1 {
			return fmt.Sprintf("<ol start=\"%d\">\n%s</ol>\n", start, inner)
		}
		return "<ol>\n" + inner + "</ol>\n"
	case kindListItem:
		return "<li>" + inner + "</li>\n"
	case kindCodeBlock:
		lang := attrString(n, "language")
		if lang == "" {
			lang = attrString(n, "lang")
		}
		if inner == "" {
			if data, ok := n["data"].(map[string]any); ok {
				if code, ok := data["code"].(string); ok {
					inner = html.EscapeString(code)
				}
			}
		}
		if lang != "" {
			return "<pre><code class=\"language-" + html.EscapeString(lang) + "\">" + inner + "</code></pre>\n"
		}
		return "<pre><code>" + inner + "</code></pre>\n"
	case kindBlockquote:
		if inner == "" {
			inner = dataText(n)
		}
		return "<blockquote>" + inner + "</blockquote>\n"
	case kindImage:
		src, alt := imageAttrs(n)
		return "<img src=\"" + html.EscapeString(src) + "\" alt=\"" + html.EscapeString(alt) + "\">\n"
	case kindHardBreak:
		return "<br>"
	case kindRule:
		return "<hr>\n"
	case kindCallout:
		return "<div class=\"callout\">" + inner + "</div>\n"
	case kindTable:
		return "<table>\n" + inner + "</table>\n"
	case kindTableRow:
		return "<tr>" + inner + "</tr>\n"
	case kindTableHeader:
		return "<th" + cellAttrs(n) + ">" + inner + "</th>"
	case kindTableCell:
		return "<td" + cellAttrs(n) + ">" + inner + "</td>"
	case kindTaskList:
		return "<ul class=\"task-list\">\n" + inner + "</ul>\n"
	case kindTaskItem:
		checked := ""
		if attrBool(n, "checked") {
			checked = " checked"
		}
		return "<li><input type=\"checkbox\"" + checked + ">" + inner + "</li>\n"
	}

	// Editor.js embeds its list style inside data rather than the type.
	if nodeType == "list" {
		return convertEditorListNode(n)
	}

	// Unknown kind: pass the children through.
	return inner
}

// dataText reads Editor.js inline HTML from data.text, sanitized but
// not re-escaped.
func dataText(n map[string]any) string {
	if data, ok := n["data"].(map[string]any); ok {
		if t, ok := data["text"].(string); ok {
			return SanitizeInlineHTML(t)
		}
	}
	return ""
}

// childList reads children from whichever of content/children is present.
func childList(n map[string]any) []any {
	if c, ok := n["content"].([]any); ok && len(c) > 0 {
		return c
	}
	if c, ok := n["children"].([]any); ok {
		return c
	}
	return nil
}

// attrAny looks a key up in attrs, then data, then the node itself.
func attrAny(n map[string]any, key string) (any, bool) {
	if attrs, ok := n["attrs"].(map[string]any); ok {
		if v, ok := attrs[key]; ok {
			return v, true
		}
	}
	if data, ok := n["data"].(map[string]any); ok {
		if v, ok := data[key]; ok {
			return v, true
		}
	}
	if v, ok := n[key]; ok {
		return v, true
	}
	return nil, false
}

func attrString(n map[string]any, key string) string {
	if v, ok := attrAny(n, key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func attrInt(n map[string]any, key string, def int) int {
	v, ok := attrAny(n, key)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case float64:
		return int(x)
	case int:
		return x
	case string:
		var i int
		if _, err := fmt.Sscanf(x, "%d", &i); err == nil {
			return i
		}
	}
	return def
}

func attrBool(n map[string]any, key string) bool {
	v, ok := attrAny(n, key)
	if !ok {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x == "true" || x == "1"
	}
	return false
}

// headingLevel resolves the heading level across framework encodings:
// attrs.level, data.level, a bare level field, or a Lexical "h2" tag.
// Defaults to 2, clamped to 1..6.
func headingLevel(n map[string]any) int {
	if v, ok := attrAny(n, "level"); ok {
		if lvl := toInt(v, 0); lvl > 0 {
			return clampLevel(lvl)
		}
	}
	if tag, ok := n["tag"].(string); ok && len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '9' {
		return clampLevel(int(tag[1] - '0'))
	}
	return 2
}

func toInt(v any, def int) int {
	switch x := v.(type) {
	case float64:
		return int(x)
	case int:
		return x
	case string:
		var i int
		if _, err := fmt.Sscanf(x, "%d", &i); err == nil {
			return i
		}
	}
	return def
}

func clampLevel(lvl int) int {
	if lvl < 1 {
		return 1
	}
	if lvl > 6 {
		return 6
	}
	return lvl
}

// imageAttrs extracts src and alt from the framework-specific spots:
// attrs.src, a bare src, Editor.js data.file.url / data.url, Slate url.
func imageAttrs(n map[string]any) (src, alt string) {
	if attrs, ok := n["attrs"].(map[string]any); ok {
		src, _ = attrs["src"].(string)
		alt, _ = attrs["alt"].(string)
	}
	if src == "" {
		src, _ = n["src"].(string)
	}
	data, _ := n["data"].(map[string]any)
	if src == "" && data != nil {
		if file, ok := data["file"].(map[string]any); ok {
			src, _ = file["url"].(string)
		}
		if src == "" {
			src, _ = data["url"].(string)
		}
	}
	if src == "" {
		src, _ = n["url"].(string)
	}
	if alt == "" && data != nil {
		alt, _ = data["caption"].(string)
		if alt == "" {
			alt, _ = data["alt"].(string)
		}
	}
	if alt == "" {
		alt, _ = n["alt"].(string)
	}
	return src, alt
}

// cellAttrs builds the colspan/rowspan attribute string for a cell.
func cellAttrs(n map[string]any) string {
	span := func(key string) int {
		if attrs, ok := n["attrs"].(map[string]any); ok {
			if v, ok := attrs[key]; ok {
				return toInt(v, 1)
			}
		}
		if v, ok := n[key]; ok {
			return toInt(v, 1)
		}
		return 1
	}
	extra := ""
	if c := span("colspan"); c > 1 {
		extra += fmt.Sprintf(" colspan=\"%d\"", c)
	}
	if r := span("rowspan"); r > 1 {
		extra += fmt.Sprintf(" rowspan=\"%d\"", r)
	}
	return extra
}
