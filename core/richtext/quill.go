package richtext

import (
	"fmt"
	"html"
	"strings"
)

// ConvertQuillOps converts a Quill Delta ops array to HTML. Returns ""
// when the ops carry no visible content.
func ConvertQuillOps(ops []any) string {
	var b strings.Builder
	for _, ov := range ops {
		op, ok := ov.(map[string]any)
		if !ok {
			continue
		}
		attrs, _ := op["attributes"].(map[string]any)

		switch insert := op["insert"].(type) {
		case string:
			text := html.EscapeString(insert)
			if attrs != nil {
				if truthy(attrs["bold"]) {
					text = "<strong>" + text + "</strong>"
				}
				if truthy(attrs["italic"]) {
					text = "<em>" + text + "</em>"
				}
				if truthy(attrs["code"]) {
					text = "<code>" + text + "</code>"
				}
				if link, ok := attrs["link"].(string); ok {
					text = "<a href=\"" + html.EscapeString(link) + "\">" + text + "</a>"
				}
				if lvl := toInt(attrs["header"], 0); lvl > 0 {
					level := clampLevel(lvl)
					text = fmt.Sprintf("<h%d>%s</h%d>\n", level, text, level)
				}
			}
			b.WriteString(text)
		case map[string]any:
			if img, ok := insert["image"].(string); ok {
				b.WriteString("<img src=\"" + html.EscapeString(img) + "\">\n")
			}
		}
	}

	body := b.String()
	if strings.TrimSpace(body) == "" {
		return ""
	}
	var paragraphs []string
	for _, p := range strings.Split(body, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs = append(paragraphs, "<p>"+p+"</p>")
		}
	}
	return strings.Join(paragraphs, "\n")
}
