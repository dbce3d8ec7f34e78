package richtext

import (
	"html"
)

// Lexical packs text formatting into an integer bitmask.
const (
	lexicalBold          = 1
	lexicalItalic        = 2
	lexicalStrikethrough = 4
	lexicalUnderline     = 8
	lexicalCode          = 16
)

// applyMarks formats a text leaf. Flags are first collected from all
// three encodings a node may carry — a ProseMirror marks array, Slate
// flat booleans with url/href, and a Lexical format bitmask — and only
// then applied, each exactly once, in a fixed nesting order: code,
// bold, italic, underline, strikethrough, link outermost. Collecting
// before applying is what prevents double-wrapping when encodings
// co-occur.
func applyMarks(text string, n map[string]any) string {
	if text == "" {
		return ""
	}

	var bold, italic, code, underline, strike bool
	href := ""

	if marks, ok := n["marks"].([]any); ok {
		for _, mv := range marks {
			mark, ok := mv.(map[string]any)
			if !ok {
				continue
			}
			mt, _ := mark["type"].(string)
			switch mt {
			case "bold", "strong":
				bold = true
			case "italic", "em":
				italic = true
			case "code":
				code = true
			case "underline":
				underline = true
			case "strike", "strikethrough":
				strike = true
			case "link":
				if attrs, ok := mark["attrs"].(map[string]any); ok {
					if h, ok := attrs["href"].(string); ok {
						href = h
					}
				}
			}
		}
	}

	if truthy(n["bold"]) {
		bold = true
	}
	if truthy(n["italic"]) {
		italic = true
	}
	if truthy(n["code"]) {
		code = true
	}
	if truthy(n["underline"]) {
		underline = true
	}
	if truthy(n["strikethrough"]) || truthy(n["strike"]) {
		strike = true
	}
	if href == "" {
		if h, _ := n["url"].(string); h != "" {
			href = h
		} else if h, _ := n["href"].(string); h != "" {
			href = h
		}
	}

	if f, ok := n["format"].(float64); ok && f > 0 {
		format := int(f)
		if format&lexicalBold != 0 {
			bold = true
		}
		if format&lexicalItalic != 0 {
			italic = true
		}
		if format&lexicalCode != 0 {
			code = true
		}
		if format&lexicalUnderline != 0 {
			underline = true
		}
		if format&lexicalStrikethrough != 0 {
			strike = true
		}
	}

	result := html.EscapeString(text)
	if code {
		result = "<code>" + result + "</code>"
	}
	if bold {
		result = "<strong>" + result + "</strong>"
	}
	if italic {
		result = "<em>" + result + "</em>"
	}
	if underline {
		result = "<u>" + result + "</u>"
	}
	if strike {
		result = "<s>" + result + "</s>"
	}
	if href != "" {
		result = "<a href=\"" + html.EscapeString(href) + "\">" + result + "</a>"
	}
	return result
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return false
	}
}
