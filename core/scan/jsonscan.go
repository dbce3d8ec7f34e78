// Generic fallback: scan every large, JSON-shaped <script> body for a
// richtext document of one of the known shapes (ProseMirror doc,
// Editor.js blocks, Lexical root, Slate node array, Quill Delta ops).
// The first candidate whose converted HTML clears a minimum length is
// accepted; short matches are incidental JSON, not article content.
package scan

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/kunal-varma/pagemark/core/richtext"
)

const (
	// minScriptLen filters out scripts too small to hold an article.
	minScriptLen = 200
	// minContentLen guards against accepting incidental JSON matches.
	minContentLen = 100
	// maxSearchDepth bounds the recursive JSON search; adversarial
	// payloads can nest arbitrarily deep.
	maxSearchDepth = 8
)

var (
	reScriptTag  = regexp.MustCompile(`(?is)<script[^>]*>(.*?)</script>`)
	reAssignment = regexp.MustCompile(`=\s*\{`)
)

func scanScriptsForRichtext(pageHTML string) string {
	for _, m := range reScriptTag.FindAllStringSubmatch(pageHTML, -1) {
		body := strings.TrimSpace(m[1])
		if len(body) <= minScriptLen || !strings.Contains(body, "{") {
			continue
		}
		if result := tryParseRichtextScript(body); len(strings.TrimSpace(result)) > minContentLen {
			return result
		}
	}
	return ""
}

func tryParseRichtextScript(scriptBody string) string {
	data := tryParseJSON(scriptBody)

	// Not bare JSON: look for an `identifier = { ... }` assignment and
	// pull out the balanced object.
	if data == nil {
		for _, loc := range reAssignment.FindAllStringIndex(scriptBody, -1) {
			start := loc[1] - 1
			if len(scriptBody)-start < minScriptLen {
				continue
			}
			obj := extractJSONObject(scriptBody, start)
			if obj == "" {
				continue
			}
			if data = tryParseJSON(obj); data != nil {
				break
			}
		}
	}
	if data == nil {
		return ""
	}
	return findRichtext(data, 0)
}

// findRichtext recursively searches a decoded JSON value for a
// convertible richtext document. Returns the converted HTML or "".
func findRichtext(data any, depth int) string {
	if depth > maxSearchDepth {
		return ""
	}

	switch v := data.(type) {
	case map[string]any:
		// ProseMirror/Tiptap document root.
		if v["type"] == "doc" {
			if _, ok := v["content"]; ok {
				if h := richtext.ToHTML(v); len(strings.TrimSpace(h)) > minContentLen {
					return h
				}
			}
		}
		// Editor.js structure.
		if blocks, ok := v["blocks"].([]any); ok && len(blocks) > 0 {
			if first, ok := blocks[0].(map[string]any); ok {
				_, hasType := first["type"]
				_, hasData := first["data"]
				if hasType && hasData {
					if h := richtext.ConvertEditorBlocks(blocks); len(strings.TrimSpace(h)) > minContentLen {
						return h
					}
				}
			}
		}
		// Lexical root node.
		if root, ok := v["root"].(map[string]any); ok {
			if t, _ := root["type"].(string); t == "root" || t == "doc" {
				if h := richtext.ToHTML(root); len(strings.TrimSpace(h)) > minContentLen {
					return h
				}
			}
		}
		// Map iteration order is randomized; walk keys sorted so the
		// same payload always yields the same candidate.
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch inner := v[k].(type) {
			case map[string]any, []any:
				if h := findRichtext(inner, depth+1); h != "" {
					return h
				}
			case string:
				// A value may itself be a JSON-encoded document.
				if len(inner) > minScriptLen {
					if parsed := tryParseJSON(inner); parsed != nil {
						if h := findRichtext(parsed, depth+1); h != "" {
							return h
						}
					}
				}
			}
		}

	case []any:
		if len(v) == 0 {
			return ""
		}
		first, _ := v[0].(map[string]any)
		if first != nil {
			// Slate/Lexical style: top-level node array.
			_, hasType := first["type"]
			_, hasChildren := first["children"]
			_, hasContent := first["content"]
			if hasType && (hasChildren || hasContent) {
				if h := richtext.ToHTML(v); len(strings.TrimSpace(h)) > minContentLen {
					return h
				}
			}
			// Quill Delta style: ops array.
			if _, hasInsert := first["insert"]; hasInsert {
				if h := richtext.ConvertQuillOps(v); len(strings.TrimSpace(h)) > minContentLen {
					return h
				}
			}
		}
	}
	return ""
}

// tryParseJSON decodes s when it looks like a JSON object or array;
// anything else (including invalid JSON) yields nil and the caller
// moves on to the next candidate.
func tryParseJSON(s string) any {
	s = strings.TrimSpace(s)
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil
	}
	return v
}
