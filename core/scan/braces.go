package scan

// maxObjectScan bounds how far the brace scanner will look for the
// closing brace of a single embedded object.
const maxObjectScan = 5_000_000

// extractJSONObject returns the balanced JSON object starting at
// text[start], or "" when start is not an opening brace or the object
// never closes. Brace depth and string/escape state are tracked with an
// explicit character scanner; nesting is not regular, so no regex.
func extractJSONObject(text string, start int) string {
	if start >= len(text) || text[start] != '{' {
		return ""
	}

	depth := 0
	inString := false
	escapeNext := false

	end := start + maxObjectScan
	if end > len(text) {
		end = len(text)
	}
	for i := start; i < end; i++ {
		c := text[i]
		if escapeNext {
			escapeNext = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escapeNext = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}
