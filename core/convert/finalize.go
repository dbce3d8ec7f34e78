// Final text-level cleanup over emitted Markdown. Finalize is
// idempotent: applying it twice equals applying it once.
package convert

import (
	"regexp"
	"strings"
)

var (
	reExcessNewlines = regexp.MustCompile(`\n{3,}`)
	reSlashLine      = regexp.MustCompile(`\n\s*/\s*\n`)
	reEmptyHeading   = regexp.MustCompile(`(?m)^\s*#{1,6}\s*$\n?`)
	reHeadingAnchor  = regexp.MustCompile(`(?m)^(#{1,6}\s+.*?)(?:\s*\[\s*[#¶§]\s*\]\([^)]+\))+\s*$`)
)

// Finalize collapses excess blank lines, strips stray slash noise
// lines, converts \( \) / \[ \] LaTeX delimiters outside code,
// deletes empty heading lines, and removes trailing auto-anchor
// links left after heading text.
func Finalize(md string) string {
	md = strings.ReplaceAll(md, "\r\n", "\n")
	md = reExcessNewlines.ReplaceAllString(md, "\n\n")
	md = reSlashLine.ReplaceAllString(md, "\n\n")
	md = convertLatexDelimiters(md)
	md = reEmptyHeading.ReplaceAllString(md, "")
	md = reHeadingAnchor.ReplaceAllString(md, "${1}")
	return strings.TrimSpace(md) + "\n"
}

// convertLatexDelimiters rewrites \( \) to $ and \[ \] to $$
// everywhere except inside fenced blocks and inline code spans,
// tracked with a fence/backtick scan rather than a single regex.
func convertLatexDelimiters(md string) string {
	var out strings.Builder
	inFence := false
	inInlineCode := false
	inlineTickLen := 0

	for _, line := range strings.SplitAfter(md, "\n") {
		if line == "" {
			continue
		}
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "```") {
			inFence = !inFence
			out.WriteString(line)
			continue
		}
		if inFence {
			out.WriteString(line)
			continue
		}

		i := 0
		for i < len(line) {
			if line[i] == '`' {
				j := i
				for j < len(line) && line[j] == '`' {
					j++
				}
				ticks := j - i
				out.WriteString(line[i:j])
				if !inInlineCode {
					inInlineCode = true
					inlineTickLen = ticks
				} else if ticks == inlineTickLen {
					inInlineCode = false
					inlineTickLen = 0
				}
				i = j
				continue
			}

			j := strings.IndexByte(line[i:], '`')
			if j == -1 {
				j = len(line)
			} else {
				j += i
			}
			seg := line[i:j]
			if !inInlineCode {
				seg = strings.ReplaceAll(seg, `\[`, "$$")
				seg = strings.ReplaceAll(seg, `\]`, "$$")
				seg = strings.ReplaceAll(seg, `\(`, "$")
				seg = strings.ReplaceAll(seg, `\)`, "$")
			}
			out.WriteString(seg)
			i = j
		}
	}
	return out.String()
}

var reWordStrip = regexp.MustCompile(`[^\w\p{Han} ]+`)

func normalizeTitle(s string) string {
	t := strings.ToLower(strings.Join(strings.Fields(s), " "))
	return reWordStrip.ReplaceAllString(t, "")
}

var reBareHashes = regexp.MustCompile(`^#{1,6}$`)

// StripDuplicateH1 removes a leading H1 that repeats the page title,
// scanning at most the first 80 lines. Bare hash lines near the top are
// dropped too.
func StripDuplicateH1(body, title string) string {
	lines := strings.Split(body, "\n")
	if len(lines) == 0 {
		return body
	}
	titleN := normalizeTitle(title)
	if titleN == "" {
		return body
	}

	scan := len(lines)
	if scan > 80 {
		scan = 80
	}
	for i := 0; i < scan; i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if reBareHashes.MatchString(line) {
			lines = append(lines[:i], lines[i+1:]...)
			break
		}
		if strings.HasPrefix(line, "# ") && normalizeTitle(line[2:]) == titleN {
			j := i + 1
			for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
				j++
			}
			lines = append(lines[:i], lines[j:]...)
			break
		}
	}
	return strings.TrimLeft(strings.TrimRight(strings.Join(lines, "\n"), " \t\n"), "\n") + "\n"
}
