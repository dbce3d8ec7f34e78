// Attribute and URL helpers shared by the emission machine and the
// table sub-machine.
package convert

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// attrMap flattens the ordered attribute list into a lookup map.
// Duplicate attributes keep the last value.
func attrMap(attrs []html.Attribute) map[string]string {
	am := make(map[string]string, len(attrs))
	for _, a := range attrs {
		am[strings.ToLower(a.Key)] = a.Val
	}
	return am
}

func classList(am map[string]string) []string {
	return strings.Fields(am["class"])
}

// imageSource resolves an image URL through the lazy-load fallback
// chain: src, then common data- attributes, then the first srcset entry.
func imageSource(am map[string]string) string {
	for _, key := range []string{"src", "data-src", "data-original", "data-lazy-src"} {
		if v := am[key]; v != "" {
			return v
		}
	}
	if srcset := am["srcset"]; srcset != "" {
		first := strings.TrimSpace(strings.SplitN(srcset, ",", 2)[0])
		if i := strings.IndexByte(first, ' '); i >= 0 {
			first = first[:i]
		}
		return first
	}
	return ""
}

// safeMarkdownURL encodes the characters that break a standard Markdown
// link destination. Anything else passes through to avoid
// double-encoding already-encoded URLs.
func safeMarkdownURL(u string) string {
	if u == "" {
		return ""
	}
	return strings.NewReplacer(" ", "%20", "(", "%28", ")", "%29").Replace(u)
}

func isProbableIcon(u string) bool {
	low := strings.ToLower(u)
	return strings.Contains(low, "favicon") ||
		strings.Contains(low, "/icon/") ||
		strings.HasSuffix(low, ".ico") ||
		strings.Contains(low, "pinned-octocat") ||
		strings.Contains(low, "/apple-touch-icon")
}

var reBadScheme = regexp.MustCompile(`(?i)^(?:javascript|vbscript):`)

// attrsToString serializes attributes for raw table capture, dropping
// event handlers and dangerous URL schemes.
func attrsToString(attrs []html.Attribute) string {
	var parts []string
	for _, a := range attrs {
		name := strings.TrimSpace(a.Key)
		if name == "" {
			continue
		}
		low := strings.ToLower(name)
		if strings.HasPrefix(low, "on") {
			continue
		}
		switch low {
		case "href", "src", "xlink:href", "srcset":
			v := strings.TrimSpace(a.Val)
			if reBadScheme.MatchString(v) {
				continue
			}
			if (low == "src" || low == "xlink:href") && strings.HasPrefix(strings.ToLower(v), "file:") {
				continue
			}
		}
		if a.Val == "" {
			parts = append(parts, name)
			continue
		}
		parts = append(parts, name+`="`+html.EscapeString(a.Val)+`"`)
	}
	return strings.Join(parts, " ")
}

func openTag(name string, attrs []html.Attribute) string {
	if s := attrsToString(attrs); s != "" {
		return "<" + name + " " + s + ">"
	}
	return "<" + name + ">"
}
