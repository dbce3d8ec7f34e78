package convert

import (
	"regexp"
	"strings"
)

// knownLanguages is the bare-class allow-list: a class equal to one of
// these counts as a fence language even without a language- prefix.
var knownLanguages = map[string]bool{
	"bash": true, "c": true, "cpp": true, "csharp": true, "css": true,
	"go": true, "html": true, "java": true, "javascript": true, "js": true,
	"json": true, "kotlin": true, "perl": true, "php": true, "python": true,
	"py": true, "ruby": true, "rust": true, "scala": true, "shell": true,
	"sh": true, "sql": true, "swift": true, "toml": true, "typescript": true,
	"ts": true, "xml": true, "yaml": true, "yml": true,
}

var reLanguageClass = regexp.MustCompile(`^(?:language|lang)[-_]([A-Za-z0-9_+.\-]+)$`)

// extractCodeLanguage derives a fence language in priority order: a
// language data-attribute, a language-/lang- class pattern, then a bare
// class from the allow-list.
func extractCodeLanguage(am map[string]string) string {
	for _, key := range []string{"data-language", "data-lang", "lang"} {
		if v := strings.TrimSpace(am[key]); v != "" {
			return strings.Fields(v)[0]
		}
	}
	classes := classList(am)
	for _, c := range classes {
		if mm := reLanguageClass.FindStringSubmatch(c); mm != nil {
			return mm[1]
		}
	}
	for _, c := range classes {
		if knownLanguages[strings.ToLower(c)] {
			return strings.ToLower(c)
		}
	}
	return ""
}

var reFenceLanguage = regexp.MustCompile(`^[A-Za-z0-9_+.\-]+$`)

// sanitizeFenceLanguage restricts the fence tag to a safe token set.
func sanitizeFenceLanguage(lang string) string {
	fields := strings.Fields(lang)
	if len(fields) == 0 {
		return ""
	}
	if !reFenceLanguage.MatchString(fields[0]) {
		return ""
	}
	return fields[0]
}
