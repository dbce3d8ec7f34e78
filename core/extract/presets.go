package extract

import (
	"regexp"
	"sort"
	"strings"
)

// Preset describes how to extract content from a known documentation
// framework: how to recognize it, where the content lives, and which
// chrome to cut away first.
type Preset struct {
	Name             string
	Description      string
	DetectPatterns   []string // substrings anywhere in the page (case-insensitive)
	DetectClasses    []string // class names that identify the framework
	DetectMeta       []string // regexes matched against the page (e.g. generator meta)
	TargetIDs        []string
	TargetClasses    []string
	ExcludeSelectors []string
}

var presets = map[string]*Preset{
	"docusaurus": {
		Name:           "docusaurus",
		Description:    "Docusaurus (Meta/Facebook)",
		DetectPatterns: []string{"docusaurus", "__docusaurus"},
		DetectClasses:  []string{"docusaurus-wrapper", "theme-doc-markdown"},
		DetectMeta:     []string{`generator.*docusaurus`},
		TargetIDs:      []string{"__docusaurus_skipToContent_fallback"},
		TargetClasses:  []string{"theme-doc-markdown", "markdown", "docMainContainer"},
		ExcludeSelectors: []string{
			".theme-doc-sidebar-container",
			".pagination-nav",
			".theme-doc-toc-mobile",
			".theme-doc-toc-desktop",
			".theme-doc-breadcrumbs",
			"nav",
			"aside",
			".table-of-contents",
		},
	},
	"mintlify": {
		Name:           "mintlify",
		Description:    "Mintlify",
		DetectPatterns: []string{"mintlify", "mintcdn.com"},
		DetectClasses:  []string{"mintlify"},
		TargetIDs:      []string{"content-area"},
		TargetClasses:  []string{"prose", "article-content", "markdown-body"},
		ExcludeSelectors: []string{
			"nav",
			"aside",
			".sidebar",
			".on-this-page",
			".page-navigation",
			"[data-testid='sidebar']",
		},
	},
	"gitbook": {
		Name:           "gitbook",
		Description:    "GitBook",
		DetectPatterns: []string{"gitbook", "app.gitbook.com"},
		DetectClasses:  []string{"gb-root", "gitbook-root"},
		DetectMeta:     []string{`generator.*gitbook`},
		TargetClasses:  []string{"markdown-section", "page-inner", "book-body"},
		ExcludeSelectors: []string{
			".book-summary",
			".navigation",
			"nav",
			".page-toc",
		},
	},
	"vuepress": {
		Name:           "vuepress",
		Description:    "VuePress",
		DetectPatterns: []string{"vuepress"},
		DetectClasses:  []string{"theme-default-content", "vuepress"},
		DetectMeta:     []string{`generator.*vuepress`},
		TargetClasses:  []string{"theme-default-content", "page", "content__default"},
		ExcludeSelectors: []string{
			".sidebar",
			".page-nav",
			".page-edit",
			"nav",
			".table-of-contents",
		},
	},
	"mkdocs": {
		Name:           "mkdocs",
		Description:    "MkDocs / Material for MkDocs",
		DetectPatterns: []string{"mkdocs"},
		DetectClasses:  []string{"md-content", "md-main"},
		DetectMeta:     []string{`generator.*mkdocs`},
		TargetIDs:      []string{"content"},
		TargetClasses:  []string{"md-content__inner", "md-typeset", "rst-content"},
		ExcludeSelectors: []string{
			".md-sidebar",
			".md-nav",
			".md-footer",
			".md-header",
			"nav",
		},
	},
	"readthedocs": {
		Name:           "readthedocs",
		Description:    "Read the Docs / Sphinx",
		DetectPatterns: []string{"readthedocs", "sphinx", "read the docs"},
		DetectClasses:  []string{"rst-content", "wy-nav-content"},
		DetectMeta:     []string{`generator.*sphinx`},
		TargetClasses:  []string{"rst-content", "document", "body"},
		ExcludeSelectors: []string{
			".wy-nav-side",
			".wy-side-nav-search",
			".rst-versions",
			"nav",
			".toctree-wrapper",
		},
	},
	"notion": {
		Name:           "notion",
		Description:    "Notion (exported or public pages)",
		DetectPatterns: []string{"notion.so", "notion-static"},
		DetectClasses:  []string{"notion-page-content", "notion-app"},
		TargetClasses:  []string{"notion-page-content", "notion-scroller"},
		ExcludeSelectors: []string{
			".notion-sidebar",
			".notion-topbar",
			"nav",
		},
	},
	"confluence": {
		Name:           "confluence",
		Description:    "Atlassian Confluence",
		DetectPatterns: []string{"confluence", "atlassian"},
		DetectClasses:  []string{"wiki-content", "confluence-content"},
		TargetIDs:      []string{"main-content", "content"},
		TargetClasses:  []string{"wiki-content", "confluence-content-body"},
		ExcludeSelectors: []string{
			"#navigation",
			".aui-sidebar",
			".page-metadata",
			"nav",
		},
	},
	"generic": {
		Name:          "generic",
		Description:   "Generic documentation site",
		TargetIDs:     []string{"content", "main-content", "main"},
		TargetClasses: []string{"content", "main-content", "article-content", "markdown-body"},
		ExcludeSelectors: []string{
			"nav",
			"aside",
			".sidebar",
			".navigation",
			".toc",
			".table-of-contents",
		},
	},
}

// AvailablePresets returns the preset names, sorted.
func AvailablePresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DetectFramework scores every preset's detection signals against the page
// and returns the best match. Returns ("", 0) when nothing scores at least
// 0.2. The "generic" preset carries no signals and never auto-matches.
func DetectFramework(pageHTML string) (string, float64) {
	if pageHTML == "" {
		return "", 0
	}
	htmlLower := strings.ToLower(pageHTML)

	bestName := ""
	bestScore := 0.0
	for name, p := range presets {
		score := 0.0
		for _, pattern := range p.DetectPatterns {
			if strings.Contains(htmlLower, strings.ToLower(pattern)) {
				score += 0.3
			}
		}
		for _, cls := range p.DetectClasses {
			if strings.Contains(pageHTML, `class="`+cls+`"`) ||
				strings.Contains(pageHTML, `class='`+cls+`'`) ||
				strings.Contains(pageHTML, " "+cls) {
				score += 0.25
			}
		}
		for _, pattern := range p.DetectMeta {
			if re, err := regexp.Compile(`(?i)` + pattern); err == nil && re.MatchString(pageHTML) {
				score += 0.35
			}
		}
		if score > 1.0 {
			score = 1.0
		}
		if score > bestScore {
			bestScore = score
			bestName = name
		}
	}

	if bestScore < 0.2 {
		return "", 0
	}
	return bestName, bestScore
}
