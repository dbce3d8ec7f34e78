package extract

import (
	"strings"
	"testing"
)

func TestExtract_PrefersArticle(t *testing.T) {
	html := `<html><body>
		<main><p>main text</p></main>
		<article><p>article text</p></article>
	</body></html>`
	got, err := New().Extract(html)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if !strings.Contains(got, "article text") {
		t.Errorf("article content missing: %q", got)
	}
	if strings.Contains(got, "main text") {
		t.Errorf("main content leaked into article extraction: %q", got)
	}
}

func TestExtract_RemovesNoise(t *testing.T) {
	html := `<html><body><article>
		<nav>nav links</nav>
		<p>real content</p>
		<footer>footer junk</footer>
		<div class="sidebar">side junk</div>
		<script>var x = 1;</script>
	</article></body></html>`
	got, err := New().Extract(html)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	for _, junk := range []string{"nav links", "footer junk", "side junk", "var x"} {
		if strings.Contains(got, junk) {
			t.Errorf("noise %q survived: %q", junk, got)
		}
	}
	if !strings.Contains(got, "real content") {
		t.Errorf("content lost: %q", got)
	}
}

func TestExtract_KeepsImages(t *testing.T) {
	html := `<html><body><article><p>text</p><img src="/a.png" alt="pic"/></article></body></html>`
	got, err := New().Extract(html)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if !strings.Contains(got, "<img") {
		t.Errorf("image stripped: %q", got)
	}
}

func TestExtract_LargestOfDuplicateContainers(t *testing.T) {
	html := `<html><body>
		<article><p>short</p></article>
		<article><p>this second article holds considerably more text content</p></article>
	</body></html>`
	got, err := New().Extract(html)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if !strings.Contains(got, "considerably more text") {
		t.Errorf("largest container not chosen: %q", got)
	}
}

func TestExtract_FallsBackToBody(t *testing.T) {
	html := `<html><body><div><p>plain page</p></div></body></html>`
	got, err := New().Extract(html)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if !strings.Contains(got, "plain page") {
		t.Errorf("body content missing: %q", got)
	}
}

func TestExtract_WithPreset(t *testing.T) {
	html := `<html><body>
		<div class="theme-doc-sidebar-container">sidebar junk</div>
		<div class="theme-doc-markdown"><h1>Guide</h1><p>doc body</p></div>
	</body></html>`
	got, err := NewWithPreset("docusaurus").Extract(html)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if !strings.Contains(got, "doc body") {
		t.Errorf("preset target missing: %q", got)
	}
	if strings.Contains(got, "sidebar junk") {
		t.Errorf("excluded selector survived: %q", got)
	}
}

func TestExtract_UnknownPresetFallsBack(t *testing.T) {
	html := `<html><body><article><p>still works</p></article></body></html>`
	got, err := NewWithPreset("no-such-framework").Extract(html)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if !strings.Contains(got, "still works") {
		t.Errorf("fallback failed: %q", got)
	}
}

func TestDetectFramework_Docusaurus(t *testing.T) {
	html := `<html><head><meta name="generator" content="Docusaurus v3"></head>
	<body class="docusaurus-wrapper"><div class="theme-doc-markdown">x</div></body></html>`
	name, score := DetectFramework(html)
	if name != "docusaurus" {
		t.Errorf("DetectFramework() = %q, want docusaurus", name)
	}
	if score < 0.2 {
		t.Errorf("score = %v, want >= 0.2", score)
	}
}

func TestDetectFramework_PlainPage(t *testing.T) {
	name, _ := DetectFramework(`<html><body><p>nothing special</p></body></html>`)
	if name != "" {
		t.Errorf("DetectFramework() = %q, want empty", name)
	}
}

func TestAvailablePresets_Sorted(t *testing.T) {
	names := AvailablePresets()
	if len(names) == 0 {
		t.Fatal("no presets registered")
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("presets not sorted: %v", names)
			break
		}
	}
	found := false
	for _, n := range names {
		if n == "docusaurus" {
			found = true
		}
	}
	if !found {
		t.Errorf("docusaurus missing from %v", names)
	}
}

func TestTitle_PrefersTitleTag(t *testing.T) {
	html := `<html><head><title>  Page   Title </title></head><body><h1>H1 Title</h1></body></html>`
	if got := Title(html); got != "Page Title" {
		t.Errorf("Title() = %q, want %q", got, "Page Title")
	}
}

func TestTitle_FallsBackToH1(t *testing.T) {
	html := `<html><body><h1>Only Heading</h1></body></html>`
	if got := Title(html); got != "Only Heading" {
		t.Errorf("Title() = %q, want %q", got, "Only Heading")
	}
}

func TestTitle_Empty(t *testing.T) {
	if got := Title(`<html><body><p>no title</p></body></html>`); got != "" {
		t.Errorf("Title() = %q, want empty", got)
	}
}
