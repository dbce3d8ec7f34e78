package scan

import (
	"strconv"
	"strings"
	"testing"
)

const articleText = "This is a long enough article paragraph that clears the minimum " +
	"content threshold used to reject incidental JSON matches in pages."

func nextDataPage(payload string) string {
	return `<html><head><title>Shell</title></head><body>` +
		`<script id="__NEXT_DATA__" type="application/json">` + payload +
		`</script></body></html>`
}

func proseMirrorDocJSON() string {
	return `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"` +
		articleText + `"}]}]}`
}

func TestDetect_NextJSInlineDoc(t *testing.T) {
	payload := `{"props":{"pageProps":{"fallback":{"api/article/detail?id=1":` +
		`{"articleInfo":{"title":"My Post","content":` + proseMirrorDocJSON() + `}}}}}}`
	got := New().Detect(nextDataPage(payload))
	if got == nil {
		t.Fatal("Detect() = nil, want content")
	}
	if got.SourceType != "nextjs" {
		t.Errorf("SourceType = %q, want %q", got.SourceType, "nextjs")
	}
	if got.Title != "My Post" {
		t.Errorf("Title = %q, want %q", got.Title, "My Post")
	}
	if got.IsMarkdown {
		t.Error("IsMarkdown = true for HTML body")
	}
	if !strings.Contains(got.Body, "<h1>My Post</h1>") {
		t.Errorf("Body missing title heading: %q", got.Body)
	}
	if !strings.Contains(got.Body, articleText) {
		t.Errorf("Body missing article text: %q", got.Body)
	}
}

func TestDetect_NextJSStringEncodedDoc(t *testing.T) {
	// content doubly encoded: a JSON string holding the document JSON.
	payload := `{"props":{"pageProps":{"fallback":{"x/api/article/detail":` +
		`{"articleInfo":{"title":"Encoded","content":` + strconv.Quote(proseMirrorDocJSON()) + `}}}}}}`
	got := New().Detect(nextDataPage(payload))
	if got == nil {
		t.Fatal("Detect() = nil, want content")
	}
	if got.Title != "Encoded" {
		t.Errorf("Title = %q", got.Title)
	}
	if !strings.Contains(got.Body, articleText) {
		t.Errorf("Body missing article text: %q", got.Body)
	}
}

func TestDetect_NextJSRejectsNonDoc(t *testing.T) {
	payload := `{"props":{"pageProps":{"fallback":{"api/article/detail":` +
		`{"articleInfo":{"title":"T","content":{"type":"other"}}}}}}}`
	if got := New().Detect(nextDataPage(payload)); got != nil {
		t.Errorf("Detect() = %+v, want nil for non-doc content", got)
	}
}

func TestDetect_ModernJSMarkdown(t *testing.T) {
	md := "# Heading\n\nA markdown body long enough to pass the length check easily."
	page := `<html><head><title>Shell</title></head><body><script>` +
		`window._ROUTER_DATA = {"loaderData":{"page":{"curDoc":` +
		`{"Title":"Doc Title","MDContent":` + strconv.Quote(md) + `}}}};` +
		`</script></body></html>`
	got := New().Detect(page)
	if got == nil {
		t.Fatal("Detect() = nil, want content")
	}
	if got.SourceType != "modernjs" {
		t.Errorf("SourceType = %q", got.SourceType)
	}
	if !got.IsMarkdown {
		t.Error("IsMarkdown = false for MDContent body")
	}
	if got.Title != "Doc Title" {
		t.Errorf("Title = %q", got.Title)
	}
	if !strings.Contains(got.Body, "# Heading") {
		t.Errorf("Body missing markdown: %q", got.Body)
	}
}

func TestDetect_ModernJSQuillContent(t *testing.T) {
	content := `{"data":{"s1":{"ops":[{"insert":` + strconv.Quote(articleText) + `}]}}}`
	page := `<script>window._ROUTER_DATA = {"loaderData":{"page":{"curDoc":` +
		`{"Title":"Quill Doc","Content":` + strconv.Quote(content) + `}}}};</script>`
	got := New().Detect(page)
	if got == nil {
		t.Fatal("Detect() = nil, want content")
	}
	if got.IsMarkdown {
		t.Error("IsMarkdown = true for Quill content")
	}
	if !strings.Contains(got.Body, articleText) {
		t.Errorf("Body missing text: %q", got.Body)
	}
}

func TestDetect_GenericFallback(t *testing.T) {
	state := `{"article":` + proseMirrorDocJSON() + `,"padding":"` +
		strings.Repeat("x", 120) + `"}`
	page := `<html><head><title>Fallback Page</title></head><body>` +
		`<script>window.__STATE__ = ` + state + `;</script>` +
		`<p>shell</p></body></html>`
	got := New().Detect(page)
	if got == nil {
		t.Fatal("Detect() = nil, want fallback content")
	}
	if got.SourceType != "json_fallback" {
		t.Errorf("SourceType = %q", got.SourceType)
	}
	if got.Title != "Fallback Page" {
		t.Errorf("Title = %q", got.Title)
	}
	if !strings.Contains(got.Body, "<h1>Fallback Page</h1>") {
		t.Errorf("Body missing wrapped title: %q", got.Body)
	}
	if !strings.Contains(got.Body, articleText) {
		t.Errorf("Body missing article text: %q", got.Body)
	}
}

func TestDetect_PlainPageIsNil(t *testing.T) {
	page := `<html><head><title>Plain</title></head><body><p>just html</p></body></html>`
	if got := New().Detect(page); got != nil {
		t.Errorf("Detect() = %+v, want nil", got)
	}
}

func TestDetect_SmallScriptsIgnored(t *testing.T) {
	page := `<html><body><script>var a = {"t":1};</script><p>x</p></body></html>`
	if got := New().Detect(page); got != nil {
		t.Errorf("Detect() = %+v, want nil for tiny scripts", got)
	}
}

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		text  string
		start int
		want  string
	}{
		{`{"a":1}`, 0, `{"a":1}`},
		{`{"a":{"b":2}} trailing`, 0, `{"a":{"b":2}}`},
		{`{"s":"bra{ce}"}`, 0, `{"s":"bra{ce}"}`},
		{`{"s":"esc\"quote}"}`, 0, `{"s":"esc\"quote}"}`},
		{`x{"a":1}`, 0, ""},
		{`{"never":"closed"`, 0, ""},
	}
	for _, c := range cases {
		if got := extractJSONObject(c.text, c.start); got != c.want {
			t.Errorf("extractJSONObject(%q, %d) = %q, want %q", c.text, c.start, got, c.want)
		}
	}
}

func TestFindRichtext_StableCandidateOrder(t *testing.T) {
	docFor := func(marker string) any {
		return map[string]any{
			"type": "doc",
			"content": []any{
				map[string]any{
					"type": "paragraph",
					"content": []any{
						map[string]any{"type": "text", "text": marker + " " + articleText},
					},
				},
			},
		}
	}
	// Two qualifying documents under sibling keys; the search must pick
	// the same one every time regardless of map iteration order.
	data := map[string]any{
		"zulu":  docFor("Zulu candidate."),
		"alpha": docFor("Alpha candidate."),
	}
	for i := 0; i < 25; i++ {
		got := findRichtext(data, 0)
		if !strings.Contains(got, "Alpha candidate.") || strings.Contains(got, "Zulu candidate.") {
			t.Fatalf("run %d picked the wrong candidate: %q", i, got)
		}
	}
}

func TestCleanModernMarkdown_Admonitions(t *testing.T) {
	in := ":::tip\nUse the flag.\n:::\n"
	got := CleanModernMarkdown(in)
	if !strings.Contains(got, "> **tip**:") {
		t.Errorf("admonition opener not rewritten: %q", got)
	}
	if strings.Contains(got, ":::") {
		t.Errorf("fence residue: %q", got)
	}
}

func TestCleanModernMarkdown_AnchorSpansRemoved(t *testing.T) {
	got := CleanModernMarkdown(`before <span id="anchor-1"></span> after`)
	if strings.Contains(got, "<span") {
		t.Errorf("anchor span survived: %q", got)
	}
}

func TestCleanModernMarkdown_ImageSizeHints(t *testing.T) {
	got := CleanModernMarkdown(`![alt](https://e.com/a.png =600x400)`)
	want := `![alt](https://e.com/a.png)`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCleanModernMarkdown_RenderMdTailStripped(t *testing.T) {
	in := "body text here\n`}>\n</RenderMd> leftovers"
	got := CleanModernMarkdown(in)
	if strings.Contains(got, "RenderMd") {
		t.Errorf("RenderMd tail survived: %q", got)
	}
	if !strings.Contains(got, "body text here") {
		t.Errorf("body lost: %q", got)
	}
}
