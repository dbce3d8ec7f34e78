package convert

import (
	"strings"
	"testing"
)

func mustConvert(t *testing.T, opts Options, fragment string) string {
	t.Helper()
	md, err := New(opts).Convert(fragment)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	return md
}

func TestConvert_HeadingAndParagraph(t *testing.T) {
	got := mustConvert(t, Options{}, `<h2>Install</h2><p>Run the installer.</p>`)
	want := "## Install\n\nRun the installer.\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvert_BoldAndItalic(t *testing.T) {
	got := mustConvert(t, Options{}, `<p><strong>bold</strong> and <em>italic</em></p>`)
	if !strings.Contains(got, "**bold**") {
		t.Errorf("missing bold marker in %q", got)
	}
	if !strings.Contains(got, "*italic*") {
		t.Errorf("missing italic marker in %q", got)
	}
}

func TestConvert_LinkResolvesAgainstBase(t *testing.T) {
	got := mustConvert(t, Options{BaseURL: "https://example.com"},
		`<p>See <a href="/docs">the docs</a>.</p>`)
	want := "See [the docs](https://example.com/docs).\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvert_HeadingAnchorSuppressed(t *testing.T) {
	// Auto-generated permalink glyphs inside headings must not survive.
	got := mustConvert(t, Options{}, `<h2>Usage<a href="#usage">#</a></h2>`)
	want := "## Usage\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvert_EmptyHeadingRemoved(t *testing.T) {
	got := mustConvert(t, Options{}, `<h3><a href="#x">#</a></h3><p>body</p>`)
	want := "body\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvert_UnorderedList(t *testing.T) {
	got := mustConvert(t, Options{}, `<ul><li>one</li><li>two</li></ul>`)
	want := "- one\n- two\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvert_OrderedList(t *testing.T) {
	got := mustConvert(t, Options{}, `<ol><li>first</li><li>second</li></ol>`)
	want := "1. first\n2. second\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvert_NestedListIndents(t *testing.T) {
	got := mustConvert(t, Options{}, `<ul><li>a<ul><li>b</li></ul></li></ul>`)
	want := "- a\n  - b\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvert_Blockquote(t *testing.T) {
	got := mustConvert(t, Options{}, `<blockquote>quoted text</blockquote>`)
	want := "> quoted text\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvert_PreCodeFenceWithLanguage(t *testing.T) {
	got := mustConvert(t, Options{},
		`<pre><code class="language-go">fmt.Println(1)</code></pre>`)
	want := "```go\nfmt.Println(1)\n```\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvert_InlineCodeEscapesBackticks(t *testing.T) {
	got := mustConvert(t, Options{}, "<p>Use <code>a`b</code></p>")
	if !strings.Contains(got, "`a\\`b`") {
		t.Errorf("backtick not escaped in %q", got)
	}
}

func TestConvert_Image(t *testing.T) {
	got := mustConvert(t, Options{BaseURL: "https://ex.com"},
		`<p><img src="/img/a.png" alt="Logo [v2]"></p>`)
	want := "![Logo v2](https://ex.com/img/a.png)\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvert_ImageLazyLoadFallback(t *testing.T) {
	got := mustConvert(t, Options{},
		`<img data-src="https://ex.com/lazy.png" alt="x">`)
	if !strings.Contains(got, "(https://ex.com/lazy.png)") {
		t.Errorf("data-src not used in %q", got)
	}
}

func TestConvert_ImageAssetRewrite(t *testing.T) {
	got := mustConvert(t, Options{
		BaseURL:         "https://ex.com",
		AssetLocalPaths: map[string]string{"https://ex.com/img/a.png": "assets/01-a.png"},
	}, `<img src="/img/a.png" alt="a">`)
	if !strings.Contains(got, "(assets/01-a.png)") {
		t.Errorf("asset path not rewritten in %q", got)
	}
}

func TestConvert_IconImagesDropped(t *testing.T) {
	got := mustConvert(t, Options{},
		`<p>text</p><img src="https://ex.com/favicon.ico" alt="f">`)
	if strings.Contains(got, "favicon") {
		t.Errorf("icon image should be dropped, got %q", got)
	}
}

func TestConvert_SkippedSubtreeSuppressed(t *testing.T) {
	got := mustConvert(t, Options{},
		`<svg><path d="x"/><text>junk</text></svg><p>after</p>`)
	want := "after\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvert_SelfClosingSkippableDoesNotLeak(t *testing.T) {
	// A malformed self-closing skippable tag must not swallow the rest
	// of the document.
	got := mustConvert(t, Options{}, `<video/><p>visible</p>`)
	want := "visible\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvert_StyleContentDropped(t *testing.T) {
	got := mustConvert(t, Options{}, `<style>p { color: red }</style><p>shown</p>`)
	want := "shown\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvert_MathScriptInline(t *testing.T) {
	got := mustConvert(t, Options{},
		`<p>Euler: <script type="math/tex">e^{i\pi}+1=0</script></p>`)
	if !strings.Contains(got, `$e^{i\pi}+1=0$`) {
		t.Errorf("inline math missing in %q", got)
	}
}

func TestConvert_MathScriptDisplay(t *testing.T) {
	got := mustConvert(t, Options{},
		`<script type="math/tex; mode=display">E = mc^2</script>`)
	want := "$$\nE = mc^2\n$$\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvert_KatexEmittedOnce(t *testing.T) {
	// The rendered KaTeX spans duplicate the TeX source held in the
	// annotation; only the annotation copy may be emitted.
	fragment := `<p><span class="katex">` +
		`<span class="katex-html">x 2</span>` +
		`<annotation encoding="application/x-tex">x^2</annotation>` +
		`</span></p>`
	got := mustConvert(t, Options{}, fragment)
	if strings.Count(got, "x^2") != 1 {
		t.Errorf("expected exactly one x^2, got %q", got)
	}
	if !strings.Contains(got, "$x^2$") {
		t.Errorf("inline math missing in %q", got)
	}
	if strings.Contains(got, "x 2") {
		t.Errorf("rendered KaTeX text leaked into %q", got)
	}
}

func TestConvert_KatexDisplayBlock(t *testing.T) {
	fragment := `<span class="katex-display"><span class="katex">` +
		`<annotation encoding="application/x-tex">\int_0^1 x\,dx</annotation>` +
		`</span></span>`
	got := mustConvert(t, Options{}, fragment)
	want := "$$\n\\int_0^1 x\\,dx\n$$\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvert_SimpleTable(t *testing.T) {
	got := mustConvert(t, Options{},
		`<table><tr><th>A</th><th>B</th></tr><tr><td>1</td><td>2</td></tr></table>`)
	want := "| A | B |\n| --- | --- |\n| 1 | 2 |\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvert_TableCellPipeEscaped(t *testing.T) {
	got := mustConvert(t, Options{},
		`<table><tr><th>H</th></tr><tr><td>a|b</td></tr></table>`)
	if !strings.Contains(got, `a\|b`) {
		t.Errorf("pipe not escaped in %q", got)
	}
}

func TestConvert_TableShortRowsPadded(t *testing.T) {
	got := mustConvert(t, Options{},
		`<table><tr><th>A</th><th>B</th></tr><tr><td>1</td></tr></table>`)
	if !strings.Contains(got, "| 1 |  |") {
		t.Errorf("short row not padded in %q", got)
	}
}

func TestConvert_TableCellParagraphBecomesBreak(t *testing.T) {
	got := mustConvert(t, Options{},
		`<table><tr><th>H</th></tr><tr><td><p>one</p><p>two</p></td></tr></table>`)
	if !strings.Contains(got, "one<br>two") {
		t.Errorf("cell paragraphs not joined with <br> in %q", got)
	}
}

func TestConvert_ComplexTablePreservedAsHTML(t *testing.T) {
	fragment := `<table><tr><td colspan="2">Wide</td></tr>` +
		`<tr><td>a</td><td>b</td></tr></table>`
	got := mustConvert(t, Options{KeepTableHTML: true}, fragment)
	if !strings.Contains(got, `<td colspan="2">Wide</td>`) {
		t.Errorf("raw HTML table missing in %q", got)
	}
	if strings.Contains(got, "| --- |") {
		t.Errorf("pipe table emitted for complex table: %q", got)
	}
}

func TestConvert_ComplexTableWithoutFlagStaysPipe(t *testing.T) {
	fragment := `<table><tr><td colspan="2">Wide</td></tr>` +
		`<tr><td>a</td><td>b</td></tr></table>`
	got := mustConvert(t, Options{}, fragment)
	if strings.Contains(got, "<table") {
		t.Errorf("raw HTML emitted without KeepTableHTML: %q", got)
	}
	if !strings.Contains(got, "| Wide |") {
		t.Errorf("pipe table missing in %q", got)
	}
}

func TestConvert_SimpleTableWithFlagStaysPipe(t *testing.T) {
	got := mustConvert(t, Options{KeepTableHTML: true},
		`<table><tr><th>A</th></tr><tr><td>1</td></tr></table>`)
	if strings.Contains(got, "<table") {
		t.Errorf("simple table should stay a pipe table, got %q", got)
	}
	if !strings.Contains(got, "| A |") {
		t.Errorf("pipe table missing in %q", got)
	}
}

func TestConvert_NestedTableMarksComplex(t *testing.T) {
	fragment := `<table><tr><td>outer<table><tr><td>inner</td></tr></table></td></tr></table>`
	got := mustConvert(t, Options{KeepTableHTML: true}, fragment)
	if !strings.Contains(got, "<table>") {
		t.Errorf("nested table should force raw HTML, got %q", got)
	}
}

func TestConvert_MalformedInputNeverErrors(t *testing.T) {
	inputs := []string{
		"",
		"<p>unclosed",
		"</div></div>",
		"<<<>>>",
		"<table><td>stray</table>",
		strings.Repeat("<div>", 200),
	}
	for _, in := range inputs {
		if _, err := New(Options{}).Convert(in); err != nil {
			t.Errorf("Convert(%q) returned error: %v", in, err)
		}
	}
}

func TestConvert_HorizontalRule(t *testing.T) {
	got := mustConvert(t, Options{}, `<p>a</p><hr><p>b</p>`)
	if !strings.Contains(got, "\n---\n") {
		t.Errorf("missing rule in %q", got)
	}
}

func TestConvert_ButtonSkipped(t *testing.T) {
	got := mustConvert(t, Options{}, `<p>keep</p><button>Copy</button>`)
	if strings.Contains(got, "Copy") {
		t.Errorf("button text should be skipped, got %q", got)
	}
}

func TestConvert_GhostMediaCardSkipped(t *testing.T) {
	got := mustConvert(t, Options{},
		`<div class="kg-video-card"><div>player chrome</div></div><p>article</p>`)
	if strings.Contains(got, "player chrome") {
		t.Errorf("media card chrome should be skipped, got %q", got)
	}
	if !strings.Contains(got, "article") {
		t.Errorf("article text lost in %q", got)
	}
}

func TestConvert_TableRoundTrip(t *testing.T) {
	cells := [][]string{
		{"Name", "Port", "Notes"},
		{"web", "8080", "public"},
		{"db", "5432", "internal only"},
	}
	var sb strings.Builder
	sb.WriteString("<table>")
	for i, row := range cells {
		tag := "td"
		if i == 0 {
			tag = "th"
		}
		sb.WriteString("<tr>")
		for _, c := range row {
			sb.WriteString("<" + tag + ">" + c + "</" + tag + ">")
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</table>")

	got := mustConvert(t, Options{}, sb.String())

	var parsed [][]string
	for _, line := range strings.Split(strings.TrimSpace(got), "\n") {
		if !strings.HasPrefix(line, "|") || strings.Contains(line, "---") {
			continue
		}
		fields := strings.Split(strings.Trim(line, "|"), "|")
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = strings.TrimSpace(f)
		}
		parsed = append(parsed, row)
	}

	if len(parsed) != len(cells) {
		t.Fatalf("row count = %d, want %d (output %q)", len(parsed), len(cells), got)
	}
	for i, row := range cells {
		for j, want := range row {
			if parsed[i][j] != want {
				t.Errorf("cell [%d][%d] = %q, want %q", i, j, parsed[i][j], want)
			}
		}
	}
}

func TestConvert_ArticleEndToEnd(t *testing.T) {
	fragment := `<article><h1>T</h1><p>Hello <strong>world</strong>.</p>` +
		`<table><tr><th>A</th></tr><tr><td>1</td></tr></table></article>`
	got := mustConvert(t, Options{BaseURL: "https://x.test/"}, fragment)

	wantOrder := []string{"# T", "Hello **world**.", "| A |", "| --- |", "| 1 |"}
	pos := 0
	for _, want := range wantOrder {
		i := strings.Index(got[pos:], want)
		if i < 0 {
			t.Fatalf("missing or out of order %q in %q", want, got)
		}
		pos += i + len(want)
	}
}

func TestExtractCodeLanguage(t *testing.T) {
	cases := []struct {
		am   map[string]string
		want string
	}{
		{map[string]string{"class": "language-go"}, "go"},
		{map[string]string{"class": "lang-python highlight"}, "python"},
		{map[string]string{"class": "rust"}, "rust"},
		{map[string]string{"class": "highlight"}, ""},
		{map[string]string{"data-language": "elixir"}, "elixir"},
		{map[string]string{"data-lang": "c"}, "c"},
		{map[string]string{}, ""},
	}
	for _, c := range cases {
		if got := extractCodeLanguage(c.am); got != c.want {
			t.Errorf("extractCodeLanguage(%v) = %q, want %q", c.am, got, c.want)
		}
	}
}

func TestSanitizeFenceLanguage(t *testing.T) {
	if got := sanitizeFenceLanguage("go"); got != "go" {
		t.Errorf("got %q", got)
	}
	if got := sanitizeFenceLanguage("python extra"); got != "python" {
		t.Errorf("got %q, want first token", got)
	}
	if got := sanitizeFenceLanguage("a`b"); got != "" {
		t.Errorf("expected rejection, got %q", got)
	}
	if got := sanitizeFenceLanguage(""); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestSafeMarkdownURL(t *testing.T) {
	got := safeMarkdownURL("a (1).png")
	if got != "a%20%281%29.png" {
		t.Errorf("got %q", got)
	}
}
