// Package convert implements the Converter interface.
// It turns an HTML fragment into Markdown by consuming the tag-event
// stream of golang.org/x/net/html's tokenizer with a small family of
// explicit pushdown automata: a skip-stack for discarded subtrees, a
// tag-stack tracking KaTeX nesting, a list-stack, and a table
// sub-machine. Malformed markup is tolerated throughout: end tags
// search the stack by name, unmatched ones are no-ops, and conversion
// always produces some result.
package convert

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// voidTags never push onto the tag- or skip-stacks; they have no subtree.
var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
	"path": true, "rect": true, "circle": true, "polygon": true,
	"polyline": true, "line": true, "ellipse": true,
}

// skipTags are discarded with their whole subtree. A <script> whose type
// begins with "math/tex" is the one exception: its content is captured.
var skipTags = map[string]bool{
	"script": true, "style": true, "svg": true, "video": true, "audio": true,
}

// Options configure a Converter.
type Options struct {
	// BaseURL resolves relative hrefs and image sources.
	BaseURL string
	// AssetLocalPaths rewrites known image URLs to local paths. It is a
	// pure lookup table; unmapped URLs pass through unchanged.
	AssetLocalPaths map[string]string
	// KeepTableHTML preserves tables with colspan/rowspan as raw HTML
	// instead of lossy pipe tables.
	KeepTableHTML bool
}

// Converter converts HTML fragments to Markdown.
type Converter struct {
	opts Options
}

// New creates a Converter.
func New(opts Options) *Converter {
	return &Converter{opts: opts}
}

// Convert tokenizes the fragment and runs it through the emission state
// machine, then applies the finalization pass. It never fails on
// malformed input; the error return exists to satisfy core.Converter.
func (c *Converter) Convert(fragment string) (string, error) {
	m := newMachine(c.opts)
	z := html.NewTokenizer(strings.NewReader(fragment))

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// EOF or an unrecoverable lex error; emit what we have.
			break
		}
		switch tt {
		case html.StartTagToken:
			t := z.Token()
			m.handleStart(t.Data, t.Attr)
		case html.SelfClosingTagToken:
			t := z.Token()
			m.handleStart(t.Data, t.Attr)
			m.handleEnd(t.Data)
		case html.EndTagToken:
			t := z.Token()
			m.handleEnd(t.Data)
		case html.TextToken:
			m.handleText(z.Token().Data)
		}
		// Comments and doctypes carry no content.
	}

	return Finalize(strings.Join(m.out, "")), nil
}

// stackEntry is one open tag with its KaTeX flags.
type stackEntry struct {
	name         string
	katex        bool
	katexDisplay bool
}

// listState tracks one open list level.
type listState struct {
	ordered bool
	n       int
}

// machine is the per-invocation conversion state. Nothing is shared
// between calls, so concurrent Convert calls are safe.
type machine struct {
	baseURL  string
	base     *url.URL
	assets   map[string]string
	keepHTML bool

	out []string

	skipStack []string
	tagStack  []stackEntry

	katexDepth        int
	katexDisplayDepth int

	inHeading       bool
	headingOutStart int
	headingText     []string

	inPre   bool
	preBuf  []string
	preLang string

	inMathScript      bool
	mathScriptDisplay bool
	mathScriptBuf     []string

	inAnnotationTeX   bool
	annotationDisplay bool
	annotationBuf     []string

	inInlineCode  bool
	inlineCodeBuf []string

	inA      bool
	aHref    string
	aHasHref bool
	aText    []string

	listStack []listState

	tbl tableState
}

func newMachine(opts Options) *machine {
	m := &machine{
		baseURL:         opts.BaseURL,
		assets:          opts.AssetLocalPaths,
		keepHTML:        opts.KeepTableHTML,
		headingOutStart: -1,
	}
	if opts.BaseURL != "" {
		if u, err := url.Parse(opts.BaseURL); err == nil {
			m.base = u
		}
	}
	return m
}

// tail returns the recent output, enough context for all suffix checks.
func (m *machine) tail() string {
	if len(m.out) == 0 {
		return ""
	}
	start := len(m.out) - 8
	if start < 0 {
		start = 0
	}
	return strings.Join(m.out[start:], "")
}

func (m *machine) ensureBlankLine() {
	if len(m.out) == 0 {
		return
	}
	tail := m.tail()
	if strings.HasSuffix(tail, "\n\n") {
		return
	}
	if strings.HasSuffix(tail, "\n") {
		m.out = append(m.out, "\n")
	} else {
		m.out = append(m.out, "\n\n")
	}
}

var horizontalWS = regexp.MustCompile(`[ \t\r\f\v]+`)

// appendText writes inline text, collapsing horizontal whitespace and
// inserting a separating space where two runs would otherwise fuse.
func (m *machine) appendText(text string) {
	if text == "" {
		return
	}
	text = horizontalWS.ReplaceAllString(text, " ")
	tail := m.tail()
	if tail != "" {
		if strings.HasSuffix(tail, "**") || strings.HasSuffix(tail, "*") || strings.HasSuffix(tail, "`") {
			text = strings.TrimLeft(text, " \t\n\r\f\v")
		}
	}
	if text == "" {
		return
	}
	if tail != "" {
		prev := tail[len(tail)-1]
		first := text[0]
		if !strings.ContainsRune("\n ([*`_", rune(prev)) && !strings.ContainsRune(" \n.,:;)]", rune(first)) {
			m.out = append(m.out, " ")
		}
	}
	m.out = append(m.out, text)
}

// shouldSkip implements the skip-tag policy: the fixed base set, Ghost
// "kg-" media-card chrome classes, and buttons. Math/TeX scripts are
// exempt so their literal content can be captured.
func (m *machine) shouldSkip(name string, am map[string]string) bool {
	if name == "script" {
		t := strings.ToLower(strings.TrimSpace(am["type"]))
		if strings.HasPrefix(t, "math/tex") {
			return false
		}
	}
	if skipTags[name] {
		return true
	}
	if name != "figure" && name != "figcaption" {
		for _, c := range classList(am) {
			if strings.HasPrefix(c, "kg-video-") || strings.HasPrefix(c, "kg-audio-") ||
				strings.HasPrefix(c, "kg-file-") || strings.Contains(c, "kg-video") {
				return true
			}
		}
	}
	return name == "button"
}

func (m *machine) enterSkip(name string) {
	if voidTags[name] {
		return
	}
	m.skipStack = append(m.skipStack, name)
}

func (m *machine) handleStart(name string, attrs []html.Attribute) {
	name = strings.ToLower(name)
	am := attrMap(attrs)

	if !voidTags[name] {
		var isKatex, isKatexDisplay bool
		if name == "span" {
			classes := classList(am)
			for _, c := range classes {
				if c == "katex-display" {
					isKatexDisplay = true
				}
				if c == "katex" {
					isKatex = true
				}
			}
			isKatex = isKatex || isKatexDisplay
		}
		m.tagStack = append(m.tagStack, stackEntry{name, isKatex, isKatexDisplay})
		if isKatex {
			m.katexDepth++
		}
		if isKatexDisplay {
			m.katexDisplayDepth++
		}
	}

	if len(m.skipStack) > 0 {
		if m.shouldSkip(name, am) {
			m.enterSkip(name)
		}
		return
	}
	if m.shouldSkip(name, am) {
		m.enterSkip(name)
		return
	}

	if m.tbl.handleStart(m, name, attrs, am) {
		return
	}

	switch name {
	case "p":
		if len(m.listStack) == 0 {
			m.ensureBlankLine()
		}
	case "br":
		m.out = append(m.out, "\n")
	case "hr":
		m.ensureBlankLine()
		m.out = append(m.out, "---\n\n")
	case "h1", "h2", "h3", "h4", "h5", "h6":
		m.ensureBlankLine()
		level := int(name[1] - '0')
		m.inHeading = true
		m.headingOutStart = len(m.out)
		m.headingText = nil
		m.out = append(m.out, strings.Repeat("#", level)+" ")
	case "script":
		t := strings.ToLower(strings.TrimSpace(am["type"]))
		if strings.HasPrefix(t, "math/tex") {
			m.inMathScript = true
			m.mathScriptDisplay = strings.Contains(t, "mode=display")
			m.mathScriptBuf = nil
			return
		}
		m.enterSkip(name)
	case "pre":
		m.ensureBlankLine()
		m.inPre = true
		m.preBuf = nil
		m.preLang = sanitizeFenceLanguage(extractCodeLanguage(am))
	case "code":
		if m.inPre {
			if m.preLang == "" {
				m.preLang = sanitizeFenceLanguage(extractCodeLanguage(am))
			}
			return
		}
		m.inInlineCode = true
		m.inlineCodeBuf = nil
	case "annotation":
		enc := strings.ToLower(strings.TrimSpace(am["encoding"]))
		if enc == "application/x-tex" || enc == "text/tex" {
			m.inAnnotationTeX = true
			m.annotationDisplay = m.katexDisplayDepth > 0
			m.annotationBuf = nil
		}
	case "strong", "b":
		m.out = append(m.out, "**")
	case "em", "i":
		m.out = append(m.out, "*")
	case "a":
		m.inA = true
		m.aHref, m.aHasHref = am["href"]
		m.aText = nil
	case "img":
		src := imageSource(am)
		if src == "" {
			return
		}
		imgURL := m.resolve(src)
		if isProbableIcon(imgURL) {
			return
		}
		alt := strings.TrimSpace(am["alt"])
		alt = strings.NewReplacer("[", "", "]", "").Replace(alt)
		local := imgURL
		if p, ok := m.assets[imgURL]; ok {
			local = p
		}
		m.ensureBlankLine()
		m.out = append(m.out, "!["+alt+"]("+safeMarkdownURL(local)+")\n")
	case "ul", "ol":
		if len(m.listStack) > 0 {
			if !strings.HasSuffix(m.tail(), "\n") {
				m.out = append(m.out, "\n")
			}
		} else {
			m.ensureBlankLine()
		}
		m.listStack = append(m.listStack, listState{ordered: name == "ol"})
	case "li":
		if len(m.listStack) > 0 {
			if len(m.out) > 0 && !strings.HasSuffix(m.tail(), "\n") {
				m.out = append(m.out, "\n")
			}
			ls := &m.listStack[len(m.listStack)-1]
			ls.n++
			indent := strings.Repeat("  ", len(m.listStack)-1)
			prefix := "- "
			if ls.ordered {
				prefix = strconv.Itoa(ls.n) + ". "
			}
			m.out = append(m.out, indent+prefix)
		}
	case "blockquote":
		m.ensureBlankLine()
		m.out = append(m.out, "> ")
	}
}

func (m *machine) handleEnd(name string) {
	name = strings.ToLower(name)

	// Pop the tag-stack by name first, even inside skipped subtrees, so
	// KaTeX depths stay balanced. An unmatched end tag is a no-op.
	if !voidTags[name] && len(m.tagStack) > 0 {
		matched := -1
		for i := len(m.tagStack) - 1; i >= 0; i-- {
			if m.tagStack[i].name == name {
				matched = i
				break
			}
		}
		if matched >= 0 {
			for len(m.tagStack) > matched {
				e := m.tagStack[len(m.tagStack)-1]
				m.tagStack = m.tagStack[:len(m.tagStack)-1]
				if e.katex && m.katexDepth > 0 {
					m.katexDepth--
				}
				if e.katexDisplay && m.katexDisplayDepth > 0 {
					m.katexDisplayDepth--
				}
			}
		}
	}

	if len(m.skipStack) > 0 {
		if name == m.skipStack[len(m.skipStack)-1] {
			m.skipStack = m.skipStack[:len(m.skipStack)-1]
		}
		return
	}

	if m.tbl.handleEnd(m, name) {
		return
	}

	switch name {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		if m.inHeading && m.headingOutStart >= 0 {
			text := strings.TrimSpace(strings.Join(m.headingText, ""))
			if text == "" {
				// Empty heading (auto-anchor shell): delete it retroactively.
				m.out = m.out[:m.headingOutStart]
			} else {
				m.out = append(m.out, "\n\n")
			}
		} else {
			m.out = append(m.out, "\n\n")
		}
		m.inHeading = false
		m.headingOutStart = -1
		m.headingText = nil
	case "p":
		m.out = append(m.out, "\n\n")
	case "annotation":
		if !m.inAnnotationTeX {
			return
		}
		tex := strings.TrimSpace(strings.Join(m.annotationBuf, ""))
		m.inAnnotationTeX = false
		m.annotationBuf = nil
		if tex != "" {
			m.emitMath(tex, m.annotationDisplay)
		}
		m.annotationDisplay = false
	case "script":
		if !m.inMathScript {
			return
		}
		tex := strings.TrimSpace(strings.Join(m.mathScriptBuf, ""))
		display := m.mathScriptDisplay
		m.inMathScript = false
		m.mathScriptDisplay = false
		m.mathScriptBuf = nil
		if tex != "" {
			m.emitMath(tex, display)
		}
	case "pre":
		code := strings.Join(m.preBuf, "")
		code = strings.ReplaceAll(code, "\r\n", "\n")
		code = strings.ReplaceAll(code, "\r", "\n")
		code = strings.Trim(code, "\n")
		m.out = append(m.out, "```"+sanitizeFenceLanguage(m.preLang)+"\n"+code+"\n```\n\n")
		m.inPre = false
		m.preBuf = nil
		m.preLang = ""
	case "code":
		if m.inPre {
			return
		}
		code := strings.TrimSpace(strings.Join(m.inlineCodeBuf, ""))
		m.out = append(m.out, "`"+strings.ReplaceAll(code, "`", "\\`")+"`")
		m.inInlineCode = false
		m.inlineCodeBuf = nil
	case "strong", "b":
		m.out = append(m.out, "**")
	case "em", "i":
		m.out = append(m.out, "*")
	case "a":
		m.closeAnchor()
	case "ul", "ol":
		if len(m.listStack) > 0 {
			m.listStack = m.listStack[:len(m.listStack)-1]
		}
		m.out = append(m.out, "\n")
	case "li":
		m.out = append(m.out, "\n")
	case "blockquote":
		m.out = append(m.out, "\n\n")
	}
}

// emitMath writes captured TeX as $...$ or a $$ block.
func (m *machine) emitMath(tex string, display bool) {
	if display {
		m.ensureBlankLine()
		m.out = append(m.out, "$$\n"+tex+"\n$$\n\n")
	} else {
		m.appendText("$" + strings.ReplaceAll(tex, "\n", " ") + "$")
	}
}

// closeAnchor resolves and emits a buffered link, suppressing
// auto-generated heading permalinks (bare #/¶/§ glyphs or the literal
// text "tag" pointing at a same-document fragment).
func (m *machine) closeAnchor() {
	text := strings.TrimSpace(strings.Join(m.aText, ""))
	if text == "" && m.aHasHref {
		text = m.aHref
	}
	reset := func() {
		m.inA = false
		m.aHref = ""
		m.aHasHref = false
		m.aText = nil
	}

	if m.aHasHref && m.aHref != "" {
		full := m.resolve(m.aHref)
		if isAnchorGlyph(text) && (strings.HasPrefix(m.aHref, "#") || strings.HasPrefix(full, m.baseURL+"#")) {
			reset()
			return
		}
	}
	if strings.EqualFold(text, "tag") && m.aHasHref && m.aHref != "" &&
		(strings.HasPrefix(m.aHref, "#") || strings.HasPrefix(m.aHref, m.baseURL+"#")) {
		reset()
		return
	}

	if m.aHasHref && m.aHref != "" {
		m.out = append(m.out, "["+text+"]("+safeMarkdownURL(m.resolve(m.aHref))+")")
	} else {
		m.out = append(m.out, text)
	}
	reset()
}

func isAnchorGlyph(s string) bool {
	s = strings.TrimSpace(s)
	return s == "#" || s == "¶" || s == "§"
}

func (m *machine) handleText(data string) {
	if len(m.skipStack) > 0 {
		return
	}
	if m.inAnnotationTeX {
		m.annotationBuf = append(m.annotationBuf, data)
		return
	}
	if m.inMathScript {
		m.mathScriptBuf = append(m.mathScriptBuf, data)
		return
	}
	if m.katexDepth > 0 {
		// Rendered KaTeX fragments would duplicate the captured TeX.
		return
	}
	if m.tbl.inTable && m.tbl.captureHTML && data != "" {
		m.tbl.captureBuf = append(m.tbl.captureBuf, html.EscapeString(data))
	}
	if m.inPre {
		m.preBuf = append(m.preBuf, data)
		return
	}
	if m.tbl.inTable && m.tbl.depth > 1 {
		return
	}
	if m.tbl.inTable {
		if m.tbl.inA {
			m.tbl.aText = append(m.tbl.aText, data)
			return
		}
		if m.tbl.inCell {
			m.tbl.appendCell(data)
		}
		return
	}
	if m.inInlineCode {
		m.inlineCodeBuf = append(m.inlineCodeBuf, data)
		return
	}
	if m.inA {
		if m.inHeading && strings.TrimSpace(data) != "" && !isAnchorGlyph(data) {
			m.headingText = append(m.headingText, data)
		}
		m.aText = append(m.aText, data)
		return
	}
	if strings.TrimSpace(data) == "" {
		return
	}
	if m.inHeading {
		m.headingText = append(m.headingText, data)
	}
	m.appendText(data)
}

// resolve joins a possibly-relative reference against the base URL.
func (m *machine) resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if m.base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return m.base.ResolveReference(u).String()
}
