// Table sub-state-machine. A top-level <table> enters simple row/cell
// buffering; when raw-HTML preservation is requested the same events are
// mirrored into a capture buffer concurrently. On close, a complex table
// (any colspan/rowspan other than "1", or a nested table) is emitted as
// the captured HTML verbatim and the simple rows discarded; otherwise a
// pipe table is emitted. Nested tables only bump the depth counter and
// are excluded from outer row parsing.
package convert

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

type tableState struct {
	inTable bool
	depth   int

	rows    [][]string
	row     []string
	rowOpen bool

	inCell  bool
	cellBuf []string

	inA      bool
	aHref    string
	aHasHref bool
	aText    []string

	captureHTML  bool
	captureBuf   []string
	captureDepth int
	isComplex    bool
}

func isComplexCellAttrs(am map[string]string) bool {
	if v, ok := am["colspan"]; ok && v != "" && v != "1" {
		return true
	}
	if v, ok := am["rowspan"]; ok && v != "" && v != "1" {
		return true
	}
	return false
}

// appendCell buffers cell text with horizontal whitespace collapsed.
func (t *tableState) appendCell(text string) {
	if text == "" {
		return
	}
	t.cellBuf = append(t.cellBuf, horizontalWS.ReplaceAllString(text, " "))
}

// softBreak inserts a coalesced <br> marker; literal newlines are not
// permitted inside a pipe-table cell.
func (t *tableState) softBreak() {
	if len(t.cellBuf) == 0 {
		return
	}
	if strings.ToLower(strings.TrimSpace(t.cellBuf[len(t.cellBuf)-1])) != "<br>" {
		t.cellBuf = append(t.cellBuf, "<br>")
	}
}

// handleStart consumes a start-tag event while table handling applies.
// It reports whether the event was consumed.
func (t *tableState) handleStart(m *machine, name string, attrs []html.Attribute, am map[string]string) bool {
	if name == "table" && t.inTable {
		t.depth++
		if m.keepHTML {
			t.isComplex = true
		}
		if t.captureHTML {
			t.captureBuf = append(t.captureBuf, openTag(name, attrs))
			t.captureDepth++
		}
		return true
	}

	if name == "table" {
		m.ensureBlankLine()
		t.inTable = true
		t.depth = 1
		t.rows = nil
		t.row = nil
		t.rowOpen = false
		t.isComplex = false
		t.captureHTML = m.keepHTML
		t.captureBuf = nil
		t.captureDepth = 0
		if t.captureHTML {
			t.captureBuf = []string{openTag(name, attrs)}
			t.captureDepth = 1
		}
		return true
	}

	if !t.inTable {
		return false
	}

	if t.depth > 1 {
		// Inside a nested table: capture raw if requested, parse nothing.
		if t.captureHTML {
			t.captureBuf = append(t.captureBuf, openTag(name, attrs))
		}
		return true
	}

	if t.captureHTML {
		t.captureBuf = append(t.captureBuf, openTag(name, attrs))
	}

	switch name {
	case "tr":
		t.row = []string{}
		t.rowOpen = true
	case "th", "td":
		if m.keepHTML && isComplexCellAttrs(am) {
			t.isComplex = true
		}
		t.inCell = true
		t.cellBuf = nil
	case "br":
		if t.inCell {
			t.softBreak()
		}
	case "p", "div", "li":
		if t.inCell {
			t.softBreak()
		}
	case "a":
		if t.inCell {
			t.inA = true
			t.aHref, t.aHasHref = am["href"]
			t.aText = nil
		}
	case "img":
		if !t.inCell {
			return true
		}
		src := imageSource(am)
		if src == "" {
			return true
		}
		imgURL := m.resolve(src)
		if isProbableIcon(imgURL) {
			return true
		}
		alt := strings.TrimSpace(am["alt"])
		alt = strings.NewReplacer("[", "", "]", "").Replace(alt)
		local := imgURL
		if p, ok := m.assets[imgURL]; ok {
			local = p
		}
		t.cellBuf = append(t.cellBuf, "!["+alt+"]("+safeMarkdownURL(local)+")")
	}
	return true
}

// handleEnd consumes an end-tag event while inside a table.
// It reports whether the event was consumed.
func (t *tableState) handleEnd(m *machine, name string) bool {
	if !t.inTable {
		return false
	}

	if t.captureHTML {
		if !voidTags[name] {
			t.captureBuf = append(t.captureBuf, "</"+name+">")
		}
		if name == "table" {
			t.captureDepth--
		}
	}

	if name == "table" {
		t.depth--
		if t.depth < 0 {
			t.depth = 0
		}
	} else if t.depth > 1 {
		return true
	}

	switch {
	case name == "a" && t.inA:
		text := strings.TrimSpace(strings.Join(t.aText, ""))
		if text == "" {
			text = t.aHref
		}
		if t.aHasHref && t.aHref != "" {
			t.appendCell("[" + text + "](" + safeMarkdownURL(m.resolve(t.aHref)) + ")")
		} else {
			t.appendCell(text)
		}
		t.inA = false
		t.aHref = ""
		t.aHasHref = false
		t.aText = nil
	case (name == "p" || name == "div" || name == "li") && t.inCell:
		t.softBreak()
	case (name == "th" || name == "td") && t.inCell:
		cell := normalizeCell(strings.Join(t.cellBuf, ""))
		if t.rowOpen {
			t.row = append(t.row, cell)
		}
		t.inCell = false
		t.cellBuf = nil
	case name == "tr":
		if t.rowOpen && rowHasContent(t.row) {
			t.rows = append(t.rows, t.row)
		}
		t.row = nil
		t.rowOpen = false
	case name == "table":
		if t.depth > 0 {
			return true
		}
		rows := t.rows
		t.inTable = false
		t.rows = nil
		t.row = nil
		t.rowOpen = false

		if t.captureHTML && t.captureDepth <= 0 {
			emitRaw := m.keepHTML && t.isComplex
			buf := t.captureBuf
			t.captureHTML = false
			t.captureBuf = nil
			t.captureDepth = 0
			t.isComplex = false
			if emitRaw {
				m.out = append(m.out, strings.Join(buf, ""), "\n\n")
				return true
			}
		}

		if len(rows) > 0 {
			emitPipeTable(m, rows)
		}
	}
	return true
}

// emitPipeTable writes rows as a Markdown table. The first row is the
// header; short rows are padded to the widest row; literal pipes are
// escaped.
func emitPipeTable(m *machine, rows [][]string) {
	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	pad := func(r []string) []string {
		for len(r) < cols {
			r = append(r, "")
		}
		return r
	}
	writeRow := func(r []string) {
		escaped := make([]string, len(r))
		for i, c := range r {
			escaped[i] = strings.ReplaceAll(c, "|", "\\|")
		}
		m.out = append(m.out, "| "+strings.Join(escaped, " | ")+" |\n")
	}

	writeRow(pad(rows[0]))
	sep := make([]string, cols)
	for i := range sep {
		sep[i] = "---"
	}
	m.out = append(m.out, "| "+strings.Join(sep, " | ")+" |\n")
	for _, r := range rows[1:] {
		writeRow(pad(r))
	}
	m.out = append(m.out, "\n")
}

func rowHasContent(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return true
		}
	}
	return false
}

var (
	reCellWS      = regexp.MustCompile(`[ \t\f\v]+`)
	reCellNewline = regexp.MustCompile(`\s*\n\s*`)
	reBrSpacing   = regexp.MustCompile(`(?i)\s*<br>\s*`)
	reBrRun       = regexp.MustCompile(`(?i)(?:<br>){2,}`)
	reBrLeading   = regexp.MustCompile(`(?i)^(?:<br>)+`)
	reBrTrailing  = regexp.MustCompile(`(?i)(?:<br>)+$`)
)

// normalizeCell whitespace-normalizes final cell text and trims
// leading/trailing soft-breaks.
func normalizeCell(cell string) string {
	cell = strings.ReplaceAll(cell, "\r\n", "\n")
	cell = strings.ReplaceAll(cell, "\r", "\n")
	cell = reCellWS.ReplaceAllString(cell, " ")
	cell = reCellNewline.ReplaceAllString(cell, "<br>")
	cell = reBrSpacing.ReplaceAllString(cell, "<br>")
	cell = reBrRun.ReplaceAllString(cell, "<br>")
	cell = reBrLeading.ReplaceAllString(cell, "")
	cell = reBrTrailing.ReplaceAllString(cell, "")
	return strings.TrimSpace(cell)
}
