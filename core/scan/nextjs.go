// Next.js extractor: the __NEXT_DATA__ script carries the page's full
// data tree as JSON. Article bodies live under
// props.pageProps.fallback["...article/detail..."].articleInfo, with
// the content itself being a ProseMirror document (sometimes doubly
// JSON-encoded as a string).
package scan

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kunal-varma/pagemark/core"
	"github.com/kunal-varma/pagemark/core/richtext"
)

var reNextData = regexp.MustCompile(`(?s)<script\s+id="__NEXT_DATA__"\s+type="application/json">(.*?)</script>`)

func extractNextJS(pageHTML string) *core.SSRContent {
	m := reNextData.FindStringSubmatch(pageHTML)
	if m == nil || !gjson.Valid(m[1]) {
		return nil
	}

	fallback := gjson.Get(m[1], "props.pageProps.fallback")
	if !fallback.IsObject() {
		return nil
	}

	var info gjson.Result
	fallback.ForEach(func(key, value gjson.Result) bool {
		if strings.Contains(key.String(), "article/detail") {
			info = value.Get("articleInfo")
			return false
		}
		return true
	})
	if !info.IsObject() {
		return nil
	}

	title := info.Get("title").String()
	content := info.Get("content")
	if !content.Exists() {
		return nil
	}

	// content is either an embedded JSON string or an inline object.
	raw := content.Raw
	if content.Type == gjson.String {
		raw = content.String()
	}
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil
	}
	obj, ok := doc.(map[string]any)
	if !ok || obj["type"] != "doc" {
		return nil
	}

	body := richtext.ToHTML(obj)
	if len(strings.TrimSpace(body)) < 50 {
		return nil
	}
	return &core.SSRContent{
		Title:      title,
		Body:       wrapDocument(title, body),
		SourceType: "nextjs",
	}
}
