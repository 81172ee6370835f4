package browser

import (
	"regexp"
	"strings"

	"github.com/chromedp/chromedp"
)

// hasTextRe matches Playwright-style "tag:has-text('Text')" selectors.
var hasTextRe = regexp.MustCompile(`^\s*([A-Za-z0-9_*-]*)\s*:has-text\(\s*(?:'([^']*)'|"([^"]*)")\s*\)\s*$`)

// query is a selector translated for chromedp.
type query struct {
	expr   string
	search bool // XPath via BySearch rather than CSS via ByQuery
}

func (q query) by() chromedp.QueryOption {
	if q.search {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// translateSelector accepts CSS, XPath ("//..." or "xpath=...") and
// "tag:has-text('Text')".
func translateSelector(sel string) query {
	trimmed := strings.TrimSpace(sel)

	if rest, ok := strings.CutPrefix(trimmed, "xpath="); ok {
		return query{expr: rest, search: true}
	}
	if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "(//") {
		return query{expr: trimmed, search: true}
	}
	if m := hasTextRe.FindStringSubmatch(trimmed); m != nil {
		tag := m[1]
		if tag == "" {
			tag = "*"
		}
		text := m[2]
		if text == "" {
			text = m[3]
		}
		return query{
			expr:   "//" + tag + "[contains(normalize-space(.), " + xpathLiteral(text) + ")]",
			search: true,
		}
	}
	return query{expr: trimmed}
}

// xpathLiteral quotes s for use inside an XPath expression.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = "'" + p + "'"
	}
	return "concat(" + strings.Join(quoted, `, "'", `) + ")"
}
