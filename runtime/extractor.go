package runtime

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

const (
	attrHTML = "html()"
	attrText = "text()"
)

// OutputRule names a value to pull out of a page. Exactly one of Regex, XPath
// or CSS is expected; a regex must declare a named group equal to Name.
type OutputRule struct {
	Name     string `mapstructure:"name" validate:"required"`
	Regex    string `mapstructure:"regex"`
	XPath    string `mapstructure:"xpath"`
	CSS      string `mapstructure:"css"`
	Attr     string `mapstructure:"attr"`
	Multiple bool   `mapstructure:"multiple"`
	Expected string `mapstructure:"expected"`
}

type regexRule struct {
	OutputRule
	re    *regexp.Regexp
	group int
}

type xpathRule struct {
	OutputRule
	expr *xpath.Expr
}

type cssRule struct {
	OutputRule
	sel cascadia.Selector
}

// Extractor applies compiled output rules to pages. Regex rules run first,
// then XPath, then CSS; a later rule overwrites an earlier one of the same name.
type Extractor struct {
	rules []OutputRule
	regex []regexRule
	xpath []xpathRule
	css   []cssRule
}

func NewExtractor(rules []OutputRule) (*Extractor, error) {
	e := &Extractor{rules: rules}
	for _, r := range rules {
		if r.Regex != "" {
			re, err := regexp.Compile("(?im)" + r.Regex)
			if err != nil {
				return nil, fmt.Errorf("output %q: invalid regex: %w", r.Name, err)
			}
			e.regex = append(e.regex, regexRule{OutputRule: r, re: re, group: re.SubexpIndex(r.Name)})
		}
		if r.XPath != "" {
			expr, err := xpath.Compile(r.XPath)
			if err != nil {
				return nil, fmt.Errorf("output %q: invalid xpath: %w", r.Name, err)
			}
			e.xpath = append(e.xpath, xpathRule{OutputRule: r, expr: expr})
		}
		if r.CSS != "" {
			sel, err := cascadia.Compile(r.CSS)
			if err != nil {
				return nil, fmt.Errorf("output %q: invalid css selector: %w", r.Name, err)
			}
			e.css = append(e.css, cssRule{OutputRule: r, sel: sel})
		}
	}
	return e, nil
}

// Extract evaluates every rule against page.
func (e *Extractor) Extract(page *Page) map[string]string {
	values := make(map[string]string)
	if page == nil {
		return values
	}

	for _, r := range e.regex {
		if r.group < 0 {
			continue
		}
		if !r.Multiple {
			m := r.re.FindStringSubmatch(page.HTML)
			if m == nil {
				continue
			}
			values[r.Name] = m[r.group]
			continue
		}
		matches := r.re.FindAllStringSubmatch(page.HTML, -1)
		if len(matches) == 0 {
			continue
		}
		parts := make([]string, 0, len(matches))
		for _, m := range matches {
			parts = append(parts, m[r.group])
		}
		values[r.Name] = strings.Join(parts, ",")
	}

	for _, r := range e.xpath {
		if !r.Multiple {
			node := htmlquery.QuerySelector(page.Document, r.expr)
			values[r.Name] = nodeValue(node, r.Attr)
			continue
		}
		nodes := htmlquery.QuerySelectorAll(page.Document, r.expr)
		if len(nodes) == 0 {
			continue
		}
		parts := make([]string, 0, len(nodes))
		for _, n := range nodes {
			parts = append(parts, nodeValue(n, r.Attr))
		}
		values[r.Name] = strings.Join(parts, ",")
	}

	if len(e.css) > 0 {
		doc := goquery.NewDocumentFromNode(page.Document)
		for _, r := range e.css {
			sel := doc.FindMatcher(r.sel)
			if !r.Multiple {
				values[r.Name] = selectionValue(sel.First(), r.Attr)
				continue
			}
			if sel.Length() == 0 {
				continue
			}
			parts := make([]string, 0, sel.Length())
			sel.Each(func(_ int, s *goquery.Selection) {
				parts = append(parts, selectionValue(s, r.Attr))
			})
			values[r.Name] = strings.Join(parts, ",")
		}
	}

	return values
}

// Validate compares extracted values with the rules' expected values.
// The first mismatch is reported.
func (e *Extractor) Validate(values map[string]string) (bool, string) {
	for _, r := range e.rules {
		if r.Expected == "" {
			continue
		}
		actual := values[r.Name]
		if !strings.EqualFold(actual, r.Expected) {
			return false, fmt.Sprintf("Expected:%s, but the actual value is: %s", r.Expected, actual)
		}
	}
	return true, ""
}

func nodeValue(n *html.Node, attr string) string {
	if n == nil {
		return ""
	}
	switch {
	case strings.EqualFold(attr, attrHTML):
		return strings.TrimSpace(htmlquery.OutputHTML(n, false))
	case attr == "" || strings.EqualFold(attr, attrText):
		return strings.TrimSpace(htmlquery.InnerText(n))
	default:
		return htmlquery.SelectAttr(n, attr)
	}
}

func selectionValue(s *goquery.Selection, attr string) string {
	if s.Length() == 0 {
		return ""
	}
	switch {
	case strings.EqualFold(attr, attrHTML):
		h, _ := s.Html()
		return strings.TrimSpace(h)
	case attr == "" || strings.EqualFold(attr, attrText):
		return strings.TrimSpace(s.Text())
	default:
		return s.AttrOr(attr, "")
	}
}
