package runtime

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

const fieldQuery = ".//*[self::input or self::select or self::textarea]"

// Form is a page form with the values a browser would submit before any
// overrides are applied.
type Form struct {
	Name     string
	ClientID string
	Action   string
	Values   FormValues

	fields []*html.Node
}

func newForm(node, doc *html.Node) *Form {
	f := &Form{
		Name:     htmlquery.SelectAttr(node, "name"),
		ClientID: htmlquery.SelectAttr(node, "id"),
		Action:   htmlquery.SelectAttr(node, "action"),
	}
	f.fields = htmlquery.Find(node, fieldQuery)
	if f.ClientID != "" {
		// Fields placed outside the form that point at it with form="id".
		owned := htmlquery.Find(doc, fmt.Sprintf("//*[(self::input or self::select or self::textarea) and @form=%s]", xpathLiteral(f.ClientID)))
		for _, n := range owned {
			if !isDescendant(n, node) {
				f.fields = append(f.fields, n)
			}
		}
	}
	f.Values = seedValues(f.fields)
	return f
}

// SelectedValueByText returns the value of the option whose trimmed text
// matches text case-insensitively in the select named field.
func (f *Form) SelectedValueByText(field, text string) (string, error) {
	for _, n := range f.fields {
		if n.Data != "select" || htmlquery.SelectAttr(n, "name") != field {
			continue
		}
		for _, opt := range htmlquery.Find(n, ".//option") {
			if strings.EqualFold(strings.TrimSpace(htmlquery.InnerText(opt)), text) {
				return optionValue(opt), nil
			}
		}
		return "", fmt.Errorf("%w: %q in select %q", ErrOptionNotFound, text, field)
	}
	return "", fmt.Errorf("%w: %q", ErrSelectNotFound, field)
}

type fieldGroup struct {
	name  string
	nodes []*html.Node
}

func seedValues(fields []*html.Node) FormValues {
	var groups []*fieldGroup
	byName := make(map[string]*fieldGroup)
	for _, n := range fields {
		name := htmlquery.SelectAttr(n, "name")
		if name == "" {
			continue
		}
		g, ok := byName[name]
		if !ok {
			g = &fieldGroup{name: name}
			byName[name] = g
			groups = append(groups, g)
		}
		g.nodes = append(g.nodes, n)
	}

	values := NewFormValues()
	for _, g := range groups {
		if v, ok := groupValue(g); ok {
			values.Set(g.name, v)
		}
	}
	return values
}

// groupValue computes the submitted value of same-named fields. The first
// element decides how the group is read.
func groupValue(g *fieldGroup) (string, bool) {
	first := g.nodes[0]
	switch first.Data {
	case "select":
		return selectValue(first)
	case "textarea":
		var parts []string
		for _, n := range g.nodes {
			parts = append(parts, htmlquery.InnerText(n))
		}
		return strings.Join(parts, ","), true
	}

	var parts []string
	switch inputType(first) {
	case "checkbox", "radio":
		for _, n := range g.nodes {
			if hasAttr(n, "checked") {
				parts = append(parts, checkedValue(n))
			}
		}
	default:
		for _, n := range g.nodes {
			parts = append(parts, htmlquery.SelectAttr(n, "value"))
		}
	}
	return strings.Join(parts, ","), true
}

// selectValue returns the selected option; a select without one is not submitted.
func selectValue(n *html.Node) (string, bool) {
	var selected []string
	for _, opt := range htmlquery.Find(n, ".//option") {
		if hasAttr(opt, "selected") {
			selected = append(selected, optionValue(opt))
		}
	}
	if len(selected) == 0 {
		return "", false
	}
	if !hasAttr(n, "multiple") {
		return selected[0], true
	}
	return strings.Join(selected, ","), true
}

func optionValue(opt *html.Node) string {
	if hasAttr(opt, "value") {
		return htmlquery.SelectAttr(opt, "value")
	}
	return strings.TrimSpace(htmlquery.InnerText(opt))
}

func checkedValue(n *html.Node) string {
	if hasAttr(n, "value") {
		return htmlquery.SelectAttr(n, "value")
	}
	return "on"
}

func inputType(n *html.Node) string {
	return strings.ToLower(htmlquery.SelectAttr(n, "type"))
}

func hasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return true
		}
	}
	return false
}

func isDescendant(n, ancestor *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
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
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}
