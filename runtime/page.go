package runtime

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Page is a fetched document: its final URL, raw markup, parsed tree and forms.
type Page struct {
	URL      string
	HTML     string
	Document *html.Node
	Forms    []*Form
}

func NewPage(pageURL, markup string) (*Page, error) {
	doc, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("error parsing page %s: %w", pageURL, err)
	}

	page := &Page{
		URL:      pageURL,
		HTML:     markup,
		Document: doc,
	}
	for _, node := range htmlquery.Find(doc, "//form") {
		page.Forms = append(page.Forms, newForm(node, doc))
	}
	return page, nil
}

// FormByClientID matches the form's id attribute case-insensitively.
func (p *Page) FormByClientID(id string) (*Form, bool) {
	return p.findForm(func(f *Form) bool { return strings.EqualFold(f.ClientID, id) })
}

func (p *Page) FormByName(name string) (*Form, bool) {
	return p.findForm(func(f *Form) bool { return strings.EqualFold(f.Name, name) })
}

func (p *Page) FormByAction(action string) (*Form, bool) {
	return p.findForm(func(f *Form) bool { return strings.EqualFold(f.Action, action) })
}

func (p *Page) FormByIndex(i int) (*Form, bool) {
	if i < 0 || i >= len(p.Forms) {
		return nil, false
	}
	return p.Forms[i], true
}

func (p *Page) findForm(match func(*Form) bool) (*Form, bool) {
	for _, f := range p.Forms {
		if match(f) {
			return f, true
		}
	}
	return nil, false
}
