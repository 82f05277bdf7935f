package runtime

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

var defaultStatusCodes = []int{http.StatusOK}

// webStep is the shared tail of Fetch and Submit: status check, page
// construction, extraction and validation.
type webStep struct {
	statusCodes []int
	extractor   *Extractor
	options     map[string]string
}

func newWebStep(codes []int, rules []OutputRule, options map[string]string) (webStep, error) {
	extractor, err := NewExtractor(rules)
	if err != nil {
		return webStep{}, fmt.Errorf("%w: %w", ErrInvalidAction, err)
	}
	if len(codes) == 0 {
		codes = defaultStatusCodes
	}
	return webStep{
		statusCodes: slices.Clone(codes),
		extractor:   extractor,
		options:     options,
	}, nil
}

func (w webStep) resolveOptions(exec *Execution) Options {
	return ResolveOptions(w.options, exec)
}

func (w webStep) complete(exec *Execution, requestURL string, resp *Response, err error) *Result {
	if err != nil {
		return Failure(err.Error())
	}
	if resp == nil {
		return Failure(fmt.Sprintf("no response from %s", requestURL))
	}
	if !slices.Contains(w.statusCodes, resp.StatusCode) {
		return Failure(StatusName(resp.StatusCode))
	}

	pageURL := resp.URL
	if pageURL == "" {
		pageURL = requestURL
	}
	page, err := NewPage(pageURL, resp.HTML)
	if err != nil {
		return Failure(err.Error())
	}
	exec.Page = page

	values := w.extractor.Extract(page)
	exec.MergeOutputs(values)

	if ok, msg := w.extractor.Validate(values); !ok {
		return Failure(msg)
	}
	return Success()
}

// StatusName renders a status code the way failures report it, e.g. 404 as
// "NotFound". Unknown codes are rendered as digits.
func StatusName(code int) string {
	text := http.StatusText(code)
	if text == "" {
		return strconv.Itoa(code)
	}
	return strings.NewReplacer(" ", "", "-", "", "'", "").Replace(text)
}

// Fetch loads a page by URL and makes it the current page.
type Fetch struct {
	webStep
	url string
}

func NewFetch(cfg FetchConfig) (*Fetch, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: fetch requires a url", ErrInvalidAction)
	}
	step, err := newWebStep(cfg.ExpectedStatusCodes, cfg.Outputs, cfg.Options)
	if err != nil {
		return nil, err
	}
	return &Fetch{webStep: step, url: cfg.URL}, nil
}

func (f *Fetch) Kind() ActionKind {
	return KindFetch
}

func (f *Fetch) Execute(exec *Execution) (*Result, error) {
	target := Resolve(f.url, exec)
	resp, err := exec.Accessor.Fetch(exec, target, f.resolveOptions(exec))
	return f.complete(exec, target, resp, err), nil
}
