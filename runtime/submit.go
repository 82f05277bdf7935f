package runtime

import (
	"fmt"
	"net/url"
	"strings"
)

// Submit posts a form of the current page with merged values.
type Submit struct {
	webStep
	config SubmitConfig
}

func NewSubmit(cfg SubmitConfig) (*Submit, error) {
	step, err := newWebStep(cfg.ExpectedStatusCodes, cfg.Outputs, cfg.Options)
	if err != nil {
		return nil, err
	}
	return &Submit{webStep: step, config: cfg}, nil
}

func (s *Submit) Kind() ActionKind {
	return KindSubmit
}

func (s *Submit) Execute(exec *Execution) (*Result, error) {
	page := exec.Page
	if page == nil {
		return nil, newScriptError(ErrorCodeNoCurrentPage, "", "submit requires a page loaded by an earlier action")
	}

	form, err := s.selectForm(page, exec)
	if err != nil {
		return nil, err
	}

	values, err := MergeForm(form, s.config.Values, exec)
	if err != nil {
		return nil, newScriptError(ErrorCodeLookupFailed, "", "error merging values of form %q", formLabel(form)).withCause(err)
	}

	target, err := SubmitURL(Resolve(page.URL, exec), form.Action)
	if err != nil {
		return Failure(err.Error()), nil
	}

	resp, err := exec.Accessor.Submit(exec, target, values, s.resolveOptions(exec))
	return s.complete(exec, target, resp, err), nil
}

// selectForm uses the first configured criterion among client id, form name,
// action and index. Without criteria the page's first form is used.
func (s *Submit) selectForm(page *Page, src ValueSource) (*Form, error) {
	var (
		form      *Form
		ok        bool
		criterion string
	)

	switch {
	case s.config.ClientID != "":
		id := Resolve(s.config.ClientID, src)
		criterion = "clientId=" + id
		form, ok = page.FormByClientID(id)
	case s.config.FormName != "":
		name := Resolve(s.config.FormName, src)
		criterion = "formName=" + name
		form, ok = page.FormByName(name)
	case s.config.Action != "":
		action := Resolve(s.config.Action, src)
		criterion = "action=" + action
		form, ok = page.FormByAction(action)
	case s.config.FormIndex != nil:
		criterion = fmt.Sprintf("formIndex=%d", *s.config.FormIndex)
		form, ok = page.FormByIndex(*s.config.FormIndex)
	default:
		criterion = "first form"
		form, ok = page.FormByIndex(0)
	}

	if !ok {
		return nil, newScriptError(ErrorCodeFormNotFound, "", "no form matching %s on %s", criterion, page.URL)
	}
	return form, nil
}

func formLabel(f *Form) string {
	switch {
	case f.ClientID != "":
		return f.ClientID
	case f.Name != "":
		return f.Name
	default:
		return f.Action
	}
}

// SubmitURL computes where a form posts to. Absolute actions are used as is,
// root-relative ones are joined with the page's scheme and host, and relative
// ones replace the last path segment of the page URL. An empty action posts
// back to the page.
func SubmitURL(pageURL, action string) (string, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return pageURL, nil
	}

	lower := strings.ToLower(action)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return action, nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page url %q: %w", pageURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("page url %q is not absolute", pageURL)
	}

	authority := base.Scheme + "://" + base.Host
	switch {
	case strings.HasPrefix(action, "//"):
		return base.Scheme + ":" + action, nil
	case strings.HasPrefix(action, "/"):
		return authority + action, nil
	}

	path := base.EscapedPath()
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[:i+1]
	} else {
		path = "/"
	}
	return authority + path + action, nil
}
