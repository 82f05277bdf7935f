package runtime

import "context"

// Options carries action-scoped settings an accessor may interpret, such as
// "loadDelay" for the browser accessor. Unknown keys are ignored.
type Options map[string]string

// Response is what an accessor hands back after following redirects.
// URL is the final location of the document.
type Response struct {
	StatusCode int
	URL        string
	HTML       string
}

// WebAccessor is the network collaborator used by Fetch and Submit.
// Implementations follow redirects and keep cookies across calls on the same
// instance. A non-2xx status is not an error; only transport failures are.
type WebAccessor interface {
	Fetch(ctx context.Context, url string, opts Options) (*Response, error)
	Submit(ctx context.Context, url string, values FormValues, opts Options) (*Response, error)
}

// ScriptLoader parses script files into the loose node tree consumed by Builder.
// Extensions returns glob patterns such as "*.yaml".
type ScriptLoader interface {
	Extensions() []string
	Load(filePath string) (Node, error)
}

// ValueSource supplies placeholder values to Resolve.
type ValueSource interface {
	Input(name string) string
	Output(name string) string
}

// Lifecycle is implemented by accessors holding resources that must be released.
type Lifecycle interface {
	Shutdown(ctx context.Context) error
}
