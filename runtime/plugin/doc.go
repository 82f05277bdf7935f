// Package plugin is the surface for web accessor implementations.
//
// An accessor fetches pages and submits forms on behalf of the engine.
// Accessor packages import this package rather than the whole runtime:
//
//	import "github.com/BDNK1/netflow/runtime/plugin"
//
// # Accessor Structure
//
// An accessor implements two methods:
//
//	type Accessor struct{ Config Config }
//
//	func (a *Accessor) Fetch(ctx context.Context, url string, opts plugin.Options) (*plugin.Response, error)
//	func (a *Accessor) Submit(ctx context.Context, url string, values plugin.FormValues, opts plugin.Options) (*plugin.Response, error)
//
// Both follow redirects and keep cookies between calls. The returned Response
// carries the final URL, the status code and the document markup. A non-2xx
// status is a normal response; return an error only when no response exists.
//
// # Configuration
//
// Accessors define a Config struct with declarative tags:
//
//	type Config struct {
//	    Timeout time.Duration `yaml:"timeout" default:"30s" validate:"gte=1s"`
//	}
//
// and pass it through InitializeConfig, which applies defaults, merges raw
// values from the CLI config file and validates the result.
//
// # Lifecycle
//
// Accessors holding processes or connections implement Lifecycle; the CLI
// calls Shutdown when it exits.
package plugin
