package plugin

import "github.com/BDNK1/netflow/runtime"

// WebAccessor is implemented by every accessor.
type WebAccessor = runtime.WebAccessor

// Response is the final document after redirects.
type Response = runtime.Response

// Options are the action-scoped settings, e.g. "loadDelay".
type Options = runtime.Options

// FormValues is the ordered field collection of a submitted form.
type FormValues = runtime.FormValues

// Lifecycle lets an accessor release resources on shutdown.
type Lifecycle = runtime.Lifecycle

// InitializeConfig applies defaults, merges raw values and validates config.
func InitializeConfig(config any, rawValues map[string]any) error {
	return runtime.InitializeConfig(config, rawValues)
}
