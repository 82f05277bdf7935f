package runtime

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ConfigFactory turns the body of an action node into its configuration.
type ConfigFactory func(b *Builder, body map[string]any) (ActionConfig, error)

// Registry maps action kind names, and their aliases, to config factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ConfigFactory
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]ConfigFactory),
	}
}

// DefaultRegistry knows the four built-in kinds plus the legacy element names
// get, post, if and call.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(string(KindFetch), decodeFetch, "get")
	r.Register(string(KindSubmit), decodeSubmit, "post")
	r.Register(string(KindBranch), decodeBranch, "if")
	r.Register(string(KindJump), decodeJump, "call")
	return r
}

// Register binds kind and its aliases to f. Names are case-insensitive.
func (r *Registry) Register(kind string, f ConfigFactory, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range append([]string{kind}, aliases...) {
		r.factories[strings.ToLower(name)] = f
	}
}

func (r *Registry) Lookup(kind string) (ConfigFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[strings.ToLower(kind)]
	return f, ok
}

// Kinds lists every registered name, aliases included, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

func decodeFetch(b *Builder, body map[string]any) (ActionConfig, error) {
	var cfg FetchConfig
	if err := b.Decode(body, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeSubmit(b *Builder, body map[string]any) (ActionConfig, error) {
	var cfg SubmitConfig
	if err := b.Decode(body, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeJump(b *Builder, body map[string]any) (ActionConfig, error) {
	var cfg JumpConfig
	if err := b.Decode(body, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeBranch builds the nested action node before decoding the branch itself.
func decodeBranch(b *Builder, body map[string]any) (ActionConfig, error) {
	var raw struct {
		Property string `mapstructure:"property" validate:"required"`
		Value    string `mapstructure:"value"`
		Action   any    `mapstructure:"action"`
	}
	if err := b.Decode(body, &raw); err != nil {
		return nil, err
	}
	if raw.Action == nil {
		return nil, fmt.Errorf("branch on %s has no nested action", raw.Property)
	}
	nested, err := b.BuildConfig(raw.Action)
	if err != nil {
		return nil, fmt.Errorf("branch on %s: %w", raw.Property, err)
	}
	return BranchConfig{Property: raw.Property, Value: raw.Value, Action: nested}, nil
}
