package runtime

import (
	"errors"
	"fmt"
	"maps"
	"strings"
)

// Node is the loosely typed tree every script loader produces:
//
//	defaultTarget: Main
//	targets:
//	  - name: Main
//	    actions:
//	      - fetch: {url: "https://example.com"}
//
// An action node is either a single key naming its kind, or a map with a
// "kind" key next to the fields.
type Node = map[string]any

const kindKey = "kind"

// Builder turns node trees into scripts, resolving action kinds through a Registry.
type Builder struct {
	registry *Registry
}

func NewBuilder(registry *Registry) *Builder {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Builder{registry: registry}
}

type scriptDoc struct {
	DefaultTarget string      `mapstructure:"defaultTarget"`
	Targets       []targetDoc `mapstructure:"targets"`
}

type targetDoc struct {
	Name    string `mapstructure:"name"`
	Actions []any  `mapstructure:"actions"`
}

// Build compiles a whole script. Every failure is a *ScriptError.
func (b *Builder) Build(name string, root Node) (*Script, error) {
	var doc scriptDoc
	if err := mapToStruct(root, &doc, "mapstructure", true); err != nil {
		return nil, newScriptError(ErrorCodeInvalidAction, "", "malformed script %q", name).withCause(err)
	}

	targets := make([]*Target, 0, len(doc.Targets))
	for _, td := range doc.Targets {
		target := &Target{Name: td.Name}
		for i, node := range td.Actions {
			cfg, err := b.BuildConfig(node)
			if err != nil {
				return nil, buildError(td.Name, i, err)
			}
			action, err := NewAction(cfg)
			if err != nil {
				return nil, buildError(td.Name, i, err)
			}
			target.Actions = append(target.Actions, action)
		}
		targets = append(targets, target)
	}

	return NewScript(name, doc.DefaultTarget, targets)
}

func buildError(target string, index int, err error) *ScriptError {
	code := ErrorCodeInvalidAction
	if errors.Is(err, ErrUnknownAction) {
		code = ErrorCodeUnknownAction
	}
	return newScriptError(code, target, "action #%d", index).withCause(err)
}

// BuildConfig decodes one action node, recursing into nested actions.
func (b *Builder) BuildConfig(node any) (ActionConfig, error) {
	m, ok := node.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: action node must be a mapping, got %T", ErrInvalidAction, node)
	}

	kind, body, err := splitActionNode(m)
	if err != nil {
		return nil, err
	}

	factory, ok := b.registry.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, kind)
	}

	cfg, err := factory(b, body)
	if err != nil {
		if errors.Is(err, ErrUnknownAction) || errors.Is(err, ErrInvalidAction) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidAction, kind, err)
	}
	return cfg, nil
}

// Decode copies body into target with weak typing and runs tag validation.
// Unknown keys are rejected.
func (b *Builder) Decode(body map[string]any, target any) error {
	if err := mapToStruct(body, target, "mapstructure", true); err != nil {
		return err
	}
	return ValidateStruct(target)
}

func splitActionNode(m map[string]any) (string, map[string]any, error) {
	if k, ok := m[kindKey].(string); ok {
		body := maps.Clone(m)
		delete(body, kindKey)
		return strings.TrimSpace(k), body, nil
	}

	if len(m) != 1 {
		return "", nil, fmt.Errorf("%w: action node needs exactly one key naming its kind, got %d", ErrInvalidAction, len(m))
	}
	for kind, v := range m {
		switch body := v.(type) {
		case nil:
			return kind, map[string]any{}, nil
		case map[string]any:
			return kind, body, nil
		default:
			return "", nil, fmt.Errorf("%w: body of %q must be a mapping, got %T", ErrInvalidAction, kind, v)
		}
	}
	return "", nil, nil
}
