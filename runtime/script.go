package runtime

import "strings"

// Script is a built, immutable set of targets.
type Script struct {
	Name          string
	DefaultTarget string
	Targets       []*Target

	index map[string]*Target
}

type Target struct {
	Name    string
	Actions []Action
}

// NewScript indexes targets by name. Names are unique ignoring case.
func NewScript(name, defaultTarget string, targets []*Target) (*Script, error) {
	s := &Script{
		Name:          name,
		DefaultTarget: defaultTarget,
		Targets:       targets,
		index:         make(map[string]*Target, len(targets)),
	}
	for i, t := range targets {
		if t == nil || t.Name == "" {
			return nil, newScriptError(ErrorCodeInvalidAction, "", "target #%d in script %q has no name", i, name)
		}
		key := strings.ToLower(t.Name)
		if _, exists := s.index[key]; exists {
			return nil, newScriptError(ErrorCodeDuplicateTarget, t.Name, "target declared twice in script %q", name)
		}
		s.index[key] = t
	}
	return s, nil
}

// Target looks a target up ignoring case.
func (s *Script) Target(name string) (*Target, bool) {
	t, ok := s.index[strings.ToLower(name)]
	return t, ok
}

// TargetNames returns target names in declaration order.
func (s *Script) TargetNames() []string {
	names := make([]string, 0, len(s.Targets))
	for _, t := range s.Targets {
		names = append(names, t.Name)
	}
	return names
}

// Jumps returns the targets a target may jump to, including jumps nested in branches.
func (t *Target) Jumps() []string {
	var out []string
	for _, a := range t.Actions {
		out = appendJumps(out, a)
	}
	return out
}

func appendJumps(out []string, a Action) []string {
	switch v := a.(type) {
	case *Jump:
		return append(out, v.Target())
	case *Branch:
		return appendJumps(out, v.Nested())
	}
	return out
}
