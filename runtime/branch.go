package runtime

import (
	"fmt"
	"strings"
)

// Branch runs its nested action when the resolved property equals value,
// ignoring case. Otherwise it succeeds without doing anything.
type Branch struct {
	property string
	value    string
	action   Action
}

func NewBranch(cfg BranchConfig) (*Branch, error) {
	if cfg.Property == "" {
		return nil, fmt.Errorf("%w: branch requires a property", ErrInvalidAction)
	}
	if cfg.Action == nil {
		return nil, fmt.Errorf("%w: branch requires a nested action", ErrInvalidAction)
	}
	action, err := NewAction(cfg.Action)
	if err != nil {
		return nil, fmt.Errorf("branch on %s: %w", cfg.Property, err)
	}
	return &Branch{property: cfg.Property, value: cfg.Value, action: action}, nil
}

func (b *Branch) Kind() ActionKind {
	return KindBranch
}

func (b *Branch) Execute(exec *Execution) (*Result, error) {
	if !strings.EqualFold(Resolve(b.property, exec), b.value) {
		return Success(), nil
	}
	return b.action.Execute(exec)
}

// Jump asks the engine to run another target before continuing.
type Jump struct {
	target string
}

func NewJump(cfg JumpConfig) (*Jump, error) {
	if cfg.Target == "" {
		return nil, fmt.Errorf("%w: jump requires a target", ErrInvalidAction)
	}
	return &Jump{target: cfg.Target}, nil
}

func (j *Jump) Kind() ActionKind {
	return KindJump
}

// Target is the name the jump resolves at traversal time.
func (j *Jump) Target() string {
	return j.target
}

func (j *Jump) Execute(*Execution) (*Result, error) {
	return JumpTo(j.target), nil
}

// Nested is the action guarded by the branch.
func (b *Branch) Nested() Action {
	return b.action
}
