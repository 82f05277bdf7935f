package runtime

import (
	"fmt"
)

type ActionKind string

const (
	KindFetch  ActionKind = "fetch"
	KindSubmit ActionKind = "submit"
	KindBranch ActionKind = "branch"
	KindJump   ActionKind = "jump"
)

// Result is the outcome of an action. Target is set only by a jump; Outputs
// only on the Result returned from Executor.Run.
type Result struct {
	Ok      bool              `json:"ok"`
	Message string            `json:"message,omitempty"`
	Target  string            `json:"target,omitempty"`
	Outputs map[string]string `json:"outputs,omitempty"`
}

func Success() *Result {
	return &Result{Ok: true}
}

func Failure(message string) *Result {
	return &Result{Ok: false, Message: message}
}

func JumpTo(target string) *Result {
	return &Result{Ok: true, Target: target}
}

// Action is a compiled, immutable script step. Execute returns an error only
// for faults in the script itself; failed steps come back as a Result.
type Action interface {
	Kind() ActionKind
	Execute(exec *Execution) (*Result, error)
}

// ActionConfig is the closed set of action configurations.
type ActionConfig interface {
	Kind() ActionKind
	actionConfig()
}

type FetchConfig struct {
	URL                 string            `mapstructure:"url" validate:"required"`
	ExpectedStatusCodes []int             `mapstructure:"expectedStatusCodes" validate:"dive,gte=100,lte=599"`
	Outputs             []OutputRule      `mapstructure:"outputs" validate:"dive"`
	Options             map[string]string `mapstructure:"options"`
}

type SubmitConfig struct {
	ClientID            string            `mapstructure:"clientId"`
	FormName            string            `mapstructure:"formName"`
	Action              string            `mapstructure:"action"`
	FormIndex           *int              `mapstructure:"formIndex" validate:"omitempty,gte=0"`
	Values              []FormValue       `mapstructure:"values" validate:"dive"`
	ExpectedStatusCodes []int             `mapstructure:"expectedStatusCodes" validate:"dive,gte=100,lte=599"`
	Outputs             []OutputRule      `mapstructure:"outputs" validate:"dive"`
	Options             map[string]string `mapstructure:"options"`
}

type BranchConfig struct {
	Property string       `mapstructure:"property" validate:"required"`
	Value    string       `mapstructure:"value"`
	Action   ActionConfig `mapstructure:"-"`
}

type JumpConfig struct {
	Target string `mapstructure:"target" validate:"required"`
}

func (FetchConfig) Kind() ActionKind  { return KindFetch }
func (SubmitConfig) Kind() ActionKind { return KindSubmit }
func (BranchConfig) Kind() ActionKind { return KindBranch }
func (JumpConfig) Kind() ActionKind   { return KindJump }

func (FetchConfig) actionConfig()  {}
func (SubmitConfig) actionConfig() {}
func (BranchConfig) actionConfig() {}
func (JumpConfig) actionConfig()   {}

// NewAction compiles a configuration into an executable action.
func NewAction(cfg ActionConfig) (Action, error) {
	switch c := cfg.(type) {
	case FetchConfig:
		return NewFetch(c)
	case SubmitConfig:
		return NewSubmit(c)
	case BranchConfig:
		return NewBranch(c)
	case JumpConfig:
		return NewJump(c)
	case nil:
		return nil, fmt.Errorf("%w: missing action", ErrInvalidAction)
	default:
		return nil, fmt.Errorf("%w: unsupported configuration %T", ErrUnknownAction, cfg)
	}
}
