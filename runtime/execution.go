package runtime

import (
	"context"
	"maps"
	"time"

	"github.com/google/uuid"
)

var _ context.Context = &Execution{}
var _ ValueSource = &Execution{}

// Execution is the per-run state threaded through every action: inputs,
// accumulated outputs, the current page and the accessor.
type Execution struct {
	ID       string
	Script   *Script
	Accessor WebAccessor
	Page     *Page

	inputs  map[string]string
	outputs map[string]string
	depth   int
	ctx     context.Context // real context carrying deadline/cancellation
}

// context.Context implementation delegates to the embedded ctx so that
// cancellation reaches the accessor.

func (e *Execution) Deadline() (deadline time.Time, ok bool) {
	return e.ctx.Deadline()
}

func (e *Execution) Done() <-chan struct{} {
	return e.ctx.Done()
}

func (e *Execution) Err() error {
	return e.ctx.Err()
}

// Value resolves string keys against outputs first, then inputs.
func (e *Execution) Value(key any) any {
	k, ok := key.(string)
	if !ok {
		return e.ctx.Value(key)
	}
	if v, ok := e.outputs[k]; ok {
		return v
	}
	if v, ok := e.inputs[k]; ok {
		return v
	}
	return e.ctx.Value(key)
}

// WithScopedContext temporarily swaps the execution context while fn runs.
// ctx must not be derived from the Execution itself.
// Execution is single-threaded, so temporary ctx mutation is safe here.
func (e *Execution) WithScopedContext(ctx context.Context, fn func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	prev := e.ctx
	e.ctx = ctx
	defer func() {
		e.ctx = prev
	}()
	fn()
}

func (e *Execution) Input(name string) string {
	return e.inputs[name]
}

func (e *Execution) Output(name string) string {
	return e.outputs[name]
}

func (e *Execution) SetOutput(name, value string) {
	e.outputs[name] = value
}

// MergeOutputs writes values into the run's output table; later writes win.
func (e *Execution) MergeOutputs(values map[string]string) {
	maps.Copy(e.outputs, values)
}

// Outputs returns a copy of the accumulated outputs.
func (e *Execution) Outputs() map[string]string {
	return maps.Clone(e.outputs)
}

func NewExecution(ctx context.Context, script *Script, inputs map[string]string, accessor WebAccessor) *Execution {
	if ctx == nil {
		ctx = context.Background()
	}
	in := make(map[string]string, len(inputs))
	maps.Copy(in, inputs)

	return &Execution{
		ID:       uuid.New().String(),
		Script:   script,
		Accessor: accessor,
		inputs:   in,
		outputs:  make(map[string]string),
		ctx:      ctx,
	}
}
