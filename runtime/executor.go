package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// DefaultMaxJumpDepth bounds nested jumps so that jump cycles end in an error.
const DefaultMaxJumpDepth = 64

// Executor runs scripts. It walks the entry target's actions in order and
// treats a jump as a nested run of another target on the same Execution.
type Executor struct {
	l            *slog.Logger
	accessor     WebAccessor
	maxJumpDepth int
	metrics      engineMetrics
}

type ExecutorOption func(*Executor)

// WithMaxJumpDepth overrides DefaultMaxJumpDepth; zero disables the limit.
func WithMaxJumpDepth(depth int) ExecutorOption {
	return func(e *Executor) {
		e.maxJumpDepth = depth
	}
}

func NewExecutor(l *slog.Logger, accessor WebAccessor, opts ...ExecutorOption) *Executor {
	if l == nil {
		l = slog.Default()
	}
	e := &Executor{
		l:            l,
		accessor:     accessor,
		maxJumpDepth: DefaultMaxJumpDepth,
		metrics:      newEngineMetrics(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes script starting at target, or at the script's default target
// when target is empty. A failed step is reported through the Result; the
// error is reserved for faults in the script, such as an unknown target.
func (e *Executor) Run(ctx context.Context, script *Script, inputs map[string]string, target string) (*Result, error) {
	if script == nil {
		return nil, errors.New("script cannot be nil")
	}
	if e.accessor == nil {
		return nil, errors.New("executor has no web accessor")
	}

	name := target
	if name == "" {
		name = script.DefaultTarget
	}
	if name == "" {
		return nil, newScriptError(ErrorCodeNoEntryTarget, "", "script %q declares no default target and none was given", script.Name)
	}
	entry, ok := script.Target(name)
	if !ok {
		return nil, newScriptError(ErrorCodeTargetNotFound, name, "script %q has no such target", script.Name)
	}

	exec := NewExecution(ctx, script, inputs, e.accessor)
	started := time.Now()

	spanCtx, span := startSpan(exec.ctx, traceSpanRun,
		attribute.String(traceAttrRunID, exec.ID),
		attribute.String(traceAttrScript, script.Name),
		attribute.String(traceAttrTarget, entry.Name))
	defer span.End()

	e.l.InfoContext(exec, fmt.Sprintf("Running script: %s", script.Name),
		"run_id", exec.ID,
		"target", entry.Name)

	var (
		result *Result
		err    error
	)
	exec.WithScopedContext(spanCtx, func() {
		result, err = e.executeTarget(exec, entry)
	})
	markSpanResult(span, result, err)

	if err != nil {
		e.l.ErrorContext(exec, fmt.Sprintf("Script aborted: %s", script.Name),
			"run_id", exec.ID,
			"error", err)
		e.metrics.recordRun(exec, script.Name, false, time.Since(started))
		return nil, err
	}

	// a trailing jump's target is not part of the run's outcome
	result = &Result{Ok: result.Ok, Message: result.Message, Outputs: exec.Outputs()}
	e.metrics.recordRun(exec, script.Name, result.Ok, time.Since(started))

	if result.Ok {
		e.l.InfoContext(exec, fmt.Sprintf("Script completed: %s", script.Name),
			"run_id", exec.ID,
			"outputs", len(result.Outputs))
	} else {
		e.l.InfoContext(exec, fmt.Sprintf("Script failed: %s", script.Name),
			"run_id", exec.ID,
			"message", result.Message)
	}
	return result, nil
}

func (e *Executor) executeTarget(exec *Execution, target *Target) (*Result, error) {
	spanCtx, span := startSpan(exec.ctx, traceSpanTarget,
		attribute.String(traceAttrTarget, target.Name),
		attribute.Int(traceAttrDepth, exec.depth))
	defer span.End()

	var (
		result *Result
		err    error
	)
	exec.WithScopedContext(spanCtx, func() {
		result, err = e.executeActions(exec, target)
	})
	markSpanResult(span, result, err)
	return result, err
}

func (e *Executor) executeActions(exec *Execution, target *Target) (*Result, error) {
	last := Success()

	for i, action := range target.Actions {
		result, err := e.executeAction(exec, target, i, action)
		if err != nil {
			return nil, err
		}
		last = result

		if !result.Ok {
			return result, nil
		}
		if result.Target == "" {
			continue
		}

		next, ok := exec.Script.Target(result.Target)
		if !ok {
			return nil, newScriptError(ErrorCodeTargetNotFound, result.Target, "jump from target %q", target.Name)
		}
		if e.maxJumpDepth > 0 && exec.depth >= e.maxJumpDepth {
			return nil, newScriptError(ErrorCodeJumpDepthExceeded, next.Name, "more than %d nested jumps", e.maxJumpDepth)
		}

		e.l.InfoContext(exec, fmt.Sprintf("Jumping to target: %s", next.Name),
			"run_id", exec.ID,
			"from", target.Name,
			"depth", exec.depth+1)

		exec.depth++
		sub, err := e.executeTarget(exec, next)
		exec.depth--
		if err != nil {
			return nil, err
		}
		last = sub
		if !sub.Ok {
			return sub, nil
		}
	}

	return last, nil
}

func (e *Executor) executeAction(exec *Execution, target *Target, index int, action Action) (*Result, error) {
	spanCtx, span := startSpan(exec.ctx, traceSpanAction,
		attribute.String(traceAttrTarget, target.Name),
		attribute.String(traceAttrKind, string(action.Kind())),
		attribute.Int(traceAttrIndex, index))
	defer span.End()

	e.l.InfoContext(exec, fmt.Sprintf("Executing action: %s", action.Kind()),
		"run_id", exec.ID,
		"target", target.Name,
		"index", index)

	var (
		result *Result
		err    error
	)
	exec.WithScopedContext(spanCtx, func() {
		result, err = action.Execute(exec)
	})
	if err == nil && result == nil {
		err = newScriptError(ErrorCodeInvalidAction, target.Name, "action #%d (%s) returned no result", index, action.Kind())
	}
	markSpanResult(span, result, err)

	if err != nil {
		var se *ScriptError
		if errors.As(err, &se) && se.Target == "" {
			se.Target = target.Name
		}
		e.l.ErrorContext(exec, fmt.Sprintf("Action aborted the script: %s", action.Kind()),
			"run_id", exec.ID,
			"target", target.Name,
			"index", index,
			"error", err)
		return nil, err
	}

	e.metrics.recordAction(exec, action.Kind(), result.Ok)
	if !result.Ok {
		e.l.InfoContext(exec, fmt.Sprintf("Action failed: %s", action.Kind()),
			"run_id", exec.ID,
			"target", target.Name,
			"index", index,
			"message", result.Message)
	}
	return result, nil
}
