package runtime

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	traceScope = "github.com/BDNK1/netflow/runtime"

	traceSpanRun    = "netflow.run"
	traceSpanTarget = "netflow.target"
	traceSpanAction = "netflow.action"

	traceAttrRunID  = "netflow.run_id"
	traceAttrScript = "netflow.script"
	traceAttrTarget = "netflow.target"
	traceAttrKind   = "netflow.action.kind"
	traceAttrIndex  = "netflow.action.index"
	traceAttrDepth  = "netflow.depth"
	traceAttrOk     = "netflow.ok"
)

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(traceScope).Start(ctx, name, trace.WithAttributes(attrs...))
}

// markSpanResult records a failed step as an error status; fatal errors are
// recorded on the span as well.
func markSpanResult(span trace.Span, result *Result, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	if result == nil {
		return
	}
	span.SetAttributes(attribute.Bool(traceAttrOk, result.Ok))
	if !result.Ok {
		span.SetStatus(codes.Error, result.Message)
		return
	}
	span.SetStatus(codes.Ok, "")
}

// engineMetrics holds the executor's instruments. Zero value records nothing.
type engineMetrics struct {
	runs     metric.Int64Counter
	actions  metric.Int64Counter
	duration metric.Float64Histogram
}

func newEngineMetrics() engineMetrics {
	meter := otel.Meter(traceScope)

	var m engineMetrics
	if c, err := meter.Int64Counter("netflow.runs",
		metric.WithDescription("Script runs by outcome"),
		metric.WithUnit("{run}")); err == nil {
		m.runs = c
	}
	if c, err := meter.Int64Counter("netflow.actions",
		metric.WithDescription("Executed actions by kind and outcome"),
		metric.WithUnit("{action}")); err == nil {
		m.actions = c
	}
	if h, err := meter.Float64Histogram("netflow.run.duration",
		metric.WithDescription("Script run duration in seconds"),
		metric.WithUnit("s")); err == nil {
		m.duration = h
	}
	return m
}

func (m engineMetrics) recordRun(ctx context.Context, script string, ok bool, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(traceAttrScript, script),
		attribute.Bool(traceAttrOk, ok),
	)
	if m.runs != nil {
		m.runs.Add(ctx, 1, attrs)
	}
	if m.duration != nil {
		m.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}

func (m engineMetrics) recordAction(ctx context.Context, kind ActionKind, ok bool) {
	if m.actions == nil {
		return
	}
	m.actions.Add(ctx, 1, metric.WithAttributes(
		attribute.String(traceAttrKind, string(kind)),
		attribute.Bool(traceAttrOk, ok),
	))
}
