// Package otel bridges toolgate observability events into OpenTelemetry
// metrics and traces.
package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/toolgate/adapter"
	"github.com/petal-labs/toolgate/health"
)

// ToolObserver records wrapped-tool invocations and server health checks
// into OpenTelemetry. It implements adapter.Observer.
type ToolObserver struct {
	tracer trace.Tracer

	invocations  metric.Int64Counter
	timeouts     metric.Int64Counter
	healthChecks metric.Int64Counter
	latency      metric.Float64Histogram
}

// NewToolObserver creates an observer bound to the provided meter/tracer.
func NewToolObserver(meter metric.Meter, tracer trace.Tracer) (*ToolObserver, error) {
	invocations, err := meter.Int64Counter(
		"toolgate.tool.invocations",
		metric.WithDescription("Number of wrapped tool invocations"),
	)
	if err != nil {
		return nil, err
	}
	timeouts, err := meter.Int64Counter(
		"toolgate.tool.timeouts",
		metric.WithDescription("Number of wrapped tool invocations abandoned on timeout"),
	)
	if err != nil {
		return nil, err
	}
	healthChecks, err := meter.Int64Counter(
		"toolgate.server.health.checks",
		metric.WithDescription("Number of server health checks"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		"toolgate.tool.latency",
		metric.WithDescription("Wrapped tool invocation latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &ToolObserver{
		tracer:       tracer,
		invocations:  invocations,
		timeouts:     timeouts,
		healthChecks: healthChecks,
		latency:      latency,
	}, nil
}

// ObserveInvoke records one invocation result.
func (o *ToolObserver) ObserveInvoke(observation adapter.InvokeObservation) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("server", observation.ServerName),
		attribute.String("tool", observation.Tool),
		attribute.String("wrapped_name", observation.WrappedName),
		attribute.Bool("success", observation.Success),
	}
	if observation.ErrorCode != "" {
		attrs = append(attrs, attribute.String("error_code", observation.ErrorCode))
	}

	ctx := context.Background()
	options := metric.WithAttributes(attrs...)
	o.invocations.Add(ctx, 1, options)
	if observation.TimedOut {
		o.timeouts.Add(ctx, 1, options)
	}
	o.latency.Record(ctx, float64(time.Duration(observation.DurationMS)*time.Millisecond)/float64(time.Second), options)

	if o.tracer == nil {
		return
	}
	_, span := o.tracer.Start(ctx, "tool.invoke", trace.WithAttributes(attrs...))
	span.SetAttributes(attribute.String("request_id", observation.RequestID))
	if !observation.Success {
		span.SetStatus(codes.Error, observation.ErrorCode)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// RecordHealth records one server health check outcome. Wire it to a
// health.Scheduler through SchedulerConfig.OnReport.
func (o *ToolObserver) RecordHealth(report health.Report) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("server", report.Server),
		attribute.String("state", string(report.State)),
	}
	if report.ErrorMessage != "" {
		attrs = append(attrs, attribute.String("error", report.ErrorMessage))
	}
	o.healthChecks.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

var _ adapter.Observer = (*ToolObserver)(nil)
