package signalprop

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const spanKeyProperty = "signalprop.property"

// bindingMetrics records subscription lifecycle for one property.
// A nil *bindingMetrics records nothing.
type bindingMetrics struct {
	attrs            metric.MeasurementOption
	connected        metric.Int64Counter
	disconnected     metric.Int64Counter
	disconnectFailed metric.Int64Counter
}

func newBindingMetrics(property string) *bindingMetrics {
	meter := otel.Meter(DefaultInstrumentationName)
	connected, _ := meter.Int64Counter("signalprop.connected",
		metric.WithDescription("Number of connectors registered with a signal"))
	disconnected, _ := meter.Int64Counter("signalprop.disconnected",
		metric.WithDescription("Number of connectors removed from a signal"))
	disconnectFailed, _ := meter.Int64Counter("signalprop.disconnect.failed",
		metric.WithDescription("Number of ignored disconnect failures"))
	return &bindingMetrics{
		attrs:            metric.WithAttributes(attribute.String("property", property)),
		connected:        connected,
		disconnected:     disconnected,
		disconnectFailed: disconnectFailed,
	}
}

func (m *bindingMetrics) recordConnect(ctx context.Context) {
	if m != nil && m.connected != nil {
		m.connected.Add(ctx, 1, m.attrs)
	}
}

func (m *bindingMetrics) recordDisconnect(ctx context.Context, err error) {
	if m == nil {
		return
	}
	if err != nil {
		if m.disconnectFailed != nil {
			m.disconnectFailed.Add(ctx, 1, m.attrs)
		}
		return
	}
	if m.disconnected != nil {
		m.disconnected.Add(ctx, 1, m.attrs)
	}
}

// instrument wraps connector invocations with a span and an invocation counter.
type instrument struct {
	property string
	tracer   trace.Tracer
	invoked  metric.Int64Counter
	attrs    metric.MeasurementOption
}

// newInstrument returns nil when both metrics and tracing are disabled.
func newInstrument(property string, o *options) *instrument {
	if !o.metricsEnabled && !o.tracingEnabled {
		return nil
	}
	inst := &instrument{
		property: property,
		attrs:    metric.WithAttributes(attribute.String("property", property)),
	}
	if o.tracingEnabled {
		inst.tracer = otel.Tracer(DefaultInstrumentationName)
	}
	if o.metricsEnabled {
		inst.invoked, _ = otel.Meter(DefaultInstrumentationName).Int64Counter("signalprop.invoked",
			metric.WithDescription("Number of connector invocations"))
	}
	return inst
}

func (i *instrument) invoke(ctx context.Context, slot Slot, args []any) error {
	if i.invoked != nil {
		i.invoked.Add(ctx, 1, i.attrs)
	}
	if i.tracer == nil {
		return slot(ctx, args...)
	}
	ctx, span := i.tracer.Start(ctx, fmt.Sprintf("%s.invoke", i.property),
		trace.WithAttributes(attribute.String(spanKeyProperty, i.property)),
		trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	err := slot(ctx, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
