package instrument

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for fluxbind instrumentation.
const defaultTracerName = "fluxbind"

// buildSpanName is the span name used for every build phase.
const buildSpanName = "fluxbind.build_state"

// OTelConfig configures the OpenTelemetry build instrumentation.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "fluxbind").
	TracerName string

	// AttributeExtractor returns extra attributes attached to every build
	// span. Called once per completed build with the owner kind.
	AttributeExtractor func(ownerKind string) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry build instrumentation.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(ownerKind string) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// Tracing implements fluxbind.Instrumentation with one span per build.
// Spans form a stack matching the synchronous nesting of builds.
type Tracing struct {
	config OTelConfig

	spans   []trace.Span
	spansMu sync.Mutex
}

// OTel creates OpenTelemetry-backed build instrumentation.
//
// Example:
//
//	fluxbind.SetInstrumentation(instrument.OTel(
//	    instrument.WithTracerName("myapp"),
//	))
func OTel(opts ...OTelOption) *Tracing {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)
	return &Tracing{config: config}
}

// BeginBuildState starts a build span.
func (t *Tracing) BeginBuildState() {
	_, span := t.config.tracer.Start(context.Background(), buildSpanName)

	t.spansMu.Lock()
	t.spans = append(t.spans, span)
	t.spansMu.Unlock()
}

// EndBuildState attributes and ends the innermost open build span.
func (t *Tracing) EndBuildState(ownerKind string) {
	var span trace.Span
	t.spansMu.Lock()
	if n := len(t.spans); n > 0 {
		span = t.spans[n-1]
		t.spans = t.spans[:n-1]
	}
	t.spansMu.Unlock()

	if span == nil {
		return
	}
	span.SetAttributes(attribute.String("fluxbind.owner_kind", ownerKind))
	if t.config.AttributeExtractor != nil {
		span.SetAttributes(t.config.AttributeExtractor(ownerKind)...)
	}
	span.End()
}
