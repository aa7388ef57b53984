package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/urlstate-go/urlstate/pkg/querysync"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for the sync engine.
const defaultTracerName = "urlstate"

// OTelConfig configures the OpenTelemetry observer.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "urlstate").
	TracerName string

	// Filter determines which stores to trace.
	// Return true to trace the store's passes, false to skip.
	// If nil, all stores are traced.
	Filter func(store string) bool

	// AttributeExtractor extracts custom attributes for a store.
	// Called for each traced pass.
	AttributeExtractor func(store string) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry observer.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithStoreFilter sets a filter function for stores.
func WithStoreFilter(filter func(store string) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(store string) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// defaultOTelConfig returns the default OpenTelemetry configuration.
func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
		Filter:     nil,
	}
}

// OpenTelemetry creates a querysync.Observer that emits one span per
// sync pass.
//
// The observer:
//   - Creates urlstate.inbound spans for hydration passes
//   - Creates urlstate.outbound spans for outbound passes
//   - Attaches stripped parameters as events on the inbound span
//   - Sets span status to Error when a pass needed recovery
//
// The engine notifies observers after a pass completes, so spans are
// opened retroactively with the measured start timestamp.
//
// Example:
//
//	tracing := middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	)
//	mgr := querysync.NewManager(sess, querysync.WithObserver(tracing))
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it
// in your main() before starting the server:
//
//	tp := sdktrace.NewTracerProvider(
//	    sdktrace.WithBatcher(exporter),
//	    sdktrace.WithResource(resource.NewWithAttributes(
//	        semconv.SchemaURL,
//	        semconv.ServiceName("my-app"),
//	    )),
//	)
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) querysync.Observer {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// Resolve tracer from global provider
	config.tracer = otel.Tracer(config.TracerName)

	return &otelObserver{
		config:  config,
		pending: make(map[string][]recoveredParam),
	}
}

// recoveredParam is a strip notification held until its pass reports.
type recoveredParam struct {
	param  string
	reason querysync.Reason
}

// otelObserver turns pass notifications into retroactive spans. Strip
// notifications arrive before their pass completes, so they are buffered
// per store and drained into the inbound span as events.
type otelObserver struct {
	config OTelConfig

	mu      sync.Mutex
	pending map[string][]recoveredParam
}

var _ querysync.Observer = (*otelObserver)(nil)

func (o *otelObserver) skip(store string) bool {
	return o.config.Filter != nil && !o.config.Filter(store)
}

func (o *otelObserver) InboundDone(store string, applied, recovered int, elapsed time.Duration) {
	o.mu.Lock()
	drained := o.pending[store]
	delete(o.pending, store)
	o.mu.Unlock()

	if o.skip(store) {
		return
	}

	end := time.Now()
	attrs := []attribute.KeyValue{
		attribute.String("urlstate.store", store),
		attribute.Int("urlstate.params_applied", applied),
		attribute.Int("urlstate.params_recovered", recovered),
	}
	if o.config.AttributeExtractor != nil {
		attrs = append(attrs, o.config.AttributeExtractor(store)...)
	}

	_, span := o.config.tracer.Start(
		context.Background(),
		"urlstate.inbound",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(end.Add(-elapsed)),
	)
	for _, r := range drained {
		span.AddEvent("param recovered", trace.WithAttributes(
			attribute.String("urlstate.param", r.param),
			attribute.String("urlstate.reason", string(r.reason)),
		))
	}
	if recovered > 0 {
		span.SetStatus(codes.Error, "parameters stripped during recovery")
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))
}

func (o *otelObserver) OutboundDone(store string, set, removed int, pushed bool, elapsed time.Duration) {
	if o.skip(store) {
		return
	}

	end := time.Now()
	attrs := []attribute.KeyValue{
		attribute.String("urlstate.store", store),
		attribute.Int("urlstate.params_set", set),
		attribute.Int("urlstate.params_removed", removed),
		attribute.Bool("urlstate.history_pushed", pushed),
	}
	if o.config.AttributeExtractor != nil {
		attrs = append(attrs, o.config.AttributeExtractor(store)...)
	}

	_, span := o.config.tracer.Start(
		context.Background(),
		"urlstate.outbound",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(end.Add(-elapsed)),
	)
	span.SetStatus(codes.Ok, "")
	span.End(trace.WithTimestamp(end))
}

func (o *otelObserver) ParamRecovered(store, param string, reason querysync.Reason) {
	if o.skip(store) {
		return
	}
	o.mu.Lock()
	o.pending[store] = append(o.pending[store], recoveredParam{param: param, reason: reason})
	o.mu.Unlock()
}
