// Package middleware provides observability hooks for the URL sync engine.
//
// This package includes:
//   - Prometheus metrics observer
//   - OpenTelemetry tracing observer
//
// Both implement querysync.Observer and are installed per manager with
// querysync.WithObserver. Combine them with querysync.MultiObserver.
//
// # Prometheus Metrics
//
// The Prometheus observer counts sync passes and parameter outcomes:
//   - urlstate_inbound_passes_total: Hydration passes by store
//   - urlstate_inbound_duration_seconds: Hydration duration histogram
//   - urlstate_params_applied_total: URL parameters applied to fields
//   - urlstate_params_recovered_total: Parameters stripped during recovery, by reason
//   - urlstate_outbound_passes_total: Outbound passes by store and result
//   - urlstate_outbound_duration_seconds: Outbound pass duration histogram
//   - urlstate_active_sessions: Current number of connected sessions
//
//	metrics := middleware.Prometheus()
//	srv.OnSession(func(sess *server.Session) {
//	    mgr := querysync.NewManager(sess, querysync.WithObserver(metrics))
//	    ...
//	})
//
// Then expose the metrics endpoint:
//
//	http.Handle("/metrics", promhttp.Handler())
//	go http.ListenAndServe(":9090", nil)
//
// Session-level metrics are fed from the session manager callbacks:
//
//	srv.Sessions().SetOnSessionCreate(func(*server.Session) { middleware.RecordSessionCreate() })
//	srv.Sessions().SetOnSessionClose(func(*server.Session) { middleware.RecordSessionClose() })
//
// # OpenTelemetry Tracing
//
// The OpenTelemetry observer emits one span per sync pass. The engine
// reports passes after the fact, so spans are created retroactively with
// explicit start timestamps; stripped parameters appear as span events on
// the inbound span.
//
//	middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	    middleware.WithStoreFilter(func(store string) bool {
//	        return store != "debug"
//	    }),
//	)
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
package middleware
