/*
Package observability provides event-based monitoring for the Stagehand engine.

The router, the restore engine and the viewport emit Events through an
Observer injected at construction time; there is no process-wide metrics
singleton. Observers fan out to slog (SlogObserver), Prometheus
(PrometheusObserver) or nowhere (NoOpObserver).
*/
package observability
