/*
Package observability provides Prometheus instrumentation for the titration engine.

Metrics are fed through domain.Hooks, so the engine itself stays free of any
metrics dependency. Counters carry the outcome, the chosen action and class,
the kind of every active safety trigger and the reason for rejected input.
*/
package observability
