/*
Package observability provides tools for monitoring the arbor engine.

It exposes Prometheus collectors as lifecycle hooks, so any engine can be
instrumented by merging Metrics.Hooks into its hook chain. The HTTP adapter
serves the collected series on /metrics.
*/
package observability
