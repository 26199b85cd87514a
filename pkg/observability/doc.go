/*
Package observability provides lifecycle-hook consumers for the Arbor engine.

Metrics exports Prometheus counters and histograms for runs and nodes.
Tracker keeps a live, per-execution view of node statuses that surfaces such
as the HTTP API can poll. Both expose Hooks, which compose through
domain.ChainHooks.
*/
package observability
