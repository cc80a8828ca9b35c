// Package metrics holds the Prometheus collectors of the transaction core.
//
// Collectors are package level and only exported once RegisterMetrics has
// been called for the service that owns them. Recording into an unregistered
// collector is harmless, so library code records unconditionally.
package metrics
