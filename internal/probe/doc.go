// Package probe supplies point-in-time snapshots of running processes and
// listening ports for exception cross-referencing.
//
// Every call re-probes the live system; no caching is performed.
package probe
